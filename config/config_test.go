package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TOKEN", "abc")
	t.Setenv("COMMAND_PREFIX", "")
	t.Setenv("DEFAULT_VOLUME", "")
	t.Setenv("URI", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Discord.Prefix != "?" {
		t.Errorf("Prefix = %q; want %q", cfg.Discord.Prefix, "?")
	}
	if cfg.Options.DefaultVolume != 30 {
		t.Errorf("DefaultVolume = %d; want 30", cfg.Options.DefaultVolume)
	}
	if cfg.Lavalink.URI != "http://localhost:2333" {
		t.Errorf("URI = %q; want default", cfg.Lavalink.URI)
	}
	if cfg.Options.SearchPrefix != "ytsearch" {
		t.Errorf("SearchPrefix = %q; want ytsearch", cfg.Options.SearchPrefix)
	}
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("TOKEN", "")
	if _, err := Load(); err == nil {
		t.Error("Load() error = nil; want error when TOKEN is missing")
	}
}

func TestLoadInvalidNumber(t *testing.T) {
	t.Setenv("TOKEN", "abc")
	t.Setenv("DEFAULT_VOLUME", "loud")
	if _, err := Load(); err == nil {
		t.Error("Load() error = nil; want parse error")
	}
}

func TestClampVolume(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"zero", 0, 30},
		{"negative", -5, 30},
		{"min", 1, 1},
		{"default", 30, 30},
		{"max", 100, 100},
		{"over", 150, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampVolume(tt.in); got != tt.want {
				t.Errorf("clampVolume(%d) = %d; want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestClampPlaylistLimit(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"zero", 0, 10},
		{"negative", -10, 10},
		{"min", 1, 1},
		{"mid", 25, 25},
		{"max", 50, 50},
		{"over", 51, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampPlaylistLimit(tt.in, 10); got != tt.want {
				t.Errorf("clampPlaylistLimit(%d) = %d; want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestPlaylistLimitFromEnv(t *testing.T) {
	t.Setenv("TOKEN", "abc")
	t.Setenv("SPOTIFY_PLAYLIST_LIMIT", "80")
	t.Setenv("APPLE_MUSIC_PLAYLIST_LIMIT", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Spotify.PlaylistLimit != 50 {
		t.Errorf("Spotify.PlaylistLimit = %d; want 50", cfg.Spotify.PlaylistLimit)
	}
	if cfg.AppleMusic.PlaylistLimit != 15 {
		t.Errorf("AppleMusic.PlaylistLimit = %d; want 15", cfg.AppleMusic.PlaylistLimit)
	}
}

func TestNodeAddress(t *testing.T) {
	tests := []struct {
		name       string
		uri        string
		wantAddr   string
		wantSecure bool
		wantErr    bool
	}{
		{"http with port", "http://localhost:2333", "localhost:2333", false, false},
		{"https with port", "https://lava.example.com:443", "lava.example.com:443", true, false},
		{"https default port", "https://lava.example.com", "lava.example.com:443", true, false},
		{"http default port", "http://lava.internal", "lava.internal:2333", false, false},
		{"ws scheme", "ws://10.0.0.2:2333", "10.0.0.2:2333", false, false},
		{"bare host port", "lavalink:2333", "lavalink:2333", false, false},
		{"bare host no port", "lavalink", "", false, true},
		{"empty", "", "", false, true},
		{"bad scheme", "ftp://lavalink:21", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := LavalinkConfig{URI: tt.uri}
			addr, secure, err := l.NodeAddress()
			if (err != nil) != tt.wantErr {
				t.Fatalf("NodeAddress() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if addr != tt.wantAddr || secure != tt.wantSecure {
				t.Errorf("NodeAddress() = (%q, %t); want (%q, %t)", addr, secure, tt.wantAddr, tt.wantSecure)
			}
		})
	}
}

func TestSpotifyIsEnabled(t *testing.T) {
	s := SpotifyConfig{Enabled: true}
	if s.IsEnabled() {
		t.Error("IsEnabled() = true without credentials")
	}
	s.ClientID, s.ClientSecret = "id", "secret"
	if !s.IsEnabled() {
		t.Error("IsEnabled() = false with credentials")
	}
}

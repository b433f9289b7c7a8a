package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
)

type ConfigStruct struct {
	Discord    DiscordConfig
	Lavalink   LavalinkConfig
	Options    Options
	Spotify    SpotifyConfig
	AppleMusic AppleMusicConfig
	Sentry     SentryConfig
	Database   DatabaseConfig
}

type DiscordConfig struct {
	BotToken    string `env:"TOKEN"`
	Prefix      string `env:"COMMAND_PREFIX" envDefault:"?"`
	SyncOnStart bool   `env:"SYNC_COMMANDS_ON_START"`
}

type LavalinkConfig struct {
	URI      string `env:"URI" envDefault:"http://localhost:2333"`
	Password string `env:"PASSWORD"`
	NodeName string `env:"LAVALINK_NODE_NAME" envDefault:"main"`
}

type Options struct {
	Port              string `env:"PORT" envDefault:"8080"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	DefaultVolume     int    `env:"DEFAULT_VOLUME" envDefault:"30"`
	SearchPrefix      string `env:"SEARCH_PREFIX" envDefault:"ytsearch"`
	PlayRatePerMinute int    `env:"PLAY_RATE_PER_MINUTE" envDefault:"20"`
}

type SpotifyConfig struct {
	ClientID      string `env:"SPOTIFY_CLIENT_ID"`
	ClientSecret  string `env:"SPOTIFY_CLIENT_SECRET"`
	Enabled       bool   `env:"SPOTIFY_ENABLED"`
	PlaylistLimit int    `env:"SPOTIFY_PLAYLIST_LIMIT" envDefault:"10"`
}

type AppleMusicConfig struct {
	Enabled       bool `env:"APPLE_MUSIC_ENABLED"`
	PlaylistLimit int  `env:"APPLE_MUSIC_PLAYLIST_LIMIT" envDefault:"15"`
}

type SentryConfig struct {
	DSN     string `env:"SENTRY_DSN"`
	Release string `env:"RELEASE"`
}

type DatabaseConfig struct {
	Path string `env:"DB_PATH" envDefault:"data/wavebot.db"`
}

func (s *SpotifyConfig) IsEnabled() bool {
	return s.Enabled && s.ClientID != "" && s.ClientSecret != ""
}

func (s *SentryConfig) IsEnabled() bool {
	return s.DSN != ""
}

// NodeAddress splits URI into the host:port pair and TLS flag the node client expects.
// A bare "host:port" is accepted as plain-text.
func (l *LavalinkConfig) NodeAddress() (string, bool, error) {
	raw := strings.TrimSpace(l.URI)
	if raw == "" {
		return "", false, errors.New("lavalink URI is empty")
	}

	if !strings.Contains(raw, "://") {
		if _, _, err := net.SplitHostPort(raw); err != nil {
			return "", false, fmt.Errorf("invalid lavalink address %q: %w", raw, err)
		}
		return raw, false, nil
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("invalid lavalink URI %q: %w", raw, err)
	}

	var secure bool
	switch parsed.Scheme {
	case "http", "ws":
	case "https", "wss":
		secure = true
	default:
		return "", false, fmt.Errorf("unsupported lavalink URI scheme %q", parsed.Scheme)
	}

	host := parsed.Host
	if parsed.Port() == "" {
		if secure {
			host = net.JoinHostPort(parsed.Hostname(), "443")
		} else {
			host = net.JoinHostPort(parsed.Hostname(), "2333")
		}
	}
	return host, secure, nil
}

// Load parses the environment. godotenv is expected to have run already.
func Load() (*ConfigStruct, error) {
	config := &ConfigStruct{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	config.Options.DefaultVolume = clampVolume(config.Options.DefaultVolume)
	config.Options.PlayRatePerMinute = clampRate(config.Options.PlayRatePerMinute)
	config.Spotify.PlaylistLimit = clampPlaylistLimit(config.Spotify.PlaylistLimit, 10)
	config.AppleMusic.PlaylistLimit = clampPlaylistLimit(config.AppleMusic.PlaylistLimit, 15)
	if config.Discord.Prefix == "" {
		config.Discord.Prefix = "?"
	}

	if config.Discord.BotToken == "" {
		return nil, errors.New("TOKEN must be set")
	}

	return config, nil
}

func clampVolume(volume int) int {
	if volume <= 0 {
		return 30
	}
	if volume > 100 {
		return 100
	}
	return volume
}

func clampRate(perMinute int) int {
	if perMinute <= 0 {
		return 20
	}
	if perMinute > 120 {
		return 120
	}
	return perMinute
}

func clampPlaylistLimit(limit int, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 50 {
		return 50 // more than this and a playlist link turns into a search storm
	}
	return limit
}

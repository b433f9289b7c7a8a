package discord

import (
	"strings"
	"testing"
	"time"

	"wavebot/audio"
	"wavebot/controller"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{
			name:     "zero",
			duration: 0,
			want:     "0:00",
		},
		{
			name:     "30 seconds",
			duration: 30 * time.Second,
			want:     "0:30",
		},
		{
			name:     "1 minute",
			duration: 60 * time.Second,
			want:     "1:00",
		},
		{
			name:     "1 minute 30 seconds",
			duration: 90 * time.Second,
			want:     "1:30",
		},
		{
			name:     "59 minutes 59 seconds",
			duration: 59*time.Minute + 59*time.Second,
			want:     "59:59",
		},
		{
			name:     "1 hour",
			duration: 60 * time.Minute,
			want:     "1:00:00",
		},
		{
			name:     "1 hour 30 minutes 45 seconds",
			duration: 1*time.Hour + 30*time.Minute + 45*time.Second,
			want:     "1:30:45",
		},
		{
			name:     "10 hours",
			duration: 10 * time.Hour,
			want:     "10:00:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatDuration(tt.duration)
			if got != tt.want {
				t.Errorf("FormatDuration() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractArtistFromTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			name:  "standard format",
			title: "Rick Astley - Never Gonna Give You Up",
			want:  "Rick Astley",
		},
		{
			name:  "with official video",
			title: "Queen - Bohemian Rhapsody (Official Video)",
			want:  "Queen",
		},
		{
			name:  "with official music video",
			title: "The Weeknd - Blinding Lights (Official Music Video)",
			want:  "The Weeknd",
		},
		{
			name:  "with lyrics",
			title: "Ed Sheeran - Shape of You (Lyrics)",
			want:  "Ed Sheeran",
		},
		{
			name:  "with brackets",
			title: "Imagine Dragons - Radioactive [Official Music Video]",
			want:  "Imagine Dragons",
		},
		{
			name:  "single word title",
			title: "Despacito",
			want:  "Despacito",
		},
		{
			name:  "no separator",
			title: "Some Random Video Title",
			want:  "Some Random Video Title",
		},
		{
			name:  "with featuring",
			title: "Dua Lipa ft. DaBaby - Levitating",
			want:  "Dua Lipa",
		},
		{
			name:  "with feat",
			title: "Drake feat. Rihanna - Take Care",
			want:  "Drake",
		},
		{
			name:  "multiple suffixes",
			title: "Adele - Hello (Official Video) (Lyrics)",
			want:  "Adele",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractArtistFromTitle(tt.title)
			if got != tt.want {
				t.Errorf("ExtractArtistFromTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildNowPlayingEmbed(t *testing.T) {
	n := controller.Notification{
		GuildID:    "123456789",
		ChannelID:  "555",
		Title:      "Never Gonna Give You Up",
		Author:     "Rick Astley",
		URI:        "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		ArtworkURL: "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
		Length:     3*time.Minute + 32*time.Second,
	}

	embed := BuildNowPlayingEmbed(n)

	if embed.Title != "Now Playing" {
		t.Errorf("Expected title %q, got %q", "Now Playing", embed.Title)
	}
	if embed.URL != n.URI {
		t.Errorf("Expected URL %q, got %q", n.URI, embed.URL)
	}
	if embed.Description != "**Never Gonna Give You Up** by `Rick Astley`" {
		t.Errorf("Unexpected description %q", embed.Description)
	}
	if embed.Thumbnail == nil || embed.Thumbnail.URL != n.ArtworkURL {
		t.Errorf("Expected thumbnail %q, got %v", n.ArtworkURL, embed.Thumbnail)
	}
	if len(embed.Fields) != 1 || embed.Fields[0].Value != "3:32" {
		t.Errorf("Expected a single 3:32 duration field, got %v", embed.Fields)
	}
	if embed.Footer != nil {
		t.Errorf("Expected no footer for a queued track, got %q", embed.Footer.Text)
	}
}

func TestBuildNowPlayingEmbedOptionalParts(t *testing.T) {
	n := controller.Notification{
		Title:          "Daft Punk - One More Time (Official Video)",
		Album:          "Discovery",
		IsStream:       true,
		RecommendedVia: "youtube",
	}

	embed := BuildNowPlayingEmbed(n)

	if !strings.Contains(embed.Description, "`Daft Punk`") {
		t.Errorf("Expected artist parsed from title, got %q", embed.Description)
	}
	if embed.Thumbnail != nil {
		t.Error("Expected no thumbnail without artwork")
	}
	if embed.Fields[0].Value != "🔴 Live" {
		t.Errorf("Expected live duration, got %q", embed.Fields[0].Value)
	}
	foundAlbum := false
	for _, field := range embed.Fields {
		if field.Name == "Album" && field.Value == "Discovery" {
			foundAlbum = true
		}
	}
	if !foundAlbum {
		t.Error("Expected an album field")
	}
	if embed.Footer == nil || embed.Footer.Text != "This track was recommended via youtube" {
		t.Errorf("Expected recommendation footer, got %v", embed.Footer)
	}
}

func TestBuildQueueEmbed(t *testing.T) {
	current := &audio.Track{Title: "Now", URI: "https://youtu.be/now", Length: time.Minute}
	pending := []audio.Track{
		{Title: "One", Length: 2 * time.Minute},
		{Title: "Two", IsStream: true},
		{Title: "Three"},
	}

	embed := BuildQueueEmbed(current, pending, 2)

	for _, want := range []string{"**Now:** [Now](https://youtu.be/now) `1:00`", "1. One `2:00`", "2. Two `🔴 Live`", "…and 1 more"} {
		if !strings.Contains(embed.Description, want) {
			t.Errorf("Expected description to contain %q, got %q", want, embed.Description)
		}
	}

	empty := BuildQueueEmbed(nil, nil, 10)
	if empty.Description != "The queue is empty." {
		t.Errorf("Unexpected empty queue description %q", empty.Description)
	}
}

package audio

import (
	"encoding/json"
	"time"

	"github.com/disgoorg/disgolink/v3/lavalink"
)

// AutoplayMode decides what happens once the current track ends.
type AutoplayMode int

const (
	// AutoplayDisabled leaves the player idle after every track.
	AutoplayDisabled AutoplayMode = iota
	// AutoplayPartial advances through the queue but never fetches recommendations.
	AutoplayPartial
	// AutoplayEnabled advances through the queue and keeps going with recommendations.
	AutoplayEnabled
)

func (m AutoplayMode) String() string {
	switch m {
	case AutoplayPartial:
		return "partial"
	case AutoplayEnabled:
		return "enabled"
	default:
		return "disabled"
	}
}

// Timescale mirrors the node's timescale filter.
type Timescale struct {
	Pitch float64
	Speed float64
	Rate  float64
}

type Track struct {
	Encoded     string
	Identifier  string
	Title       string
	Author      string
	URI         string
	ArtworkURL  string
	AlbumName   string
	SourceName  string
	Length      time.Duration
	IsStream    bool
	Recommended bool

	raw lavalink.Track
}

func (t Track) String() string {
	if t.Author == "" {
		return t.Title
	}
	return t.Title + " - " + t.Author
}

type trackPluginInfo struct {
	AlbumName string `json:"albumName"`
}

func newTrack(t lavalink.Track) Track {
	track := Track{
		Encoded:    t.Encoded,
		Identifier: t.Info.Identifier,
		Title:      t.Info.Title,
		Author:     t.Info.Author,
		SourceName: t.Info.SourceName,
		Length:     time.Duration(t.Info.Length) * time.Millisecond,
		IsStream:   t.Info.IsStream,
		raw:        t,
	}
	if t.Info.URI != nil {
		track.URI = *t.Info.URI
	}
	if t.Info.ArtworkURL != nil {
		track.ArtworkURL = *t.Info.ArtworkURL
	}

	// album names only show up when the node runs a source plugin like LavaSrc
	if len(t.PluginInfo) > 0 {
		var info trackPluginInfo
		if err := json.Unmarshal([]byte(t.PluginInfo), &info); err == nil {
			track.AlbumName = info.AlbumName
		}
	}
	return track
}

func newTracks(tracks []lavalink.Track) []Track {
	out := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, newTrack(t))
	}
	return out
}

// SearchResult is either a playlist (PlaylistName set) or a list of candidate tracks.
type SearchResult struct {
	PlaylistName string
	Tracks       []Track
}

func (r SearchResult) IsPlaylist() bool {
	return r.PlaylistName != ""
}

func (r SearchResult) Empty() bool {
	return len(r.Tracks) == 0
}

type PlaybackNotificationType string

const (
	PlaybackStarted      PlaybackNotificationType = "started"
	PlaybackCompleted    PlaybackNotificationType = "completed"
	PlaybackQueueEnded   PlaybackNotificationType = "queue_ended"
	PlaybackError        PlaybackNotificationType = "error"
	PlaybackDisconnected PlaybackNotificationType = "disconnected"
)

type PlaybackNotification struct {
	Event   PlaybackNotificationType
	GuildID string
	// ChannelID is the voice channel of the connection a disconnected event is about.
	ChannelID string
	Track     *Track
	Error     error
}

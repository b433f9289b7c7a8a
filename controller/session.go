package controller

import (
	"context"
	"sync"
	"time"

	"wavebot/audio"
)

// Handle is the remote-controlled player for one guild's voice connection.
type Handle interface {
	Queue() *audio.Queue
	SetAutoplay(mode audio.AutoplayMode)
	Playing() bool
	Current() *audio.Track
	Paused() bool
	Play(ctx context.Context, track audio.Track, volume int) error
	Pause(ctx context.Context, paused bool) error
	Skip(ctx context.Context, force bool) (*audio.Track, error)
	SetVolume(ctx context.Context, volume int) error
	SetTimescale(ctx context.Context, ts audio.Timescale) error
	Disconnect(ctx context.Context) error
}

type FilterState struct {
	Pitch float64 `json:"pitch"`
	Speed float64 `json:"speed"`
	Rate  float64 `json:"rate"`
}

var (
	DefaultFilters   = FilterState{Pitch: 1.0, Speed: 1.0, Rate: 1.0}
	NightcoreFilters = FilterState{Pitch: 1.2, Speed: 1.2, Rate: 1.0}
)

func (f FilterState) valid() bool {
	return f.Pitch > 0 && f.Speed > 0 && f.Rate > 0
}

func (f FilterState) timescale() audio.Timescale {
	return audio.Timescale{Pitch: f.Pitch, Speed: f.Speed, Rate: f.Rate}
}

// Session is one guild's voice channel engagement.
type Session struct {
	GuildID   string
	CreatedAt time.Time

	// held for the whole of a command so one guild's commands apply in arrival order
	commandMutex sync.Mutex

	mutex    sync.RWMutex
	joining  string
	home     *string
	handle   Handle
	autoplay audio.AutoplayMode
	filters  FilterState
}

func newSession(guildID, channelID string) *Session {
	return &Session{
		GuildID:   guildID,
		CreatedAt: time.Now(),
		joining:   channelID,
		filters:   DefaultFilters,
	}
}

// HomeChannel reports the channel the session is locked to. ok is false until
// the first join has succeeded.
func (s *Session) HomeChannel() (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.home == nil {
		return "", false
	}
	return *s.home, true
}

// bind attaches the connected handle and locks the home channel. It only ever
// succeeds once.
func (s *Session) bind(channelID string, handle Handle) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.home != nil {
		return false
	}
	s.home = &channelID
	s.handle = handle
	s.joining = ""
	return true
}

// channel is the home channel, or the channel being joined.
func (s *Session) channel() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.home != nil {
		return *s.home
	}
	return s.joining
}

func (s *Session) Handle() Handle {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.handle
}

func (s *Session) Autoplay() audio.AutoplayMode {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.autoplay
}

func (s *Session) setAutoplay(mode audio.AutoplayMode) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.autoplay = mode
}

func (s *Session) Filters() FilterState {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.filters
}

func (s *Session) setFilters(f FilterState) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.filters = f
}

type SessionInfo struct {
	GuildID       string      `json:"guildId"`
	HomeChannelID string      `json:"homeChannelId,omitempty"`
	Autoplay      string      `json:"autoplay"`
	Filters       FilterState `json:"filters"`
	NowPlaying    string      `json:"nowPlaying,omitempty"`
	Paused        bool        `json:"paused"`
	QueueLength   int         `json:"queueLength"`
	CreatedAt     time.Time   `json:"createdAt"`
}

func (s *Session) Info() SessionInfo {
	info := SessionInfo{
		GuildID:   s.GuildID,
		Autoplay:  s.Autoplay().String(),
		Filters:   s.Filters(),
		CreatedAt: s.CreatedAt,
	}
	if home, ok := s.HomeChannel(); ok {
		info.HomeChannelID = home
	}
	if handle := s.Handle(); handle != nil {
		if current := handle.Current(); current != nil {
			info.NowPlaying = current.String()
		}
		info.Paused = handle.Paused()
		info.QueueLength = handle.Queue().Len()
	}
	return info
}

package controller

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"wavebot/audio"
	"wavebot/sentryhelper"
)

// Caller identifies who issued a command and where.
type Caller struct {
	GuildID string
	UserID  string
}

// ConnectFunc joins channelID and returns the connected handle.
type ConnectFunc func(ctx context.Context, guildID, channelID string) (Handle, error)

type Searcher interface {
	Search(ctx context.Context, query string) (audio.SearchResult, error)
}

type VoiceLocator interface {
	// UserVoiceChannel reports the voice channel userID is connected to in guildID.
	UserVoiceChannel(guildID, userID string) (string, bool)
}

type PlayResult struct {
	PlaylistName string
	Tracks       []audio.Track
	Started      *audio.Track
	Created      bool
}

type QueueSnapshot struct {
	Current  *audio.Track
	Pending  []audio.Track
	Autoplay audio.AutoplayMode
}

// Router validates commands against session state and applies them. Legacy
// and slash commands both end up here.
type Router struct {
	registry      *Registry
	connect       ConnectFunc
	search        Searcher
	voice         VoiceLocator
	defaultVolume int
	logger        *log.Entry
}

func NewRouter(registry *Registry, connect ConnectFunc, search Searcher, voice VoiceLocator, defaultVolume int) *Router {
	return &Router{
		registry:      registry,
		connect:       connect,
		search:        search,
		voice:         voice,
		defaultVolume: defaultVolume,
		logger: log.WithFields(log.Fields{
			"module": "router",
		}),
	}
}

func (r *Router) callerChannel(caller Caller) (string, error) {
	channelID, ok := r.voice.UserVoiceChannel(caller.GuildID, caller.UserID)
	if !ok {
		return "", ErrNotInVoiceChannel
	}
	return channelID, nil
}

// validate re-checks that session is still registered and locked to channelID.
// An empty channelID skips the channel check.
func (r *Router) validate(session *Session, channelID string) error {
	if !r.registry.active(session) {
		return ErrNoActiveSession
	}
	home, ok := session.HomeChannel()
	if !ok {
		return ErrNoActiveSession
	}
	if channelID != "" && home != channelID {
		return &WrongChannelError{HomeChannelID: home}
	}
	return nil
}

// acquire runs the common precondition chain and returns the session locked
// for this command. The caller must call release.
func (r *Router) acquire(caller Caller, needVoice bool) (session *Session, release func(), err error) {
	var channelID string
	if needVoice {
		if channelID, err = r.callerChannel(caller); err != nil {
			return nil, nil, err
		}
	}

	session = r.registry.Get(caller.GuildID)
	if session == nil {
		return nil, nil, ErrNoActiveSession
	}

	session.commandMutex.Lock()
	if err := r.validate(session, channelID); err != nil {
		session.commandMutex.Unlock()
		return nil, nil, err
	}
	return session, session.commandMutex.Unlock, nil
}

// Play queues whatever query resolves to, joining the caller's channel first
// when the guild has no session.
func (r *Router) Play(ctx context.Context, caller Caller, query string, autoplay bool) (*PlayResult, error) {
	logger := r.logger.WithFields(log.Fields{
		"method":  "Play",
		"guildID": caller.GuildID,
	})

	channelID, err := r.callerChannel(caller)
	if err != nil {
		return nil, err
	}

	session, created, err := r.registry.CreateIfAbsent(caller.GuildID, channelID)
	if errors.Is(err, ErrAlreadyActiveElsewhere) {
		return nil, &WrongChannelError{HomeChannelID: session.channel()}
	}
	if err != nil {
		return nil, err
	}

	session.commandMutex.Lock()
	defer session.commandMutex.Unlock()

	if created {
		handle, err := r.connect(ctx, caller.GuildID, channelID)
		if err != nil {
			r.registry.RemoveSession(session)
			sentryhelper.CaptureException(ctx, err)
			logger.Errorf("failed to join voice channel %s: %v", channelID, err)
			return nil, remote("connect", err)
		}
		session.bind(channelID, handle)
		logger.Debugf("session locked to voice channel %s", channelID)
	}

	if err := r.validate(session, channelID); err != nil {
		return nil, err
	}

	result, err := r.search.Search(ctx, query)
	if err != nil {
		sentryhelper.CaptureException(ctx, err)
		return nil, remote("search", err)
	}
	if result.Empty() {
		return nil, ErrNoSearchResults
	}

	// the search may have taken a while
	if err := r.validate(session, channelID); err != nil {
		logger.Debugf("session went away while searching for %q", query)
		return nil, err
	}

	mode := audio.AutoplayPartial
	if autoplay {
		mode = audio.AutoplayEnabled
	}
	handle := session.Handle()
	handle.SetAutoplay(mode)
	session.setAutoplay(mode)

	added := handle.Queue().PutMany(result.Tracks)
	logger.Tracef("queued %d tracks", added)

	play := &PlayResult{
		PlaylistName: result.PlaylistName,
		Tracks:       result.Tracks,
		Created:      created,
	}

	if !handle.Playing() {
		next, ok := handle.Queue().Get()
		if ok {
			if err := handle.Play(ctx, next, r.defaultVolume); err != nil {
				sentryhelper.CaptureException(ctx, err)
				return nil, remote("play", err)
			}
			play.Started = &next
		}
	}

	return play, nil
}

// Skip returns the track that was skipped.
func (r *Router) Skip(ctx context.Context, caller Caller, force bool) (*audio.Track, error) {
	session, release, err := r.acquire(caller, true)
	if err != nil {
		return nil, err
	}
	defer release()

	skipped, err := session.Handle().Skip(ctx, force)
	if err != nil {
		return nil, remote("skip", err)
	}
	return skipped, nil
}

// PauseResume flips the paused state and returns the new one.
func (r *Router) PauseResume(ctx context.Context, caller Caller) (bool, error) {
	session, release, err := r.acquire(caller, true)
	if err != nil {
		return false, err
	}
	defer release()

	handle := session.Handle()
	paused := !handle.Paused()
	if err := handle.Pause(ctx, paused); err != nil {
		return false, remote("pause", err)
	}
	return paused, nil
}

// SetVolume does not range check; the node decides what it accepts.
func (r *Router) SetVolume(ctx context.Context, caller Caller, volume int) error {
	session, release, err := r.acquire(caller, true)
	if err != nil {
		return err
	}
	defer release()

	return remote("volume", session.Handle().SetVolume(ctx, volume))
}

func (r *Router) SetFilter(ctx context.Context, caller Caller, filters FilterState) error {
	if !filters.valid() {
		return ErrInvalidFilter
	}

	session, release, err := r.acquire(caller, true)
	if err != nil {
		return err
	}
	defer release()

	if err := session.Handle().SetTimescale(ctx, filters.timescale()); err != nil {
		return remote("filter", err)
	}
	session.setFilters(filters)
	return nil
}

func (r *Router) Nightcore(ctx context.Context, caller Caller) error {
	return r.SetFilter(ctx, caller, NightcoreFilters)
}

func (r *Router) ResetFilter(ctx context.Context, caller Caller) error {
	return r.SetFilter(ctx, caller, DefaultFilters)
}

// Disconnect tears the session down. The session is removed even when the
// node or the gateway fail; that failure is still returned.
func (r *Router) Disconnect(ctx context.Context, caller Caller) error {
	session, release, err := r.acquire(caller, false)
	if err != nil {
		return err
	}
	defer release()

	return remote("disconnect", teardown(ctx, r.registry, session))
}

// NowPlaying reports the current track, or the next one up when the player is idle.
func (r *Router) NowPlaying(ctx context.Context, caller Caller) (*audio.Track, error) {
	session, release, err := r.acquire(caller, false)
	if err != nil {
		return nil, err
	}
	defer release()

	handle := session.Handle()
	if current := handle.Current(); current != nil {
		return current, nil
	}
	if next, ok := handle.Queue().Peek(); ok {
		return &next, nil
	}
	return nil, ErrNothingPlaying
}

func (r *Router) Queue(ctx context.Context, caller Caller) (*QueueSnapshot, error) {
	session, release, err := r.acquire(caller, false)
	if err != nil {
		return nil, err
	}
	defer release()

	handle := session.Handle()
	return &QueueSnapshot{
		Current:  handle.Current(),
		Pending:  handle.Queue().Items(),
		Autoplay: session.Autoplay(),
	}, nil
}

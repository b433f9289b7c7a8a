package controller

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"wavebot/audio"
	"wavebot/sentryhelper"
)

type Options struct {
	Connect       ConnectFunc
	Search        Searcher
	Voice         VoiceLocator
	Deliverer     Deliverer
	Recorder      Recorder
	DefaultVolume int
}

// Controller owns the session registry and everything that reads or writes it.
type Controller struct {
	Registry *Registry
	Router   *Router
	Notifier *Notifier
	Reaper   *Reaper
	logger   *log.Entry
}

func New(opts Options) *Controller {
	registry := NewRegistry()
	return &Controller{
		Registry: registry,
		Router:   NewRouter(registry, opts.Connect, opts.Search, opts.Voice, opts.DefaultVolume),
		Notifier: NewNotifier(registry, opts.Deliverer, opts.Recorder),
		Reaper:   NewReaper(registry),
		logger: log.WithFields(log.Fields{
			"module": "controller",
		}),
	}
}

func (c *Controller) Sessions() []SessionInfo {
	sessions := c.Registry.List()
	infos := make([]SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, session.Info())
	}
	return infos
}

func (c *Controller) Session(guildID string) (SessionInfo, bool) {
	session := c.Registry.Get(guildID)
	if session == nil {
		return SessionInfo{}, false
	}
	return session.Info(), true
}

// Shutdown disconnects every session.
func (c *Controller) Shutdown(ctx context.Context) {
	for _, session := range c.Registry.List() {
		session.commandMutex.Lock()
		if err := teardown(ctx, c.Registry, session); err != nil {
			c.logger.WithField("guildID", session.GuildID).Warnf("shutdown teardown: %v", err)
		}
		session.commandMutex.Unlock()
	}
}

// ListenForPlaybackEvents handles node events until events is closed or ctx is done.
// Events are handled one at a time.
func (c *Controller) ListenForPlaybackEvents(ctx context.Context, events <-chan audio.PlaybackNotification) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			c.handlePlaybackEvent(ctx, event)
		}
	}
}

func (c *Controller) handlePlaybackEvent(ctx context.Context, event audio.PlaybackNotification) {
	logger := c.logger.WithFields(log.Fields{
		"guildID": event.GuildID,
		"event":   event.Event,
	})
	logger.Tracef("playback event")

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic handling playback event: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	ctx, transaction := sentryhelper.StartEventTransaction(ctx, string(event.Event), event.GuildID)
	defer transaction.Finish()

	switch event.Event {
	case audio.PlaybackStarted:
		if event.Track != nil {
			c.Notifier.OnTrackStart(ctx, event.GuildID, *event.Track)
		}
	case audio.PlaybackCompleted:
		if event.Track != nil {
			logger.Debugf("finished: %s", event.Track.Title)
		}
	case audio.PlaybackQueueEnded:
		logger.Debug("queue ended, player is idle")
	case audio.PlaybackError:
		logger.Errorf("playback error: %v", event.Error)
		if event.Error != nil {
			sentryhelper.CaptureException(ctx, event.Error)
		}
		c.Notifier.OnError(event.GuildID, event.Track, event.Error)
	case audio.PlaybackDisconnected:
		c.Reaper.OnDisconnected(ctx, event.GuildID, event.ChannelID)
	default:
		logger.Warnf("Unknown playback event: %s", event.Event)
	}
}

// teardown disconnects session's handle and removes it from registry, even if
// the disconnect fails. The caller holds the session's command lock.
func teardown(ctx context.Context, registry *Registry, session *Session) error {
	var err error
	if handle := session.Handle(); handle != nil {
		err = handle.Disconnect(ctx)
	}
	registry.RemoveSession(session)
	return err
}

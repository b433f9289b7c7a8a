package controller

import (
	"context"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"wavebot/audio"
)

// Notification is a now playing message bound for a session's home channel.
type Notification struct {
	GuildID        string
	ChannelID      string
	Title          string
	Author         string
	URI            string
	ArtworkURL     string
	Album          string
	Length         time.Duration
	IsStream       bool
	RecommendedVia string
}

type Deliverer interface {
	DeliverNowPlaying(notification Notification) error
	DeliverText(channelID string, content string) error
}

type Recorder interface {
	RecordPlay(ctx context.Context, guildID string, track audio.Track) error
}

type Notifier struct {
	registry  *Registry
	deliverer Deliverer
	recorder  Recorder
	logger    *log.Entry
}

func NewNotifier(registry *Registry, deliverer Deliverer, recorder Recorder) *Notifier {
	return &Notifier{
		registry:  registry,
		deliverer: deliverer,
		recorder:  recorder,
		logger: log.WithFields(log.Fields{
			"module": "notifier",
		}),
	}
}

func newNotification(guildID, channelID string, track audio.Track) Notification {
	n := Notification{
		GuildID:    guildID,
		ChannelID:  channelID,
		Title:      track.Title,
		Author:     track.Author,
		URI:        track.URI,
		ArtworkURL: track.ArtworkURL,
		Album:      track.AlbumName,
		Length:     track.Length,
		IsStream:   track.IsStream,
	}
	if track.Recommended {
		n.RecommendedVia = track.SourceName
	}
	return n
}

// OnTrackStart announces track in the guild's home channel. It returns nil when
// the guild has no bound session and nothing was sent.
func (n *Notifier) OnTrackStart(ctx context.Context, guildID string, track audio.Track) *Notification {
	logger := n.logger.WithField("guildID", guildID)

	session := n.registry.Get(guildID)
	if session == nil {
		logger.Debugf("dropping now playing for %s: no session", track.Title)
		return nil
	}
	channelID, ok := session.HomeChannel()
	if !ok {
		logger.Warnf("dropping now playing for %s: session has no home channel", track.Title)
		return nil
	}

	if n.recorder != nil {
		if err := n.recorder.RecordPlay(ctx, guildID, track); err != nil {
			logger.Errorf("failed to record play of %s: %v", track.Title, err)
		}
	}

	notification := newNotification(guildID, channelID, track)
	if err := n.deliverer.DeliverNowPlaying(notification); err != nil {
		sentry.CaptureException(err)
		logger.Errorf("failed to deliver now playing to %s: %v", channelID, err)
	}
	return &notification
}

// OnError tells the home channel that playback failed.
func (n *Notifier) OnError(guildID string, track *audio.Track, playErr error) {
	logger := n.logger.WithField("guildID", guildID)

	session := n.registry.Get(guildID)
	if session == nil {
		return
	}
	channelID, ok := session.HomeChannel()
	if !ok {
		return
	}

	msg := "Something went wrong while playing"
	if track != nil && track.Title != "" {
		msg += " **" + track.Title + "**"
	}
	if playErr != nil {
		msg += "\nError: " + playErr.Error()
	}
	if err := n.deliverer.DeliverText(channelID, msg); err != nil {
		logger.Errorf("failed to deliver playback error to %s: %v", channelID, err)
	}
}

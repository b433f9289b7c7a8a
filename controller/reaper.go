package controller

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Reaper tears sessions down when their voice channel empties or the voice
// connection goes away. It only reacts to events; nothing polls.
type Reaper struct {
	registry *Registry
	logger   *log.Entry
}

func NewReaper(registry *Registry) *Reaper {
	return &Reaper{
		registry: registry,
		logger: log.WithFields(log.Fields{
			"module": "reaper",
		}),
	}
}

// OnMembershipChange is called with the number of humans left in channelID.
// It reports whether a session was torn down.
func (r *Reaper) OnMembershipChange(ctx context.Context, guildID, channelID string, humans int) bool {
	if humans > 0 || channelID == "" {
		return false
	}
	session := r.registry.Get(guildID)
	if session == nil || session.channel() != channelID {
		return false
	}

	session.commandMutex.Lock()
	defer session.commandMutex.Unlock()
	if !r.registry.active(session) {
		return false
	}

	r.logger.WithField("guildID", guildID).Infof("voice channel %s is empty, disconnecting", channelID)
	if err := teardown(ctx, r.registry, session); err != nil {
		r.logger.WithField("guildID", guildID).Warnf("teardown after empty channel: %v", err)
	}
	return true
}

// OnDisconnected is called when the bot lost its voice connection to channelID
// in guildID. Only a session bound to that channel is removed, so a late event
// from an earlier connection leaves a newer session alone.
func (r *Reaper) OnDisconnected(ctx context.Context, guildID, channelID string) bool {
	session := r.registry.Get(guildID)
	if session == nil {
		return false
	}
	home, bound := session.HomeChannel()
	if !bound || channelID == "" {
		return false
	}
	if home != channelID {
		r.logger.WithField("guildID", guildID).Debugf("ignoring disconnect from %s, session is in %s", channelID, home)
		return false
	}

	session.commandMutex.Lock()
	defer session.commandMutex.Unlock()
	if !r.registry.active(session) {
		return false
	}

	r.logger.WithField("guildID", guildID).Info("voice connection closed, removing session")
	if err := teardown(ctx, r.registry, session); err != nil {
		r.logger.WithField("guildID", guildID).Debugf("teardown after disconnect: %v", err)
	}
	return true
}

package handlers

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const voiceEventTimeout = 10 * time.Second

type voiceForwarder interface {
	OnVoiceStateUpdate(ctx context.Context, state *discordgo.VoiceState)
	OnVoiceServerUpdate(ctx context.Context, update *discordgo.VoiceServerUpdate)
}

type idleReaper interface {
	OnMembershipChange(ctx context.Context, guildID, channelID string, humans int) bool
	OnDisconnected(ctx context.Context, guildID, channelID string) bool
}

type voiceCache interface {
	UserVoiceChannel(guildID, userID string) (string, bool)
	CountHumans(guildID, channelID string) int
}

// VoiceHandler feeds the bot's own voice updates to the audio engine and
// membership changes to the idle reaper.
type VoiceHandler struct {
	engine voiceForwarder
	reaper idleReaper
	voice  voiceCache
	logger *log.Entry
}

func NewVoiceHandler(engine voiceForwarder, reaper idleReaper, voice voiceCache) *VoiceHandler {
	return &VoiceHandler{
		engine: engine,
		reaper: reaper,
		voice:  voice,
		logger: log.WithFields(log.Fields{
			"module": "voice",
		}),
	}
}

func (h *VoiceHandler) OnVoiceStateUpdate(s *discordgo.Session, update *discordgo.VoiceStateUpdate) {
	if s.State == nil || s.State.User == nil {
		return
	}
	h.handleVoiceState(s.State.User.ID, update)
}

func (h *VoiceHandler) OnVoiceServerUpdate(_ *discordgo.Session, update *discordgo.VoiceServerUpdate) {
	ctx, cancel := context.WithTimeout(context.Background(), voiceEventTimeout)
	defer cancel()
	h.engine.OnVoiceServerUpdate(ctx, update)
}

func (h *VoiceHandler) handleVoiceState(botID string, update *discordgo.VoiceStateUpdate) {
	if update == nil || update.VoiceState == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), voiceEventTimeout)
	defer cancel()

	state := update.VoiceState
	if state.UserID == botID {
		// reap before forwarding: the node client blocks on destroying its player
		if state.ChannelID == "" {
			h.onBotLeft(ctx, botID, update)
		}
		h.engine.OnVoiceStateUpdate(ctx, state)
		return
	}

	// Check the channel the bot sits in plus the one the member just left.
	channels := make([]string, 0, 2)
	if channelID, ok := h.voice.UserVoiceChannel(state.GuildID, botID); ok {
		channels = append(channels, channelID)
	}
	if before := update.BeforeUpdate; before != nil && before.ChannelID != "" && before.ChannelID != state.ChannelID {
		if len(channels) == 0 || channels[0] != before.ChannelID {
			channels = append(channels, before.ChannelID)
		}
	}

	for _, channelID := range channels {
		humans := h.voice.CountHumans(state.GuildID, channelID)
		if h.reaper.OnMembershipChange(ctx, state.GuildID, channelID, humans) {
			h.logger.WithFields(log.Fields{
				"guildID":   state.GuildID,
				"channelID": channelID,
			}).Info("Voice channel empty, session removed")
			return
		}
	}
}

// onBotLeft removes the session of the channel the bot just left. The update is
// stale when the cache already shows the bot back in voice.
func (h *VoiceHandler) onBotLeft(ctx context.Context, botID string, update *discordgo.VoiceStateUpdate) {
	guildID := update.GuildID
	if channelID, ok := h.voice.UserVoiceChannel(guildID, botID); ok && channelID != "" {
		return
	}
	if update.BeforeUpdate == nil {
		return
	}
	if h.reaper.OnDisconnected(ctx, guildID, update.BeforeUpdate.ChannelID) {
		h.logger.WithField("guildID", guildID).Info("Left voice, session removed")
	}
}

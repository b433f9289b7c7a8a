package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"wavebot/controller"
	"wavebot/discord"
)

const (
	ackEmoji       = "✅"
	commandTimeout = 60 * time.Second
)

type messageAPI interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
}

type interactionAPI interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseDelete(interaction *discordgo.Interaction, options ...discordgo.RequestOption) error
}

// OnMessageCreate handles legacy prefix commands.
func (m *Manager) OnMessageCreate(s *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author == nil || msg.Author.Bot || msg.GuildID == "" {
		return
	}

	admin := func() bool {
		perms, err := s.State.UserChannelPermissions(msg.Author.ID, msg.ChannelID)
		return err == nil && perms&discordgo.PermissionAdministrator != 0
	}
	m.handleMessage(s, msg.Message, admin)
}

func (m *Manager) handleMessage(api messageAPI, msg *discordgo.Message, admin func() bool) {
	caller := controller.Caller{GuildID: msg.GuildID, UserID: msg.Author.ID}
	cmd, err := ParsePrefixCommand(m.prefix, msg.Content, caller)

	var usage *UsageError
	switch {
	case errors.Is(err, errNotACommand):
		return
	case errors.As(err, &usage):
		m.sendLegacy(api, msg, Reply{Content: "Usage: `" + usage.Usage + "`"})
		return
	}
	if cmd.Name == "sync" {
		cmd.Admin = admin()
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	m.sendLegacy(api, msg, m.dispatch(ctx, cmd))
}

func (m *Manager) sendLegacy(api messageAPI, msg *discordgo.Message, reply Reply) {
	logger := m.logger.WithField("channelID", msg.ChannelID)
	switch {
	case reply.Silent:
		return
	case reply.Ack:
		if err := api.MessageReactionAdd(msg.ChannelID, msg.ID, ackEmoji); err != nil {
			logger.Warnf("Error adding reaction: %v", err)
		}
		return
	}

	send := &discordgo.MessageSend{
		Content:   reply.Content,
		Reference: msg.Reference(),
	}
	if reply.Embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{reply.Embed}
	}
	if _, err := api.ChannelMessageSendComplex(msg.ChannelID, send); err != nil {
		logger.Warnf("Error sending reply: %v", err)
	}
}

// OnInteractionCreate handles slash commands and now-playing buttons.
func (m *Manager) OnInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	m.handleInteraction(s, i.Interaction)
}

func (m *Manager) handleInteraction(api interactionAPI, i *discordgo.Interaction) {
	if i.GuildID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		cmd := CommandFromInteraction(i.GuildID, i.Member, i.ApplicationCommandData())
		m.respondSlash(ctx, api, i, cmd)
	case discordgo.InteractionMessageComponent:
		m.handleButton(ctx, api, i)
	}
}

// respondSlash defers first since play can outlast the three second window.
// Disconnect defers ephemerally and deletes the placeholder when done.
func (m *Manager) respondSlash(ctx context.Context, api interactionAPI, i *discordgo.Interaction, cmd Command) {
	logger := m.logger.WithFields(log.Fields{
		"command": cmd.Name,
		"guildID": cmd.Caller.GuildID,
	})

	deferred := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	if cmd.Name == "disconnect" {
		deferred.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	if err := api.InteractionRespond(i, deferred); err != nil {
		logger.Warnf("Error deferring interaction: %v", err)
		return
	}

	reply := m.dispatch(ctx, cmd)
	if reply.Silent {
		if err := api.InteractionResponseDelete(i); err != nil {
			logger.Warnf("Error deleting deferred response: %v", err)
		}
		return
	}

	edit := &discordgo.WebhookEdit{Content: &reply.Content}
	if reply.Embed != nil {
		edit.Embeds = &[]*discordgo.MessageEmbed{reply.Embed}
	}
	if _, err := api.InteractionResponseEdit(i, edit); err != nil {
		logger.Warnf("Error editing interaction response: %v", err)
	}
}

func (m *Manager) handleButton(ctx context.Context, api interactionAPI, i *discordgo.Interaction) {
	action, guildID, ok := discord.ParseButtonCustomID(i.MessageComponentData().CustomID)
	if !ok || guildID != i.GuildID {
		return
	}

	caller := controller.Caller{GuildID: guildID}
	if i.Member != nil && i.Member.User != nil {
		caller.UserID = i.Member.User.ID
	}

	var cmd Command
	switch action {
	case discord.ButtonToggle:
		cmd = Command{Name: "toggle", Caller: caller}
	case discord.ButtonSkip:
		cmd = Command{Name: "skip", Caller: caller}
	default:
		return
	}

	reply := m.dispatch(ctx, cmd)

	var response *discordgo.InteractionResponse
	switch {
	case reply.Ephemeral:
		response = &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: reply.Content,
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		}
	case cmd.Name == "toggle":
		response = &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Components: discord.BuildPlaybackButtons(guildID, reply.Paused),
			},
		}
	default:
		response = &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate}
	}

	if err := api.InteractionRespond(i, response); err != nil {
		m.logger.WithField("guildID", guildID).Warnf("Error responding to button: %v", err)
	}
}

package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"wavebot/controller"
)

// channelSender is the part of *discordgo.Session the messenger needs.
type channelSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Messenger posts playback messages to text channels. Failures are returned
// to the caller, never retried.
type Messenger struct {
	sender channelSender
	logger *log.Entry
}

func NewMessenger(sender channelSender) *Messenger {
	return &Messenger{
		sender: sender,
		logger: log.WithFields(log.Fields{
			"module": "messenger",
		}),
	}
}

func (m *Messenger) DeliverNowPlaying(n controller.Notification) error {
	if n.ChannelID == "" {
		return errors.New("now playing notification has no channel")
	}
	_, err := m.sender.ChannelMessageSendComplex(n.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{BuildNowPlayingEmbed(n)},
		Components: BuildPlaybackButtons(n.GuildID, false),
	})
	if err != nil {
		return err
	}
	m.logger.WithField("guildID", n.GuildID).Tracef("sent now playing for %s", n.Title)
	return nil
}

func (m *Messenger) DeliverText(channelID string, content string) error {
	_, err := m.sender.ChannelMessageSend(channelID, content)
	return err
}

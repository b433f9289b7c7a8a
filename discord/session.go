package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// NewSession builds an unopened gateway session. Message content is needed for
// the legacy prefix commands, voice states for the idle check.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
	session.StateEnabled = true
	session.State.TrackVoice = true
	session.State.TrackMembers = true
	return session, nil
}

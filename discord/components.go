package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	ButtonToggle = "toggle"
	ButtonSkip   = "skip"
)

func ButtonCustomID(action, guildID string) string {
	return "np:" + action + ":" + guildID
}

// ParseButtonCustomID extracts action and guildID from button custom ID
// Format: "np:action:guildID"
func ParseButtonCustomID(customID string) (action, guildID string, ok bool) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 || parts[0] != "np" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// BuildPlaybackButtons is the control row under a now playing message.
func BuildPlaybackButtons(guildID string, paused bool) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					CustomID: ButtonCustomID(ButtonToggle, guildID),
					Style:    discordgo.PrimaryButton,
					Emoji:    &discordgo.ComponentEmoji{Name: getToggleEmoji(paused)},
				},
				discordgo.Button{
					CustomID: ButtonCustomID(ButtonSkip, guildID),
					Style:    discordgo.SecondaryButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "⏭️"},
				},
			},
		},
	}
}

func getToggleEmoji(paused bool) string {
	if paused {
		return "▶️"
	}
	return "⏸️"
}

package discord

import (
	"github.com/bwmarrin/discordgo"
)

// VoiceLocator answers voice questions from the gateway state cache, so no
// lookup costs a REST call.
type VoiceLocator struct {
	state *discordgo.State
}

func NewVoiceLocator(state *discordgo.State) *VoiceLocator {
	return &VoiceLocator{state: state}
}

func (v *VoiceLocator) UserVoiceChannel(guildID, userID string) (string, bool) {
	vs, err := v.state.VoiceState(guildID, userID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		return "", false
	}
	return vs.ChannelID, true
}

// CountHumans is the number of non-bot users connected to channelID.
func (v *VoiceLocator) CountHumans(guildID, channelID string) int {
	guild, err := v.state.Guild(guildID)
	if err != nil {
		return 0
	}

	v.state.RLock()
	var candidates []*discordgo.VoiceState
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID == channelID {
			candidates = append(candidates, vs)
		}
	}
	v.state.RUnlock()

	humans := 0
	for _, vs := range candidates {
		if !v.isBot(guildID, vs) {
			humans++
		}
	}
	return humans
}

func (v *VoiceLocator) isBot(guildID string, vs *discordgo.VoiceState) bool {
	if vs.Member != nil && vs.Member.User != nil {
		return vs.Member.User.Bot
	}
	if member, err := v.state.Member(guildID, vs.UserID); err == nil && member.User != nil {
		return member.User.Bot
	}
	if v.state.User != nil && vs.UserID == v.state.User.ID {
		return true
	}
	return false
}

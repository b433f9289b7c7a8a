package handlers

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"wavebot/controller"
)

var (
	minFilterValue = 0.1
	adminOnly      = int64(discordgo.PermissionAdministrator)
)

// Commands is the slash command set registered by sync.
var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "play",
		Description: "Play a song from youtube or soundcloud",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "query",
				Description: "Song name or link",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "autoplay",
				Description: "Keep playing recommendations when the queue runs out",
			},
		},
	},
	{
		Name:        "skip",
		Description: "Skip the current song",
	},
	{
		Name:        "toggle_music",
		Description: "Pause or resume the player",
	},
	{
		Name:        "volume",
		Description: "Change the volume of the player",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "value",
				Description: "New volume",
				Required:    true,
			},
		},
	},
	{
		Name:        "sound_controls",
		Description: "Set pitch, speed and rate",
		Options: []*discordgo.ApplicationCommandOption{
			filterOption("pitch"),
			filterOption("speed"),
			filterOption("rate"),
		},
	},
	{
		Name:        "nightcore",
		Description: "Set the filter to a nightcore style",
	},
	{
		Name:        "defaultfilters",
		Description: "Reset the filter to a standard style",
	},
	{
		Name:        "disconnect",
		Description: "Disconnect the player",
	},
	{
		Name:        "np",
		Description: "Show the current song",
	},
	{
		Name:        "queue",
		Description: "Show the queued songs",
	},
	{
		Name:        "history",
		Description: "Show recently played songs",
	},
	{
		Name:                     "sync",
		Description:              "Sync slash commands",
		DefaultMemberPermissions: &adminOnly,
	},
}

func filterOption(name string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionNumber,
		Name:        name,
		Description: fmt.Sprintf("%s multiplier (default 1)", name),
		MinValue:    &minFilterValue,
		MaxValue:    5,
	}
}

// slashNames maps slash command names onto dispatch names.
var slashNames = map[string]string{
	"toggle_music":   "toggle",
	"sound_controls": "filter",
}

type commandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// NewSyncFunc overwrites the global command set for appID.
func NewSyncFunc(api commandRegistrar, appID string) SyncFunc {
	return func(ctx context.Context) (int, error) {
		synced, err := api.ApplicationCommandBulkOverwrite(appID, "", Commands, discordgo.WithContext(ctx))
		if err != nil {
			return 0, fmt.Errorf("bulk overwrite commands: %w", err)
		}
		return len(synced), nil
	}
}

// CommandFromInteraction converts slash command data into a Command.
func CommandFromInteraction(guildID string, member *discordgo.Member, data discordgo.ApplicationCommandInteractionData) Command {
	name := data.Name
	if mapped, ok := slashNames[name]; ok {
		name = mapped
	}

	cmd := Command{Name: name, Caller: controller.Caller{GuildID: guildID}}
	if member != nil {
		cmd.Admin = member.Permissions&discordgo.PermissionAdministrator != 0
		if member.User != nil {
			cmd.Caller.UserID = member.User.ID
		}
	}

	if name == "filter" {
		cmd.Filters = controller.DefaultFilters
	}
	for _, option := range data.Options {
		switch option.Name {
		case "query":
			cmd.Query = option.StringValue()
		case "autoplay":
			cmd.Autoplay = option.BoolValue()
		case "value":
			cmd.Volume = int(option.IntValue())
		case "pitch":
			cmd.Filters.Pitch = option.FloatValue()
		case "speed":
			cmd.Filters.Speed = option.FloatValue()
		case "rate":
			cmd.Filters.Rate = option.FloatValue()
		}
	}
	return cmd
}

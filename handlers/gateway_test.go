package handlers

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"wavebot/controller"
	"wavebot/discord"
)

func legacyMessage(content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		GuildID:   alice.GuildID,
		Content:   content,
		Author:    &discordgo.User{ID: alice.UserID},
	}
}

func notAdmin() bool { return false }

func TestHandleMessage(t *testing.T) {
	current := testTrack("a")
	tests := []struct {
		name          string
		content       string
		wantReactions int
		wantSent      string
	}{
		{"ignored chatter", "hello there", 0, ""},
		{"skip reacts", "?skip", 1, ""},
		{"np replies", "?np", 0, "Currently playing: Title a - https://youtu.be/a"},
		{"usage error", "?volume loud", 0, "Usage: `?volume <number>`"},
		{"sync needs admin", "?sync", 0, "Only server administrators can sync commands"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeMessageAPI{}
			manager := newTestManager(&fakeRouter{track: &current})

			manager.handleMessage(api, legacyMessage(tt.content), notAdmin)

			if len(api.reactions) != tt.wantReactions {
				t.Errorf("reactions = %v; want %d", api.reactions, tt.wantReactions)
			}
			if tt.wantReactions > 0 && api.reactions[0] != "m1:"+ackEmoji {
				t.Errorf("reaction = %q; want m1:%s", api.reactions[0], ackEmoji)
			}
			switch {
			case tt.wantSent == "" && len(api.sent) != 0:
				t.Errorf("sent %d messages; want none", len(api.sent))
			case tt.wantSent != "":
				if len(api.sent) != 1 {
					t.Fatalf("sent %d messages; want 1", len(api.sent))
				}
				if api.sent[0].Content != tt.wantSent {
					t.Errorf("sent %q; want %q", api.sent[0].Content, tt.wantSent)
				}
				if api.sent[0].Reference == nil || api.sent[0].Reference.MessageID != "m1" {
					t.Error("reply does not reference the command message")
				}
			}
		})
	}
}

func TestHandleMessageQueueEmbed(t *testing.T) {
	current := testTrack("a")
	api := &fakeMessageAPI{}
	manager := newTestManager(&fakeRouter{snapshot: &controller.QueueSnapshot{Current: &current}})

	manager.handleMessage(api, legacyMessage("?queue"), notAdmin)

	if len(api.sent) != 1 || len(api.sent[0].Embeds) != 1 {
		t.Fatalf("sent = %+v; want one embed", api.sent)
	}
}

func slashInteraction(name string) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: alice.GuildID,
		Member:  member(alice.UserID, 0),
		Data:    discordgo.ApplicationCommandInteractionData{Name: name},
	}
}

func TestHandleInteractionSlash(t *testing.T) {
	current := testTrack("a")
	api := &fakeInteractionAPI{}
	manager := newTestManager(&fakeRouter{track: &current})

	manager.handleInteraction(api, slashInteraction("skip"))

	if len(api.responses) != 1 || api.responses[0].Type != discordgo.InteractionResponseDeferredChannelMessageWithSource {
		t.Fatalf("responses = %+v; want one deferred response", api.responses)
	}
	if len(api.edits) != 1 || *api.edits[0].Content != "skipped Title a" {
		t.Errorf("edits = %+v; want the skip reply", api.edits)
	}
}

func TestHandleInteractionDisconnect(t *testing.T) {
	api := &fakeInteractionAPI{}
	router := &fakeRouter{}
	manager := newTestManager(router)

	manager.handleInteraction(api, slashInteraction("disconnect"))

	if len(api.responses) != 1 {
		t.Fatalf("responses = %d; want 1", len(api.responses))
	}
	if data := api.responses[0].Data; data == nil || data.Flags&discordgo.MessageFlagsEphemeral == 0 {
		t.Error("disconnect was not deferred ephemerally")
	}
	if api.deleted != 1 || len(api.edits) != 0 {
		t.Errorf("deleted = %d, edits = %d; want the placeholder deleted", api.deleted, len(api.edits))
	}
	if len(router.calls) != 1 || router.calls[0] != "disconnect" {
		t.Errorf("router calls = %v", router.calls)
	}
}

func buttonInteraction(customID string) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:    discordgo.InteractionMessageComponent,
		GuildID: alice.GuildID,
		Member:  member(alice.UserID, 0),
		Data:    discordgo.MessageComponentInteractionData{CustomID: customID},
	}
}

func TestHandleInteractionButtons(t *testing.T) {
	current := testTrack("a")
	tests := []struct {
		name     string
		customID string
		router   *fakeRouter
		wantCall string
		wantType discordgo.InteractionResponseType
	}{
		{"toggle updates buttons", discord.ButtonCustomID(discord.ButtonToggle, alice.GuildID), &fakeRouter{paused: true}, "toggle", discordgo.InteractionResponseUpdateMessage},
		{"skip acknowledges", discord.ButtonCustomID(discord.ButtonSkip, alice.GuildID), &fakeRouter{track: &current}, "skip", discordgo.InteractionResponseDeferredMessageUpdate},
		{"error is ephemeral", discord.ButtonCustomID(discord.ButtonSkip, alice.GuildID), &fakeRouter{err: controller.ErrNotInVoiceChannel}, "skip", discordgo.InteractionResponseChannelMessageWithSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeInteractionAPI{}
			manager := newTestManager(tt.router)

			manager.handleInteraction(api, buttonInteraction(tt.customID))

			if len(tt.router.calls) != 1 || tt.router.calls[0] != tt.wantCall {
				t.Errorf("router calls = %v; want [%s]", tt.router.calls, tt.wantCall)
			}
			if tt.router.last.Caller != alice {
				t.Errorf("caller = %+v; want the clicking member", tt.router.last.Caller)
			}
			if len(api.responses) != 1 || api.responses[0].Type != tt.wantType {
				t.Fatalf("responses = %+v; want type %v", api.responses, tt.wantType)
			}
		})
	}
}

func TestHandleInteractionIgnoresForeignButtons(t *testing.T) {
	for _, customID := range []string{"other:thing", discord.ButtonCustomID(discord.ButtonSkip, "999"), discord.ButtonCustomID("loop", alice.GuildID)} {
		t.Run(customID, func(t *testing.T) {
			api := &fakeInteractionAPI{}
			router := &fakeRouter{}
			manager := newTestManager(router)

			manager.handleInteraction(api, buttonInteraction(customID))

			if len(router.calls) != 0 || len(api.responses) != 0 {
				t.Errorf("foreign button handled: calls %v, responses %d", router.calls, len(api.responses))
			}
		})
	}
}

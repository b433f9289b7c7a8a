package handlers

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"

	"wavebot/audio"
	"wavebot/controller"
	"wavebot/database"
)

type fakeRouter struct {
	mu    sync.Mutex
	calls []string
	last  Command

	play     *controller.PlayResult
	track    *audio.Track
	paused   bool
	snapshot *controller.QueueSnapshot
	err      error
	panics   bool
}

func (r *fakeRouter) record(name string, caller controller.Caller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panics {
		panic("router exploded")
	}
	r.calls = append(r.calls, name)
	r.last.Caller = caller
}

func (r *fakeRouter) Play(_ context.Context, caller controller.Caller, query string, autoplay bool) (*controller.PlayResult, error) {
	r.record("play", caller)
	r.last.Query, r.last.Autoplay = query, autoplay
	return r.play, r.err
}

func (r *fakeRouter) Skip(_ context.Context, caller controller.Caller, force bool) (*audio.Track, error) {
	r.record("skip", caller)
	r.last.Force = force
	return r.track, r.err
}

func (r *fakeRouter) PauseResume(_ context.Context, caller controller.Caller) (bool, error) {
	r.record("toggle", caller)
	return r.paused, r.err
}

func (r *fakeRouter) SetVolume(_ context.Context, caller controller.Caller, volume int) error {
	r.record("volume", caller)
	r.last.Volume = volume
	return r.err
}

func (r *fakeRouter) SetFilter(_ context.Context, caller controller.Caller, filters controller.FilterState) error {
	r.record("filter", caller)
	r.last.Filters = filters
	return r.err
}

func (r *fakeRouter) Nightcore(_ context.Context, caller controller.Caller) error {
	r.record("nightcore", caller)
	return r.err
}

func (r *fakeRouter) ResetFilter(_ context.Context, caller controller.Caller) error {
	r.record("defaultfilters", caller)
	return r.err
}

func (r *fakeRouter) Disconnect(_ context.Context, caller controller.Caller) error {
	r.record("disconnect", caller)
	return r.err
}

func (r *fakeRouter) NowPlaying(_ context.Context, caller controller.Caller) (*audio.Track, error) {
	r.record("np", caller)
	return r.track, r.err
}

func (r *fakeRouter) Queue(_ context.Context, caller controller.Caller) (*controller.QueueSnapshot, error) {
	r.record("queue", caller)
	return r.snapshot, r.err
}

type fakeHistory struct {
	records []database.SongHistoryRecord
	err     error
}

func (h *fakeHistory) GetHistory(_ context.Context, _ string, limit int) ([]database.SongHistoryRecord, error) {
	if h.err != nil {
		return nil, h.err
	}
	if len(h.records) > limit {
		return h.records[:limit], nil
	}
	return h.records, nil
}

type fakeMessageAPI struct {
	sent      []*discordgo.MessageSend
	reactions []string
}

func (f *fakeMessageAPI) ChannelMessageSendComplex(_ string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent = append(f.sent, data)
	return &discordgo.Message{}, nil
}

func (f *fakeMessageAPI) MessageReactionAdd(_, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	f.reactions = append(f.reactions, messageID+":"+emojiID)
	return nil
}

type fakeInteractionAPI struct {
	responses []*discordgo.InteractionResponse
	edits     []*discordgo.WebhookEdit
	deleted   int
}

func (f *fakeInteractionAPI) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeInteractionAPI) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.edits = append(f.edits, edit)
	return &discordgo.Message{}, nil
}

func (f *fakeInteractionAPI) InteractionResponseDelete(*discordgo.Interaction, ...discordgo.RequestOption) error {
	f.deleted++
	return nil
}

func newTestManager(router *fakeRouter) *Manager {
	manager := NewManager(Options{
		Router:  router,
		History: &fakeHistory{},
		Sync: func(context.Context) (int, error) {
			return len(Commands), nil
		},
		PlayRatePerMinute: 60,
	})
	manager.hints.hintChance = 0
	return manager
}

func testTrack(id string) audio.Track {
	return audio.Track{
		Identifier: id,
		Title:      "Title " + id,
		Author:     "Author " + id,
		URI:        "https://youtu.be/" + id,
	}
}

var alice = controller.Caller{GuildID: "100", UserID: "301"}

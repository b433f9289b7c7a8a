package controller

import (
	"context"
	"errors"
	"sync"

	"wavebot/audio"
)

type fakeHandle struct {
	mu           sync.Mutex
	queue        *audio.Queue
	current      *audio.Track
	paused       bool
	volume       int
	timescale    *audio.Timescale
	autoplay     audio.AutoplayMode
	disconnected bool
	err          error
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{queue: audio.NewQueue()}
}

func (h *fakeHandle) Queue() *audio.Queue { return h.queue }

func (h *fakeHandle) SetAutoplay(mode audio.AutoplayMode) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.autoplay = mode
}

func (h *fakeHandle) Playing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current != nil
}

func (h *fakeHandle) Current() *audio.Track {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == nil {
		return nil
	}
	current := *h.current
	return &current
}

func (h *fakeHandle) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}

func (h *fakeHandle) Play(_ context.Context, track audio.Track, volume int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.current = &track
	h.volume = volume
	return nil
}

func (h *fakeHandle) Pause(_ context.Context, paused bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.paused = paused
	return nil
}

func (h *fakeHandle) Skip(context.Context, bool) (*audio.Track, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	if h.current == nil {
		return nil, audio.ErrNothingPlaying
	}
	skipped := *h.current
	h.current = nil
	if next, ok := h.queue.Get(); ok {
		h.current = &next
	}
	return &skipped, nil
}

func (h *fakeHandle) SetVolume(_ context.Context, volume int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.volume = volume
	return nil
}

func (h *fakeHandle) SetTimescale(_ context.Context, ts audio.Timescale) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.timescale = &ts
	return nil
}

func (h *fakeHandle) Disconnect(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnected = true
	h.current = nil
	return h.err
}

func (h *fakeHandle) setErr(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

type fakeSearcher struct {
	results map[string]audio.SearchResult
	err     error
}

func (s *fakeSearcher) Search(_ context.Context, query string) (audio.SearchResult, error) {
	if s.err != nil {
		return audio.SearchResult{}, s.err
	}
	return s.results[query], nil
}

type fakeVoice struct {
	mu       sync.Mutex
	channels map[string]string
}

func (v *fakeVoice) UserVoiceChannel(_ string, userID string) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	channelID, ok := v.channels[userID]
	return channelID, ok
}

func (v *fakeVoice) move(userID, channelID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.channels[userID] = channelID
}

type fakeConnector struct {
	mu      sync.Mutex
	handles []*fakeHandle
	joined  []string
	err     error
}

func (c *fakeConnector) connect(_ context.Context, _ string, channelID string) (Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	handle := newFakeHandle()
	c.handles = append(c.handles, handle)
	c.joined = append(c.joined, channelID)
	return handle, nil
}

func (c *fakeConnector) last() *fakeHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handles[len(c.handles)-1]
}

type fakeDeliverer struct {
	mu            sync.Mutex
	notifications []Notification
	texts         []string
	err           error
}

func (d *fakeDeliverer) DeliverNowPlaying(n Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifications = append(d.notifications, n)
	return d.err
}

func (d *fakeDeliverer) DeliverText(channelID string, content string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.texts = append(d.texts, channelID+": "+content)
	return d.err
}

type fakeRecorder struct {
	played []string
}

func (r *fakeRecorder) RecordPlay(_ context.Context, _ string, track audio.Track) error {
	r.played = append(r.played, track.Identifier)
	return nil
}

var errNode = errors.New("volume must be between 0 and 1000")

func track(id string) audio.Track {
	return audio.Track{
		Identifier: id,
		Title:      "Title " + id,
		Author:     "Author " + id,
		URI:        "https://youtu.be/" + id,
		SourceName: "youtube",
	}
}

const (
	guild    = "100"
	channel1 = "201"
	channel2 = "202"
	alice    = "301"
	bob      = "302"
)

type testEnv struct {
	controller *Controller
	router     *Router
	registry   *Registry
	connector  *fakeConnector
	search     *fakeSearcher
	voice      *fakeVoice
	deliverer  *fakeDeliverer
	recorder   *fakeRecorder
}

// newTestEnv has alice in channel1 and bob in channel2.
func newTestEnv() *testEnv {
	env := &testEnv{
		connector: &fakeConnector{},
		search: &fakeSearcher{results: map[string]audio.SearchResult{
			"lofi beats": {Tracks: []audio.Track{track("t")}},
			"mix":        {PlaylistName: "Mix", Tracks: []audio.Track{track("a"), track("b"), track("c")}},
		}},
		voice: &fakeVoice{channels: map[string]string{
			alice: channel1,
			bob:   channel2,
		}},
		deliverer: &fakeDeliverer{},
		recorder:  &fakeRecorder{},
	}
	env.controller = New(Options{
		Connect:       env.connector.connect,
		Search:        env.search,
		Voice:         env.voice,
		Deliverer:     env.deliverer,
		Recorder:      env.recorder,
		DefaultVolume: 30,
	})
	env.router = env.controller.Router
	env.registry = env.controller.Registry
	return env
}

func (env *testEnv) play(query string, user string) (*PlayResult, error) {
	return env.router.Play(context.Background(), Caller{GuildID: guild, UserID: user}, query, false)
}

package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/disgoorg/disgolink/v3/lavalink"
	log "github.com/sirupsen/logrus"
)

var ErrNothingPlaying = errors.New("nothing is playing")

// remotePlayer is the part of disgolink.Player the bot drives.
type remotePlayer interface {
	Update(ctx context.Context, opts ...lavalink.PlayerUpdateOpt) error
	Destroy(ctx context.Context) error
	Paused() bool
	Filters() lavalink.Filters
}

// loadFunc loads a raw identifier (URL or "<prefix>search:<query>") on the node.
type loadFunc func(ctx context.Context, identifier string) (SearchResult, error)

// Player is the remote-controlled player for one guild's voice connection.
// The node plays the audio; the queue, autoplay and history live here.
type Player struct {
	GuildID   string
	ChannelID string

	remote  remotePlayer
	load    loadFunc
	leave   func() error
	queue   *Queue
	history *History

	current  *Track
	autoplay AutoplayMode
	mutex    sync.Mutex
	logger   *log.Entry
}

func newPlayer(guildID string, remote remotePlayer, load loadFunc, leave func() error) *Player {
	return &Player{
		GuildID: guildID,
		remote:  remote,
		load:    load,
		leave:   leave,
		queue:   NewQueue(),
		history: NewHistory(25),
		logger: log.WithFields(log.Fields{
			"module":  "player",
			"guildID": guildID,
		}),
	}
}

func (p *Player) Queue() *Queue {
	return p.queue
}

func (p *Player) SetAutoplay(mode AutoplayMode) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.autoplay = mode
}

func (p *Player) Autoplay() AutoplayMode {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.autoplay
}

// Playing reports whether a track is loaded, paused or not.
func (p *Player) Playing() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.current != nil
}

func (p *Player) Current() *Track {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.current == nil {
		return nil
	}
	current := *p.current
	return &current
}

func (p *Player) Paused() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.remote.Paused()
}

// Play starts track immediately at volume, replacing whatever is loaded.
func (p *Player) Play(ctx context.Context, track Track, volume int) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.play(ctx, track, lavalink.WithVolume(volume))
}

func (p *Player) play(ctx context.Context, track Track, opts ...lavalink.PlayerUpdateOpt) error {
	opts = append([]lavalink.PlayerUpdateOpt{lavalink.WithTrack(track.raw)}, opts...)
	if err := p.remote.Update(ctx, opts...); err != nil {
		return err
	}
	p.current = &track
	p.logger.Debugf("playing: %s", track.Title)
	return nil
}

// The node player is not safe for concurrent use; every remote call below
// holds p.mutex, as the track end listener does.

func (p *Player) Pause(ctx context.Context, paused bool) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.remote.Update(ctx, lavalink.WithPaused(paused))
}

// SetVolume hands volume to the node unchanged; the node owns the valid range.
func (p *Player) SetVolume(ctx context.Context, volume int) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.remote.Update(ctx, lavalink.WithVolume(volume))
}

// SetTimescale replaces only the timescale filter, keeping any other filters the node has.
func (p *Player) SetTimescale(ctx context.Context, ts Timescale) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	filters := p.remote.Filters()
	filters.Timescale = &lavalink.Timescale{
		Speed: ts.Speed,
		Pitch: ts.Pitch,
		Rate:  ts.Rate,
	}
	return p.remote.Update(ctx, lavalink.WithFilters(filters))
}

// Skip advances to the next queued track, or a recommendation when autoplay is
// enabled, or stops. It returns the track that was skipped.
func (p *Player) Skip(ctx context.Context, force bool) (*Track, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.current == nil {
		return nil, ErrNothingPlaying
	}
	skipped := *p.current
	p.history.Add(skipped.Identifier)

	if next, ok := p.queue.Get(); ok {
		if err := p.play(ctx, next); err != nil {
			return nil, err
		}
		return &skipped, nil
	}

	if p.autoplay == AutoplayEnabled {
		if next, ok := p.recommend(ctx, skipped); ok {
			if err := p.play(ctx, next); err != nil {
				return nil, err
			}
			return &skipped, nil
		}
	}

	if err := p.remote.Update(ctx, lavalink.WithNullTrack()); err != nil {
		return nil, err
	}
	p.current = nil
	p.logger.Tracef("skipped %s with nothing queued (force=%t)", skipped.Title, force)
	return &skipped, nil
}

// Disconnect destroys the node player and leaves the voice channel. Both steps
// always run; the first error is returned.
func (p *Player) Disconnect(ctx context.Context) error {
	p.mutex.Lock()
	p.current = nil
	destroyErr := p.remote.Destroy(ctx)
	p.mutex.Unlock()
	p.queue.Clear()

	var leaveErr error
	if p.leave != nil {
		leaveErr = p.leave()
	}
	if destroyErr != nil {
		return fmt.Errorf("destroy player: %w", destroyErr)
	}
	if leaveErr != nil {
		return fmt.Errorf("leave voice channel: %w", leaveErr)
	}
	return nil
}

// handleTrackStart matches a node start event to the track this player asked for.
func (p *Player) handleTrackStart(t lavalink.Track) Track {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.current != nil && p.current.Encoded == t.Encoded {
		return *p.current
	}
	// started by someone else (node resume); adopt it so np stays truthful
	track := newTrack(t)
	p.current = &track
	return track
}

// handleTrackEnd advances the player according to the autoplay mode. It returns
// the started track, or nil when the player went idle.
func (p *Player) handleTrackEnd(ctx context.Context, t lavalink.Track, reason lavalink.TrackEndReason) (*Track, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !reason.MayStartNext() {
		// replaced or stopped: whoever did that already set current
		return nil, nil
	}

	finished := newTrack(t)
	if p.current != nil && p.current.Encoded == t.Encoded {
		finished = *p.current
	}
	p.history.Add(finished.Identifier)
	p.current = nil

	if p.autoplay == AutoplayDisabled {
		return nil, nil
	}

	if next, ok := p.queue.Get(); ok {
		if err := p.play(ctx, next); err != nil {
			return nil, err
		}
		return &next, nil
	}

	if p.autoplay != AutoplayEnabled {
		return nil, nil
	}

	next, ok := p.recommend(ctx, finished)
	if !ok {
		return nil, nil
	}
	if err := p.play(ctx, next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (p *Player) recommend(ctx context.Context, seed Track) (Track, bool) {
	if p.load == nil {
		return Track{}, false
	}

	result, err := p.load(ctx, recommendationIdentifier(seed))
	if err != nil {
		p.logger.Warnf("failed to load recommendations for %s: %v", seed.Title, err)
		return Track{}, false
	}

	for _, candidate := range result.Tracks {
		if candidate.Identifier == seed.Identifier || p.history.Contains(candidate.Identifier) {
			continue
		}
		candidate.Recommended = true
		p.logger.Debugf("autoplay picked %s after %s", candidate.Title, seed.Title)
		return candidate, true
	}
	return Track{}, false
}

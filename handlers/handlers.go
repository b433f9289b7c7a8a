package handlers

// handlers turn gateway traffic (prefix messages, slash commands, buttons and
// voice updates) into controller calls. Validation lives in the controller;
// this package only parses arguments and renders replies.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"wavebot/audio"
	"wavebot/controller"
	"wavebot/database"
	"wavebot/discord"
	"wavebot/sentryhelper"
)

type commandRouter interface {
	Play(ctx context.Context, caller controller.Caller, query string, autoplay bool) (*controller.PlayResult, error)
	Skip(ctx context.Context, caller controller.Caller, force bool) (*audio.Track, error)
	PauseResume(ctx context.Context, caller controller.Caller) (bool, error)
	SetVolume(ctx context.Context, caller controller.Caller, volume int) error
	SetFilter(ctx context.Context, caller controller.Caller, filters controller.FilterState) error
	Nightcore(ctx context.Context, caller controller.Caller) error
	ResetFilter(ctx context.Context, caller controller.Caller) error
	Disconnect(ctx context.Context, caller controller.Caller) error
	NowPlaying(ctx context.Context, caller controller.Caller) (*audio.Track, error)
	Queue(ctx context.Context, caller controller.Caller) (*controller.QueueSnapshot, error)
}

type historySource interface {
	GetHistory(ctx context.Context, guildID string, limit int) ([]database.SongHistoryRecord, error)
}

// SyncFunc registers the slash command set and returns how many were synced.
type SyncFunc func(ctx context.Context) (int, error)

// Command is a parsed request from either adapter.
type Command struct {
	Name     string
	Caller   controller.Caller
	Query    string
	Autoplay bool
	Force    bool
	Volume   int
	Filters  controller.FilterState
	// Admin is true when the member may manage the guild's commands.
	Admin bool
	// Legacy commands acknowledge with a reaction instead of text.
	Legacy bool
}

type Reply struct {
	Content   string
	Embed     *discordgo.MessageEmbed
	Ephemeral bool
	// Ack asks the legacy adapter to react with ✅.
	Ack bool
	// Silent commands send nothing back.
	Silent bool
	// Paused is the player state after a toggle.
	Paused bool
}

type Options struct {
	Router            commandRouter
	History           historySource
	Sync              SyncFunc
	Prefix            string
	PlayRatePerMinute int
}

type Manager struct {
	router  commandRouter
	history historySource
	sync    SyncFunc
	prefix  string
	hints   *Hints

	playRate     rate.Limit
	playBurst    int
	limiterMutex sync.Mutex
	limiters     map[string]*rate.Limiter
	lastSweep    time.Time

	logger *log.Entry
}

const (
	queueDisplayLimit   = 10
	historyDisplayLimit = 10

	limiterSweepInterval = time.Minute
)

func NewManager(opts Options) *Manager {
	perMinute := opts.PlayRatePerMinute
	if perMinute <= 0 {
		perMinute = 20
	}
	burst := perMinute / 4
	if burst < 1 {
		burst = 1
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "?"
	}

	return &Manager{
		router:    opts.Router,
		history:   opts.History,
		sync:      opts.Sync,
		prefix:    prefix,
		hints:     NewHints(),
		playRate:  rate.Every(time.Minute / time.Duration(perMinute)),
		playBurst: burst,
		limiters:  make(map[string]*rate.Limiter),
		logger: log.WithFields(log.Fields{
			"module": "handlers",
		}),
	}
}

// allowPlay applies the per-guild play limit.
func (m *Manager) allowPlay(guildID string) bool {
	return m.allowPlayAt(guildID, time.Now())
}

func (m *Manager) allowPlayAt(guildID string, now time.Time) bool {
	m.limiterMutex.Lock()
	defer m.limiterMutex.Unlock()

	// a full bucket is the same as a fresh limiter, so it can go
	if now.Sub(m.lastSweep) >= limiterSweepInterval {
		for id, limiter := range m.limiters {
			if limiter.TokensAt(now) >= float64(m.playBurst) {
				delete(m.limiters, id)
			}
		}
		m.lastSweep = now
	}

	limiter, ok := m.limiters[guildID]
	if !ok {
		limiter = rate.NewLimiter(m.playRate, m.playBurst)
		m.limiters[guildID] = limiter
	}
	return limiter.AllowN(now, 1)
}

// dispatch runs one command and never panics; every failure becomes a reply.
func (m *Manager) dispatch(ctx context.Context, cmd Command) (reply Reply) {
	ctx, transaction := sentryhelper.StartCommandTransaction(ctx, cmd.Name, cmd.Caller.GuildID, cmd.Caller.UserID)
	defer transaction.Finish()

	logger := m.logger.WithFields(log.Fields{
		"command": cmd.Name,
		"guildID": cmd.Caller.GuildID,
		"userID":  cmd.Caller.UserID,
	})

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Panic in command handling: %v", r)
			sentryhelper.CaptureException(ctx, fmt.Errorf("panic in %s: %v", cmd.Name, r))
			reply = Reply{Content: "An error occurred while processing your command", Ephemeral: true}
		}
	}()

	logger.Debug("Received command")
	sentryhelper.AddBreadcrumb(ctx, &sentry.Breadcrumb{
		Category: "command",
		Message:  "dispatch " + cmd.Name,
		Data:     map[string]interface{}{"legacy": cmd.Legacy},
		Level:    sentry.LevelInfo,
	})

	switch cmd.Name {
	case "play":
		return m.handlePlay(ctx, cmd)
	case "skip":
		return m.handleSkip(ctx, cmd)
	case "toggle":
		return m.handleToggle(ctx, cmd)
	case "volume":
		return m.handleVolume(ctx, cmd)
	case "filter":
		return m.handleFilter(ctx, cmd)
	case "nightcore":
		return m.handleNightcore(ctx, cmd)
	case "defaultfilters":
		return m.handleDefaultFilters(ctx, cmd)
	case "disconnect":
		return m.handleDisconnect(ctx, cmd, logger)
	case "np":
		return m.handleNowPlaying(ctx, cmd)
	case "queue":
		return m.handleQueue(ctx, cmd)
	case "history":
		return m.handleHistory(ctx, cmd, logger)
	case "sync":
		return m.handleSync(ctx, cmd, logger)
	default:
		return Reply{Content: "Sorry, I don't know how to handle this command", Ephemeral: true}
	}
}

func errorReply(err error) Reply {
	return Reply{Content: UserMessage(err), Ephemeral: true}
}

// ack is the reply for state changes with no interesting output.
func ack(cmd Command, content string) Reply {
	if cmd.Legacy {
		return Reply{Ack: true}
	}
	return Reply{Content: content}
}

func (m *Manager) handlePlay(ctx context.Context, cmd Command) Reply {
	if strings.TrimSpace(cmd.Query) == "" {
		return Reply{Content: fmt.Sprintf("Usage: `%splay <song name or link>`", m.prefix), Ephemeral: true}
	}
	if !m.allowPlay(cmd.Caller.GuildID) {
		return Reply{Content: "Slow down! Too many songs requested in this server, try again in a minute.", Ephemeral: true}
	}

	result, err := m.router.Play(ctx, cmd.Caller, cmd.Query, cmd.Autoplay)
	if err != nil {
		return errorReply(err)
	}

	var content string
	if result.PlaylistName != "" {
		content = fmt.Sprintf("Added the playlist **`%s`** (%d songs) to the queue.", result.PlaylistName, len(result.Tracks))
	} else {
		content = fmt.Sprintf("Added **`%s`** to the queue.", result.Tracks[0].String())
	}
	content += m.hints.ShowIfApplicable(cmd.Caller.GuildID)
	return Reply{Content: content}
}

func (m *Manager) handleSkip(ctx context.Context, cmd Command) Reply {
	skipped, err := m.router.Skip(ctx, cmd.Caller, cmd.Force)
	if err != nil {
		return errorReply(err)
	}
	return ack(cmd, fmt.Sprintf("skipped %s", skipped.Title))
}

func (m *Manager) handleToggle(ctx context.Context, cmd Command) Reply {
	paused, err := m.router.PauseResume(ctx, cmd.Caller)
	if err != nil {
		return errorReply(err)
	}
	reply := ack(cmd, "toggled pause/resume")
	reply.Paused = paused
	return reply
}

func (m *Manager) handleVolume(ctx context.Context, cmd Command) Reply {
	if err := m.router.SetVolume(ctx, cmd.Caller, cmd.Volume); err != nil {
		return errorReply(err)
	}
	return ack(cmd, fmt.Sprintf("volume set to %d", cmd.Volume))
}

func (m *Manager) handleFilter(ctx context.Context, cmd Command) Reply {
	if err := m.router.SetFilter(ctx, cmd.Caller, cmd.Filters); err != nil {
		return errorReply(err)
	}
	f := cmd.Filters
	return Reply{Content: fmt.Sprintf("Pitch : %g, speed : %g, Rate : %g", f.Pitch, f.Speed, f.Rate)}
}

func (m *Manager) handleNightcore(ctx context.Context, cmd Command) Reply {
	if err := m.router.Nightcore(ctx, cmd.Caller); err != nil {
		return errorReply(err)
	}
	return ack(cmd, "switching to nightcore")
}

func (m *Manager) handleDefaultFilters(ctx context.Context, cmd Command) Reply {
	if err := m.router.ResetFilter(ctx, cmd.Caller); err != nil {
		return errorReply(err)
	}
	return ack(cmd, "filters reset")
}

// handleDisconnect treats a remote failure as success: the session is gone
// either way.
func (m *Manager) handleDisconnect(ctx context.Context, cmd Command, logger *log.Entry) Reply {
	err := m.router.Disconnect(ctx, cmd.Caller)
	var remoteErr *controller.RemoteError
	if errors.As(err, &remoteErr) {
		logger.Warnf("Disconnect finished with a remote error: %v", err)
		sentryhelper.CaptureException(ctx, err)
		err = nil
	}
	if err != nil {
		return errorReply(err)
	}
	if cmd.Legacy {
		return Reply{Ack: true}
	}
	return Reply{Silent: true}
}

func (m *Manager) handleNowPlaying(ctx context.Context, cmd Command) Reply {
	track, err := m.router.NowPlaying(ctx, cmd.Caller)
	if err != nil {
		return errorReply(err)
	}
	return Reply{Content: fmt.Sprintf("Currently playing: %s - %s", track.Title, track.URI)}
}

func (m *Manager) handleQueue(ctx context.Context, cmd Command) Reply {
	snapshot, err := m.router.Queue(ctx, cmd.Caller)
	if err != nil {
		return errorReply(err)
	}
	if snapshot.Current == nil && len(snapshot.Pending) == 0 {
		return Reply{Content: "The queue is empty and nothing is playing"}
	}
	embed := discord.BuildQueueEmbed(snapshot.Current, snapshot.Pending, queueDisplayLimit)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "Autoplay: " + snapshot.Autoplay.String()}
	return Reply{Embed: embed}
}

func (m *Manager) handleHistory(ctx context.Context, cmd Command, logger *log.Entry) Reply {
	if m.history == nil {
		return Reply{Content: "History is not available", Ephemeral: true}
	}
	records, err := m.history.GetHistory(ctx, cmd.Caller.GuildID, historyDisplayLimit)
	if err != nil {
		logger.Errorf("Error loading history: %v", err)
		sentryhelper.CaptureException(ctx, err)
		return Reply{Content: "Could not load the play history", Ephemeral: true}
	}
	if len(records) == 0 {
		return Reply{Content: "Nothing has been played in this server yet"}
	}

	var b strings.Builder
	b.WriteString("**Recently played**\n")
	for i, r := range records {
		fmt.Fprintf(&b, "%d. **%s**", i+1, r.Title)
		if r.Author != "" {
			fmt.Fprintf(&b, " by `%s`", r.Author)
		}
		if r.Recommended {
			b.WriteString(" (autoplay)")
		}
		b.WriteString("\n")
	}
	return Reply{Content: b.String()}
}

func (m *Manager) handleSync(ctx context.Context, cmd Command, logger *log.Entry) Reply {
	if !cmd.Admin {
		return Reply{Content: "Only server administrators can sync commands", Ephemeral: true}
	}
	if m.sync == nil {
		return Reply{Content: "Command sync is not available", Ephemeral: true}
	}
	synced, err := m.sync(ctx)
	if err != nil {
		logger.Errorf("Error syncing commands: %v", err)
		sentryhelper.CaptureException(ctx, err)
		return Reply{Content: fmt.Sprintf("Error %v", err), Ephemeral: true}
	}
	logger.Infof("synced %d commands", synced)
	return Reply{Content: fmt.Sprintf("synced %d commands", synced)}
}

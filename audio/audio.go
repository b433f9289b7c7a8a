package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

const voiceConnectTimeout = 10 * time.Second

// closeCodeDisconnected is sent by discord when the bot was removed from the channel.
const closeCodeDisconnected = 4014

var ErrVoiceTimeout = errors.New("timed out waiting for voice server")

type NodeConfig struct {
	Name     string
	Address  string
	Password string
	Secure   bool
}

// Engine owns the lavalink client and the players it created, and turns node
// events into PlaybackNotifications.
type Engine struct {
	Notifications chan PlaybackNotification

	discord      *discordgo.Session
	client       disgolink.Client
	searchPrefix string
	players      map[string]*Player
	voiceReady   map[string]chan struct{}
	mutex        sync.Mutex
	logger       *log.Entry
}

// NewEngine needs an open discord session: the lavalink client is keyed on the bot user.
func NewEngine(session *discordgo.Session, searchPrefix string) (*Engine, error) {
	if session.State == nil || session.State.User == nil {
		return nil, errors.New("discord session is not ready")
	}
	userID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("parse bot user id: %w", err)
	}

	e := &Engine{
		Notifications: make(chan PlaybackNotification, 100),
		discord:       session,
		searchPrefix:  searchPrefix,
		players:       make(map[string]*Player),
		voiceReady:    make(map[string]chan struct{}),
		logger: log.WithFields(log.Fields{
			"module": "audio-engine",
		}),
	}
	e.client = disgolink.New(userID,
		disgolink.WithListenerFunc(e.onTrackStart),
		disgolink.WithListenerFunc(e.onTrackEnd),
		disgolink.WithListenerFunc(e.onTrackException),
		disgolink.WithListenerFunc(e.onTrackStuck),
		disgolink.WithListenerFunc(e.onWebSocketClosed),
	)
	return e, nil
}

func (e *Engine) AddNode(ctx context.Context, config NodeConfig) error {
	node, err := e.client.AddNode(ctx, disgolink.NodeConfig{
		Name:     config.Name,
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		return fmt.Errorf("connect lavalink node %s: %w", config.Name, err)
	}
	version, err := node.Version(ctx)
	if err != nil {
		e.logger.Warnf("lavalink node %s connected, version unknown: %v", config.Name, err)
		return nil
	}
	e.logger.Infof("lavalink node %s connected (v%s)", config.Name, version)
	return nil
}

func (e *Engine) Close() {
	e.client.Close()
}

// Connect joins channelID and returns the guild's player once discord has
// handed over the voice server the node needs.
func (e *Engine) Connect(ctx context.Context, guildID string, channelID string) (*Player, error) {
	gid, err := snowflake.Parse(guildID)
	if err != nil {
		return nil, fmt.Errorf("parse guild id: %w", err)
	}

	ready := make(chan struct{})
	e.mutex.Lock()
	e.voiceReady[guildID] = ready
	e.mutex.Unlock()
	defer func() {
		e.mutex.Lock()
		if e.voiceReady[guildID] == ready {
			delete(e.voiceReady, guildID)
		}
		e.mutex.Unlock()
	}()

	if err := e.discord.ChannelVoiceJoinManual(guildID, channelID, false, true); err != nil {
		return nil, fmt.Errorf("join voice channel: %w", err)
	}

	select {
	case <-ready:
	case <-ctx.Done():
		e.leave(guildID)
		return nil, ctx.Err()
	case <-time.After(voiceConnectTimeout):
		e.leave(guildID)
		return nil, ErrVoiceTimeout
	}

	player := newPlayer(guildID, e.client.Player(gid), e.load, func() error {
		e.forget(guildID)
		return e.leave(guildID)
	})
	player.ChannelID = channelID

	e.mutex.Lock()
	e.players[guildID] = player
	e.mutex.Unlock()

	e.logger.WithField("guildID", guildID).Tracef("joined voice channel: %s", channelID)
	return player, nil
}

func (e *Engine) leave(guildID string) error {
	return e.discord.ChannelVoiceJoinManual(guildID, "", false, false)
}

func (e *Engine) forget(guildID string) {
	e.mutex.Lock()
	delete(e.players, guildID)
	e.mutex.Unlock()
	if gid, err := snowflake.Parse(guildID); err == nil {
		e.client.RemovePlayer(gid)
	}
}

func (e *Engine) player(guildID snowflake.ID) *Player {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.players[guildID.String()]
}

// OnVoiceStateUpdate forwards the bot's own voice state to the node client.
func (e *Engine) OnVoiceStateUpdate(ctx context.Context, state *discordgo.VoiceState) {
	guildID, err := snowflake.Parse(state.GuildID)
	if err != nil {
		return
	}
	var channelID *snowflake.ID
	if state.ChannelID != "" {
		if id, err := snowflake.Parse(state.ChannelID); err == nil {
			channelID = &id
		}
	}
	if channelID == nil && e.client.ExistingPlayer(guildID) == nil {
		// already torn down; forwarding would create and destroy a throwaway player
		return
	}
	e.client.OnVoiceStateUpdate(ctx, guildID, channelID, state.SessionID)
}

func (e *Engine) OnVoiceServerUpdate(ctx context.Context, update *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(update.GuildID)
	if err != nil {
		return
	}
	e.client.OnVoiceServerUpdate(ctx, guildID, update.Token, update.Endpoint)

	e.mutex.Lock()
	ready, ok := e.voiceReady[update.GuildID]
	if ok {
		delete(e.voiceReady, update.GuildID)
	}
	e.mutex.Unlock()
	if ok {
		close(ready)
	}
}

func (e *Engine) notify(notification PlaybackNotification) {
	select {
	case e.Notifications <- notification:
	default:
		msg := "playback notifications channel is full for guild " + notification.GuildID
		sentry.CaptureMessage(msg)
		e.logger.Warn(msg)
	}
}

func (e *Engine) onTrackStart(_ disgolink.Player, event lavalink.TrackStartEvent) {
	player := e.player(event.GuildID())
	if player == nil {
		return
	}
	track := player.handleTrackStart(event.Track)
	e.notify(PlaybackNotification{
		Event:   PlaybackStarted,
		GuildID: player.GuildID,
		Track:   &track,
	})
}

func (e *Engine) onTrackEnd(_ disgolink.Player, event lavalink.TrackEndEvent) {
	player := e.player(event.GuildID())
	if player == nil {
		return
	}

	ended := newTrack(event.Track)
	e.notify(PlaybackNotification{
		Event:   PlaybackCompleted,
		GuildID: player.GuildID,
		Track:   &ended,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	next, err := player.handleTrackEnd(ctx, event.Track, event.Reason)
	if err != nil {
		e.notify(PlaybackNotification{
			Event:   PlaybackError,
			GuildID: player.GuildID,
			Error:   fmt.Errorf("advance queue: %w", err),
		})
		return
	}
	if next == nil && event.Reason.MayStartNext() {
		e.notify(PlaybackNotification{
			Event:   PlaybackQueueEnded,
			GuildID: player.GuildID,
		})
	}
}

func (e *Engine) onTrackException(_ disgolink.Player, event lavalink.TrackExceptionEvent) {
	track := newTrack(event.Track)
	e.notify(PlaybackNotification{
		Event:   PlaybackError,
		GuildID: event.GuildID().String(),
		Track:   &track,
		Error:   fmt.Errorf("track exception: %s", event.Exception.Message),
	})
}

func (e *Engine) onTrackStuck(_ disgolink.Player, event lavalink.TrackStuckEvent) {
	track := newTrack(event.Track)
	e.notify(PlaybackNotification{
		Event:   PlaybackError,
		GuildID: event.GuildID().String(),
		Track:   &track,
		Error:   fmt.Errorf("track stuck after %dms", event.Threshold),
	})
}

func (e *Engine) onWebSocketClosed(closed disgolink.Player, event lavalink.WebSocketClosedEvent) {
	e.logger.WithField("guildID", event.GuildID().String()).
		Debugf("voice websocket closed: %d %s", event.Code, event.Reason)
	if event.Code != closeCodeDisconnected {
		return
	}
	player := e.player(event.GuildID())
	if player == nil || (closed != nil && player.remote != closed) {
		// already torn down, or about a connection that was replaced
		return
	}
	e.notify(PlaybackNotification{
		Event:     PlaybackDisconnected,
		GuildID:   player.GuildID,
		ChannelID: player.ChannelID,
	})
}

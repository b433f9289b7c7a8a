package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"wavebot/applemusic"
	"wavebot/audio"
	"wavebot/config"
	"wavebot/controller"
	"wavebot/database"
	"wavebot/discord"
	"wavebot/handlers"
	appSentry "wavebot/sentry"
	"wavebot/spotify"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warnf("Error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	setupLogging(cfg.Options.LogLevel)

	if err := appSentry.Init(cfg.Sentry); err != nil {
		log.Fatalf("Error initializing sentry: %v", err)
	}
	defer appSentry.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Errorf("wavebot stopped: %v", err)
		appSentry.Flush()
		os.Exit(1)
	}
}

func setupLogging(level string) {
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		FieldsOrder:     []string{"module", "guildID", "command"},
		TimestampFormat: time.RFC3339,
	})
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", level)
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

func run(ctx context.Context, cfg *config.ConfigStruct) error {
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	session, err := discord.NewSession(cfg.Discord.BotToken)
	if err != nil {
		return err
	}
	if err := session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	defer session.Close()

	engine, err := audio.NewEngine(session, cfg.Options.SearchPrefix)
	if err != nil {
		return err
	}
	defer engine.Close()

	address, secure, err := cfg.Lavalink.NodeAddress()
	if err != nil {
		return err
	}
	if err := engine.AddNode(ctx, audio.NodeConfig{
		Name:     cfg.Lavalink.NodeName,
		Address:  address,
		Password: cfg.Lavalink.Password,
		Secure:   secure,
	}); err != nil {
		return err
	}

	resolver := audio.NewResolver(engine)
	if cfg.Spotify.IsEnabled() {
		client, err := spotify.NewClient(ctx, cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
		if err != nil {
			log.Warnf("Spotify links disabled: %v", err)
		} else {
			resolver.UseSpotify(client, cfg.Spotify.PlaylistLimit)
		}
	}
	if cfg.AppleMusic.Enabled {
		resolver.UseAppleMusic(applemusic.NewClient(), cfg.AppleMusic.PlaylistLimit)
	}

	voice := discord.NewVoiceLocator(session.State)
	ctrl := controller.New(controller.Options{
		Connect: func(ctx context.Context, guildID, channelID string) (controller.Handle, error) {
			player, err := engine.Connect(ctx, guildID, channelID)
			if err != nil {
				return nil, err
			}
			return player, nil
		},
		Search:        resolver,
		Voice:         voice,
		Deliverer:     discord.NewMessenger(session),
		Recorder:      db,
		DefaultVolume: cfg.Options.DefaultVolume,
	})

	sync := handlers.NewSyncFunc(session, session.State.User.ID)
	manager := handlers.NewManager(handlers.Options{
		Router:            ctrl.Router,
		History:           db,
		Sync:              sync,
		Prefix:            cfg.Discord.Prefix,
		PlayRatePerMinute: cfg.Options.PlayRatePerMinute,
	})
	voiceHandler := handlers.NewVoiceHandler(engine, ctrl.Reaper, voice)

	session.AddHandler(manager.OnMessageCreate)
	session.AddHandler(manager.OnInteractionCreate)
	session.AddHandler(voiceHandler.OnVoiceStateUpdate)
	session.AddHandler(voiceHandler.OnVoiceServerUpdate)

	if cfg.Discord.SyncOnStart {
		synced, err := sync(ctx)
		if err != nil {
			log.Errorf("Error syncing commands: %v", err)
		} else {
			log.Infof("synced %d commands", synced)
		}
	}

	go ctrl.ListenForPlaybackEvents(ctx, engine.Notifications)

	server := &http.Server{
		Addr:    ":" + cfg.Options.Port,
		Handler: handlers.NewOpsRouter(ctrl, appSentry.GetSentryGin()),
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting ops server on :%s", cfg.Options.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	log.Infof("Logged in: %s | %s", session.State.User.Username, session.State.User.ID)

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case runErr = <-serverErr:
		log.Errorf("Ops server failed: %v", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	ctrl.Shutdown(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("Error stopping ops server: %v", err)
	}
	return runErr
}

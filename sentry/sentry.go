package sentry

import (
	"fmt"
	"time"

	sentry "github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"

	"wavebot/config"
)

// Init configures the global client. An empty DSN leaves reporting disabled
// while the hub and transaction helpers keep working.
func Init(cfg config.SentryConfig) error {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Release:          cfg.Release,
		TracesSampleRate: 1.0,
		AttachStacktrace: true,
	}); err != nil {
		return fmt.Errorf("sentry.Init: %w", err)
	}
	return nil
}

// GetSentryGin attaches a hub to every ops API request.
func GetSentryGin() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic: true,
	})
}

func Flush() {
	sentry.Flush(2 * time.Second)
}

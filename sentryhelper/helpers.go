// Package sentryhelper keeps Sentry scope isolated per command and per playback event.
package sentryhelper

import (
	"context"
	"fmt"

	sentry "github.com/getsentry/sentry-go"
)

type contextKey string

const hubContextKey contextKey = "sentry_hub"

// StartCommandTransaction starts a transaction on a cloned hub so breadcrumbs
// and tags stay with this one command.
func StartCommandTransaction(ctx context.Context, commandName string, guildID string, userID string) (context.Context, *sentry.Span) {
	hub := sentry.CurrentHub().Clone()
	ctx = context.WithValue(ctx, hubContextKey, hub)

	transaction := sentry.StartTransaction(ctx, fmt.Sprintf("discord.command.%s", commandName),
		sentry.WithOpName("discord.command"),
		sentry.WithTransactionSource(sentry.SourceRoute),
	)
	transaction.SetTag("command", commandName)
	transaction.SetTag("guild_id", guildID)
	transaction.SetTag("user_id", userID)

	hub.Scope().SetSpan(transaction)

	return transaction.Context(), transaction
}

// StartEventTransaction is StartCommandTransaction for node events, which
// arrive long after the command that caused them has finished.
func StartEventTransaction(ctx context.Context, event string, guildID string) (context.Context, *sentry.Span) {
	hub := sentry.CurrentHub().Clone()
	ctx = context.WithValue(ctx, hubContextKey, hub)

	transaction := sentry.StartTransaction(ctx, fmt.Sprintf("lavalink.event.%s", event),
		sentry.WithOpName("lavalink.event"),
		sentry.WithTransactionSource(sentry.SourceTask),
	)
	transaction.SetTag("guild_id", guildID)

	hub.Scope().SetSpan(transaction)

	return transaction.Context(), transaction
}

// HubFromContext falls back to the current hub outside a transaction.
func HubFromContext(ctx context.Context) *sentry.Hub {
	if ctx == nil {
		return sentry.CurrentHub()
	}
	if hub, ok := ctx.Value(hubContextKey).(*sentry.Hub); ok && hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

func AddBreadcrumb(ctx context.Context, breadcrumb *sentry.Breadcrumb) {
	HubFromContext(ctx).AddBreadcrumb(breadcrumb, nil)
}

func CaptureException(ctx context.Context, err error) *sentry.EventID {
	return HubFromContext(ctx).CaptureException(err)
}

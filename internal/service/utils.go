package service

import (
	"context"
	"time"

	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/ayo6706/mobile-money-ledger/internal/events"
	"github.com/ayo6706/mobile-money-ledger/internal/models"
	"go.uber.org/zap"
)

// followUpTimeout bounds work that must run after the request context may
// already be cancelled, such as recording a failed entry.
const followUpTimeout = 5 * time.Second

func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), followUpTimeout)
}

// outcome is the metrics label for the result of a money movement.
func outcome(err error) string {
	if err == nil {
		return "completed"
	}
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		return "error"
	}
	return kind.String()
}

// failureReason is stored on failed entries. Infrastructure detail is not persisted.
func failureReason(err error) string {
	if de, ok := domain.AsError(err); ok {
		return de.Code
	}
	return "internal_error"
}

func publish(ctx context.Context, publisher events.Publisher, routingKey string, entry models.LedgerEntry) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, routingKey, events.FromEntry(entry)); err != nil {
		zap.L().Warn("publish ledger event failed",
			zap.String("routing_key", routingKey),
			zap.Int64("entry_id", entry.ID),
			zap.Error(err))
	}
}

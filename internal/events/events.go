// Package events publishes ledger events to RabbitMQ after the originating
// database transaction has committed.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/ayo6706/mobile-money-ledger/internal/models"
	"github.com/google/uuid"
)

// LedgerEvent is the JSON body of every published ledger event.
type LedgerEvent struct {
	EntryID    int64              `json:"entry_id"`
	Type       domain.EntryType   `json:"type"`
	Status     domain.EntryStatus `json:"status"`
	SenderID   uuid.UUID          `json:"sender_id"`
	ReceiverID uuid.UUID          `json:"receiver_id"`
	Amount     domain.Amount      `json:"amount"`
	Reason     string             `json:"reason,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

func FromEntry(e models.LedgerEntry) LedgerEvent {
	return LedgerEvent{
		EntryID:    e.ID,
		Type:       e.Type,
		Status:     e.Status,
		SenderID:   e.SenderID,
		ReceiverID: e.ReceiverID,
		Amount:     e.Amount,
		Reason:     e.Metadata[domain.MetaFailureReason],
		OccurredAt: e.UpdatedAt,
	}
}

// Publisher delivers an event under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event LedgerEvent) error
}

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, LedgerEvent) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events map[string][]LedgerEvent
}

func NewRecorder() *Recorder {
	return &Recorder{events: make(map[string][]LedgerEvent)}
}

func (r *Recorder) Publish(_ context.Context, routingKey string, event LedgerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[routingKey] = append(r.events[routingKey], event)
	return nil
}

// Events returns the events published under routingKey, in publish order.
func (r *Recorder) Events(routingKey string) []LedgerEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LedgerEvent(nil), r.events[routingKey]...)
}

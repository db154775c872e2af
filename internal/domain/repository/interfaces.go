package repository

import (
	"context"
	"time"

	"PaperDesk/internal/domain/models"
)

// AccountStore is the persistence collaborator. Load returns
// models.ErrAccountNotFound on a miss; the creation flow is the caller's
// problem, not the core's.
type AccountStore interface {
	Load(ctx context.Context, id string) (*models.AccountRecord, error)
	Save(ctx context.Context, id string, rec *models.AccountRecord) error
	SaveLastPrice(ctx context.Context, id string, price float64) error
	Close() error
}

// TickArchive stores price history and executed trades for later analysis,
// and serves time-ranged reads of the stored ticks. Optional: a nil archive
// disables archival.
type TickArchive interface {
	Init(ctx context.Context) error
	StoreTicks(ctx context.Context, ticks []*models.TickPoint) error
	StoreTrade(ctx context.Context, accountID string, tr *models.TradeResult) error
	History(ctx context.Context, accountID string, from, to time.Time, limit int) ([]*models.TickPoint, error)
	Health(ctx context.Context) error
	Close() error
}

// EventPublisher pushes outbound domain events (trades, settlements, wager
// outcomes) to the event stream. Optional: nil disables publishing.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event interface{}) error
	Close() error
}

// Broadcaster is the presentation collaborator: observe-only fan-out of
// tick and wager frames to connected clients.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// Metrics abstracts the metrics backend.
type Metrics interface {
	RecordTick(regime string, price float64)
	RecordTrade(side string)
	RecordWager(mode, outcome string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/walletmesh/multiwallet/internal/domain"
)

// Event is a typed notification value emitted by the core after a state
// change has been committed. Delivery is fire-and-forget; the core never
// depends on a subscriber's outcome.
type Event interface {
	EventKind() string
}

// Sink receives events. Implementations must not block the caller for
// longer than trivial work; anything slow belongs behind a queue.
type Sink interface {
	Publish(ctx context.Context, event Event)
}

type BalanceChanged struct {
	WalletID   string
	Bucket     domain.BalanceType
	OldValue   decimal.Decimal
	NewValue   decimal.Decimal
	Delta      decimal.Decimal
	Reason     string
	OccurredAt time.Time
}

func (BalanceChanged) EventKind() string { return "balance.changed" }

type WalletFrozen struct {
	WalletID   string
	Amount     decimal.Decimal
	OccurredAt time.Time
}

func (WalletFrozen) EventKind() string { return "wallet.frozen" }

type WalletUnfrozen struct {
	WalletID   string
	Amount     decimal.Decimal
	OccurredAt time.Time
}

func (WalletUnfrozen) EventKind() string { return "wallet.unfrozen" }

type TransferStatusChanged struct {
	TransferID string
	OldStatus  domain.TransferStatus
	NewStatus  domain.TransferStatus
	OccurredAt time.Time
}

func (TransferStatusChanged) EventKind() string { return "transfer.status_changed" }

type BatchStarted struct {
	Total      int
	Mode       string
	OccurredAt time.Time
}

func (BatchStarted) EventKind() string { return "batch.started" }

type BatchCompleted struct {
	Total      int
	Mode       string
	OccurredAt time.Time
}

func (BatchCompleted) EventKind() string { return "batch.completed" }

type BatchFailed struct {
	Total       int
	FailedCount int
	Mode        string
	OccurredAt  time.Time
}

func (BatchFailed) EventKind() string { return "batch.failed" }

type SuspiciousActivity struct {
	WalletID   string
	EntryID    string
	Severity   string
	Reason     string
	OccurredAt time.Time
}

func (SuspiciousActivity) EventKind() string { return "wallet.suspicious_activity" }

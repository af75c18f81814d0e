package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "PENDING"
	TransferStatusPaid      TransferStatus = "PAID"
	TransferStatusConfirmed TransferStatus = "CONFIRMED"
	TransferStatusRejected  TransferStatus = "REJECTED"
)

// Terminal reports whether the status permits no further transitions.
func (s TransferStatus) Terminal() bool {
	return s == TransferStatusConfirmed || s == TransferStatusRejected
}

// Transfer links a source and a destination holder and tracks the
// lifecycle of a coordinated fund movement between their wallets.
// WithdrawEntryID and DepositEntryID are populated only once funds have
// actually moved; after a terminal status they must not change.
type Transfer struct {
	ID              string
	From            HolderRef
	To              HolderRef
	FromWalletID    string
	ToWalletID      string
	Status          TransferStatus
	StatusChangedAt time.Time
	WithdrawEntryID *string
	DepositEntryID  *string

	// Amount is in the source wallet's currency; fee and discount apply
	// in the same currency before any conversion.
	Amount     decimal.Decimal
	Fee        decimal.Decimal
	Discount   decimal.Decimal
	FromBucket BalanceType
	ToBucket   BalanceType
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

// CanTransitionTo reports whether the status machine allows moving from
// the current status to next.
//
//	PENDING -> PAID | CONFIRMED | REJECTED
//	PAID    -> CONFIRMED | REJECTED
func (t Transfer) CanTransitionTo(next TransferStatus) bool {
	if t.Status.Terminal() {
		return false
	}
	switch next {
	case TransferStatusPaid:
		return t.Status == TransferStatusPending
	case TransferStatusConfirmed:
		return t.Status == TransferStatusPending || t.Status == TransferStatusPaid
	case TransferStatusRejected:
		return true
	default:
		return false
	}
}

// Executed reports whether the transfer has already moved funds.
func (t Transfer) Executed() bool {
	return t.WithdrawEntryID != nil && t.DepositEntryID != nil
}

// TransferOptions tunes a single transfer. Zero values mean: no fee, no
// discount, confirmed status, available-to-available buckets.
type TransferOptions struct {
	Fee        decimal.Decimal
	Discount   decimal.Decimal
	Status     TransferStatus
	FromBucket BalanceType
	ToBucket   BalanceType
	Meta       map[string]string
}

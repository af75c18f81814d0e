package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds the four segregated balance buckets for one holder+currency
// pair. Balances are mutated exclusively through the balance service; the
// entity enforces the non-negative bucket invariant itself.
type Wallet struct {
	ID          string
	Holder      HolderRef
	Currency    string
	Name        string
	Slug        string
	Description string
	Meta        map[string]string

	Available decimal.Decimal
	Pending   decimal.Decimal
	Frozen    decimal.Decimal
	Trial     decimal.Decimal

	// Version backs the optimistic concurrency check on save.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// TotalBalance is the sum of all four buckets.
func (w Wallet) TotalBalance() decimal.Decimal {
	return w.Available.Add(w.Pending).Add(w.Frozen).Add(w.Trial)
}

// BalanceFor returns the current value of the requested bucket.
func (w Wallet) BalanceFor(bucket BalanceType) (decimal.Decimal, error) {
	switch bucket {
	case BalanceAvailable:
		return w.Available, nil
	case BalancePending:
		return w.Pending, nil
	case BalanceFrozen:
		return w.Frozen, nil
	case BalanceTrial:
		return w.Trial, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidBalanceType, bucket)
	}
}

// CreditBucket increases the requested bucket by amount.
func (w *Wallet) CreditBucket(bucket BalanceType, amount decimal.Decimal) error {
	current, err := w.BalanceFor(bucket)
	if err != nil {
		return err
	}
	return w.SetBucket(bucket, current.Add(amount))
}

// DebitBucket decreases the requested bucket by amount. The bucket must
// already cover the amount; no bucket ever goes negative.
func (w *Wallet) DebitBucket(bucket BalanceType, amount decimal.Decimal) error {
	current, err := w.BalanceFor(bucket)
	if err != nil {
		return err
	}
	if current.LessThan(amount) {
		return fmt.Errorf("%w: %s balance %s is below %s", ErrInsufficientFunds, bucket, current, amount)
	}
	return w.SetBucket(bucket, current.Sub(amount))
}

// SetBucket overwrites the bucket value directly. Reconciliation uses it
// to restore balances recomputed from history.
func (w *Wallet) SetBucket(bucket BalanceType, value decimal.Decimal) error {
	switch bucket {
	case BalanceAvailable:
		w.Available = value
	case BalancePending:
		w.Pending = value
	case BalanceFrozen:
		w.Frozen = value
	case BalanceTrial:
		w.Trial = value
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBalanceType, bucket)
	}
	return nil
}

// Deleted reports whether the wallet has been soft-deleted.
func (w Wallet) Deleted() bool {
	return w.DeletedAt != nil
}

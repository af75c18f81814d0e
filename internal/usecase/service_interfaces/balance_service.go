package service_interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/walletmesh/multiwallet/internal/domain"
)

// BalanceService is the balance mutator: every primitive bucket change
// goes through it, appending exactly one ledger entry per mutation.
type BalanceService interface {
	Credit(ctx context.Context, walletID string, amount decimal.Decimal, bucket domain.BalanceType, meta map[string]string) (domain.LedgerEntry, error)
	Debit(ctx context.Context, walletID string, amount decimal.Decimal, bucket domain.BalanceType, meta map[string]string) (domain.LedgerEntry, error)

	MoveToPending(ctx context.Context, walletID string, amount decimal.Decimal) error
	// ConfirmPending returns (false, nil) when the pending bucket does
	// not cover the amount.
	ConfirmPending(ctx context.Context, walletID string, amount decimal.Decimal) (bool, error)
	CancelPending(ctx context.Context, walletID string, amount decimal.Decimal) error
	Freeze(ctx context.Context, walletID string, amount decimal.Decimal) error
	Unfreeze(ctx context.Context, walletID string, amount decimal.Decimal) error
	AddTrialBalance(ctx context.Context, walletID string, amount decimal.Decimal) (domain.LedgerEntry, error)
	// ConvertTrialToAvailable returns (false, nil) when the trial bucket
	// does not cover the amount.
	ConvertTrialToAvailable(ctx context.Context, walletID string, amount decimal.Decimal) (bool, error)
}

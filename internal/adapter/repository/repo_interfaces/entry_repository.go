package repo_interfaces

import (
	"context"
	"time"

	"github.com/walletmesh/multiwallet/internal/domain"
)

type EntryRepository interface {
	Create(ctx context.Context, entry domain.LedgerEntry) (domain.LedgerEntry, error)
	Get(ctx context.Context, id string) (domain.LedgerEntry, error)
	// ListByWallet returns every non-deleted entry for the wallet in
	// creation order.
	ListByWallet(ctx context.Context, walletID string) ([]domain.LedgerEntry, error)
	ListByWalletSince(ctx context.Context, walletID string, since time.Time) ([]domain.LedgerEntry, error)
	SetConfirmed(ctx context.Context, id string, confirmed bool) error
	SoftDelete(ctx context.Context, id string) error
}

package repo_interfaces

import (
	"context"

	"github.com/walletmesh/multiwallet/internal/domain"
)

type WalletRepository interface {
	Create(ctx context.Context, wallet domain.Wallet) (domain.Wallet, error)
	Get(ctx context.Context, id string) (domain.Wallet, error)
	// GetForUpdate loads the wallet under a row-level lock. It must be
	// called inside a UnitOfWork scope.
	GetForUpdate(ctx context.Context, id string) (domain.Wallet, error)
	FindByHolderAndCurrency(ctx context.Context, holder domain.HolderRef, currency string) (domain.Wallet, error)
	// FindBySlug resolves a wallet by its uniqueness triple: holder,
	// currency and slug.
	FindBySlug(ctx context.Context, holder domain.HolderRef, currency, slug string) (domain.Wallet, error)
	ListByHolder(ctx context.Context, holder domain.HolderRef) ([]domain.Wallet, error)
	// Save persists balances and metadata with an optimistic version
	// check; domain.ErrConcurrentUpdate signals a stale wallet.
	Save(ctx context.Context, wallet domain.Wallet) (domain.Wallet, error)
	SoftDelete(ctx context.Context, id string) error
}

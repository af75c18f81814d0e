package service_interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/walletmesh/multiwallet/internal/domain"
)

type CreateWalletParams struct {
	Holder      domain.HolderRef
	Currency    string
	Name        string
	Description string
	Meta        map[string]string
}

type WalletService interface {
	Create(ctx context.Context, params CreateWalletParams) (domain.Wallet, error)
	// GetOrCreate returns the holder's wallet for the currency,
	// creating the default wallet on first use.
	GetOrCreate(ctx context.Context, holder domain.HolderRef, currency string) (domain.Wallet, error)
	Get(ctx context.Context, id string) (domain.Wallet, error)
	FindBySlug(ctx context.Context, holder domain.HolderRef, currency, slug string) (domain.Wallet, error)
	ListByHolder(ctx context.Context, holder domain.HolderRef) ([]domain.Wallet, error)
	TotalBalance(ctx context.Context, id string) (decimal.Decimal, error)
	// Delete soft-deletes the wallet; it fails with ErrWalletNotEmpty
	// unless the total balance is zero.
	Delete(ctx context.Context, id string) error
}

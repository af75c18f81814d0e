package service_interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/walletmesh/multiwallet/internal/domain"
)

// TransferRecipient is one destination of a batch transfer.
type TransferRecipient struct {
	ToWalletID string
	Amount     decimal.Decimal
	Options    domain.TransferOptions
}

type TransferService interface {
	Transfer(ctx context.Context, fromWalletID, toWalletID string, amount decimal.Decimal, opts domain.TransferOptions) (domain.Transfer, error)
	// BatchTransfer applies the per-recipient logic sequentially; each
	// recipient commits on its own unless an enclosing atomic scope is
	// already open. It stops at the first failure and returns the
	// transfers completed before it.
	BatchTransfer(ctx context.Context, fromWalletID string, recipients []TransferRecipient) ([]domain.Transfer, error)
	Get(ctx context.Context, transferID string) (domain.Transfer, error)
	MarkAsPaid(ctx context.Context, transferID string) (domain.Transfer, error)
	MarkAsConfirmed(ctx context.Context, transferID string) (domain.Transfer, error)
	MarkAsRejected(ctx context.Context, transferID string) (domain.Transfer, error)
}

package repo_interfaces

import (
	"context"

	"github.com/walletmesh/multiwallet/internal/domain"
)

type TransferRepository interface {
	Create(ctx context.Context, transfer domain.Transfer) (domain.Transfer, error)
	Get(ctx context.Context, id string) (domain.Transfer, error)
	// Save persists status, status timestamp, and entry references.
	Save(ctx context.Context, transfer domain.Transfer) (domain.Transfer, error)
	SoftDelete(ctx context.Context, id string) error
}

package memory

import (
	"context"
	"fmt"

	"github.com/walletmesh/multiwallet/internal/adapter/repository/repo_interfaces"
	"github.com/walletmesh/multiwallet/internal/domain"
)

var _ repo_interfaces.TransferRepository = (*TransferRepository)(nil)

type TransferRepository struct {
	store *Store
}

func NewTransferRepository(store *Store) *TransferRepository {
	return &TransferRepository{store: store}
}

func (r *TransferRepository) Create(ctx context.Context, transfer domain.Transfer) (domain.Transfer, error) {
	err := r.store.locked(ctx, func() error {
		now := r.store.now()
		transfer.CreatedAt = now
		transfer.UpdatedAt = now
		r.store.transfers[transfer.ID] = cloneTransfer(transfer)
		return nil
	})
	if err != nil {
		return domain.Transfer{}, err
	}
	return transfer, nil
}

func (r *TransferRepository) Get(ctx context.Context, id string) (domain.Transfer, error) {
	var transfer domain.Transfer
	err := r.store.locked(ctx, func() error {
		found, ok := r.store.transfers[id]
		if !ok || found.DeletedAt != nil {
			return fmt.Errorf("%w: %s", domain.ErrTransferNotFound, id)
		}
		transfer = cloneTransfer(found)
		return nil
	})
	return transfer, err
}

func (r *TransferRepository) Save(ctx context.Context, transfer domain.Transfer) (domain.Transfer, error) {
	err := r.store.locked(ctx, func() error {
		current, ok := r.store.transfers[transfer.ID]
		if !ok || current.DeletedAt != nil {
			return fmt.Errorf("%w: %s", domain.ErrTransferNotFound, transfer.ID)
		}
		transfer.CreatedAt = current.CreatedAt
		transfer.UpdatedAt = r.store.now()
		r.store.transfers[transfer.ID] = cloneTransfer(transfer)
		return nil
	})
	if err != nil {
		return domain.Transfer{}, err
	}
	return transfer, nil
}

func (r *TransferRepository) SoftDelete(ctx context.Context, id string) error {
	return r.store.locked(ctx, func() error {
		transfer, ok := r.store.transfers[id]
		if !ok || transfer.DeletedAt != nil {
			return fmt.Errorf("%w: %s", domain.ErrTransferNotFound, id)
		}
		now := r.store.now()
		transfer.DeletedAt = &now
		transfer.UpdatedAt = now
		r.store.transfers[id] = transfer
		return nil
	})
}

func cloneTransfer(transfer domain.Transfer) domain.Transfer {
	out := transfer
	if transfer.WithdrawEntryID != nil {
		withdraw := *transfer.WithdrawEntryID
		out.WithdrawEntryID = &withdraw
	}
	if transfer.DepositEntryID != nil {
		deposit := *transfer.DepositEntryID
		out.DepositEntryID = &deposit
	}
	if transfer.DeletedAt != nil {
		deleted := *transfer.DeletedAt
		out.DeletedAt = &deleted
	}
	return out
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/walletmesh/multiwallet/internal/adapter/repository/repo_interfaces"
	"github.com/walletmesh/multiwallet/internal/domain"
)

var _ repo_interfaces.TransferRepository = (*TransferRepository)(nil)

type TransferRepository struct {
	db *sql.DB
}

func NewTransferRepository(db *sql.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

const transferColumns = `
id, from_kind, from_id, to_kind, to_id, from_wallet_id, to_wallet_id,
status, status_changed_at, withdraw_entry_id, deposit_entry_id,
amount, fee, discount, from_bucket, to_bucket,
created_at, updated_at, deleted_at`

func (r *TransferRepository) Create(ctx context.Context, transfer domain.Transfer) (domain.Transfer, error) {
	const query = `
INSERT INTO transfers (
	id,
	from_kind,
	from_id,
	to_kind,
	to_id,
	from_wallet_id,
	to_wallet_id,
	status,
	status_changed_at,
	withdraw_entry_id,
	deposit_entry_id,
	amount,
	fee,
	discount,
	from_bucket,
	to_bucket
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING created_at, updated_at`

	var createdAt, updatedAt time.Time
	if err := runner(ctx, r.db).QueryRowContext(
		ctx,
		query,
		transfer.ID,
		transfer.From.Kind,
		transfer.From.ID,
		transfer.To.Kind,
		transfer.To.ID,
		transfer.FromWalletID,
		transfer.ToWalletID,
		transfer.Status,
		transfer.StatusChangedAt,
		transfer.WithdrawEntryID,
		transfer.DepositEntryID,
		transfer.Amount,
		transfer.Fee,
		transfer.Discount,
		transfer.FromBucket,
		transfer.ToBucket,
	).Scan(&createdAt, &updatedAt); err != nil {
		return domain.Transfer{}, fmt.Errorf("create transfer: %w", err)
	}

	transfer.CreatedAt = createdAt
	transfer.UpdatedAt = updatedAt
	return transfer, nil
}

func (r *TransferRepository) Get(ctx context.Context, id string) (domain.Transfer, error) {
	const query = `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1 AND deleted_at IS NULL`

	transfer, err := scanTransferFrom(runner(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return domain.Transfer{}, mapNotFound(err, domain.ErrTransferNotFound)
	}
	return transfer, nil
}

func (r *TransferRepository) Save(ctx context.Context, transfer domain.Transfer) (domain.Transfer, error) {
	const query = `
UPDATE transfers
SET status = $1,
	status_changed_at = $2,
	withdraw_entry_id = $3,
	deposit_entry_id = $4,
	updated_at = NOW()
WHERE id = $5 AND deleted_at IS NULL`

	result, err := runner(ctx, r.db).ExecContext(
		ctx,
		query,
		transfer.Status,
		transfer.StatusChangedAt,
		transfer.WithdrawEntryID,
		transfer.DepositEntryID,
		transfer.ID,
	)
	if err != nil {
		return domain.Transfer{}, fmt.Errorf("save transfer: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Transfer{}, fmt.Errorf("save transfer: %w", err)
	}
	if affected == 0 {
		return domain.Transfer{}, domain.ErrTransferNotFound
	}

	return transfer, nil
}

func (r *TransferRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE transfers SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := runner(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete transfer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transfer: %w", err)
	}
	if affected == 0 {
		return domain.ErrTransferNotFound
	}
	return nil
}

func scanTransferFrom(s rowScanner) (domain.Transfer, error) {
	var (
		transfer  domain.Transfer
		withdraw  sql.NullString
		deposit   sql.NullString
		deletedAt sql.NullTime
	)

	if err := s.Scan(
		&transfer.ID,
		&transfer.From.Kind,
		&transfer.From.ID,
		&transfer.To.Kind,
		&transfer.To.ID,
		&transfer.FromWalletID,
		&transfer.ToWalletID,
		&transfer.Status,
		&transfer.StatusChangedAt,
		&withdraw,
		&deposit,
		&transfer.Amount,
		&transfer.Fee,
		&transfer.Discount,
		&transfer.FromBucket,
		&transfer.ToBucket,
		&transfer.CreatedAt,
		&transfer.UpdatedAt,
		&deletedAt,
	); err != nil {
		return domain.Transfer{}, err
	}

	if withdraw.Valid {
		value := withdraw.String
		transfer.WithdrawEntryID = &value
	}
	if deposit.Valid {
		value := deposit.String
		transfer.DepositEntryID = &value
	}
	if deletedAt.Valid {
		value := deletedAt.Time
		transfer.DeletedAt = &value
	}

	return transfer, nil
}

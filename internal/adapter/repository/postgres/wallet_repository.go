package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/walletmesh/multiwallet/internal/adapter/repository/repo_interfaces"
	"github.com/walletmesh/multiwallet/internal/domain"
)

var _ repo_interfaces.WalletRepository = (*WalletRepository)(nil)

type WalletRepository struct {
	db *sql.DB
}

func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

const walletColumns = `
id, holder_kind, holder_id, currency, name, slug, description, meta,
balance_available, balance_pending, balance_frozen, balance_trial,
version, created_at, updated_at, deleted_at`

func (r *WalletRepository) Create(ctx context.Context, wallet domain.Wallet) (domain.Wallet, error) {
	const query = `
INSERT INTO wallets (
	id,
	holder_kind,
	holder_id,
	currency,
	name,
	slug,
	description,
	meta,
	balance_available,
	balance_pending,
	balance_frozen,
	balance_trial,
	version
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING created_at, updated_at`

	meta, err := marshalMeta(wallet.Meta)
	if err != nil {
		return domain.Wallet{}, fmt.Errorf("create wallet: %w", err)
	}

	var createdAt, updatedAt time.Time
	if err := runner(ctx, r.db).QueryRowContext(
		ctx,
		query,
		wallet.ID,
		wallet.Holder.Kind,
		wallet.Holder.ID,
		wallet.Currency,
		wallet.Name,
		wallet.Slug,
		wallet.Description,
		meta,
		wallet.Available,
		wallet.Pending,
		wallet.Frozen,
		wallet.Trial,
		wallet.Version,
	).Scan(&createdAt, &updatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.Wallet{}, fmt.Errorf("%w: holder %s currency %s slug %s",
				domain.ErrDuplicateWallet, wallet.Holder, wallet.Currency, wallet.Slug)
		}
		return domain.Wallet{}, fmt.Errorf("create wallet: %w", err)
	}

	wallet.CreatedAt = createdAt
	wallet.UpdatedAt = updatedAt

	return wallet, nil
}

func (r *WalletRepository) Get(ctx context.Context, id string) (domain.Wallet, error) {
	const query = `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 AND deleted_at IS NULL`
	return r.scanWallet(runner(ctx, r.db).QueryRowContext(ctx, query, id))
}

func (r *WalletRepository) GetForUpdate(ctx context.Context, id string) (domain.Wallet, error) {
	const query = `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	return r.scanWallet(runner(ctx, r.db).QueryRowContext(ctx, query, id))
}

func (r *WalletRepository) FindByHolderAndCurrency(ctx context.Context, holder domain.HolderRef, currency string) (domain.Wallet, error) {
	const query = `
SELECT ` + walletColumns + `
FROM wallets
WHERE holder_kind = $1 AND holder_id = $2 AND currency = $3 AND deleted_at IS NULL
ORDER BY created_at
LIMIT 1`
	return r.scanWallet(runner(ctx, r.db).QueryRowContext(ctx, query, holder.Kind, holder.ID, currency))
}

func (r *WalletRepository) FindBySlug(ctx context.Context, holder domain.HolderRef, currency, slug string) (domain.Wallet, error) {
	const query = `
SELECT ` + walletColumns + `
FROM wallets
WHERE holder_kind = $1 AND holder_id = $2 AND currency = $3 AND slug = $4 AND deleted_at IS NULL
LIMIT 1`
	return r.scanWallet(runner(ctx, r.db).QueryRowContext(ctx, query, holder.Kind, holder.ID, currency, slug))
}

func (r *WalletRepository) ListByHolder(ctx context.Context, holder domain.HolderRef) ([]domain.Wallet, error) {
	const query = `
SELECT ` + walletColumns + `
FROM wallets
WHERE holder_kind = $1 AND holder_id = $2 AND deleted_at IS NULL
ORDER BY created_at`

	rows, err := runner(ctx, r.db).QueryContext(ctx, query, holder.Kind, holder.ID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		wallet, err := r.scanWalletRows(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}

	return wallets, rows.Err()
}

func (r *WalletRepository) Save(ctx context.Context, wallet domain.Wallet) (domain.Wallet, error) {
	const query = `
UPDATE wallets
SET name = $1,
	slug = $2,
	description = $3,
	meta = $4,
	balance_available = $5,
	balance_pending = $6,
	balance_frozen = $7,
	balance_trial = $8,
	version = version + 1,
	updated_at = NOW()
WHERE id = $9 AND version = $10 AND deleted_at IS NULL`

	meta, err := marshalMeta(wallet.Meta)
	if err != nil {
		return domain.Wallet{}, fmt.Errorf("save wallet: %w", err)
	}

	result, err := runner(ctx, r.db).ExecContext(
		ctx,
		query,
		wallet.Name,
		wallet.Slug,
		wallet.Description,
		meta,
		wallet.Available,
		wallet.Pending,
		wallet.Frozen,
		wallet.Trial,
		wallet.ID,
		wallet.Version,
	)
	if err != nil {
		return domain.Wallet{}, fmt.Errorf("save wallet: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Wallet{}, fmt.Errorf("save wallet: %w", err)
	}
	if affected == 0 {
		return domain.Wallet{}, fmt.Errorf("%w: wallet %s version %d", domain.ErrConcurrentUpdate, wallet.ID, wallet.Version)
	}

	wallet.Version++
	return wallet, nil
}

func (r *WalletRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE wallets SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := runner(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	if affected == 0 {
		return domain.ErrWalletNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *WalletRepository) scanWallet(row *sql.Row) (domain.Wallet, error) {
	wallet, err := scanWalletFrom(row)
	if err != nil {
		return domain.Wallet{}, mapNotFound(err, domain.ErrWalletNotFound)
	}
	return wallet, nil
}

func (r *WalletRepository) scanWalletRows(rows *sql.Rows) (domain.Wallet, error) {
	return scanWalletFrom(rows)
}

func scanWalletFrom(s rowScanner) (domain.Wallet, error) {
	var (
		wallet    domain.Wallet
		meta      []byte
		deletedAt sql.NullTime
	)

	if err := s.Scan(
		&wallet.ID,
		&wallet.Holder.Kind,
		&wallet.Holder.ID,
		&wallet.Currency,
		&wallet.Name,
		&wallet.Slug,
		&wallet.Description,
		&meta,
		&wallet.Available,
		&wallet.Pending,
		&wallet.Frozen,
		&wallet.Trial,
		&wallet.Version,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
		&deletedAt,
	); err != nil {
		return domain.Wallet{}, err
	}

	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &wallet.Meta); err != nil {
			return domain.Wallet{}, fmt.Errorf("decode wallet meta: %w", err)
		}
	}
	if deletedAt.Valid {
		value := deletedAt.Time
		wallet.DeletedAt = &value
	}

	return wallet, nil
}

func marshalMeta(meta map[string]string) ([]byte, error) {
	if meta == nil {
		meta = map[string]string{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode meta: %w", err)
	}
	return raw, nil
}

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

var _ repo_interfaces.EntryRepository = (*EntryRepository)(nil)

type EntryRepository struct {
	db *sql.DB
}

func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

const entryColumns = `
id, wallet_id, payer_kind, payer_id, entry_type, amount, bucket,
confirmed, meta, created_at, deleted_at`

func (r *EntryRepository) Create(ctx context.Context, entry domain.LedgerEntry) (domain.LedgerEntry, error) {
	const query = `
INSERT INTO ledger_entries (
	id,
	wallet_id,
	payer_kind,
	payer_id,
	entry_type,
	amount,
	bucket,
	confirmed,
	meta
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING created_at`

	meta, err := marshalMeta(entry.Meta)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("create ledger entry: %w", err)
	}

	var createdAt time.Time
	if err := runner(ctx, r.db).QueryRowContext(
		ctx,
		query,
		entry.ID,
		entry.WalletID,
		entry.Payer.Kind,
		entry.Payer.ID,
		entry.Type,
		entry.Amount,
		entry.Bucket,
		entry.Confirmed,
		meta,
	).Scan(&createdAt); err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("create ledger entry: %w", err)
	}

	entry.CreatedAt = createdAt
	return entry, nil
}

func (r *EntryRepository) Get(ctx context.Context, id string) (domain.LedgerEntry, error) {
	const query = `SELECT ` + entryColumns + ` FROM ledger_entries WHERE id = $1 AND deleted_at IS NULL`

	entry, err := scanEntryFrom(runner(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return domain.LedgerEntry{}, mapNotFound(err, domain.ErrEntryNotFound)
	}
	return entry, nil
}

func (r *EntryRepository) ListByWallet(ctx context.Context, walletID string) ([]domain.LedgerEntry, error) {
	const query = `
SELECT ` + entryColumns + `
FROM ledger_entries
WHERE wallet_id = $1 AND deleted_at IS NULL
ORDER BY created_at, id`

	return r.list(ctx, query, walletID)
}

func (r *EntryRepository) ListByWalletSince(ctx context.Context, walletID string, since time.Time) ([]domain.LedgerEntry, error) {
	const query = `
SELECT ` + entryColumns + `
FROM ledger_entries
WHERE wallet_id = $1 AND created_at >= $2 AND deleted_at IS NULL
ORDER BY created_at, id`

	return r.list(ctx, query, walletID, since)
}

func (r *EntryRepository) SetConfirmed(ctx context.Context, id string, confirmed bool) error {
	const query = `UPDATE ledger_entries SET confirmed = $1 WHERE id = $2 AND deleted_at IS NULL`

	result, err := runner(ctx, r.db).ExecContext(ctx, query, confirmed, id)
	if err != nil {
		return fmt.Errorf("confirm ledger entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("confirm ledger entry: %w", err)
	}
	if affected == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (r *EntryRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE ledger_entries SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := runner(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete ledger entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete ledger entry: %w", err)
	}
	if affected == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (r *EntryRepository) list(ctx context.Context, query string, args ...any) ([]domain.LedgerEntry, error) {
	rows, err := runner(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		entry, err := scanEntryFrom(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanEntryFrom(s rowScanner) (domain.LedgerEntry, error) {
	var (
		entry     domain.LedgerEntry
		meta      []byte
		deletedAt sql.NullTime
	)

	if err := s.Scan(
		&entry.ID,
		&entry.WalletID,
		&entry.Payer.Kind,
		&entry.Payer.ID,
		&entry.Type,
		&entry.Amount,
		&entry.Bucket,
		&entry.Confirmed,
		&meta,
		&entry.CreatedAt,
		&deletedAt,
	); err != nil {
		return domain.LedgerEntry{}, err
	}

	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &entry.Meta); err != nil {
			return domain.LedgerEntry{}, fmt.Errorf("decode entry meta: %w", err)
		}
	}
	if deletedAt.Valid {
		value := deletedAt.Time
		entry.DeletedAt = &value
	}

	return entry, nil
}

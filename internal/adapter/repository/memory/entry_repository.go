package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/walletmesh/multiwallet/internal/adapter/repository/repo_interfaces"
	"github.com/walletmesh/multiwallet/internal/domain"
)

var _ repo_interfaces.EntryRepository = (*EntryRepository)(nil)

type EntryRepository struct {
	store *Store
}

func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

func (r *EntryRepository) Create(ctx context.Context, entry domain.LedgerEntry) (domain.LedgerEntry, error) {
	err := r.store.locked(ctx, func() error {
		entry.CreatedAt = r.store.now()
		r.store.entries[entry.ID] = cloneEntry(entry)
		r.store.entryOrder = append(r.store.entryOrder, entry.ID)
		return nil
	})
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	return entry, nil
}

func (r *EntryRepository) Get(ctx context.Context, id string) (domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	err := r.store.locked(ctx, func() error {
		found, ok := r.store.entries[id]
		if !ok || found.Deleted() {
			return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, id)
		}
		entry = cloneEntry(found)
		return nil
	})
	return entry, err
}

func (r *EntryRepository) ListByWallet(ctx context.Context, walletID string) ([]domain.LedgerEntry, error) {
	return r.listWhere(ctx, walletID, time.Time{})
}

func (r *EntryRepository) ListByWalletSince(ctx context.Context, walletID string, since time.Time) ([]domain.LedgerEntry, error) {
	return r.listWhere(ctx, walletID, since)
}

func (r *EntryRepository) SetConfirmed(ctx context.Context, id string, confirmed bool) error {
	return r.store.locked(ctx, func() error {
		entry, ok := r.store.entries[id]
		if !ok || entry.Deleted() {
			return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, id)
		}
		entry.Confirmed = confirmed
		r.store.entries[id] = entry
		return nil
	})
}

func (r *EntryRepository) SoftDelete(ctx context.Context, id string) error {
	return r.store.locked(ctx, func() error {
		entry, ok := r.store.entries[id]
		if !ok || entry.Deleted() {
			return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, id)
		}
		now := r.store.now()
		entry.DeletedAt = &now
		r.store.entries[id] = entry
		return nil
	})
}

func (r *EntryRepository) listWhere(ctx context.Context, walletID string, since time.Time) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	err := r.store.locked(ctx, func() error {
		for _, id := range r.store.entryOrder {
			entry, ok := r.store.entries[id]
			if !ok || entry.Deleted() || entry.WalletID != walletID {
				continue
			}
			if !since.IsZero() && entry.CreatedAt.Before(since) {
				continue
			}
			entries = append(entries, cloneEntry(entry))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func cloneEntry(entry domain.LedgerEntry) domain.LedgerEntry {
	out := entry
	if entry.Meta != nil {
		out.Meta = make(map[string]string, len(entry.Meta))
		for k, v := range entry.Meta {
			out.Meta[k] = v
		}
	}
	if entry.DeletedAt != nil {
		deleted := *entry.DeletedAt
		out.DeletedAt = &deleted
	}
	return out
}

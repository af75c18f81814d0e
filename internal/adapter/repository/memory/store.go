// Package memory provides in-memory repository implementations with the
// same contracts as the postgres adapters. They back tests and local
// wiring; the unit of work gives real rollback via state snapshots.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/walletmesh/multiwallet/internal/adapter/repository/repo_interfaces"
	"github.com/walletmesh/multiwallet/internal/domain"
	"github.com/walletmesh/multiwallet/internal/events"
)

type txToken struct{}

// Store is the shared state behind the in-memory repositories.
type Store struct {
	mu         sync.Mutex
	wallets    map[string]domain.Wallet
	entries    map[string]domain.LedgerEntry
	entryOrder []string
	transfers  map[string]domain.Transfer
	nowFn      func() time.Time
}

func NewStore() *Store {
	return &Store{
		wallets:   map[string]domain.Wallet{},
		entries:   map[string]domain.LedgerEntry{},
		transfers: map[string]domain.Transfer{},
		nowFn:     time.Now,
	}
}

// SetNow overrides the clock, for tests that need deterministic
// timestamps.
func (s *Store) SetNow(nowFn func() time.Time) {
	s.nowFn = nowFn
}

func (s *Store) now() time.Time {
	return s.nowFn().UTC()
}

func (s *Store) inTx(ctx context.Context) bool {
	held, ok := ctx.Value(txToken{}).(bool)
	return ok && held
}

// locked runs fn with the store mutex held, unless the context already
// carries an open unit-of-work scope holding it.
func (s *Store) locked(ctx context.Context, fn func() error) error {
	if s.inTx(ctx) {
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

type snapshot struct {
	wallets    map[string]domain.Wallet
	entries    map[string]domain.LedgerEntry
	entryOrder []string
	transfers  map[string]domain.Transfer
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		wallets:    make(map[string]domain.Wallet, len(s.wallets)),
		entries:    make(map[string]domain.LedgerEntry, len(s.entries)),
		entryOrder: append([]string(nil), s.entryOrder...),
		transfers:  make(map[string]domain.Transfer, len(s.transfers)),
	}
	for id, w := range s.wallets {
		snap.wallets[id] = w
	}
	for id, e := range s.entries {
		snap.entries[id] = e
	}
	for id, t := range s.transfers {
		snap.transfers[id] = t
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.wallets = snap.wallets
	s.entries = snap.entries
	s.entryOrder = snap.entryOrder
	s.transfers = snap.transfers
}

var _ repo_interfaces.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork holds the store mutex for the whole scope and restores a
// snapshot of the state when fn fails, mirroring a rolled-back
// transaction. Nested calls join the open scope. Events raised inside
// the scope stay buffered until it commits.
type UnitOfWork struct {
	store *Store
}

func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{store: store}
}

func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if u.store.inTx(ctx) {
		return fn(ctx)
	}

	ctx, buffer := events.WithBuffer(ctx)

	if err := u.run(ctx, fn); err != nil {
		return err
	}

	buffer.Flush(ctx)
	return nil
}

func (u *UnitOfWork) run(ctx context.Context, fn func(ctx context.Context) error) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	snap := u.store.snapshot()
	if err := fn(context.WithValue(ctx, txToken{}, true)); err != nil {
		u.store.restore(snap)
		return err
	}

	return nil
}

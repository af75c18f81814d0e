package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletmesh/multiwallet/internal/domain"
)

func seedWallet(t *testing.T, repo *WalletRepository, id, holderID, slug string) domain.Wallet {
	t.Helper()
	wallet, err := repo.Create(context.Background(), domain.Wallet{
		ID:       id,
		Holder:   domain.NewHolderRef("user", holderID),
		Currency: "USD",
		Slug:     slug,
	})
	require.NoError(t, err)
	return wallet
}

func TestUnitOfWorkRollback(t *testing.T) {
	store := NewStore()
	wallets := NewWalletRepository(store)
	entries := NewEntryRepository(store)
	uow := NewUnitOfWork(store)
	ctx := context.Background()

	wallet := seedWallet(t, wallets, "w1", "u1", "main")

	boom := errors.New("boom")
	err := uow.WithinTx(ctx, func(ctx context.Context) error {
		got, err := wallets.GetForUpdate(ctx, wallet.ID)
		require.NoError(t, err)

		require.NoError(t, got.CreditBucket(domain.BalanceAvailable, decimal.NewFromInt(100)))
		if _, err := wallets.Save(ctx, got); err != nil {
			return err
		}
		if _, err := entries.Create(ctx, domain.LedgerEntry{ID: "e1", WalletID: wallet.ID}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	t.Run("wallet mutation was rolled back", func(t *testing.T) {
		got, err := wallets.Get(ctx, wallet.ID)
		require.NoError(t, err)
		assert.True(t, got.Available.IsZero())
		assert.Equal(t, int64(0), got.Version)
	})

	t.Run("entry insert was rolled back", func(t *testing.T) {
		_, err := entries.Get(ctx, "e1")
		assert.ErrorIs(t, err, domain.ErrEntryNotFound)
	})

	t.Run("successful scope commits", func(t *testing.T) {
		err := uow.WithinTx(ctx, func(ctx context.Context) error {
			got, err := wallets.GetForUpdate(ctx, wallet.ID)
			if err != nil {
				return err
			}
			if err := got.CreditBucket(domain.BalanceAvailable, decimal.NewFromInt(7)); err != nil {
				return err
			}
			_, err = wallets.Save(ctx, got)
			return err
		})
		require.NoError(t, err)

		got, err := wallets.Get(ctx, wallet.ID)
		require.NoError(t, err)
		assert.True(t, got.Available.Equal(decimal.NewFromInt(7)))
	})

	t.Run("nested scope joins instead of deadlocking", func(t *testing.T) {
		err := uow.WithinTx(ctx, func(ctx context.Context) error {
			return uow.WithinTx(ctx, func(ctx context.Context) error {
				_, err := wallets.Get(ctx, wallet.ID)
				return err
			})
		})
		assert.NoError(t, err)
	})
}

func TestWalletRepositoryContracts(t *testing.T) {
	store := NewStore()
	wallets := NewWalletRepository(store)
	ctx := context.Background()

	wallet := seedWallet(t, wallets, "w1", "u1", "main")

	t.Run("duplicate holder, currency and slug is refused", func(t *testing.T) {
		_, err := wallets.Create(ctx, domain.Wallet{
			ID:       "w2",
			Holder:   domain.NewHolderRef("user", "u1"),
			Currency: "USD",
			Slug:     "main",
		})
		assert.ErrorIs(t, err, domain.ErrDuplicateWallet)
	})

	t.Run("save with a stale version is refused", func(t *testing.T) {
		fresh, err := wallets.Get(ctx, wallet.ID)
		require.NoError(t, err)

		_, err = wallets.Save(ctx, fresh)
		require.NoError(t, err)

		// fresh still carries the pre-save version.
		_, err = wallets.Save(ctx, fresh)
		assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
	})

	t.Run("soft delete hides the wallet and frees the slug", func(t *testing.T) {
		require.NoError(t, wallets.SoftDelete(ctx, wallet.ID))

		_, err := wallets.Get(ctx, wallet.ID)
		assert.ErrorIs(t, err, domain.ErrWalletNotFound)

		_, err = wallets.Create(ctx, domain.Wallet{
			ID:       "w3",
			Holder:   domain.NewHolderRef("user", "u1"),
			Currency: "USD",
			Slug:     "main",
		})
		assert.NoError(t, err)
	})
}

func TestEntryRepositoryOrdering(t *testing.T) {
	store := NewStore()
	entries := NewEntryRepository(store)
	ctx := context.Background()

	for _, id := range []string{"e1", "e2", "e3"} {
		_, err := entries.Create(ctx, domain.LedgerEntry{ID: id, WalletID: "w1"})
		require.NoError(t, err)
	}
	_, err := entries.Create(ctx, domain.LedgerEntry{ID: "other", WalletID: "w2"})
	require.NoError(t, err)

	listed, err := entries.ListByWallet(ctx, "w1")
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "e1", listed[0].ID)
	assert.Equal(t, "e3", listed[2].ID)

	t.Run("soft-deleted entries drop out of listings", func(t *testing.T) {
		require.NoError(t, entries.SoftDelete(ctx, "e2"))

		listed, err := entries.ListByWallet(ctx, "w1")
		require.NoError(t, err)
		assert.Len(t, listed, 2)
	})
}

package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletmesh/multiwallet/internal/domain"
)

func TestBalanceServiceCreditDebit(t *testing.T) {
	f := defaultFixture()
	ctx := context.Background()
	wallet := f.newWallet(t, "alice", "USD", "main")

	t.Run("credit appends a confirmed entry and raises the bucket", func(t *testing.T) {
		entry, err := f.balances.Credit(ctx, wallet.ID, dec("100.50"), domain.BalanceAvailable, map[string]string{
			domain.MetaDescription: "initial deposit",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.EntryCredit, entry.Type)
		assert.True(t, entry.Confirmed)
		assert.Equal(t, "initial deposit", entry.Meta[domain.MetaDescription])

		got := f.wallet(t, wallet.ID)
		assert.True(t, got.Available.Equal(dec("100.50")), "available = %s", got.Available)
	})

	t.Run("debit lowers the bucket", func(t *testing.T) {
		_, err := f.balances.Debit(ctx, wallet.ID, dec("40.50"), domain.BalanceAvailable, nil)
		require.NoError(t, err)

		got := f.wallet(t, wallet.ID)
		assert.True(t, got.Available.Equal(dec("60")), "available = %s", got.Available)
	})

	t.Run("debit beyond the balance fails and leaves buckets untouched", func(t *testing.T) {
		_, err := f.balances.Debit(ctx, wallet.ID, dec("1000"), domain.BalanceAvailable, nil)
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)

		got := f.wallet(t, wallet.ID)
		assert.True(t, got.Available.Equal(dec("60")), "available = %s", got.Available)
	})

	t.Run("zero and negative amounts are rejected", func(t *testing.T) {
		_, err := f.balances.Credit(ctx, wallet.ID, dec("0"), domain.BalanceAvailable, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)

		_, err = f.balances.Credit(ctx, wallet.ID, dec("-5"), domain.BalanceAvailable, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("amounts finer than eight decimal places are rejected", func(t *testing.T) {
		_, err := f.balances.Credit(ctx, wallet.ID, dec("0.123456789"), domain.BalanceAvailable, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("unknown bucket is rejected", func(t *testing.T) {
		_, err := f.balances.Credit(ctx, wallet.ID, dec("1"), domain.BalanceType("ESCROW"), nil)
		assert.ErrorIs(t, err, domain.ErrInvalidBalanceType)
	})

	t.Run("unknown wallet fails", func(t *testing.T) {
		_, err := f.balances.Credit(ctx, "missing", dec("1"), domain.BalanceAvailable, nil)
		assert.ErrorIs(t, err, domain.ErrWalletNotFound)
	})
}

func TestBalanceServicePendingLifecycle(t *testing.T) {
	f := defaultFixture()
	ctx := context.Background()
	wallet := f.newWallet(t, "bob", "USD", "checkout")
	f.fund(t, wallet.ID, dec("1000"))

	require.NoError(t, f.balances.MoveToPending(ctx, wallet.ID, dec("300")))

	got := f.wallet(t, wallet.ID)
	assert.True(t, got.Available.Equal(dec("700")), "available = %s", got.Available)
	assert.True(t, got.Pending.Equal(dec("300")), "pending = %s", got.Pending)
	assert.True(t, got.TotalBalance().Equal(dec("1000")))

	t.Run("confirm releases pending back to available", func(t *testing.T) {
		moved, err := f.balances.ConfirmPending(ctx, wallet.ID, dec("300"))
		require.NoError(t, err)
		assert.True(t, moved)

		got := f.wallet(t, wallet.ID)
		assert.True(t, got.Available.Equal(dec("1000")), "available = %s", got.Available)
		assert.True(t, got.Pending.IsZero(), "pending = %s", got.Pending)
	})

	t.Run("confirm with insufficient pending is a tolerated no-op", func(t *testing.T) {
		moved, err := f.balances.ConfirmPending(ctx, wallet.ID, dec("50"))
		require.NoError(t, err)
		assert.False(t, moved)
	})

	t.Run("cancel returns a pending hold", func(t *testing.T) {
		require.NoError(t, f.balances.MoveToPending(ctx, wallet.ID, dec("200")))
		require.NoError(t, f.balances.CancelPending(ctx, wallet.ID, dec("200")))

		got := f.wallet(t, wallet.ID)
		assert.True(t, got.Available.Equal(dec("1000")))
		assert.True(t, got.Pending.IsZero())
	})

	t.Run("move beyond available fails", func(t *testing.T) {
		err := f.balances.MoveToPending(ctx, wallet.ID, dec("5000"))
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	})
}

func TestBalanceServiceFreezeUnfreeze(t *testing.T) {
	f := defaultFixture()
	ctx := context.Background()
	wallet := f.newWallet(t, "carol", "EUR", "savings")
	f.fund(t, wallet.ID, dec("500"))

	require.NoError(t, f.balances.Freeze(ctx, wallet.ID, dec("120")))

	got := f.wallet(t, wallet.ID)
	assert.True(t, got.Available.Equal(dec("380")))
	assert.True(t, got.Frozen.Equal(dec("120")))

	require.NoError(t, f.balances.Unfreeze(ctx, wallet.ID, dec("120")))

	got = f.wallet(t, wallet.ID)
	assert.True(t, got.Available.Equal(dec("500")))
	assert.True(t, got.Frozen.IsZero())

	assert.Contains(t, f.sink.kinds(), "wallet.frozen")
	assert.Contains(t, f.sink.kinds(), "wallet.unfrozen")

	t.Run("unfreeze beyond the frozen bucket fails", func(t *testing.T) {
		err := f.balances.Unfreeze(ctx, wallet.ID, dec("1"))
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	})
}

func TestBalanceServiceTrialBalance(t *testing.T) {
	f := defaultFixture()
	ctx := context.Background()
	wallet := f.newWallet(t, "dave", "USD", "promo")

	entry, err := f.balances.AddTrialBalance(ctx, wallet.ID, dec("25"))
	require.NoError(t, err)
	assert.Equal(t, domain.BalanceTrial, entry.Bucket)

	t.Run("conversion moves trial funds into available", func(t *testing.T) {
		converted, err := f.balances.ConvertTrialToAvailable(ctx, wallet.ID, dec("25"))
		require.NoError(t, err)
		assert.True(t, converted)

		got := f.wallet(t, wallet.ID)
		assert.True(t, got.Trial.IsZero())
		assert.True(t, got.Available.Equal(dec("25")))
	})

	t.Run("conversion shortfall reports false without error", func(t *testing.T) {
		converted, err := f.balances.ConvertTrialToAvailable(ctx, wallet.ID, dec("10"))
		require.NoError(t, err)
		assert.False(t, converted)
	})
}

func TestBalanceServiceLedgerHistoryMatchesBuckets(t *testing.T) {
	f := defaultFixture()
	ctx := context.Background()
	wallet := f.newWallet(t, "erin", "USD", "main")

	f.fund(t, wallet.ID, dec("100"))
	_, err := f.balances.Debit(ctx, wallet.ID, dec("30"), domain.BalanceAvailable, nil)
	require.NoError(t, err)
	require.NoError(t, f.balances.MoveToPending(ctx, wallet.ID, dec("20")))

	entries, err := f.entryRepo.ListByWallet(ctx, wallet.ID)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	totals := map[domain.BalanceType]string{}
	for _, entry := range entries {
		bucket := entry.Bucket
		current := dec("0")
		if raw, ok := totals[bucket]; ok {
			current = dec(raw)
		}
		totals[bucket] = current.Add(entry.SignedAmount()).String()
	}

	got := f.wallet(t, wallet.ID)
	assert.Equal(t, got.Available.String(), totals[domain.BalanceAvailable])
	assert.Equal(t, got.Pending.String(), totals[domain.BalancePending])
}

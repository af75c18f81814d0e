package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletmesh/multiwallet/internal/domain"
	"github.com/walletmesh/multiwallet/internal/usecase/service_interfaces"
)

func TestTransferServiceConfirmedTransfer(t *testing.T) {
	f := defaultFixture()
	ctx := context.Background()
	src := f.newWallet(t, "sender", "USD", "main")
	dst := f.newWallet(t, "receiver", "USD", "main")
	f.fund(t, src.ID, dec("1000"))

	transfer, err := f.transfers.Transfer(ctx, src.ID, dst.ID, dec("200"), domain.TransferOptions{})
	require.NoError(t, err)

	assert.Equal(t, domain.TransferStatusConfirmed, transfer.Status)
	assert.True(t, transfer.Executed())

	gotSrc := f.wallet(t, src.ID)
	gotDst := f.wallet(t, dst.ID)
	assert.True(t, gotSrc.Available.Equal(dec("800")), "source available = %s", gotSrc.Available)
	assert.True(t, gotDst.Available.Equal(dec("200")), "destination available = %s", gotDst.Available)

	t.Run("both legs carry the transfer id", func(t *testing.T) {
		withdraw, err := f.entryRepo.Get(ctx, *transfer.WithdrawEntryID)
		require.NoError(t, err)
		deposit, err := f.entryRepo.Get(ctx, *transfer.DepositEntryID)
		require.NoError(t, err)

		assert.Equal(t, transfer.ID, withdraw.Meta[domain.MetaTransferID])
		assert.Equal(t, transfer.ID, deposit.Meta[domain.MetaTransferID])
		assert.Equal(t, domain.EntryDebit, withdraw.Type)
		assert.Equal(t, domain.EntryCredit, deposit.Type)
	})
}

func TestTransferServiceFeeAndDiscount(t *testing.T) {
	f := defaultFixture()
	ctx := context.Background()
	src := f.newWallet(t, "payer", "USD", "main")
	dst := f.newWallet(t, "payee", "USD", "main")
	f.fund(t, src.ID, dec("500"))

	// Source pays amount + fee - discount; destination receives amount.
	_, err := f.transfers.Transfer(ctx, src.ID, dst.ID, dec("100"), domain.TransferOptions{
		Fee:      dec("10"),
		Discount: dec("4"),
	})
	require.NoError(t, err)

	gotSrc := f.wallet(t, src.ID)
	gotDst := f.wallet(t, dst.ID)
	assert.True(t, gotSrc.Available.Equal(dec("394")), "source available = %s", gotSrc.Available)
	assert.True(t, gotDst.Available.Equal(dec("100")), "destination available = %s", gotDst.Available)
}

func TestTransferServiceCrossCurrency(t *testing.T) {
	f := defaultFixture()
	ctx := context.Background()
	src := f.newWallet(t, "us", "USD", "main")
	dst := f.newWallet(t, "eu", "EUR", "main")
	f.fund(t, src.ID, dec("1000"))

	require.NoError(t, f.rates.SetRate("USD", "EUR", dec("0.9")))

	_, err := f.transfers.Transfer(ctx, src.ID, dst.ID, dec("100"), domain.TransferOptions{})
	require.NoError(t, err)

	gotSrc := f.wallet(t, src.ID)
	gotDst := f.wallet(t, dst.ID)
	assert.True(t, gotSrc.Available.Equal(dec("900")), "source available = %s", gotSrc.Available)
	assert.True(t, gotDst.Available.Equal(dec("90")), "destination available = %s", gotDst.Available)
}

func TestTransferServicePendingThenConfirmed(t *testing.T) {
	f := defaultFixture()
	ctx := context.Background()
	src := f.newWallet(t, "p1", "USD", "main")
	dst := f.newWallet(t, "p2", "USD", "main")
	f.fund(t, src.ID, dec("300"))

	transfer, err := f.transfers.Transfer(ctx, src.ID, dst.ID, dec("120"), domain.TransferOptions{
		Status: domain.TransferStatusPending,
	})
	require.NoError(t, err)
	assert.False(t, transfer.Executed())

	t.Run("pending transfer moves no funds", func(t *testing.T) {
		gotSrc := f.wallet(t, src.ID)
		assert.True(t, gotSrc.Available.Equal(dec("300")), "source available = %s", gotSrc.Available)
	})

	t.Run("mark as paid still moves no funds", func(t *testing.T) {
		paid, err := f.transfers.MarkAsPaid(ctx, transfer.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TransferStatusPaid, paid.Status)
		assert.False(t, paid.Executed())

		gotSrc := f.wallet(t, src.ID)
		assert.True(t, gotSrc.Available.Equal(dec("300")))
	})

	t.Run("confirmation executes the deferred movement", func(t *testing.T) {
		confirmed, err := f.transfers.MarkAsConfirmed(ctx, transfer.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TransferStatusConfirmed, confirmed.Status)
		assert.True(t, confirmed.Executed())

		gotSrc := f.wallet(t, src.ID)
		gotDst := f.wallet(t, dst.ID)
		assert.True(t, gotSrc.Available.Equal(dec("180")), "source available = %s", gotSrc.Available)
		assert.True(t, gotDst.Available.Equal(dec("120")), "destination available = %s", gotDst.Available)
	})

	t.Run("terminal transfer rejects further transitions", func(t *testing.T) {
		_, err := f.transfers.MarkAsRejected(ctx, transfer.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
	})
}

func TestTransferServiceRejectionReversal(t *testing.T) {
	f := defaultFixture()
	ctx := context.Background()
	src := f.newWallet(t, "r1", "USD", "main")
	dst := f.newWallet(t, "r2", "USD", "main")
	f.fund(t, src.ID, dec("500"))

	transfer, err := f.transfers.Transfer(ctx, src.ID, dst.ID, dec("200"), domain.TransferOptions{
		Fee:    dec("20"),
		Status: domain.TransferStatusPaid,
	})
	require.NoError(t, err)
	require.True(t, transfer.Executed())

	rejected, err := f.transfers.MarkAsRejected(ctx, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusRejected, rejected.Status)

	gotSrc := f.wallet(t, src.ID)
	gotDst := f.wallet(t, dst.ID)
	assert.True(t, gotSrc.Available.Equal(dec("500")), "source available = %s", gotSrc.Available)
	assert.True(t, gotDst.Available.IsZero(), "destination available = %s", gotDst.Available)

	t.Run("reversal entries reference the originals", func(t *testing.T) {
		entries, err := f.entryRepo.ListByWallet(ctx, src.ID)
		require.NoError(t, err)

		var reversals int
		for _, entry := range entries {
			if entry.Meta[domain.MetaReversalOf] != "" {
				reversals++
			}
		}
		assert.Equal(t, 1, reversals)
	})
}

func TestTransferServiceValidation(t *testing.T) {
	f := defaultFixture()
	ctx := context.Background()
	src := f.newWallet(t, "v1", "USD", "main")
	dst := f.newWallet(t, "v2", "USD", "main")
	f.fund(t, src.ID, dec("50"))

	t.Run("insufficient funds", func(t *testing.T) {
		_, err := f.transfers.Transfer(ctx, src.ID, dst.ID, dec("100"), domain.TransferOptions{})
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	})

	t.Run("fee counts against the source balance", func(t *testing.T) {
		_, err := f.transfers.Transfer(ctx, src.ID, dst.ID, dec("45"), domain.TransferOptions{Fee: dec("10")})
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	})

	t.Run("same wallet on both sides", func(t *testing.T) {
		_, err := f.transfers.Transfer(ctx, src.ID, src.ID, dec("10"), domain.TransferOptions{})
		assert.Error(t, err)
	})

	t.Run("negative fee", func(t *testing.T) {
		_, err := f.transfers.Transfer(ctx, src.ID, dst.ID, dec("10"), domain.TransferOptions{Fee: dec("-1")})
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("discount above amount plus fee", func(t *testing.T) {
		_, err := f.transfers.Transfer(ctx, src.ID, dst.ID, dec("10"), domain.TransferOptions{Discount: dec("15")})
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("rejected is not a creatable status", func(t *testing.T) {
		_, err := f.transfers.Transfer(ctx, src.ID, dst.ID, dec("10"), domain.TransferOptions{
			Status: domain.TransferStatusRejected,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
	})

	t.Run("failed transfer leaves both wallets untouched", func(t *testing.T) {
		gotSrc := f.wallet(t, src.ID)
		gotDst := f.wallet(t, dst.ID)
		assert.True(t, gotSrc.Available.Equal(dec("50")))
		assert.True(t, gotDst.Available.IsZero())
	})
}

func TestTransferServiceBatchTransfer(t *testing.T) {
	f := defaultFixture()
	ctx := context.Background()
	src := f.newWallet(t, "fan", "USD", "main")
	dst1 := f.newWallet(t, "out1", "USD", "main")
	dst2 := f.newWallet(t, "out2", "USD", "main")
	f.fund(t, src.ID, dec("100"))

	completed, err := f.transfers.BatchTransfer(ctx, src.ID, []service_interfaces.TransferRecipient{
		{ToWalletID: dst1.ID, Amount: dec("40")},
		{ToWalletID: dst2.ID, Amount: dec("30")},
	})
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	gotSrc := f.wallet(t, src.ID)
	assert.True(t, gotSrc.Available.Equal(dec("30")), "source available = %s", gotSrc.Available)

	t.Run("stops at the first failing recipient", func(t *testing.T) {
		completed, err := f.transfers.BatchTransfer(ctx, src.ID, []service_interfaces.TransferRecipient{
			{ToWalletID: dst1.ID, Amount: dec("10")},
			{ToWalletID: dst2.ID, Amount: dec("1000")},
		})
		require.Error(t, err)
		assert.Len(t, completed, 1)
	})
}

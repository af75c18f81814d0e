package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletmesh/multiwallet/internal/domain"
)

func decimalFromString(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	parsed, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return parsed
}

func walletRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "holder_kind", "holder_id", "currency", "name", "slug", "description", "meta",
		"balance_available", "balance_pending", "balance_frozen", "balance_trial",
		"version", "created_at", "updated_at", "deleted_at",
	})
}

func TestWalletRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewWalletRepository(db)
	ctx := context.Background()

	wallet := domain.Wallet{
		ID:       "w1",
		Holder:   domain.NewHolderRef("user", "u1"),
		Currency: "USD",
		Name:     "main",
		Slug:     "main",
	}

	t.Run("insert returns server timestamps", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("INSERT INTO wallets").
			WithArgs(
				"w1", "user", "u1", "USD", "main", "main", "",
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				int64(0),
			).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		created, err := repo.Create(ctx, wallet)
		require.NoError(t, err)
		assert.Equal(t, now, created.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to the duplicate error", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO wallets").
			WillReturnError(&pq.Error{Code: "23505"})

		_, err := repo.Create(ctx, wallet)
		assert.ErrorIs(t, err, domain.ErrDuplicateWallet)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWalletRepositoryGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewWalletRepository(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("SELECT (.+) FROM wallets WHERE id = \\$1 AND deleted_at IS NULL").
			WithArgs("w1").
			WillReturnRows(walletRows().AddRow(
				"w1", "user", "u1", "USD", "main", "main", "", []byte(`{"tier":"gold"}`),
				"100.5", "0", "0", "0",
				int64(3), now, now, nil,
			))

		wallet, err := repo.Get(ctx, "w1")
		require.NoError(t, err)
		assert.Equal(t, "user", wallet.Holder.Kind)
		assert.True(t, wallet.Available.Equal(decimalFromString(t, "100.5")))
		assert.Equal(t, int64(3), wallet.Version)
		assert.Equal(t, "gold", wallet.Meta["tier"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row maps to not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM wallets WHERE id = \\$1 AND deleted_at IS NULL").
			WithArgs("nope").
			WillReturnRows(walletRows())

		_, err := repo.Get(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrWalletNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get for update locks the row", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("SELECT (.+) FROM wallets WHERE id = \\$1 AND deleted_at IS NULL FOR UPDATE").
			WithArgs("w1").
			WillReturnRows(walletRows().AddRow(
				"w1", "user", "u1", "USD", "main", "main", "", []byte(`{}`),
				"1", "0", "0", "0",
				int64(0), now, now, nil,
			))

		_, err := repo.GetForUpdate(ctx, "w1")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWalletRepositorySave(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewWalletRepository(db)
	ctx := context.Background()

	wallet := domain.Wallet{
		ID:      "w1",
		Name:    "main",
		Slug:    "main",
		Version: 4,
	}

	t.Run("matching version bumps and commits", func(t *testing.T) {
		mock.ExpectExec("UPDATE wallets").
			WithArgs(
				"main", "main", "", sqlmock.AnyArg(),
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				"w1", int64(4),
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		saved, err := repo.Save(ctx, wallet)
		require.NoError(t, err)
		assert.Equal(t, int64(5), saved.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version maps to the concurrency error", func(t *testing.T) {
		mock.ExpectExec("UPDATE wallets").
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := repo.Save(ctx, wallet)
		assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWalletRepositoryRunsOnOpenTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewWalletRepository(db)
	uow := NewUnitOfWork(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET deleted_at = NOW").
		WithArgs("w1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = uow.WithinTx(context.Background(), func(ctx context.Context) error {
		return repo.SoftDelete(ctx, "w1")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWorkRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewWalletRepository(db)
	uow := NewUnitOfWork(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET deleted_at = NOW").
		WithArgs("w1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = uow.WithinTx(context.Background(), func(ctx context.Context) error {
		return repo.SoftDelete(ctx, "w1")
	})
	assert.ErrorIs(t, err, domain.ErrWalletNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jade-bank/core-ledger/src/internal/adapter/repository/memory"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

func createAccount(t *testing.T, store *memory.Store, number string, balance string) domain.Account {
	t.Helper()

	var created domain.Account
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		var err error
		created, err = tx.CreateAccount(ctx, domain.Account{
			OwnerID:       uuid.NewString(),
			AccountNumber: number,
			Type:          domain.AccountTypeSavings,
			Balance:       decimal.RequireFromString(balance),
			MinBalance:    decimal.Zero,
			DailyLimit:    decimal.RequireFromString("100000"),
			Status:        domain.AccountStatusActive,
		})
		return err
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return created
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	store := memory.NewStore()
	account := createAccount(t, store, "ACC0001", "100")
	boom := errors.New("boom")

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		if _, err := tx.LockAccounts(ctx, account.ID); err != nil {
			return err
		}
		if err := tx.UpdateAccountBalance(ctx, account.ID, decimal.RequireFromString("0")); err != nil {
			return err
		}
		if _, err := tx.CreateAccount(ctx, domain.Account{AccountNumber: "ACC0002", Status: domain.AccountStatusActive}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected rollback error, got %v", err)
	}

	stored, err := store.GetAccount(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !stored.Balance.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("rolled back balance leaked: %s", stored.Balance)
	}

	// the rolled back account number is free again
	createAccount(t, store, "ACC0002", "0")
}

func TestCreateAccountRejectsDuplicateNumber(t *testing.T) {
	store := memory.NewStore()
	createAccount(t, store, "ACC0001", "0")

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		_, err := tx.CreateAccount(ctx, domain.Account{AccountNumber: "ACC0001"})
		return err
	})
	if !errors.Is(err, domain.ErrDuplicateAccountNumber) {
		t.Fatalf("expected duplicate account number, got %v", err)
	}
}

func TestWritesRequireRowLock(t *testing.T) {
	store := memory.NewStore()
	account := createAccount(t, store, "ACC0001", "100")

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		return tx.UpdateAccountBalance(ctx, account.ID, decimal.RequireFromString("50"))
	})
	if err == nil {
		t.Fatal("expected an error for an unlocked write")
	}
}

func TestLockAccountsSerializesUnitsOfWork(t *testing.T) {
	store := memory.NewStore()
	account := createAccount(t, store, "ACC0001", "0")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithinTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
				rows, err := tx.LockAccounts(ctx, account.ID)
				if err != nil {
					return err
				}
				return tx.UpdateAccountBalance(ctx, account.ID, rows[0].Balance.Add(decimal.NewFromInt(1)))
			})
			if err != nil {
				t.Errorf("increment: %v", err)
			}
		}()
	}
	wg.Wait()

	stored, err := store.GetAccount(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !stored.Balance.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected 50 increments, got %s", stored.Balance)
	}
}

func TestListTransactionsIsHalfOpenAndNewestFirst(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := start
	store := memory.NewStore(memory.WithClock(func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}))
	account := createAccount(t, store, "ACC0001", "0")

	var inserted []domain.Transaction
	for i, ref := range []string{"DEP1", "DEP2", "DEP3"} {
		err := store.WithinTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
			txn, err := tx.InsertTransaction(ctx, domain.Transaction{
				Reference:   ref,
				Type:        domain.TransactionTypeDeposit,
				ToAccountID: &account.ID,
				Amount:      decimal.NewFromInt(int64(i + 1)),
				Status:      domain.TransactionStatusCompleted,
			})
			inserted = append(inserted, txn)
			return err
		})
		if err != nil {
			t.Fatalf("insert %s: %v", ref, err)
		}
	}

	rows, err := store.ListTransactions(context.Background(), account.ID, inserted[0].CreatedAt, inserted[2].CreatedAt)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(rows) != 2 || rows[0].Reference != "DEP2" || rows[1].Reference != "DEP1" {
		t.Fatalf("unexpected rows %+v", rows)
	}

	err = store.WithinTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		_, err := tx.InsertTransaction(ctx, domain.Transaction{Reference: "DEP1"})
		return err
	})
	if !errors.Is(err, domain.ErrDuplicateReference) {
		t.Fatalf("expected duplicate reference, got %v", err)
	}
}

func TestGetMissingRowsReturnNotFound(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	if _, err := store.GetAccount(ctx, uuid.NewString()); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("account: expected not found, got %v", err)
	}
	if _, err := store.GetLoan(ctx, uuid.NewString()); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("loan: expected not found, got %v", err)
	}
	if _, err := store.GetOwner(ctx, uuid.NewString()); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("owner: expected not found, got %v", err)
	}
	if _, err := store.GetDailyAggregate(ctx, uuid.NewString(), time.Now()); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("aggregate: expected not found, got %v", err)
	}
}

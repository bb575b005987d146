package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jade-bank/core-ledger/src/internal/adapter/repository/memory"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (s *recordingSink) Record(_ context.Context, event domain.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) actions() []domain.AuditAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Action)
	}
	return out
}

func (s *recordingSink) last(action domain.AuditAction) (domain.AuditEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].Action == action {
			return s.events[i], true
		}
	}
	return domain.AuditEvent{}, false
}

// stepClock advances one second on every reading so stored rows get distinct timestamps.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock(start time.Time) *stepClock {
	return &stepClock{t: start}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	store    *memory.Store
	sink     *recordingSink
	catalog  domain.Catalog
	ledger   *services.LedgerService
	kyc      *services.KYCService
	owners   *services.OwnerService
	accounts *services.AccountRegistry
	loans    *services.LoanService
	admin    domain.Actor
}

func newFixture(t *testing.T, opts ...memory.Option) *fixture {
	t.Helper()

	store := memory.NewStore(opts...)
	sink := &recordingSink{}
	catalog := domain.DefaultCatalog()
	limits := services.NewDailyLimitTracker()
	ledger := services.NewLedgerService(store, limits, sink)

	return &fixture{
		store:    store,
		sink:     sink,
		catalog:  catalog,
		ledger:   ledger,
		kyc:      services.NewKYCService(store, sink),
		owners:   services.NewOwnerService(store, sink),
		accounts: services.NewAccountRegistry(store, catalog, ledger, limits, sink),
		loans:    services.NewLoanService(store, services.NewAmortizationCalculator(catalog), ledger, dec("1.00"), sink),
		admin:    domain.Actor{OwnerID: uuid.NewString(), Role: domain.RoleAdmin},
	}
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func decPtr(value string) *decimal.Decimal {
	d := dec(value)
	return &d
}

func (f *fixture) registerOwner(t *testing.T) domain.Actor {
	t.Helper()

	owner, err := f.owners.RegisterOwner(context.Background(), services.RegisterOwnerRequest{
		FirstName:   "Asha",
		LastName:    "Rao",
		Email:       "asha." + uuid.NewString()[:8] + "@example.com",
		PhoneNumber: "+919876543210",
	})
	if err != nil {
		t.Fatalf("register owner: %v", err)
	}
	return domain.Actor{OwnerID: owner.ID, Role: domain.RoleCustomer}
}

func (f *fixture) submitAndApprove(t *testing.T, actor domain.Actor, docType, number string) services.ReviewResult {
	t.Helper()
	ctx := context.Background()

	doc, err := f.kyc.SubmitDocument(ctx, actor, services.SubmitDocumentRequest{DocumentType: docType, DocumentNumber: number})
	if err != nil {
		t.Fatalf("submit %s document: %v", docType, err)
	}
	result, err := f.kyc.VerifyDocument(ctx, f.admin, services.ReviewDocumentRequest{DocumentID: doc.ID, Approve: true})
	if err != nil {
		t.Fatalf("verify %s document: %v", docType, err)
	}
	return result
}

func (f *fixture) verifiedOwner(t *testing.T) domain.Actor {
	t.Helper()

	actor := f.registerOwner(t)
	f.submitAndApprove(t, actor, "pan", "ABCDE1234F")
	f.submitAndApprove(t, actor, "aadhaar", "123412341234")
	return actor
}

func (f *fixture) openAccount(t *testing.T, actor domain.Actor, accountType, deposit string) domain.Account {
	t.Helper()

	account, err := f.accounts.CreateAccount(context.Background(), actor, services.CreateAccountRequest{
		AccountType:    accountType,
		InitialDeposit: dec(deposit),
	})
	if err != nil {
		t.Fatalf("open %s account: %v", accountType, err)
	}
	return account
}

// seedAccount writes an account row directly, bypassing the catalog rules.
func (f *fixture) seedAccount(t *testing.T, ownerID string, balance, minBalance, dailyLimit string, status domain.AccountStatus) domain.Account {
	t.Helper()

	var created domain.Account
	err := f.store.WithinTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		var err error
		created, err = tx.CreateAccount(ctx, domain.Account{
			OwnerID:       ownerID,
			AccountNumber: "SEED" + uuid.NewString()[:12],
			Type:          domain.AccountTypeSavings,
			Balance:       dec(balance),
			MinBalance:    dec(minBalance),
			DailyLimit:    dec(dailyLimit),
			Status:        status,
		})
		return err
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return created
}

func (f *fixture) balance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()

	account, err := f.store.GetAccount(context.Background(), accountID)
	if err != nil {
		t.Fatalf("get account %s: %v", accountID, err)
	}
	return account.Balance
}

func assertAmount(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s: expected %s, got %s", label, want, got.StringFixed(2))
	}
}

func assertRule(t *testing.T, err error, rule domain.Rule) {
	t.Helper()
	if !domain.IsRule(err, rule) {
		t.Fatalf("expected %s violation, got %v", rule, err)
	}
}

func assertKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	if got := domain.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}

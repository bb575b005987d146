package controller_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jade-bank/core-ledger/src/internal/adapter/http/controller"
	"github.com/jade-bank/core-ledger/src/internal/adapter/http/middleware"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

type fakeLedger struct {
	transfer func(actor domain.Actor, req services.TransferRequest) (services.TransferResult, error)
	posting  func(actor domain.Actor, req services.PostingRequest) (services.PostingResult, error)
	get      func(actor domain.Actor, id string) (domain.Transaction, error)
	list     func(actor domain.Actor, filter services.HistoryFilter) ([]domain.Transaction, error)
}

func (f *fakeLedger) Transfer(_ context.Context, actor domain.Actor, req services.TransferRequest) (services.TransferResult, error) {
	return f.transfer(actor, req)
}

func (f *fakeLedger) Deposit(_ context.Context, actor domain.Actor, req services.PostingRequest) (services.PostingResult, error) {
	return f.posting(actor, req)
}

func (f *fakeLedger) Withdraw(_ context.Context, actor domain.Actor, req services.PostingRequest) (services.PostingResult, error) {
	return f.posting(actor, req)
}

func (f *fakeLedger) GetTransaction(_ context.Context, actor domain.Actor, id string) (domain.Transaction, error) {
	return f.get(actor, id)
}

func (f *fakeLedger) ListTransactions(_ context.Context, actor domain.Actor, filter services.HistoryFilter) ([]domain.Transaction, error) {
	return f.list(actor, filter)
}

func newTransactionMux(ledger *fakeLedger) *http.ServeMux {
	mux := http.NewServeMux()
	controller.NewTransactionController(ledger).RegisterRoutes(mux, middleware.Identity)
	return mux
}

func serve(t *testing.T, mux http.Handler, method, path, body string, actor *domain.Actor) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set(middleware.OwnerIDHeader, actor.OwnerID)
		req.Header.Set(middleware.RoleHeader, string(actor.Role))
	}

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	var env envelope
	if rr.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response: %v (%s)", err, rr.Body.String())
		}
	}
	return rr, env
}

func customer() *domain.Actor {
	return &domain.Actor{OwnerID: uuid.NewString(), Role: domain.RoleCustomer}
}

func completedTransfer(req services.TransferRequest) services.TransferResult {
	from := req.FromAccountID
	to := req.ToAccountID
	return services.TransferResult{
		Transaction: domain.Transaction{
			ID:            uuid.NewString(),
			Reference:     "TXN20250301090000123456",
			Type:          domain.TransactionTypeTransfer,
			FromAccountID: &from,
			ToAccountID:   &to,
			Amount:        req.Amount,
			Status:        domain.TransactionStatusCompleted,
		},
		From:      domain.Account{ID: from, Balance: decimal.RequireFromString("49000"), DailyLimit: decimal.RequireFromString("100000")},
		To:        domain.Account{ID: to, Balance: decimal.RequireFromString("26000")},
		Aggregate: domain.DailyTransferAggregate{AccountID: from, TotalTransferred: req.Amount},
	}
}

func TestTransferReturnsCreated(t *testing.T) {
	actor := customer()
	ledger := &fakeLedger{transfer: func(got domain.Actor, req services.TransferRequest) (services.TransferResult, error) {
		if got != *actor {
			t.Fatalf("unexpected actor %+v", got)
		}
		if !req.Amount.Equal(decimal.RequireFromString("1000")) {
			t.Fatalf("unexpected amount %s", req.Amount)
		}
		return completedTransfer(req), nil
	}}

	rr, env := serve(t, newTransactionMux(ledger), http.MethodPost, "/transactions/transfer",
		`{"fromAccountId":"a","toAccountId":"b","amount":"1000.00","description":"rent"}`, actor)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d (%s)", http.StatusCreated, rr.Code, rr.Body.String())
	}
	var data struct {
		Transaction struct {
			Reference string `json:"reference"`
			Amount    string `json:"amount"`
		} `json:"transaction"`
		FromBalance         string `json:"fromBalance"`
		DailyLimitRemaining string `json:"dailyLimitRemaining"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if !env.Success || data.Transaction.Amount != "1000.00" || data.FromBalance != "49000.00" || data.DailyLimitRemaining != "99000.00" {
		t.Fatalf("unexpected transfer response %s", rr.Body.String())
	}
}

func TestTransferErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   domain.ErrorKind
		errors []string
	}{
		{
			name:   "domain rule",
			err:    domain.InsufficientFunds("a", decimal.RequireFromString("0"), decimal.RequireFromString("1000")),
			status: http.StatusUnprocessableEntity,
			kind:   domain.KindDomainRule,
			errors: []string{string(domain.RuleInsufficientFunds)},
		},
		{
			name:   "authorization",
			err:    domain.NewAuthorizationError("caller does not own the source account"),
			status: http.StatusForbidden,
			kind:   domain.KindAuthorization,
		},
		{
			name:   "not found",
			err:    fmt.Errorf("account not found: %w", domain.ErrRecordNotFound),
			status: http.StatusNotFound,
			kind:   domain.KindNotFound,
		},
		{
			name:   "concurrency",
			err:    &domain.ConcurrencyConflictError{Attempts: 3, Err: fmt.Errorf("serialization failure")},
			status: http.StatusConflict,
			kind:   domain.KindConcurrency,
		},
		{
			name:   "internal",
			err:    fmt.Errorf("connection reset"),
			status: http.StatusInternalServerError,
			kind:   domain.KindInternal,
			errors: []string{"Unable to process request right now"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := &fakeLedger{transfer: func(domain.Actor, services.TransferRequest) (services.TransferResult, error) {
				return services.TransferResult{}, tc.err
			}}

			rr, env := serve(t, newTransactionMux(ledger), http.MethodPost, "/transactions/transfer",
				`{"fromAccountId":"a","toAccountId":"b","amount":"1000"}`, customer())

			if rr.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rr.Code)
			}
			if env.Success {
				t.Fatalf("expected success=false")
			}
			if env.Kind != string(tc.kind) {
				t.Fatalf("expected kind %s, got %q", tc.kind, env.Kind)
			}
			if tc.errors != nil && strings.Join(env.Errors, ",") != strings.Join(tc.errors, ",") {
				t.Fatalf("expected errors %v, got %v", tc.errors, env.Errors)
			}
		})
	}
}

func TestTransferValidationListsEveryField(t *testing.T) {
	ledger := &fakeLedger{transfer: func(domain.Actor, services.TransferRequest) (services.TransferResult, error) {
		t.Fatal("service must not be called for an invalid request")
		return services.TransferResult{}, nil
	}}

	rr, env := serve(t, newTransactionMux(ledger), http.MethodPost, "/transactions/transfer", `{"amount":"abc"}`, customer())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	want := []string{"fromAccountId is required", "toAccountId is required", "amount must be a decimal number"}
	if strings.Join(env.Errors, "|") != strings.Join(want, "|") {
		t.Fatalf("expected errors %v, got %v", want, env.Errors)
	}
}

func TestTransferRejectsMalformedBodies(t *testing.T) {
	ledger := &fakeLedger{}
	mux := newTransactionMux(ledger)

	for _, body := range []string{`{"amount":`, `{"amount":"10","extra":true}`} {
		rr, _ := serve(t, mux, http.MethodPost, "/transactions/transfer", body, customer())
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected status %d, got %d", body, http.StatusBadRequest, rr.Code)
		}
	}
}

func TestTransferRequiresIdentity(t *testing.T) {
	ledger := &fakeLedger{}

	rr, env := serve(t, newTransactionMux(ledger), http.MethodPost, "/transactions/transfer",
		`{"fromAccountId":"a","toAccountId":"b","amount":"1000"}`, nil)

	if rr.Code != http.StatusUnauthorized || env.Success {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestDepositAndWithdrawReturnCreated(t *testing.T) {
	var kinds []domain.TransactionType
	ledger := &fakeLedger{posting: func(_ domain.Actor, req services.PostingRequest) (services.PostingResult, error) {
		kind := domain.TransactionTypeDeposit
		if len(kinds) == 1 {
			kind = domain.TransactionTypeWithdrawal
		}
		kinds = append(kinds, kind)
		return services.PostingResult{
			Transaction: domain.Transaction{ID: uuid.NewString(), Type: kind, Amount: req.Amount, Status: domain.TransactionStatusCompleted},
			Account:     domain.Account{ID: req.AccountID, Balance: decimal.RequireFromString("5000")},
		}, nil
	}}
	mux := newTransactionMux(ledger)

	for _, path := range []string{"/transactions/deposit", "/transactions/withdraw"} {
		rr, env := serve(t, mux, http.MethodPost, path, `{"accountId":"a","amount":"250.50"}`, customer())
		if rr.Code != http.StatusCreated || !env.Success {
			t.Fatalf("%s: expected status %d, got %d (%s)", path, http.StatusCreated, rr.Code, rr.Body.String())
		}
	}
	if len(kinds) != 2 {
		t.Fatalf("expected two postings, got %d", len(kinds))
	}
}

func TestGetTransactionPassesPathID(t *testing.T) {
	id := uuid.NewString()
	ledger := &fakeLedger{get: func(_ domain.Actor, got string) (domain.Transaction, error) {
		if got != id {
			return domain.Transaction{}, fmt.Errorf("transaction not found: %w", domain.ErrRecordNotFound)
		}
		return domain.Transaction{ID: id, Reference: "DEP20250301090000123456", Type: domain.TransactionTypeDeposit, Status: domain.TransactionStatusCompleted}, nil
	}}
	mux := newTransactionMux(ledger)

	rr, _ := serve(t, mux, http.MethodGet, "/transactions/"+id, "", customer())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	rr, _ = serve(t, mux, http.MethodGet, "/transactions/"+uuid.NewString(), "", customer())
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestListTransactionsParsesFilters(t *testing.T) {
	accountID := uuid.NewString()
	var got services.HistoryFilter
	ledger := &fakeLedger{list: func(_ domain.Actor, filter services.HistoryFilter) ([]domain.Transaction, error) {
		got = filter
		return []domain.Transaction{
			{ID: uuid.NewString(), Reference: "WDR20250301090000000002", Type: domain.TransactionTypeWithdrawal, Amount: decimal.RequireFromString("300"), Status: domain.TransactionStatusCompleted},
			{ID: uuid.NewString(), Reference: "DEP20250301090000000001", Type: domain.TransactionTypeDeposit, Amount: decimal.RequireFromString("200"), Status: domain.TransactionStatusCompleted},
		}, nil
	}}

	path := "/transactions?accountId=" + accountID + "&type=withdrawal&from=2025-03-01&to=2025-03-31&minAmount=100&maxAmount=500.50"
	rr, env := serve(t, newTransactionMux(ledger), http.MethodGet, path, "", customer())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d (%s)", http.StatusOK, rr.Code, rr.Body.String())
	}

	if got.AccountID != accountID || got.Type != "withdrawal" {
		t.Fatalf("unexpected filter %+v", got)
	}
	if !got.From.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) || !got.To.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected range %s to %s", got.From, got.To)
	}
	if got.MinAmount == nil || got.MinAmount.StringFixed(2) != "100.00" || got.MaxAmount == nil || got.MaxAmount.StringFixed(2) != "500.50" {
		t.Fatalf("unexpected amount bounds %v %v", got.MinAmount, got.MaxAmount)
	}

	var data []struct {
		Reference string `json:"reference"`
		Amount    string `json:"amount"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data) != 2 || data[0].Reference != "WDR20250301090000000002" || data[1].Amount != "200.00" {
		t.Fatalf("unexpected transactions %+v", data)
	}
}

func TestListTransactionsWithoutFilters(t *testing.T) {
	ledger := &fakeLedger{list: func(_ domain.Actor, filter services.HistoryFilter) ([]domain.Transaction, error) {
		if filter != (services.HistoryFilter{}) {
			return nil, fmt.Errorf("unexpected filter %+v", filter)
		}
		return nil, nil
	}}

	rr, env := serve(t, newTransactionMux(ledger), http.MethodGet, "/transactions", "", customer())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d (%s)", http.StatusOK, rr.Code, rr.Body.String())
	}
	if string(env.Data) != "[]" {
		t.Fatalf("expected an empty list, got %s", env.Data)
	}
}

func TestListTransactionsRejectsBadQuery(t *testing.T) {
	ledger := &fakeLedger{list: func(domain.Actor, services.HistoryFilter) ([]domain.Transaction, error) {
		t.Fatal("service must not be called for an invalid query")
		return nil, nil
	}}

	rr, env := serve(t, newTransactionMux(ledger), http.MethodGet, "/transactions?from=yesterday&minAmount=abc", "", customer())
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if len(env.Errors) != 2 {
		t.Fatalf("expected one error per field, got %v", env.Errors)
	}

	rr, _ = serve(t, newTransactionMux(ledger), http.MethodGet, "/transactions", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d without identity, got %d", http.StatusUnauthorized, rr.Code)
	}
}

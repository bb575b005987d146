package controller_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jade-bank/core-ledger/src/internal/adapter/http/controller"
	"github.com/jade-bank/core-ledger/src/internal/adapter/http/middleware"
	"github.com/jade-bank/core-ledger/src/internal/adapter/repository/memory"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
)

func newLoanMux() *http.ServeMux {
	store := memory.NewStore()
	catalog := domain.DefaultCatalog()
	limits := services.NewDailyLimitTracker()
	ledger := services.NewLedgerService(store, limits, nil)
	loans := services.NewLoanService(store, services.NewAmortizationCalculator(catalog), ledger, decimal.RequireFromString("1.00"), nil)

	mux := http.NewServeMux()
	controller.NewLoanController(loans).RegisterRoutes(mux, middleware.Identity)
	return mux
}

func TestCalculateEMIIsPublic(t *testing.T) {
	rr, env := serve(t, newLoanMux(), http.MethodPost, "/loans/calculate-emi",
		`{"loanType":"personal","principal":"500000","interestRate":"12.5","tenureMonths":36}`, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d (%s)", http.StatusOK, rr.Code, rr.Body.String())
	}
	var data struct {
		EMI      string            `json:"emi"`
		Schedule []json.RawMessage `json:"schedule"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.EMI != "16726.81" || len(data.Schedule) != 36 {
		t.Fatalf("unexpected quote emi=%s rows=%d", data.EMI, len(data.Schedule))
	}
}

func TestCalculateEMIRejectsAmountAboveCatalogMaximum(t *testing.T) {
	rr, env := serve(t, newLoanMux(), http.MethodPost, "/loans/calculate-emi",
		`{"loanType":"personal","principal":"9999999","tenureMonths":36}`, nil)

	if rr.Code != http.StatusBadRequest || env.Success {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestLoanAdminRoutesRequireAdmin(t *testing.T) {
	mux := newLoanMux()
	loanID := uuid.NewString()

	rr, _ := serve(t, mux, http.MethodPut, "/loans/"+loanID+"/approve", "", customer())
	if rr.Code != http.StatusForbidden {
		t.Fatalf("approve: expected status %d, got %d", http.StatusForbidden, rr.Code)
	}

	admin := &domain.Actor{OwnerID: uuid.NewString(), Role: domain.RoleAdmin}
	rr, _ = serve(t, mux, http.MethodPut, "/loans/"+loanID+"/approve", "", admin)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("approve missing loan: expected status %d, got %d", http.StatusNotFound, rr.Code)
	}

	rr, _ = serve(t, mux, http.MethodPut, "/loans/"+loanID+"/reject", `{"reason":" "}`, admin)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("reject without reason: expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestLoanApplyRequiresVerifiedOwner(t *testing.T) {
	rr, env := serve(t, newLoanMux(), http.MethodPost, "/loans",
		`{"loanType":"personal","principal":"60000","tenureMonths":6}`, customer())

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown owner: expected status %d, got %d (%v)", http.StatusNotFound, rr.Code, env.Errors)
	}
}

package router_test

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jade-bank/core-ledger/src/internal/adapter/http/controller"
	"github.com/jade-bank/core-ledger/src/internal/adapter/http/middleware"
	"github.com/jade-bank/core-ledger/src/internal/adapter/http/router"
	"github.com/jade-bank/core-ledger/src/internal/adapter/repository/memory"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	hash, err := middleware.HashChannelKey("TellerKey001")
	if err != nil {
		t.Fatalf("hash channel key: %v", err)
	}
	auth := func(next http.Handler) http.Handler {
		return middleware.BasicAuth("JadeTeller", hash)(middleware.Identity(next))
	}

	store := memory.NewStore()
	catalog := domain.DefaultCatalog()
	limits := services.NewDailyLimitTracker()
	ledger := services.NewLedgerService(store, limits, nil)

	return router.New(router.Controllers{
		Owner:       controller.NewOwnerController(services.NewOwnerService(store, nil)),
		KYC:         controller.NewKYCController(services.NewKYCService(store, nil)),
		Account:     controller.NewAccountController(services.NewAccountRegistry(store, catalog, ledger, limits, nil)),
		Transaction: controller.NewTransactionController(ledger),
		Loan:        controller.NewLoanController(services.NewLoanService(store, services.NewAmortizationCalculator(catalog), ledger, decimal.RequireFromString("1.00"), nil)),
	}, auth)
}

func TestRouterHealthIsOpen(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestRouterServesOpenAPIDocument(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/swagger/openapi.json", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var doc struct {
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("openapi document is not valid json: %v", err)
	}
	for _, path := range []string{"/owners", "/accounts/{id}/statement", "/transactions", "/transactions/transfer", "/loans/{id}/pay-emi"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Fatalf("openapi document is missing %s", path)
		}
	}
}

func TestRouterProtectsBusinessRoutes(t *testing.T) {
	handler := newRouter(t)
	body := `{"loanType":"home","principal":"2500000","tenureMonths":240}`

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/loans/calculate-emi", strings.NewReader(body)))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("without channel credentials: expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/loans/calculate-emi", strings.NewReader(body))
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("JadeTeller:TellerKey001")))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("with channel credentials: expected status %d, got %d (%s)", http.StatusOK, rr.Code, rr.Body.String())
	}
}

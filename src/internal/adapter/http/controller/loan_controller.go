package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/jade-bank/core-ledger/src/internal/adapter/http/models"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
)

type LoanService interface {
	CalculateEMI(loanType string, principal decimal.Decimal, rate *decimal.Decimal, tenureMonths int) (services.EMICalculation, error)
	Apply(ctx context.Context, actor domain.Actor, req services.ApplyLoanRequest) (domain.Loan, error)
	Approve(ctx context.Context, actor domain.Actor, loanID string) (services.ApprovalResult, error)
	Reject(ctx context.Context, actor domain.Actor, loanID string, reason string) (domain.Loan, error)
	PayEMI(ctx context.Context, actor domain.Actor, req services.PayEMIRequest) (services.PayEMIResult, error)
	GetSchedule(ctx context.Context, actor domain.Actor, loanID string) (services.LoanSchedule, error)
	GetLoan(ctx context.Context, actor domain.Actor, loanID string) (domain.Loan, error)
	ListLoans(ctx context.Context, actor domain.Actor, ownerID string) ([]domain.Loan, error)
}

type LoanController struct {
	service LoanService
}

func NewLoanController(service LoanService) *LoanController {
	return &LoanController{service: service}
}

func (c *LoanController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("POST /loans/calculate-emi", protect(c.calculateEMI, authMiddleware))
	mux.Handle("POST /loans", protect(c.apply, authMiddleware))
	mux.Handle("GET /loans", protect(c.listLoans, authMiddleware))
	mux.Handle("GET /loans/{id}", protect(c.getLoan, authMiddleware))
	mux.Handle("PUT /loans/{id}/approve", protect(c.approve, authMiddleware))
	mux.Handle("PUT /loans/{id}/reject", protect(c.reject, authMiddleware))
	mux.Handle("POST /loans/{id}/pay-emi", protect(c.payEMI, authMiddleware))
	mux.Handle("GET /loans/{id}/emi-schedule", protect(c.getSchedule, authMiddleware))
}

func (c *LoanController) calculateEMI(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.CalculateEMIRequest
	if !decodeBody[models.EMICalculationResponse](w, r, &req, start) {
		return
	}

	quote, err := req.ToService()
	if err != nil {
		fail[models.EMICalculationResponse](w, r, err, start)
		return
	}

	calc, err := c.service.CalculateEMI(quote.LoanType, quote.Principal, quote.InterestRate, quote.TenureMonths)
	if err != nil {
		fail[models.EMICalculationResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusOK, "EMI calculated successfully", models.NewEMICalculationResponse(calc), start)
}

func (c *LoanController) apply(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	actor, ok := requireActor[models.LoanResponse](w, r, start)
	if !ok {
		return
	}

	var req models.ApplyLoanRequest
	if !decodeBody[models.LoanResponse](w, r, &req, start) {
		return
	}

	serviceReq, err := req.ToService()
	if err != nil {
		fail[models.LoanResponse](w, r, err, start)
		return
	}

	loan, err := c.service.Apply(r.Context(), actor, serviceReq)
	if err != nil {
		fail[models.LoanResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusCreated, "Loan application submitted successfully", models.NewLoanResponse(loan), start)
}

func (c *LoanController) listLoans(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	actor, ok := requireActor[[]models.LoanResponse](w, r, start)
	if !ok {
		return
	}

	loans, err := c.service.ListLoans(r.Context(), actor, r.URL.Query().Get("ownerId"))
	if err != nil {
		fail[[]models.LoanResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusOK, "Loans retrieved successfully", models.NewLoanListResponse(loans), start)
}

func (c *LoanController) getLoan(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	actor, ok := requireActor[models.LoanResponse](w, r, start)
	if !ok {
		return
	}

	loan, err := c.service.GetLoan(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		fail[models.LoanResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusOK, "Loan retrieved successfully", models.NewLoanResponse(loan), start)
}

func (c *LoanController) approve(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	actor, ok := requireActor[models.ApprovalResponse](w, r, start)
	if !ok {
		return
	}

	result, err := c.service.Approve(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		fail[models.ApprovalResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusOK, "Loan approved successfully", models.NewApprovalResponse(result), start)
}

func (c *LoanController) reject(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	actor, ok := requireActor[models.LoanResponse](w, r, start)
	if !ok {
		return
	}

	var req models.RejectLoanRequest
	if !decodeBody[models.LoanResponse](w, r, &req, start) {
		return
	}
	if err := req.Validate(); err != nil {
		fail[models.LoanResponse](w, r, err, start)
		return
	}

	loan, err := c.service.Reject(r.Context(), actor, r.PathValue("id"), req.Reason)
	if err != nil {
		fail[models.LoanResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusOK, "Loan rejected successfully", models.NewLoanResponse(loan), start)
}

func (c *LoanController) payEMI(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	actor, ok := requireActor[models.PayEMIResponse](w, r, start)
	if !ok {
		return
	}

	var req models.PayEMIRequest
	if !decodeBody[models.PayEMIResponse](w, r, &req, start) {
		return
	}

	serviceReq, err := req.ToService(r.PathValue("id"))
	if err != nil {
		fail[models.PayEMIResponse](w, r, err, start)
		return
	}

	result, err := c.service.PayEMI(r.Context(), actor, serviceReq)
	if err != nil {
		fail[models.PayEMIResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusCreated, "EMI paid successfully", models.NewPayEMIResponse(result), start)
}

func (c *LoanController) getSchedule(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	actor, ok := requireActor[models.LoanScheduleResponse](w, r, start)
	if !ok {
		return
	}

	schedule, err := c.service.GetSchedule(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		fail[models.LoanScheduleResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusOK, "EMI schedule retrieved successfully", models.NewLoanScheduleResponse(schedule), start)
}

package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/jade-bank/core-ledger/src/internal/adapter/http/models"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/usecase/services"
)

type LedgerService interface {
	Transfer(ctx context.Context, actor domain.Actor, req services.TransferRequest) (services.TransferResult, error)
	Deposit(ctx context.Context, actor domain.Actor, req services.PostingRequest) (services.PostingResult, error)
	Withdraw(ctx context.Context, actor domain.Actor, req services.PostingRequest) (services.PostingResult, error)
	GetTransaction(ctx context.Context, actor domain.Actor, id string) (domain.Transaction, error)
	ListTransactions(ctx context.Context, actor domain.Actor, filter services.HistoryFilter) ([]domain.Transaction, error)
}

type TransactionController struct {
	service LedgerService
}

func NewTransactionController(service LedgerService) *TransactionController {
	return &TransactionController{service: service}
}

func (c *TransactionController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("POST /transactions/transfer", protect(c.transfer, authMiddleware))
	mux.Handle("POST /transactions/deposit", protect(c.deposit, authMiddleware))
	mux.Handle("POST /transactions/withdraw", protect(c.withdraw, authMiddleware))
	mux.Handle("GET /transactions", protect(c.listTransactions, authMiddleware))
	mux.Handle("GET /transactions/{id}", protect(c.getTransaction, authMiddleware))
}

func (c *TransactionController) transfer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	actor, ok := requireActor[models.TransferResponse](w, r, start)
	if !ok {
		return
	}

	var req models.TransferRequest
	if !decodeBody[models.TransferResponse](w, r, &req, start) {
		return
	}

	serviceReq, err := req.ToService()
	if err != nil {
		fail[models.TransferResponse](w, r, err, start)
		return
	}

	result, err := c.service.Transfer(r.Context(), actor, serviceReq)
	if err != nil {
		fail[models.TransferResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusCreated, "Transfer completed successfully", models.NewTransferResponse(result), start)
}

func (c *TransactionController) deposit(w http.ResponseWriter, r *http.Request) {
	c.post(w, r, "Deposit completed successfully", c.service.Deposit)
}

func (c *TransactionController) withdraw(w http.ResponseWriter, r *http.Request) {
	c.post(w, r, "Withdrawal completed successfully", c.service.Withdraw)
}

type postingFunc func(ctx context.Context, actor domain.Actor, req services.PostingRequest) (services.PostingResult, error)

func (c *TransactionController) post(w http.ResponseWriter, r *http.Request, message string, apply postingFunc) {
	start := time.Now()

	actor, ok := requireActor[models.PostingResponse](w, r, start)
	if !ok {
		return
	}

	var req models.PostingRequest
	if !decodeBody[models.PostingResponse](w, r, &req, start) {
		return
	}

	serviceReq, err := req.ToService()
	if err != nil {
		fail[models.PostingResponse](w, r, err, start)
		return
	}

	result, err := apply(r.Context(), actor, serviceReq)
	if err != nil {
		fail[models.PostingResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusCreated, message, models.NewPostingResponse(result), start)
}

func (c *TransactionController) getTransaction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	actor, ok := requireActor[models.TransactionResponse](w, r, start)
	if !ok {
		return
	}

	txn, err := c.service.GetTransaction(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		fail[models.TransactionResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusOK, "Transaction retrieved successfully", models.NewTransactionResponse(txn), start)
}

func (c *TransactionController) listTransactions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	actor, ok := requireActor[[]models.TransactionResponse](w, r, start)
	if !ok {
		return
	}

	filter, err := models.ParseHistoryQuery(r.URL.Query())
	if err != nil {
		fail[[]models.TransactionResponse](w, r, err, start)
		return
	}

	txns, err := c.service.ListTransactions(r.Context(), actor, filter)
	if err != nil {
		fail[[]models.TransactionResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusOK, "Transactions retrieved successfully", models.NewTransactionResponses(txns), start)
}

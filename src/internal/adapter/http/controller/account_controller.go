package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/jade-bank/core-ledger/src/internal/adapter/http/models"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/usecase/services"
)

type AccountService interface {
	CreateAccount(ctx context.Context, actor domain.Actor, req services.CreateAccountRequest) (domain.Account, error)
	GetAccount(ctx context.Context, actor domain.Actor, id string) (services.AccountDetails, error)
	ListAccounts(ctx context.Context, actor domain.Actor, ownerID string) ([]domain.Account, error)
	GetStatement(ctx context.Context, actor domain.Actor, accountID string, from, to time.Time) (services.Statement, error)
}

type AccountController struct {
	service AccountService
}

func NewAccountController(service AccountService) *AccountController {
	return &AccountController{service: service}
}

func (c *AccountController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("POST /accounts", protect(c.createAccount, authMiddleware))
	mux.Handle("GET /accounts", protect(c.listAccounts, authMiddleware))
	mux.Handle("GET /accounts/{id}", protect(c.getAccount, authMiddleware))
	mux.Handle("GET /accounts/{id}/statement", protect(c.getStatement, authMiddleware))
}

func (c *AccountController) createAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	actor, ok := requireActor[models.AccountResponse](w, r, start)
	if !ok {
		return
	}

	var req models.CreateAccountRequest
	if !decodeBody[models.AccountResponse](w, r, &req, start) {
		return
	}

	serviceReq, err := req.ToService()
	if err != nil {
		fail[models.AccountResponse](w, r, err, start)
		return
	}

	account, err := c.service.CreateAccount(r.Context(), actor, serviceReq)
	if err != nil {
		fail[models.AccountResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusCreated, "Account created successfully", models.NewAccountResponse(account), start)
}

func (c *AccountController) listAccounts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	actor, ok := requireActor[[]models.AccountResponse](w, r, start)
	if !ok {
		return
	}

	accounts, err := c.service.ListAccounts(r.Context(), actor, r.URL.Query().Get("ownerId"))
	if err != nil {
		fail[[]models.AccountResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusOK, "Accounts retrieved successfully", models.NewAccountListResponse(accounts), start)
}

func (c *AccountController) getAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	actor, ok := requireActor[models.AccountResponse](w, r, start)
	if !ok {
		return
	}

	details, err := c.service.GetAccount(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		fail[models.AccountResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusOK, "Account retrieved successfully", models.NewAccountDetailsResponse(details), start)
}

func (c *AccountController) getStatement(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	actor, ok := requireActor[models.StatementResponse](w, r, start)
	if !ok {
		return
	}

	from, to, err := models.ParseStatementRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		fail[models.StatementResponse](w, r, err, start)
		return
	}

	statement, err := c.service.GetStatement(r.Context(), actor, r.PathValue("id"), from, to)
	if err != nil {
		fail[models.StatementResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusOK, "Statement retrieved successfully", models.NewStatementResponse(statement), start)
}

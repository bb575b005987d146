package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/jade-bank/core-ledger/src/internal/adapter/http/models"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/usecase/services"
)

type OwnerService interface {
	RegisterOwner(ctx context.Context, req services.RegisterOwnerRequest) (domain.Owner, error)
	GetOwner(ctx context.Context, actor domain.Actor, id string) (domain.Owner, error)
}

type OwnerController struct {
	service OwnerService
}

func NewOwnerController(service OwnerService) *OwnerController {
	return &OwnerController{service: service}
}

func (c *OwnerController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("POST /owners", protect(c.registerOwner, authMiddleware))
	mux.Handle("GET /owners/{id}", protect(c.getOwner, authMiddleware))
}

func (c *OwnerController) registerOwner(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.RegisterOwnerRequest
	if !decodeBody[models.OwnerResponse](w, r, &req, start) {
		return
	}

	owner, err := c.service.RegisterOwner(r.Context(), req.ToService())
	if err != nil {
		fail[models.OwnerResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusCreated, "Owner registered successfully", models.NewOwnerResponse(owner), start)
}

func (c *OwnerController) getOwner(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	actor, ok := requireActor[models.OwnerResponse](w, r, start)
	if !ok {
		return
	}

	owner, err := c.service.GetOwner(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		fail[models.OwnerResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusOK, "Owner retrieved successfully", models.NewOwnerResponse(owner), start)
}

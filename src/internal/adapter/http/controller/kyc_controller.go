package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/jade-bank/core-ledger/src/internal/adapter/http/models"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/usecase/services"
)

type KYCService interface {
	SubmitDocument(ctx context.Context, actor domain.Actor, req services.SubmitDocumentRequest) (domain.KYCDocument, error)
	VerifyDocument(ctx context.Context, actor domain.Actor, req services.ReviewDocumentRequest) (services.ReviewResult, error)
	ListDocuments(ctx context.Context, actor domain.Actor, ownerID string) ([]domain.KYCDocument, error)
}

type KYCController struct {
	service KYCService
}

func NewKYCController(service KYCService) *KYCController {
	return &KYCController{service: service}
}

func (c *KYCController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("POST /kyc/documents", protect(c.submitDocument, authMiddleware))
	mux.Handle("GET /kyc/documents", protect(c.listDocuments, authMiddleware))
	mux.Handle("PUT /kyc/documents/{id}/review", protect(c.reviewDocument, authMiddleware))
}

func (c *KYCController) submitDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	actor, ok := requireActor[models.KYCDocumentResponse](w, r, start)
	if !ok {
		return
	}

	var req models.SubmitDocumentRequest
	if !decodeBody[models.KYCDocumentResponse](w, r, &req, start) {
		return
	}

	serviceReq, err := req.ToService()
	if err != nil {
		fail[models.KYCDocumentResponse](w, r, err, start)
		return
	}

	doc, err := c.service.SubmitDocument(r.Context(), actor, serviceReq)
	if err != nil {
		fail[models.KYCDocumentResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusCreated, "Document submitted successfully", models.NewKYCDocumentResponse(doc), start)
}

func (c *KYCController) listDocuments(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	actor, ok := requireActor[[]models.KYCDocumentResponse](w, r, start)
	if !ok {
		return
	}

	docs, err := c.service.ListDocuments(r.Context(), actor, r.URL.Query().Get("ownerId"))
	if err != nil {
		fail[[]models.KYCDocumentResponse](w, r, err, start)
		return
	}

	list := make([]models.KYCDocumentResponse, 0, len(docs))
	for _, doc := range docs {
		list = append(list, models.NewKYCDocumentResponse(doc))
	}
	respond(w, r, http.StatusOK, "Documents retrieved successfully", list, start)
}

func (c *KYCController) reviewDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	actor, ok := requireActor[models.ReviewDocumentResponse](w, r, start)
	if !ok {
		return
	}

	var req models.ReviewDocumentRequest
	if !decodeBody[models.ReviewDocumentResponse](w, r, &req, start) {
		return
	}

	serviceReq, err := req.ToService(r.PathValue("id"))
	if err != nil {
		fail[models.ReviewDocumentResponse](w, r, err, start)
		return
	}

	result, err := c.service.VerifyDocument(r.Context(), actor, serviceReq)
	if err != nil {
		fail[models.ReviewDocumentResponse](w, r, err, start)
		return
	}

	respond(w, r, http.StatusOK, "Document reviewed successfully", models.NewReviewDocumentResponse(result), start)
}

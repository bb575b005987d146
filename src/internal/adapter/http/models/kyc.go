package models

import (
	"strings"

	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/logger"
	"github.com/jade-bank/core-ledger/src/internal/usecase/services"
)

type SubmitDocumentRequest struct {
	DocumentType   string `json:"documentType"`
	DocumentNumber string `json:"documentNumber"`
}

func (r SubmitDocumentRequest) ToService() (services.SubmitDocumentRequest, error) {
	var errs []error
	errs = required(errs, "documentType", r.DocumentType)
	errs = required(errs, "documentNumber", r.DocumentNumber)
	if err := joinErrors(errs); err != nil {
		return services.SubmitDocumentRequest{}, err
	}

	return services.SubmitDocumentRequest{
		DocumentType:   r.DocumentType,
		DocumentNumber: r.DocumentNumber,
	}, nil
}

type ReviewDocumentRequest struct {
	Approve         *bool  `json:"approve"`
	RejectionReason string `json:"rejectionReason,omitempty"`
}

func (r ReviewDocumentRequest) ToService(documentID string) (services.ReviewDocumentRequest, error) {
	var errs []error
	errs = required(errs, "documentId", documentID)
	if r.Approve == nil {
		errs = append(errs, domain.NewValidationError("approve", "is required"))
	} else if !*r.Approve && strings.TrimSpace(r.RejectionReason) == "" {
		errs = append(errs, domain.NewValidationError("rejectionReason", "is required when rejecting"))
	}
	if err := joinErrors(errs); err != nil {
		return services.ReviewDocumentRequest{}, err
	}

	return services.ReviewDocumentRequest{
		DocumentID:      documentID,
		Approve:         *r.Approve,
		RejectionReason: r.RejectionReason,
	}, nil
}

type KYCDocumentResponse struct {
	ID              string  `json:"id"`
	OwnerID         string  `json:"ownerId"`
	DocumentType    string  `json:"documentType"`
	DocumentNumber  string  `json:"documentNumber"`
	Verified        bool    `json:"verified"`
	ReviewedBy      *string `json:"reviewedBy,omitempty"`
	ReviewedAt      *string `json:"reviewedAt,omitempty"`
	RejectionReason *string `json:"rejectionReason,omitempty"`
	CreatedAt       string  `json:"createdAt"`
}

func NewKYCDocumentResponse(doc domain.KYCDocument) KYCDocumentResponse {
	return KYCDocumentResponse{
		ID:              doc.ID,
		OwnerID:         doc.OwnerID,
		DocumentType:    string(doc.Type),
		DocumentNumber:  maskDocumentNumber(doc.Number),
		Verified:        doc.Verified,
		ReviewedBy:      doc.ReviewedBy,
		ReviewedAt:      formatTimePtr(doc.ReviewedAt),
		RejectionReason: doc.RejectionReason,
		CreatedAt:       formatTime(doc.CreatedAt),
	}
}

type ReviewDocumentResponse struct {
	Document          KYCDocumentResponse `json:"document"`
	OwnerKYCStatus    string              `json:"ownerKycStatus"`
	VerifiedDocuments int                 `json:"verifiedDocuments"`
}

func NewReviewDocumentResponse(result services.ReviewResult) ReviewDocumentResponse {
	return ReviewDocumentResponse{
		Document:          NewKYCDocumentResponse(result.Document),
		OwnerKYCStatus:    string(result.Owner.KYCStatus),
		VerifiedDocuments: result.Verified,
	}
}

// maskDocumentNumber keeps the last four characters.
func maskDocumentNumber(number string) string {
	return logger.MaskTail(number, 4)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/logger"
)

// KYCService is the verification gate for owners. An owner becomes verified once
// enough distinct document types are verified, and the status never regresses here.
type KYCService struct {
	store domain.Store
	audit auditor
	now   func() time.Time
}

func NewKYCService(store domain.Store, sink domain.AuditSink) *KYCService {
	s := &KYCService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
	s.audit = newAuditor(sink, func() time.Time { return s.now() })
	return s
}

type SubmitDocumentRequest struct {
	DocumentType   string
	DocumentNumber string
}

type ReviewDocumentRequest struct {
	DocumentID      string
	Approve         bool
	RejectionReason string
}

type ReviewResult struct {
	Document  domain.KYCDocument
	Owner     domain.Owner
	Verified  int
	Escalated bool
}

func (s *KYCService) SubmitDocument(ctx context.Context, actor domain.Actor, req SubmitDocumentRequest) (domain.KYCDocument, error) {
	docType := domain.DocumentType(strings.ToLower(strings.TrimSpace(req.DocumentType)))
	fields := logger.Fields{
		"ownerId":      actor.OwnerID,
		"documentType": docType,
	}
	logger.Info("kyc service submit document request", fields)

	doc, err := s.submit(ctx, actor, docType, req.DocumentNumber)

	event := domain.AuditEvent{
		Action:       domain.AuditActionKYCSubmitted,
		ActorID:      actor.OwnerID,
		ActorRole:    actor.Role,
		ResourceType: "kyc_document",
		ResourceID:   doc.ID,
		Details:      map[string]any{"documentType": string(docType)},
	}
	s.audit.record(ctx, event, err)
	logOutcome("kyc service submit document", err, fields)

	return doc, err
}

func (s *KYCService) submit(ctx context.Context, actor domain.Actor, docType domain.DocumentType, rawNumber string) (domain.KYCDocument, error) {
	if strings.TrimSpace(actor.OwnerID) == "" {
		return domain.KYCDocument{}, domain.NewAuthorizationError("caller identity is required")
	}
	if !docType.IsValid() {
		return domain.KYCDocument{}, domain.NewValidationError("documentType", "must be one of pan, aadhaar, passport, driving_license")
	}
	number := strings.ToUpper(strings.TrimSpace(rawNumber))
	if !docType.ValidNumber(number) {
		return domain.KYCDocument{}, domain.NewValidationError("documentNumber", fmt.Sprintf("is not a valid %s number", docType))
	}

	var created domain.KYCDocument
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		if _, err := tx.GetOwner(ctx, actor.OwnerID); err != nil {
			return ownerLookupError(err)
		}

		doc, err := tx.CreateKYCDocument(ctx, domain.KYCDocument{
			OwnerID: actor.OwnerID,
			Type:    docType,
			Number:  number,
		})
		if err != nil {
			if errors.Is(err, domain.ErrDuplicateKYCDocument) {
				return domain.DuplicateKYCDocument(actor.OwnerID, docType)
			}
			return fmt.Errorf("create kyc document: %w", err)
		}

		created = doc
		return nil
	})
	if err != nil {
		return domain.KYCDocument{}, err
	}

	return created, nil
}

// VerifyDocument records an admin review. Approval may flip the owner to verified.
func (s *KYCService) VerifyDocument(ctx context.Context, actor domain.Actor, req ReviewDocumentRequest) (ReviewResult, error) {
	fields := logger.Fields{
		"documentId": req.DocumentID,
		"approve":    req.Approve,
		"adminId":    actor.OwnerID,
	}
	logger.Info("kyc service verify document request", fields)

	result, err := s.verify(ctx, actor, req)

	event := domain.AuditEvent{
		Action:       domain.AuditActionKYCVerified,
		ActorID:      actor.OwnerID,
		ActorRole:    actor.Role,
		ResourceType: "kyc_document",
		ResourceID:   req.DocumentID,
		Details:      map[string]any{"approve": req.Approve},
	}
	if !req.Approve {
		event.Action = domain.AuditActionKYCRejected
	}
	if err == nil {
		event.Details["ownerId"] = result.Owner.ID
		event.Details["verifiedDocuments"] = result.Verified
		event.Details["kycStatus"] = string(result.Owner.KYCStatus)
		fields["kycStatus"] = result.Owner.KYCStatus
	}
	s.audit.record(ctx, event, err)
	logOutcome("kyc service verify document", err, fields)

	return result, err
}

func (s *KYCService) verify(ctx context.Context, actor domain.Actor, req ReviewDocumentRequest) (ReviewResult, error) {
	if !actor.IsAdmin() {
		return ReviewResult{}, domain.NewAuthorizationError("admin role required")
	}
	documentID := strings.TrimSpace(req.DocumentID)
	if documentID == "" {
		return ReviewResult{}, domain.NewValidationError("documentId", "is required")
	}
	reason := strings.TrimSpace(req.RejectionReason)
	if !req.Approve && reason == "" {
		return ReviewResult{}, domain.NewValidationError("rejectionReason", "is required when rejecting")
	}

	var result ReviewResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		doc, err := tx.GetKYCDocument(ctx, documentID)
		if err != nil {
			return documentLookupError(err)
		}

		// owner before document, so concurrent reviews for one owner count each other
		owner, err := tx.LockOwner(ctx, doc.OwnerID)
		if err != nil {
			return ownerLookupError(err)
		}
		doc, err = tx.LockKYCDocument(ctx, documentID)
		if err != nil {
			return documentLookupError(err)
		}
		if doc.Reviewed() {
			return domain.DocumentAlreadyReviewed(doc.ID)
		}

		now := s.now()
		doc.Verified = req.Approve
		doc.ReviewedBy = stringPtr(actor.OwnerID)
		doc.ReviewedAt = &now
		if !req.Approve {
			doc.RejectionReason = stringPtr(reason)
		}
		if err := tx.UpdateKYCDocument(ctx, doc); err != nil {
			return fmt.Errorf("update kyc document: %w", err)
		}

		verified, err := tx.CountVerifiedKYCDocuments(ctx, owner.ID)
		if err != nil {
			return fmt.Errorf("count verified kyc documents: %w", err)
		}

		escalated := false
		if req.Approve && verified >= domain.VerifiedDocumentsForKYC && owner.KYCStatus != domain.KYCStatusVerified {
			if err := tx.UpdateOwnerKYCStatus(ctx, owner.ID, domain.KYCStatusVerified); err != nil {
				return fmt.Errorf("update owner kyc status: %w", err)
			}
			owner.KYCStatus = domain.KYCStatusVerified
			escalated = true
		}

		result = ReviewResult{Document: doc, Owner: owner, Verified: verified, Escalated: escalated}
		return nil
	})
	if err != nil {
		return ReviewResult{}, err
	}

	return result, nil
}

func (s *KYCService) ListDocuments(ctx context.Context, actor domain.Actor, ownerID string) ([]domain.KYCDocument, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		ownerID = actor.OwnerID
	}
	if !actor.CanRead(ownerID) {
		return nil, domain.NewAuthorizationError("caller cannot read these documents")
	}

	docs, err := s.store.ListKYCDocuments(ctx, ownerID)
	if err != nil {
		logger.Error("kyc service list documents failed", err, logger.Fields{"ownerId": ownerID})
		return nil, fmt.Errorf("list kyc documents: %w", err)
	}
	return docs, nil
}

// RequireVerified is the gate used by account opening and loan applications.
func RequireVerified(ctx context.Context, reader domain.OwnerReader, ownerID string) (domain.Owner, error) {
	owner, err := reader.GetOwner(ctx, ownerID)
	if err != nil {
		return domain.Owner{}, ownerLookupError(err)
	}
	if owner.KYCStatus != domain.KYCStatusVerified {
		return domain.Owner{}, domain.KYCNotVerified(owner.ID, owner.KYCStatus)
	}
	return owner, nil
}

func ownerLookupError(err error) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return fmt.Errorf("owner not found: %w", err)
	}
	return fmt.Errorf("get owner: %w", err)
}

func documentLookupError(err error) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return fmt.Errorf("kyc document not found: %w", err)
	}
	return fmt.Errorf("get kyc document: %w", err)
}

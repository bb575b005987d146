package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/logger"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

type OwnerService struct {
	store domain.Store
	audit auditor
}

func NewOwnerService(store domain.Store, sink domain.AuditSink) *OwnerService {
	return &OwnerService{
		store: store,
		audit: newAuditor(sink, func() time.Time { return time.Now().UTC() }),
	}
}

type RegisterOwnerRequest struct {
	FirstName   string
	MiddleName  string
	LastName    string
	Email       string
	PhoneNumber string
}

func (r RegisterOwnerRequest) validate() error {
	var errs []error

	if strings.TrimSpace(r.FirstName) == "" {
		errs = append(errs, domain.NewValidationError("firstName", "is required"))
	}
	if strings.TrimSpace(r.LastName) == "" {
		errs = append(errs, domain.NewValidationError("lastName", "is required"))
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(r.Email)); err != nil {
		errs = append(errs, domain.NewValidationError("email", "must be a valid email address"))
	}
	if !phonePattern.MatchString(strings.TrimSpace(r.PhoneNumber)) {
		errs = append(errs, domain.NewValidationError("phoneNumber", "must be 10 to 15 digits"))
	}

	return errors.Join(errs...)
}

// RegisterOwner creates an owner in KYC pending. Verification happens through the KYC documents.
func (s *OwnerService) RegisterOwner(ctx context.Context, req RegisterOwnerRequest) (domain.Owner, error) {
	logger.Info("owner service register owner request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	created, err := s.register(ctx, req)

	event := domain.AuditEvent{
		Action:       domain.AuditActionOwnerRegistered,
		ActorID:      created.ID,
		ResourceType: "owner",
		ResourceID:   created.ID,
	}
	if err == nil {
		event.Details = map[string]any{"kycStatus": string(created.KYCStatus)}
	}
	s.audit.record(ctx, event, err)
	logOutcome("owner service register owner", err, logger.Fields{
		"ownerId":   created.ID,
		"kycStatus": created.KYCStatus,
	})

	return created, err
}

func (s *OwnerService) register(ctx context.Context, req RegisterOwnerRequest) (domain.Owner, error) {
	if err := req.validate(); err != nil {
		return domain.Owner{}, err
	}

	var middleName *string
	if trimmed := strings.TrimSpace(req.MiddleName); trimmed != "" {
		middleName = &trimmed
	}

	owner := domain.Owner{
		FirstName:   strings.TrimSpace(req.FirstName),
		MiddleName:  middleName,
		LastName:    strings.TrimSpace(req.LastName),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		KYCStatus:   domain.KYCStatusPending,
	}

	var created domain.Owner
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		created, err = tx.CreateOwner(ctx, owner)
		return err
	})
	if err != nil {
		return domain.Owner{}, fmt.Errorf("create owner: %w", err)
	}
	return created, nil
}

func (s *OwnerService) GetOwner(ctx context.Context, actor domain.Actor, id string) (domain.Owner, error) {
	logger.Info("owner service get owner request", logger.Fields{
		"ownerId": id,
	})

	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Owner{}, domain.NewValidationError("id", "is required")
	}
	if !actor.CanRead(id) {
		return domain.Owner{}, domain.NewAuthorizationError("caller cannot read this owner")
	}

	owner, err := s.store.GetOwner(ctx, id)
	if err != nil {
		logger.Error("owner service get owner failed", err, logger.Fields{
			"ownerId": id,
		})
		return domain.Owner{}, ownerLookupError(err)
	}

	logger.Info("owner service get owner success", logger.Fields{
		"ownerId":   owner.ID,
		"kycStatus": owner.KYCStatus,
	})

	return owner, nil
}

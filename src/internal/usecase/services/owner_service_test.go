package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/usecase/services"
)

func TestOwnerServiceRegisterOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner, err := f.owners.RegisterOwner(ctx, services.RegisterOwnerRequest{
		FirstName:   " Meera ",
		MiddleName:  "K",
		LastName:    "Iyer",
		Email:       "Meera.Iyer@Example.com",
		PhoneNumber: "9876543210",
	})
	if err != nil {
		t.Fatalf("register owner: %v", err)
	}
	if owner.KYCStatus != domain.KYCStatusPending {
		t.Fatalf("expected pending kyc status, got %s", owner.KYCStatus)
	}
	if owner.Email != "meera.iyer@example.com" || owner.FullName() != "Meera K Iyer" {
		t.Fatalf("unexpected owner %+v", owner)
	}

	event, ok := f.sink.last(domain.AuditActionOwnerRegistered)
	if !ok {
		t.Fatalf("expected owner_registered audit event, got %v", f.sink.actions())
	}
	if event.ResourceID != owner.ID || event.Outcome != domain.AuditOutcomeSuccess || event.Level != domain.AuditLevelInfo {
		t.Fatalf("unexpected audit event %+v", event)
	}
	if event.Details["kycStatus"] != string(domain.KYCStatusPending) {
		t.Fatalf("audit event does not carry the kyc status: %+v", event.Details)
	}

	self := domain.Actor{OwnerID: owner.ID, Role: domain.RoleCustomer}
	if _, err := f.owners.GetOwner(ctx, self, owner.ID); err != nil {
		t.Fatalf("get own record: %v", err)
	}

	_, err = f.owners.GetOwner(ctx, domain.Actor{OwnerID: uuid.NewString(), Role: domain.RoleCustomer}, owner.ID)
	assertKind(t, err, domain.KindAuthorization)

	_, err = f.owners.GetOwner(ctx, f.admin, uuid.NewString())
	assertKind(t, err, domain.KindNotFound)
}

func TestOwnerServiceRegisterOwnerValidationError(t *testing.T) {
	f := newFixture(t)

	_, err := f.owners.RegisterOwner(context.Background(), services.RegisterOwnerRequest{
		FirstName:   "",
		LastName:    "Iyer",
		Email:       "not-an-email",
		PhoneNumber: "12",
	})
	assertKind(t, err, domain.KindValidation)

	event, ok := f.sink.last(domain.AuditActionOwnerRegistered)
	if !ok {
		t.Fatalf("expected owner_registered audit event, got %v", f.sink.actions())
	}
	if event.Outcome != domain.AuditOutcomeFailure || event.Level != domain.AuditLevelWarning || event.ErrorKind != domain.KindValidation {
		t.Fatalf("unexpected audit event %+v", event)
	}
}

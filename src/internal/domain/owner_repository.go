package domain

import "context"

type OwnerReader interface {
	GetOwner(ctx context.Context, id string) (Owner, error)
	GetKYCDocument(ctx context.Context, id string) (KYCDocument, error)
	ListKYCDocuments(ctx context.Context, ownerID string) ([]KYCDocument, error)
}

type OwnerWriter interface {
	CreateOwner(ctx context.Context, owner Owner) (Owner, error)
	LockOwner(ctx context.Context, id string) (Owner, error)
	UpdateOwnerKYCStatus(ctx context.Context, id string, status KYCStatus) error
	// CreateKYCDocument fails with ErrDuplicateKYCDocument when (owner, type) exists.
	CreateKYCDocument(ctx context.Context, doc KYCDocument) (KYCDocument, error)
	LockKYCDocument(ctx context.Context, id string) (KYCDocument, error)
	UpdateKYCDocument(ctx context.Context, doc KYCDocument) error
	CountVerifiedKYCDocuments(ctx context.Context, ownerID string) (int, error)
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/logger"
)

const ownerColumns = `id, first_name, middle_name, last_name, email, phone_number, kyc_status, created_at, updated_at`

const kycDocumentColumns = `id, owner_id, document_type, document_number, is_verified, reviewed_by, reviewed_at, rejection_reason, created_at, updated_at`

func scanOwner(row rowScanner) (domain.Owner, error) {
	var (
		owner      domain.Owner
		middleName sql.NullString
	)
	if err := row.Scan(
		&owner.ID,
		&owner.FirstName,
		&middleName,
		&owner.LastName,
		&owner.Email,
		&owner.PhoneNumber,
		&owner.KYCStatus,
		&owner.CreatedAt,
		&owner.UpdatedAt,
	); err != nil {
		return domain.Owner{}, err
	}
	owner.MiddleName = stringPtr(middleName)
	return owner, nil
}

func scanKYCDocument(row rowScanner) (domain.KYCDocument, error) {
	var (
		doc                         domain.KYCDocument
		reviewedBy, rejectionReason sql.NullString
		reviewedAt                  sql.NullTime
	)
	if err := row.Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.Type,
		&doc.Number,
		&doc.Verified,
		&reviewedBy,
		&reviewedAt,
		&rejectionReason,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	); err != nil {
		return domain.KYCDocument{}, err
	}
	doc.ReviewedBy = stringPtr(reviewedBy)
	doc.ReviewedAt = timePtr(reviewedAt)
	doc.RejectionReason = stringPtr(rejectionReason)
	return doc, nil
}

func (r reader) GetOwner(ctx context.Context, id string) (domain.Owner, error) {
	return r.getOwner(ctx, id, false)
}

func (r reader) getOwner(ctx context.Context, id string, forUpdate bool) (domain.Owner, error) {
	if !validID(id) {
		return domain.Owner{}, domain.ErrRecordNotFound
	}

	query := `SELECT ` + ownerColumns + ` FROM owners WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	owner, err := scanOwner(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("owner repository record not found", logger.Fields{
				"ownerId": id,
			})
			return domain.Owner{}, domain.ErrRecordNotFound
		}
		logger.Error("owner repository get failed", err, logger.Fields{
			"ownerId": id,
		})
		return domain.Owner{}, fmt.Errorf("get owner: %w", err)
	}

	return owner, nil
}

func (r reader) GetKYCDocument(ctx context.Context, id string) (domain.KYCDocument, error) {
	return r.getKYCDocument(ctx, id, false)
}

func (r reader) getKYCDocument(ctx context.Context, id string, forUpdate bool) (domain.KYCDocument, error) {
	if !validID(id) {
		return domain.KYCDocument{}, domain.ErrRecordNotFound
	}

	query := `SELECT ` + kycDocumentColumns + ` FROM kyc_documents WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	doc, err := scanKYCDocument(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.KYCDocument{}, domain.ErrRecordNotFound
		}
		logger.Error("owner repository get kyc document failed", err, logger.Fields{
			"documentId": id,
		})
		return domain.KYCDocument{}, fmt.Errorf("get kyc document: %w", err)
	}

	return doc, nil
}

func (r reader) ListKYCDocuments(ctx context.Context, ownerID string) ([]domain.KYCDocument, error) {
	if !validID(ownerID) {
		return []domain.KYCDocument{}, nil
	}

	query := `SELECT ` + kycDocumentColumns + ` FROM kyc_documents WHERE owner_id = $1 ORDER BY created_at, id`

	rows, err := r.q.QueryContext(ctx, query, ownerID)
	if err != nil {
		logger.Error("owner repository list kyc documents failed", err, logger.Fields{
			"ownerId": ownerID,
		})
		return nil, fmt.Errorf("list kyc documents: %w", err)
	}
	defer rows.Close()

	docs := make([]domain.KYCDocument, 0)
	for rows.Next() {
		doc, err := scanKYCDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan kyc document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kyc documents: %w", err)
	}

	return docs, nil
}

func (t *Tx) CreateOwner(ctx context.Context, owner domain.Owner) (domain.Owner, error) {
	logger.Info("owner repository create", logger.Fields{
		"email": owner.Email,
	})

	const query = `
INSERT INTO owners (
	id,
	first_name,
	middle_name,
	last_name,
	email,
	phone_number,
	kyc_status
) VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at`

	if owner.ID == "" {
		owner.ID = uuid.NewString()
	}
	if owner.KYCStatus == "" {
		owner.KYCStatus = domain.KYCStatusPending
	}

	if err := t.q.QueryRowContext(
		ctx,
		query,
		owner.ID,
		owner.FirstName,
		nullString(owner.MiddleName),
		owner.LastName,
		owner.Email,
		owner.PhoneNumber,
		owner.KYCStatus,
	).Scan(&owner.CreatedAt, &owner.UpdatedAt); err != nil {
		logger.Error("owner repository create failed", err, nil)
		return domain.Owner{}, fmt.Errorf("create owner: %w", err)
	}

	return owner, nil
}

func (t *Tx) LockOwner(ctx context.Context, id string) (domain.Owner, error) {
	return t.getOwner(ctx, id, true)
}

func (t *Tx) UpdateOwnerKYCStatus(ctx context.Context, id string, status domain.KYCStatus) error {
	const query = `
UPDATE owners
SET kyc_status = $2,
    updated_at = NOW()
WHERE id = $1`

	if err := execRequiredRows(ctx, t.q, query, id, status); err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			logger.Error("owner repository update kyc status failed", err, logger.Fields{
				"ownerId": id,
			})
		}
		return err
	}
	return nil
}

func (t *Tx) CreateKYCDocument(ctx context.Context, doc domain.KYCDocument) (domain.KYCDocument, error) {
	logger.Info("owner repository create kyc document", logger.Fields{
		"ownerId":      doc.OwnerID,
		"documentType": doc.Type,
	})

	const query = `
INSERT INTO kyc_documents (
	id,
	owner_id,
	document_type,
	document_number,
	is_verified
) VALUES ($1, $2, $3, $4, FALSE)
ON CONFLICT (owner_id, document_type) DO NOTHING
RETURNING created_at, updated_at`

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	if err := t.q.QueryRowContext(ctx, query, doc.ID, doc.OwnerID, doc.Type, doc.Number).Scan(&doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.KYCDocument{}, domain.ErrDuplicateKYCDocument
		}
		logger.Error("owner repository create kyc document failed", err, logger.Fields{
			"ownerId": doc.OwnerID,
		})
		return domain.KYCDocument{}, fmt.Errorf("create kyc document: %w", err)
	}

	doc.Verified = false
	return doc, nil
}

func (t *Tx) LockKYCDocument(ctx context.Context, id string) (domain.KYCDocument, error) {
	return t.getKYCDocument(ctx, id, true)
}

func (t *Tx) UpdateKYCDocument(ctx context.Context, doc domain.KYCDocument) error {
	const query = `
UPDATE kyc_documents
SET is_verified = $2,
    reviewed_by = $3,
    reviewed_at = $4,
    rejection_reason = $5,
    updated_at = NOW()
WHERE id = $1`

	if err := execRequiredRows(ctx, t.q, query,
		doc.ID,
		doc.Verified,
		nullString(doc.ReviewedBy),
		nullTime(doc.ReviewedAt),
		nullString(doc.RejectionReason),
	); err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			logger.Error("owner repository update kyc document failed", err, logger.Fields{
				"documentId": doc.ID,
			})
		}
		return err
	}
	return nil
}

func (t *Tx) CountVerifiedKYCDocuments(ctx context.Context, ownerID string) (int, error) {
	const query = `SELECT COUNT(1) FROM kyc_documents WHERE owner_id = $1 AND is_verified`

	var count int
	if err := t.q.QueryRowContext(ctx, query, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count verified kyc documents: %w", err)
	}
	return count, nil
}

package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jade-bank/core-ledger/src/internal/domain"
)

func ownerLockKey(id string) string {
	return "owner:" + id
}

func kycDocumentLockKey(id string) string {
	return "kyc_document:" + id
}

func (t *Tx) GetOwner(_ context.Context, id string) (domain.Owner, error) {
	if t.staged != nil {
		if row, ok := t.staged.owners[id]; ok {
			return row, nil
		}
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	row, ok := t.store.owners[id]
	if !ok {
		return domain.Owner{}, domain.ErrRecordNotFound
	}
	return row, nil
}

func (t *Tx) CreateOwner(_ context.Context, owner domain.Owner) (domain.Owner, error) {
	if err := t.writable(); err != nil {
		return domain.Owner{}, err
	}

	now := t.store.now()
	if owner.ID == "" {
		owner.ID = uuid.NewString()
	}
	if owner.KYCStatus == "" {
		owner.KYCStatus = domain.KYCStatusPending
	}
	owner.CreatedAt = now
	owner.UpdatedAt = now

	t.staged.owners[owner.ID] = owner
	return owner, nil
}

func (t *Tx) LockOwner(ctx context.Context, id string) (domain.Owner, error) {
	if err := t.writable(); err != nil {
		return domain.Owner{}, err
	}

	t.lock(ownerLockKey(id))
	return t.GetOwner(ctx, id)
}

func (t *Tx) UpdateOwnerKYCStatus(ctx context.Context, id string, status domain.KYCStatus) error {
	if err := t.writable(); err != nil {
		return err
	}
	if !t.holds(ownerLockKey(id)) {
		return fmt.Errorf("update owner %s kyc status: row not locked", id)
	}

	row, err := t.GetOwner(ctx, id)
	if err != nil {
		return err
	}
	row.KYCStatus = status
	row.UpdatedAt = t.store.now()

	t.staged.owners[id] = row
	return nil
}

func (t *Tx) GetKYCDocument(_ context.Context, id string) (domain.KYCDocument, error) {
	if t.staged != nil {
		if row, ok := t.staged.kycDocuments[id]; ok {
			return row, nil
		}
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	row, ok := t.store.kycDocuments[id]
	if !ok {
		return domain.KYCDocument{}, domain.ErrRecordNotFound
	}
	return row, nil
}

func (t *Tx) ListKYCDocuments(_ context.Context, ownerID string) ([]domain.KYCDocument, error) {
	rows := make(map[string]domain.KYCDocument)

	t.store.mu.RLock()
	for id, row := range t.store.kycDocuments {
		if row.OwnerID == ownerID {
			rows[id] = row
		}
	}
	t.store.mu.RUnlock()

	if t.staged != nil {
		for id, row := range t.staged.kycDocuments {
			if row.OwnerID == ownerID {
				rows[id] = row
			}
		}
	}

	out := make([]domain.KYCDocument, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (t *Tx) CreateKYCDocument(_ context.Context, doc domain.KYCDocument) (domain.KYCDocument, error) {
	if err := t.writable(); err != nil {
		return domain.KYCDocument{}, err
	}
	if !t.reserve("kyc:" + doc.OwnerID + ":" + string(doc.Type)) {
		return domain.KYCDocument{}, domain.ErrDuplicateKYCDocument
	}

	now := t.store.now()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	doc.CreatedAt = now
	doc.UpdatedAt = now

	t.staged.kycDocuments[doc.ID] = doc
	return doc, nil
}

func (t *Tx) LockKYCDocument(ctx context.Context, id string) (domain.KYCDocument, error) {
	if err := t.writable(); err != nil {
		return domain.KYCDocument{}, err
	}

	t.lock(kycDocumentLockKey(id))
	return t.GetKYCDocument(ctx, id)
}

func (t *Tx) UpdateKYCDocument(ctx context.Context, doc domain.KYCDocument) error {
	if err := t.writable(); err != nil {
		return err
	}
	if !t.holds(kycDocumentLockKey(doc.ID)) {
		return fmt.Errorf("update kyc document %s: row not locked", doc.ID)
	}
	if _, err := t.GetKYCDocument(ctx, doc.ID); err != nil {
		return err
	}

	doc.UpdatedAt = t.store.now()
	t.staged.kycDocuments[doc.ID] = doc
	return nil
}

func (t *Tx) CountVerifiedKYCDocuments(ctx context.Context, ownerID string) (int, error) {
	docs, err := t.ListKYCDocuments(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, doc := range docs {
		if doc.Verified {
			count++
		}
	}
	return count, nil
}

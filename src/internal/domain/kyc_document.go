package domain

import (
	"regexp"
	"time"
)

type DocumentType string

const (
	DocumentTypePAN            DocumentType = "pan"
	DocumentTypeAadhaar        DocumentType = "aadhaar"
	DocumentTypePassport       DocumentType = "passport"
	DocumentTypeDrivingLicense DocumentType = "driving_license"
)

// VerifiedDocumentsForKYC is the number of verified documents that marks an owner verified.
const VerifiedDocumentsForKYC = 2

var panPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)

func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypePAN, DocumentTypeAadhaar, DocumentTypePassport, DocumentTypeDrivingLicense:
		return true
	}
	return false
}

// ValidNumber checks a normalized (trimmed, upper-cased) document number.
func (t DocumentType) ValidNumber(number string) bool {
	if len(number) < 5 || len(number) > 50 {
		return false
	}
	if t == DocumentTypePAN {
		return panPattern.MatchString(number)
	}
	return true
}

type KYCDocument struct {
	ID              string
	OwnerID         string
	Type            DocumentType
	Number          string
	Verified        bool
	ReviewedBy      *string
	ReviewedAt      *time.Time
	RejectionReason *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (d KYCDocument) Reviewed() bool {
	return d.ReviewedAt != nil
}

package domain

import "time"

type KYCStatus string

const (
	KYCStatusPending  KYCStatus = "pending"
	KYCStatusVerified KYCStatus = "verified"
	KYCStatusRejected KYCStatus = "rejected"
)

type Owner struct {
	ID          string
	FirstName   string
	MiddleName  *string
	LastName    string
	Email       string
	PhoneNumber string
	KYCStatus   KYCStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (o Owner) FullName() string {
	if o.MiddleName != nil && *o.MiddleName != "" {
		return o.FirstName + " " + *o.MiddleName + " " + o.LastName
	}
	return o.FirstName + " " + o.LastName
}

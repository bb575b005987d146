package models

import (
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/usecase/services"
)

type RegisterOwnerRequest struct {
	FirstName   string `json:"firstName"`
	MiddleName  string `json:"middleName,omitempty"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

func (r RegisterOwnerRequest) ToService() services.RegisterOwnerRequest {
	return services.RegisterOwnerRequest{
		FirstName:   r.FirstName,
		MiddleName:  r.MiddleName,
		LastName:    r.LastName,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
	}
}

type OwnerResponse struct {
	ID          string  `json:"id"`
	FirstName   string  `json:"firstName"`
	MiddleName  *string `json:"middleName,omitempty"`
	LastName    string  `json:"lastName"`
	FullName    string  `json:"fullName"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phoneNumber"`
	KYCStatus   string  `json:"kycStatus"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func NewOwnerResponse(owner domain.Owner) OwnerResponse {
	return OwnerResponse{
		ID:          owner.ID,
		FirstName:   owner.FirstName,
		MiddleName:  owner.MiddleName,
		LastName:    owner.LastName,
		FullName:    owner.FullName(),
		Email:       owner.Email,
		PhoneNumber: owner.PhoneNumber,
		KYCStatus:   string(owner.KYCStatus),
		CreatedAt:   formatTime(owner.CreatedAt),
		UpdatedAt:   formatTime(owner.UpdatedAt),
	}
}

package models

import (
	"strings"

	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/usecase/services"
)

type CalculateEMIRequest struct {
	LoanType     string `json:"loanType"`
	Principal    string `json:"principal"`
	InterestRate string `json:"interestRate,omitempty"`
	TenureMonths int    `json:"tenureMonths"`
}

func (r CalculateEMIRequest) ToService() (services.ApplyLoanRequest, error) {
	var errs []error
	errs = required(errs, "loanType", r.LoanType)
	principal, errs := parseAmount(errs, "principal", r.Principal)
	rate, errs := parseRate(errs, "interestRate", r.InterestRate)
	if r.TenureMonths <= 0 {
		errs = append(errs, domain.NewValidationError("tenureMonths", "must be greater than zero"))
	}
	if err := joinErrors(errs); err != nil {
		return services.ApplyLoanRequest{}, err
	}

	return services.ApplyLoanRequest{
		LoanType:     r.LoanType,
		Principal:    principal,
		InterestRate: rate,
		TenureMonths: r.TenureMonths,
	}, nil
}

type ApplyLoanRequest struct {
	LoanType              string `json:"loanType"`
	Principal             string `json:"principal"`
	InterestRate          string `json:"interestRate,omitempty"`
	TenureMonths          int    `json:"tenureMonths"`
	Purpose               string `json:"purpose,omitempty"`
	DisbursementAccountID string `json:"disbursementAccountId,omitempty"`
}

func (r ApplyLoanRequest) ToService() (services.ApplyLoanRequest, error) {
	req, err := CalculateEMIRequest{
		LoanType:     r.LoanType,
		Principal:    r.Principal,
		InterestRate: r.InterestRate,
		TenureMonths: r.TenureMonths,
	}.ToService()
	if err != nil {
		return services.ApplyLoanRequest{}, err
	}

	req.Purpose = r.Purpose
	req.DisbursementAccountID = r.DisbursementAccountID
	return req, nil
}

type RejectLoanRequest struct {
	Reason string `json:"reason"`
}

func (r RejectLoanRequest) Validate() error {
	if strings.TrimSpace(r.Reason) == "" {
		return domain.NewValidationError("reason", "is required")
	}
	return nil
}

type PayEMIRequest struct {
	PaymentAccountID string `json:"paymentAccountId"`
	EMINumber        int    `json:"emiNumber"`
	Amount           string `json:"amount"`
}

func (r PayEMIRequest) ToService(loanID string) (services.PayEMIRequest, error) {
	var errs []error
	errs = required(errs, "loanId", loanID)
	errs = required(errs, "paymentAccountId", r.PaymentAccountID)
	if r.EMINumber <= 0 {
		errs = append(errs, domain.NewValidationError("emiNumber", "must be greater than zero"))
	}
	amount, errs := parseAmount(errs, "amount", r.Amount)
	if err := joinErrors(errs); err != nil {
		return services.PayEMIRequest{}, err
	}

	return services.PayEMIRequest{
		LoanID:           loanID,
		PaymentAccountID: r.PaymentAccountID,
		EMINumber:        r.EMINumber,
		Amount:           amount,
	}, nil
}

type ScheduleEntryResponse struct {
	Month      int     `json:"month"`
	EMI        string  `json:"emi"`
	Principal  string  `json:"principal"`
	Interest   string  `json:"interest"`
	Balance    string  `json:"balance"`
	Status     string  `json:"status,omitempty"`
	AmountPaid *string `json:"amountPaid,omitempty"`
	Reference  *string `json:"reference,omitempty"`
	PaidAt     *string `json:"paidAt,omitempty"`
}

func newScheduleEntryResponse(entry domain.ScheduleEntry) ScheduleEntryResponse {
	return ScheduleEntryResponse{
		Month:     entry.Month,
		EMI:       entry.EMI.StringFixed(2),
		Principal: entry.Principal.StringFixed(2),
		Interest:  entry.Interest.StringFixed(2),
		Balance:   entry.Balance.StringFixed(2),
	}
}

type EMICalculationResponse struct {
	LoanType      string                  `json:"loanType"`
	Principal     string                  `json:"principal"`
	InterestRate  string                  `json:"interestRate"`
	TenureMonths  int                     `json:"tenureMonths"`
	EMI           string                  `json:"emi"`
	TotalInterest string                  `json:"totalInterest"`
	TotalPayable  string                  `json:"totalPayable"`
	Schedule      []ScheduleEntryResponse `json:"schedule"`
}

func NewEMICalculationResponse(calc services.EMICalculation) EMICalculationResponse {
	schedule := make([]ScheduleEntryResponse, 0, len(calc.Schedule))
	for _, entry := range calc.Schedule {
		schedule = append(schedule, newScheduleEntryResponse(entry))
	}

	return EMICalculationResponse{
		LoanType:      string(calc.LoanType),
		Principal:     calc.Principal.StringFixed(2),
		InterestRate:  calc.AnnualRate.String(),
		TenureMonths:  calc.TenureMonths,
		EMI:           calc.EMI.StringFixed(2),
		TotalInterest: calc.TotalInterest.StringFixed(2),
		TotalPayable:  calc.TotalPayable.StringFixed(2),
		Schedule:      schedule,
	}
}

type LoanResponse struct {
	ID                    string  `json:"id"`
	OwnerID               string  `json:"ownerId"`
	LoanType              string  `json:"loanType"`
	Principal             string  `json:"principal"`
	InterestRate          string  `json:"interestRate"`
	TenureMonths          int     `json:"tenureMonths"`
	EMIAmount             string  `json:"emiAmount"`
	TotalInterest         string  `json:"totalInterest"`
	TotalPayable          string  `json:"totalPayable"`
	OutstandingAmount     string  `json:"outstandingAmount"`
	PaidAmount            string  `json:"paidAmount"`
	EMIsPaid              int     `json:"emisPaid"`
	NextEMINumber         int     `json:"nextEmiNumber,omitempty"`
	Purpose               string  `json:"purpose,omitempty"`
	Status                string  `json:"status"`
	DisbursementAccountID *string `json:"disbursementAccountId,omitempty"`
	ApprovedBy            *string `json:"approvedBy,omitempty"`
	ApprovedAt            *string `json:"approvedAt,omitempty"`
	RejectedBy            *string `json:"rejectedBy,omitempty"`
	RejectionReason       *string `json:"rejectionReason,omitempty"`
	DisbursedAt           *string `json:"disbursedAt,omitempty"`
	ClosedAt              *string `json:"closedAt,omitempty"`
	CreatedAt             string  `json:"createdAt"`
	UpdatedAt             string  `json:"updatedAt"`
}

func NewLoanResponse(loan domain.Loan) LoanResponse {
	resp := LoanResponse{
		ID:                    loan.ID,
		OwnerID:               loan.OwnerID,
		LoanType:              string(loan.Type),
		Principal:             loan.Principal.StringFixed(2),
		InterestRate:          loan.InterestRate.StringFixed(2),
		TenureMonths:          loan.TenureMonths,
		EMIAmount:             loan.EMIAmount.StringFixed(2),
		TotalInterest:         loan.TotalInterest.StringFixed(2),
		TotalPayable:          loan.TotalPayable.StringFixed(2),
		OutstandingAmount:     loan.OutstandingAmount.StringFixed(2),
		PaidAmount:            loan.PaidAmount.StringFixed(2),
		EMIsPaid:              loan.EMIsPaid,
		Purpose:               loan.Purpose,
		Status:                string(loan.Status),
		DisbursementAccountID: loan.DisbursementAccountID,
		ApprovedBy:            loan.ApprovedBy,
		ApprovedAt:            formatTimePtr(loan.ApprovedAt),
		RejectedBy:            loan.RejectedBy,
		RejectionReason:       loan.RejectionReason,
		DisbursedAt:           formatTimePtr(loan.DisbursedAt),
		ClosedAt:              formatTimePtr(loan.ClosedAt),
		CreatedAt:             formatTime(loan.CreatedAt),
		UpdatedAt:             formatTime(loan.UpdatedAt),
	}
	if loan.Status == domain.LoanStatusActive {
		resp.NextEMINumber = loan.NextEMINumber()
	}
	return resp
}

func NewLoanListResponse(loans []domain.Loan) []LoanResponse {
	list := make([]LoanResponse, 0, len(loans))
	for _, loan := range loans {
		list = append(list, NewLoanResponse(loan))
	}
	return list
}

type ApprovalResponse struct {
	Loan         LoanResponse     `json:"loan"`
	Disbursement *PostingResponse `json:"disbursement,omitempty"`
}

func NewApprovalResponse(result services.ApprovalResult) ApprovalResponse {
	resp := ApprovalResponse{Loan: NewLoanResponse(result.Loan)}
	if result.Disbursement != nil {
		disbursement := NewPostingResponse(*result.Disbursement)
		resp.Disbursement = &disbursement
	}
	return resp
}

type PayEMIResponse struct {
	LoanID            string              `json:"loanId"`
	EMINumber         int                 `json:"emiNumber"`
	AmountPaid        string              `json:"amountPaid"`
	Reference         string              `json:"reference"`
	PaidAt            string              `json:"paidAt"`
	OutstandingAmount string              `json:"outstandingAmount"`
	EMIsPaid          int                 `json:"emisPaid"`
	LoanStatus        string              `json:"loanStatus"`
	AccountBalance    string              `json:"accountBalance"`
	Transaction       TransactionResponse `json:"transaction"`
}

func NewPayEMIResponse(result services.PayEMIResult) PayEMIResponse {
	return PayEMIResponse{
		LoanID:            result.Loan.ID,
		EMINumber:         result.Payment.EMINumber,
		AmountPaid:        result.Payment.AmountPaid.StringFixed(2),
		Reference:         result.Payment.Reference,
		PaidAt:            formatTime(result.Payment.PaidAt),
		OutstandingAmount: result.Loan.OutstandingAmount.StringFixed(2),
		EMIsPaid:          result.Loan.EMIsPaid,
		LoanStatus:        string(result.Loan.Status),
		AccountBalance:    result.Account.Balance.StringFixed(2),
		Transaction:       NewTransactionResponse(result.Transaction),
	}
}

type LoanScheduleResponse struct {
	Loan     LoanResponse            `json:"loan"`
	Schedule []ScheduleEntryResponse `json:"schedule"`
}

func NewLoanScheduleResponse(schedule services.LoanSchedule) LoanScheduleResponse {
	lines := make([]ScheduleEntryResponse, 0, len(schedule.Lines))
	for _, line := range schedule.Lines {
		entry := newScheduleEntryResponse(line.ScheduleEntry)
		entry.Status = string(line.Status)
		entry.AmountPaid = formatAmountPtr(line.AmountPaid)
		entry.Reference = line.Reference
		entry.PaidAt = formatTimePtr(line.PaidAt)
		lines = append(lines, entry)
	}

	return LoanScheduleResponse{
		Loan:     NewLoanResponse(schedule.Loan),
		Schedule: lines,
	}
}

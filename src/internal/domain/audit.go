package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type AuditAction string

const (
	AuditActionOwnerRegistered   AuditAction = "owner_registered"
	AuditActionAccountCreated    AuditAction = "account_created"
	AuditActionDeposit           AuditAction = "deposit"
	AuditActionWithdrawal        AuditAction = "withdrawal"
	AuditActionTransferCompleted AuditAction = "transfer_completed"
	AuditActionTransferFailed    AuditAction = "transfer_failed"
	AuditActionLoanApplication   AuditAction = "loan_application"
	AuditActionLoanApproved      AuditAction = "loan_approved"
	AuditActionLoanRejected      AuditAction = "loan_rejected"
	AuditActionLoanDisbursed     AuditAction = "loan_disbursed"
	AuditActionLoanPayment       AuditAction = "loan_payment"
	AuditActionKYCSubmitted      AuditAction = "kyc_submitted"
	AuditActionKYCVerified       AuditAction = "kyc_verified"
	AuditActionKYCRejected       AuditAction = "kyc_rejected"
)

type AuditLevel string

const (
	AuditLevelInfo     AuditLevel = "info"
	AuditLevelWarning  AuditLevel = "warning"
	AuditLevelError    AuditLevel = "error"
	AuditLevelCritical AuditLevel = "critical"
)

// AuditLevelFor maps an operation outcome to its audit level.
func AuditLevelFor(err error) AuditLevel {
	switch KindOf(err) {
	case "":
		return AuditLevelInfo
	case KindValidation, KindDomainRule, KindAuthorization, KindNotFound:
		return AuditLevelWarning
	default:
		return AuditLevelError
	}
}

type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "success"
	AuditOutcomeFailure AuditOutcome = "failure"
)

// BalanceChange is the before and after balance of one account touched by an operation.
type BalanceChange struct {
	AccountID string          `json:"accountId"`
	Before    decimal.Decimal `json:"before"`
	After     decimal.Decimal `json:"after"`
}

type AuditEvent struct {
	Action       AuditAction      `json:"action"`
	Level        AuditLevel       `json:"level"`
	Outcome      AuditOutcome     `json:"outcome"`
	ActorID      string           `json:"actorId,omitempty"`
	ActorRole    Role             `json:"actorRole,omitempty"`
	ResourceType string           `json:"resourceType"`
	ResourceID   string           `json:"resourceId,omitempty"`
	Reference    string           `json:"reference,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Balances     []BalanceChange  `json:"balances,omitempty"`
	ErrorKind    ErrorKind        `json:"errorKind,omitempty"`
	Error        string           `json:"error,omitempty"`
	Details      map[string]any   `json:"details,omitempty"`
	OccurredAt   time.Time        `json:"occurredAt"`
}

// AuditSink is the append-only audit collaborator.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent) error
}

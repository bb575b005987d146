package domain

import (
	"errors"
	"fmt"
)

var ErrRecordNotFound = errors.New("Record not found")
var ErrDuplicateReference = errors.New("duplicate transaction reference")
var ErrDuplicateAccountNumber = errors.New("duplicate account number")
var ErrDuplicateKYCDocument = errors.New("duplicate kyc document")
var ErrDuplicateEMIPayment = errors.New("duplicate emi payment")

// Kind sentinels. Every tagged error matches exactly one of them with errors.Is.
var (
	ErrValidation          = errors.New("validation failed")
	ErrDomainRule          = errors.New("domain rule violation")
	ErrAuthorization       = errors.New("forbidden")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindDomainRule    ErrorKind = "domain_rule"
	KindAuthorization ErrorKind = "authorization"
	KindConcurrency   ErrorKind = "concurrency_conflict"
	KindNotFound      ErrorKind = "not_found"
	KindInternal      ErrorKind = "internal"
)

func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrDomainRule):
		return KindDomainRule
	case errors.Is(err, ErrAuthorization):
		return KindAuthorization
	case errors.Is(err, ErrConcurrencyConflict):
		return KindConcurrency
	case errors.Is(err, ErrRecordNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + " " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type Rule string

const (
	RuleInsufficientFunds       Rule = "insufficient_funds"
	RuleDailyLimitExceeded      Rule = "daily_limit_exceeded"
	RuleAccountInactive         Rule = "account_inactive"
	RuleSelfTransfer            Rule = "self_transfer"
	RuleEMIAlreadyPaid          Rule = "emi_already_paid"
	RuleEMIAmountMismatch       Rule = "emi_amount_mismatch"
	RuleInvalidLoanStatus       Rule = "invalid_loan_status"
	RuleDuplicateKYCDocument    Rule = "duplicate_kyc_document"
	RuleKYCNotVerified          Rule = "kyc_not_verified"
	RuleBelowMinimumDeposit     Rule = "below_minimum_deposit"
	RuleDocumentAlreadyReviewed Rule = "document_already_reviewed"
)

// DomainRuleViolation is a rejected operation. Details holds the structured
// context of the rule (limits, expected and actual amounts).
type DomainRuleViolation struct {
	Rule    Rule
	Message string
	Details map[string]any
}

func (e *DomainRuleViolation) Error() string {
	return e.Message
}

func (e *DomainRuleViolation) Is(target error) bool {
	return target == ErrDomainRule
}

// IsRule reports whether err is a DomainRuleViolation for rule.
func IsRule(err error, rule Rule) bool {
	var violation *DomainRuleViolation
	return errors.As(err, &violation) && violation.Rule == rule
}

func InsufficientFunds(accountID string, available, requested fmt.Stringer) *DomainRuleViolation {
	return &DomainRuleViolation{
		Rule:    RuleInsufficientFunds,
		Message: fmt.Sprintf("insufficient funds: available %s, requested %s", available, requested),
		Details: map[string]any{"accountId": accountID, "available": available.String(), "requested": requested.String()},
	}
}

func DailyLimitExceeded(accountID string, limit, used, requested, remaining fmt.Stringer) *DomainRuleViolation {
	return &DomainRuleViolation{
		Rule:    RuleDailyLimitExceeded,
		Message: fmt.Sprintf("daily transfer limit exceeded: remaining %s, requested %s", remaining, requested),
		Details: map[string]any{
			"accountId": accountID,
			"limit":     limit.String(),
			"used":      used.String(),
			"remaining": remaining.String(),
			"requested": requested.String(),
		},
	}
}

func AccountInactive(accountID string, status AccountStatus) *DomainRuleViolation {
	return &DomainRuleViolation{
		Rule:    RuleAccountInactive,
		Message: fmt.Sprintf("account %s is %s", accountID, status),
		Details: map[string]any{"accountId": accountID, "status": string(status)},
	}
}

func SelfTransfer(accountID string) *DomainRuleViolation {
	return &DomainRuleViolation{
		Rule:    RuleSelfTransfer,
		Message: "cannot transfer to the same account",
		Details: map[string]any{"accountId": accountID},
	}
}

func EMIAlreadyPaid(loanID string, emiNumber int) *DomainRuleViolation {
	return &DomainRuleViolation{
		Rule:    RuleEMIAlreadyPaid,
		Message: fmt.Sprintf("emi %d already paid", emiNumber),
		Details: map[string]any{"loanId": loanID, "emiNumber": emiNumber},
	}
}

func EMIAmountMismatch(loanID string, emiNumber int, expected, actual, tolerance fmt.Stringer) *DomainRuleViolation {
	return &DomainRuleViolation{
		Rule:    RuleEMIAmountMismatch,
		Message: fmt.Sprintf("emi %d amount %s does not match expected %s", emiNumber, actual, expected),
		Details: map[string]any{
			"loanId":    loanID,
			"emiNumber": emiNumber,
			"expected":  expected.String(),
			"actual":    actual.String(),
			"tolerance": tolerance.String(),
		},
	}
}

func InvalidLoanStatus(loanID string, status LoanStatus, action string) *DomainRuleViolation {
	return &DomainRuleViolation{
		Rule:    RuleInvalidLoanStatus,
		Message: fmt.Sprintf("cannot %s loan in status %s", action, status),
		Details: map[string]any{"loanId": loanID, "status": string(status), "action": action},
	}
}

func DuplicateKYCDocument(ownerID string, docType DocumentType) *DomainRuleViolation {
	return &DomainRuleViolation{
		Rule:    RuleDuplicateKYCDocument,
		Message: fmt.Sprintf("%s document already submitted", docType),
		Details: map[string]any{"ownerId": ownerID, "documentType": string(docType)},
	}
}

func KYCNotVerified(ownerID string, status KYCStatus) *DomainRuleViolation {
	return &DomainRuleViolation{
		Rule:    RuleKYCNotVerified,
		Message: "KYC verification required",
		Details: map[string]any{"ownerId": ownerID, "kycStatus": string(status)},
	}
}

func BelowMinimumDeposit(accountType AccountType, minimum, actual fmt.Stringer) *DomainRuleViolation {
	return &DomainRuleViolation{
		Rule:    RuleBelowMinimumDeposit,
		Message: fmt.Sprintf("minimum initial deposit for %s account is %s", accountType, minimum),
		Details: map[string]any{"accountType": string(accountType), "minimum": minimum.String(), "actual": actual.String()},
	}
}

func DocumentAlreadyReviewed(documentID string) *DomainRuleViolation {
	return &DomainRuleViolation{
		Rule:    RuleDocumentAlreadyReviewed,
		Message: "document already reviewed",
		Details: map[string]any{"documentId": documentID},
	}
}

type AuthorizationError struct {
	Message string
}

func NewAuthorizationError(message string) *AuthorizationError {
	return &AuthorizationError{Message: message}
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

func (e *AuthorizationError) Is(target error) bool {
	return target == ErrAuthorization
}

// ConcurrencyConflictError is returned once the store has exhausted its retries.
type ConcurrencyConflictError struct {
	Attempts int
	Err      error
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrency conflict after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConcurrencyConflictError) Unwrap() error {
	return e.Err
}

func (e *ConcurrencyConflictError) Is(target error) bool {
	return target == ErrConcurrencyConflict
}

package models

import (
	"net/url"
	"strings"

	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
)

const maxDescriptionLength = 255

type TransferRequest struct {
	FromAccountID string `json:"fromAccountId"`
	ToAccountID   string `json:"toAccountId"`
	Amount        string `json:"amount"`
	Description   string `json:"description,omitempty"`
}

func (r TransferRequest) ToService() (services.TransferRequest, error) {
	var errs []error
	errs = required(errs, "fromAccountId", r.FromAccountID)
	errs = required(errs, "toAccountId", r.ToAccountID)
	amount, errs := parseAmount(errs, "amount", r.Amount)
	if len(r.Description) > maxDescriptionLength {
		errs = append(errs, domain.NewValidationError("description", "must be at most 255 characters"))
	}
	if err := joinErrors(errs); err != nil {
		return services.TransferRequest{}, err
	}

	return services.TransferRequest{
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Amount:        amount,
		Description:   r.Description,
	}, nil
}

// PostingRequest is the body of deposit and withdrawal calls.
type PostingRequest struct {
	AccountID   string `json:"accountId"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

func (r PostingRequest) ToService() (services.PostingRequest, error) {
	var errs []error
	errs = required(errs, "accountId", r.AccountID)
	amount, errs := parseAmount(errs, "amount", r.Amount)
	if len(r.Description) > maxDescriptionLength {
		errs = append(errs, domain.NewValidationError("description", "must be at most 255 characters"))
	}
	if err := joinErrors(errs); err != nil {
		return services.PostingRequest{}, err
	}

	return services.PostingRequest{
		AccountID:   r.AccountID,
		Amount:      amount,
		Description: r.Description,
	}, nil
}

type TransactionResponse struct {
	ID                string  `json:"id"`
	Reference         string  `json:"reference"`
	Type              string  `json:"type"`
	FromAccountID     *string `json:"fromAccountId,omitempty"`
	ToAccountID       *string `json:"toAccountId,omitempty"`
	Amount            string  `json:"amount"`
	FromBalanceBefore *string `json:"fromBalanceBefore,omitempty"`
	FromBalanceAfter  *string `json:"fromBalanceAfter,omitempty"`
	ToBalanceBefore   *string `json:"toBalanceBefore,omitempty"`
	ToBalanceAfter    *string `json:"toBalanceAfter,omitempty"`
	LoanID            *string `json:"loanId,omitempty"`
	Description       string  `json:"description,omitempty"`
	Status            string  `json:"status"`
	CreatedAt         string  `json:"createdAt"`
}

func NewTransactionResponse(txn domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                txn.ID,
		Reference:         txn.Reference,
		Type:              string(txn.Type),
		FromAccountID:     txn.FromAccountID,
		ToAccountID:       txn.ToAccountID,
		Amount:            txn.Amount.StringFixed(2),
		FromBalanceBefore: formatAmountPtr(txn.FromBalanceBefore),
		FromBalanceAfter:  formatAmountPtr(txn.FromBalanceAfter),
		ToBalanceBefore:   formatAmountPtr(txn.ToBalanceBefore),
		ToBalanceAfter:    formatAmountPtr(txn.ToBalanceAfter),
		LoanID:            txn.LoanID,
		Description:       txn.Description,
		Status:            string(txn.Status),
		CreatedAt:         formatTime(txn.CreatedAt),
	}
}

type TransferResponse struct {
	Transaction         TransactionResponse `json:"transaction"`
	FromBalance         string              `json:"fromBalance"`
	ToBalance           string              `json:"toBalance"`
	DailyLimitRemaining string              `json:"dailyLimitRemaining"`
}

func NewTransferResponse(result services.TransferResult) TransferResponse {
	remaining := result.From.DailyLimit.Sub(result.Aggregate.TotalTransferred)
	if remaining.Sign() < 0 {
		remaining = decimal.Zero
	}

	return TransferResponse{
		Transaction:         NewTransactionResponse(result.Transaction),
		FromBalance:         result.From.Balance.StringFixed(2),
		ToBalance:           result.To.Balance.StringFixed(2),
		DailyLimitRemaining: remaining.StringFixed(2),
	}
}

type PostingResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Balance     string              `json:"balance"`
}

func NewPostingResponse(result services.PostingResult) PostingResponse {
	return PostingResponse{
		Transaction: NewTransactionResponse(result.Transaction),
		Balance:     result.Account.Balance.StringFixed(2),
	}
}

// ParseHistoryQuery reads the transaction history filters from the query string.
// Dates follow ParseStatementRange, so a plain "to" date covers that whole day.
func ParseHistoryQuery(query url.Values) (services.HistoryFilter, error) {
	var errs []error
	filter := services.HistoryFilter{
		OwnerID:   strings.TrimSpace(query.Get("ownerId")),
		AccountID: strings.TrimSpace(query.Get("accountId")),
		Type:      strings.TrimSpace(query.Get("type")),
	}

	if raw := query.Get("from"); strings.TrimSpace(raw) != "" {
		filter.From, errs = parseInstant(errs, "from", raw, false)
	}
	if raw := query.Get("to"); strings.TrimSpace(raw) != "" {
		filter.To, errs = parseInstant(errs, "to", raw, true)
	}
	if raw := query.Get("minAmount"); strings.TrimSpace(raw) != "" {
		var amount decimal.Decimal
		amount, errs = parseAmount(errs, "minAmount", raw)
		filter.MinAmount = &amount
	}
	if raw := query.Get("maxAmount"); strings.TrimSpace(raw) != "" {
		var amount decimal.Decimal
		amount, errs = parseAmount(errs, "maxAmount", raw)
		filter.MaxAmount = &amount
	}

	if err := joinErrors(errs); err != nil {
		return services.HistoryFilter{}, err
	}
	return filter, nil
}

func NewTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, NewTransactionResponse(txn))
	}
	return out
}

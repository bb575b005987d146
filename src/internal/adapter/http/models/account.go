package models

import (
	"strings"
	"time"

	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
)

type CreateAccountRequest struct {
	AccountType    string `json:"accountType"`
	InitialDeposit string `json:"initialDeposit,omitempty"`
	InterestRate   string `json:"interestRate,omitempty"`
	MaturityDate   string `json:"maturityDate,omitempty"`
}

// ToService validates the request body. An empty initial deposit opens the account at zero.
func (r CreateAccountRequest) ToService() (services.CreateAccountRequest, error) {
	var errs []error
	errs = required(errs, "accountType", r.AccountType)

	deposit := decimal.Zero
	if r.InitialDeposit != "" {
		parsed, err := decimal.NewFromString(r.InitialDeposit)
		if err != nil {
			errs = append(errs, domain.NewValidationError("initialDeposit", "must be a decimal number"))
		} else {
			deposit = parsed
		}
	}

	rate, errs := parseRate(errs, "interestRate", r.InterestRate)
	maturity, errs := parseDate(errs, "maturityDate", r.MaturityDate)

	if err := joinErrors(errs); err != nil {
		return services.CreateAccountRequest{}, err
	}

	return services.CreateAccountRequest{
		AccountType:    r.AccountType,
		InitialDeposit: deposit,
		InterestRate:   rate,
		MaturityDate:   maturity,
	}, nil
}

type AccountResponse struct {
	ID                  string  `json:"id"`
	OwnerID             string  `json:"ownerId"`
	AccountNumber       string  `json:"accountNumber"`
	AccountType         string  `json:"accountType"`
	Currency            string  `json:"currency"`
	Balance             string  `json:"balance"`
	BalanceDisplay      string  `json:"balanceDisplay"`
	AvailableBalance    string  `json:"availableBalance"`
	MinBalance          string  `json:"minBalance"`
	DailyLimit          string  `json:"dailyLimit"`
	DailyLimitRemaining *string `json:"dailyLimitRemaining,omitempty"`
	InterestRate        *string `json:"interestRate,omitempty"`
	MaturityDate        *string `json:"maturityDate,omitempty"`
	Status              string  `json:"status"`
	CreatedAt           string  `json:"createdAt"`
	UpdatedAt           string  `json:"updatedAt"`
}

func NewAccountResponse(account domain.Account) AccountResponse {
	resp := AccountResponse{
		ID:               account.ID,
		OwnerID:          account.OwnerID,
		AccountNumber:    account.AccountNumber,
		AccountType:      string(account.Type),
		Currency:         domain.Currency,
		Balance:          account.Balance.StringFixed(2),
		BalanceDisplay:   domain.FormatAmount(account.Balance),
		AvailableBalance: account.AvailableBalance().StringFixed(2),
		MinBalance:       account.MinBalance.StringFixed(2),
		DailyLimit:       account.DailyLimit.StringFixed(2),
		InterestRate:     formatAmountPtr(account.InterestRate),
		Status:           string(account.Status),
		CreatedAt:        formatTime(account.CreatedAt),
		UpdatedAt:        formatTime(account.UpdatedAt),
	}
	if account.MaturityDate != nil {
		date := account.MaturityDate.Format(dateLayout)
		resp.MaturityDate = &date
	}
	return resp
}

func NewAccountDetailsResponse(details services.AccountDetails) AccountResponse {
	resp := NewAccountResponse(details.Account)
	remaining := details.DailyLimitRemaining.StringFixed(2)
	resp.DailyLimitRemaining = &remaining
	return resp
}

func NewAccountListResponse(accounts []domain.Account) []AccountResponse {
	list := make([]AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		list = append(list, NewAccountResponse(account))
	}
	return list
}

type StatementResponse struct {
	Account        AccountResponse       `json:"account"`
	From           string                `json:"from"`
	To             string                `json:"to"`
	OpeningBalance string                `json:"openingBalance"`
	ClosingBalance string                `json:"closingBalance"`
	Transactions   []TransactionResponse `json:"transactions"`
}

func NewStatementResponse(statement services.Statement) StatementResponse {
	rows := make([]TransactionResponse, 0, len(statement.Transactions))
	for _, txn := range statement.Transactions {
		rows = append(rows, NewTransactionResponse(txn))
	}

	return StatementResponse{
		Account:        NewAccountResponse(statement.Account),
		From:           formatTime(statement.From),
		To:             formatTime(statement.To),
		OpeningBalance: statement.OpeningBalance.StringFixed(2),
		ClosingBalance: statement.ClosingBalance.StringFixed(2),
		Transactions:   rows,
	}
}

// ParseStatementRange accepts RFC 3339 timestamps or plain dates. A plain "to" date
// covers that whole day.
func ParseStatementRange(rawFrom, rawTo string) (time.Time, time.Time, error) {
	var errs []error
	from, errs := parseInstant(errs, "from", rawFrom, false)
	to, errs := parseInstant(errs, "to", rawTo, true)
	if err := joinErrors(errs); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func parseInstant(errs []error, field, raw string, endOfDay bool) (time.Time, []error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, append(errs, domain.NewValidationError(field, "is required"))
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), errs
	}
	date, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, append(errs, domain.NewValidationError(field, "must be an RFC 3339 timestamp or YYYY-MM-DD date"))
	}
	if endOfDay {
		date = date.AddDate(0, 0, 1)
	}
	return date, errs
}

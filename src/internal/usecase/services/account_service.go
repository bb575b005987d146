package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/logger"
	"github.com/shopspring/decimal"
)

const maxAccountNumberAttempts = 5

// AccountRegistry opens accounts for verified owners and serves account reads.
type AccountRegistry struct {
	store   domain.Store
	catalog domain.Catalog
	ledger  *LedgerService
	limits  *DailyLimitTracker
	audit   auditor
	now     func() time.Time
}

func NewAccountRegistry(store domain.Store, catalog domain.Catalog, ledger *LedgerService, limits *DailyLimitTracker, sink domain.AuditSink) *AccountRegistry {
	r := &AccountRegistry{
		store:   store,
		catalog: catalog,
		ledger:  ledger,
		limits:  limits,
		now:     func() time.Time { return time.Now().UTC() },
	}
	r.audit = newAuditor(sink, func() time.Time { return r.now() })
	return r
}

type CreateAccountRequest struct {
	AccountType    string
	InitialDeposit decimal.Decimal
	InterestRate   *decimal.Decimal
	MaturityDate   *time.Time
}

type AccountDetails struct {
	Account             domain.Account
	DailyLimitRemaining decimal.Decimal
}

type Statement struct {
	Account        domain.Account
	From           time.Time
	To             time.Time
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	Transactions   []domain.Transaction
}

// ParseAccountType accepts the catalog names plus the short "fd" alias.
func ParseAccountType(raw string) domain.AccountType {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "fd" {
		return domain.AccountTypeFixedDeposit
	}
	return domain.AccountType(value)
}

// CreateAccount opens an account for the calling owner. A non-zero initial deposit is
// posted as a deposit transaction so the statement explains the opening balance.
func (r *AccountRegistry) CreateAccount(ctx context.Context, actor domain.Actor, req CreateAccountRequest) (domain.Account, error) {
	accountType := ParseAccountType(req.AccountType)
	fields := logger.Fields{
		"ownerId":        actor.OwnerID,
		"accountType":    accountType,
		"initialDeposit": req.InitialDeposit.StringFixed(2),
	}
	logger.Info("account registry create account request", fields)

	account, err := r.createAccount(ctx, actor, accountType, req)

	event := domain.AuditEvent{
		Action:       domain.AuditActionAccountCreated,
		ActorID:      actor.OwnerID,
		ActorRole:    actor.Role,
		ResourceType: "account",
		ResourceID:   account.ID,
		Amount:       amountPtr(req.InitialDeposit),
		Details:      map[string]any{"accountType": string(accountType)},
	}
	if err == nil {
		event.Details["accountNumber"] = account.AccountNumber
		event.Balances = []domain.BalanceChange{balanceChange(account.ID, decimal.Zero, account.Balance)}
		fields["accountId"] = account.ID
		fields["accountNumber"] = account.AccountNumber
	}
	r.audit.record(ctx, event, err)
	logOutcome("account registry create account", err, fields)

	return account, err
}

func (r *AccountRegistry) createAccount(ctx context.Context, actor domain.Actor, accountType domain.AccountType, req CreateAccountRequest) (domain.Account, error) {
	if strings.TrimSpace(actor.OwnerID) == "" {
		return domain.Account{}, domain.NewAuthorizationError("caller identity is required")
	}

	cfg, ok := r.catalog.AccountType(accountType)
	if !ok {
		return domain.Account{}, domain.NewValidationError("accountType", "must be one of savings, current, fixed_deposit")
	}

	deposit := req.InitialDeposit
	if deposit.Sign() < 0 {
		return domain.Account{}, domain.NewValidationError("initialDeposit", "cannot be negative")
	}
	if deposit.Sign() > 0 {
		if err := domain.ValidateAmount("initialDeposit", deposit); err != nil {
			return domain.Account{}, err
		}
	}
	if deposit.LessThan(cfg.MinInitialDeposit) {
		return domain.Account{}, domain.BelowMinimumDeposit(accountType, cfg.MinInitialDeposit, deposit)
	}

	if req.InterestRate != nil {
		if req.InterestRate.Sign() < 0 || req.InterestRate.GreaterThan(maxAnnualRate) {
			return domain.Account{}, domain.NewValidationError("interestRate", "must be between 0 and 100")
		}
		if !domain.HasCurrencyScale(*req.InterestRate) {
			return domain.Account{}, domain.NewValidationError("interestRate", "must have at most 2 fractional digits")
		}
	}
	var maturity *time.Time
	if req.MaturityDate != nil {
		date := domain.BusinessDate(*req.MaturityDate)
		if !date.After(domain.BusinessDate(r.now())) {
			return domain.Account{}, domain.NewValidationError("maturityDate", "must be in the future")
		}
		maturity = &date
	}

	var created domain.Account
	err := r.store.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		if _, err := RequireVerified(ctx, tx, actor.OwnerID); err != nil {
			return err
		}

		account, err := r.insertAccount(ctx, tx, domain.Account{
			OwnerID:      actor.OwnerID,
			Type:         accountType,
			Balance:      decimal.Zero,
			MinBalance:   cfg.MinBalance,
			DailyLimit:   cfg.DailyLimit,
			InterestRate: req.InterestRate,
			MaturityDate: maturity,
			Status:       domain.AccountStatusActive,
		})
		if err != nil {
			return err
		}

		if deposit.Sign() > 0 {
			posted, err := r.ledger.apply(ctx, tx, posting{
				kind:        domain.TransactionTypeDeposit,
				accountID:   account.ID,
				amount:      deposit,
				description: "Opening deposit",
			})
			if err != nil {
				return err
			}
			account = posted.Account
		}

		created = account
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}

	return created, nil
}

func (r *AccountRegistry) insertAccount(ctx context.Context, tx domain.Tx, account domain.Account) (domain.Account, error) {
	for attempt := 0; attempt < maxAccountNumberAttempts; attempt++ {
		account.AccountNumber = generateAccountNumber(r.now())

		created, err := tx.CreateAccount(ctx, account)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, domain.ErrDuplicateAccountNumber) {
			return domain.Account{}, fmt.Errorf("create account: %w", err)
		}
	}
	return domain.Account{}, fmt.Errorf("create account: %w", domain.ErrDuplicateAccountNumber)
}

func (r *AccountRegistry) GetAccount(ctx context.Context, actor domain.Actor, id string) (AccountDetails, error) {
	logger.Info("account registry get account request", logger.Fields{
		"accountId": id,
	})

	account, err := r.readableAccount(ctx, actor, id)
	if err != nil {
		return AccountDetails{}, err
	}

	remaining, err := r.limits.Remaining(ctx, r.store, account, r.now())
	if err != nil {
		logger.Error("account registry daily limit lookup failed", err, logger.Fields{
			"accountId": account.ID,
		})
		return AccountDetails{}, err
	}

	return AccountDetails{Account: account, DailyLimitRemaining: remaining}, nil
}

func (r *AccountRegistry) ListAccounts(ctx context.Context, actor domain.Actor, ownerID string) ([]domain.Account, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		ownerID = actor.OwnerID
	}
	if !actor.CanRead(ownerID) {
		return nil, domain.NewAuthorizationError("caller cannot read these accounts")
	}

	accounts, err := r.store.ListAccountsByOwner(ctx, ownerID)
	if err != nil {
		logger.Error("account registry list accounts failed", err, logger.Fields{
			"ownerId": ownerID,
		})
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	return accounts, nil
}

// GetStatement returns every transaction touching the account in [from, to), newest
// first, with the balances the account held at both ends of the range.
func (r *AccountRegistry) GetStatement(ctx context.Context, actor domain.Actor, accountID string, from, to time.Time) (Statement, error) {
	fields := logger.Fields{
		"accountId": accountID,
		"from":      from.Format(time.RFC3339),
		"to":        to.Format(time.RFC3339),
	}
	logger.Info("account registry statement request", fields)

	if from.IsZero() || to.IsZero() {
		return Statement{}, domain.NewValidationError("from", "and to are required")
	}
	if !to.After(from) {
		return Statement{}, domain.NewValidationError("to", "must be after from")
	}

	account, err := r.readableAccount(ctx, actor, accountID)
	if err != nil {
		return Statement{}, err
	}

	rows, err := r.store.ListTransactions(ctx, account.ID, from, to)
	if err != nil {
		logger.Error("account registry statement lookup failed", err, fields)
		return Statement{}, fmt.Errorf("list transactions: %w", err)
	}

	closing := account.Balance
	if later, err := r.store.ListTransactions(ctx, account.ID, to, r.now().Add(time.Second)); err != nil {
		logger.Error("account registry statement lookup failed", err, fields)
		return Statement{}, fmt.Errorf("list transactions: %w", err)
	} else if len(later) > 0 {
		closing = balanceBefore(later[len(later)-1], account.ID)
	}

	opening := closing
	if len(rows) > 0 {
		opening = balanceBefore(rows[len(rows)-1], account.ID)
	}

	logger.Info("account registry statement success", logger.Fields{
		"accountId":    account.ID,
		"transactions": len(rows),
	})

	return Statement{
		Account:        account,
		From:           from,
		To:             to,
		OpeningBalance: opening,
		ClosingBalance: closing,
		Transactions:   rows,
	}, nil
}

func (r *AccountRegistry) readableAccount(ctx context.Context, actor domain.Actor, id string) (domain.Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Account{}, domain.NewValidationError("accountId", "is required")
	}

	account, err := r.store.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Account{}, fmt.Errorf("account not found: %w", err)
		}
		logger.Error("account registry get account failed", err, logger.Fields{"accountId": id})
		return domain.Account{}, fmt.Errorf("get account: %w", err)
	}
	if !actor.CanRead(account.OwnerID) {
		return domain.Account{}, domain.NewAuthorizationError("caller cannot read this account")
	}

	return account, nil
}

// balanceBefore is the account's balance just before txn was applied.
func balanceBefore(txn domain.Transaction, accountID string) decimal.Decimal {
	if txn.FromAccountID != nil && *txn.FromAccountID == accountID && txn.FromBalanceBefore != nil {
		return *txn.FromBalanceBefore
	}
	if txn.ToBalanceBefore != nil {
		return *txn.ToBalanceBefore
	}
	return decimal.Zero
}

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

// LedgerService is the only writer of account balances. Every operation is one
// unit of work: balance changes, the daily aggregate and the transaction record
// commit together.
type LedgerService struct {
	store  domain.Store
	limits *DailyLimitTracker
	audit  auditor
	now    func() time.Time
}

func NewLedgerService(store domain.Store, limits *DailyLimitTracker, sink domain.AuditSink) *LedgerService {
	s := &LedgerService{
		store:  store,
		limits: limits,
		now:    func() time.Time { return time.Now().UTC() },
	}
	s.audit = newAuditor(sink, func() time.Time { return s.now() })
	return s
}

// WithClock replaces the service clock. The clock decides the business date of the daily aggregate.
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	s.now = now
	return s
}

type TransferRequest struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Description   string
}

type TransferResult struct {
	Transaction domain.Transaction
	From        domain.Account
	To          domain.Account
	Aggregate   domain.DailyTransferAggregate
}

type PostingRequest struct {
	AccountID   string
	Amount      decimal.Decimal
	Description string
}

type PostingResult struct {
	Transaction domain.Transaction
	Account     domain.Account
}

type posting struct {
	kind        domain.TransactionType
	accountID   string
	amount      decimal.Decimal
	description string
	loanID      *string
	owner       *domain.Actor
}

func (s *LedgerService) Transfer(ctx context.Context, actor domain.Actor, req TransferRequest) (TransferResult, error) {
	fields := logger.Fields{
		"fromAccountId": req.FromAccountID,
		"toAccountId":   req.ToAccountID,
		"amount":        req.Amount.StringFixed(2),
		"actorId":       actor.OwnerID,
	}
	logger.Info("ledger service transfer request", fields)

	result, err := s.transfer(ctx, actor, req)

	event := domain.AuditEvent{
		Action:       domain.AuditActionTransferCompleted,
		ActorID:      actor.OwnerID,
		ActorRole:    actor.Role,
		ResourceType: "account",
		ResourceID:   req.FromAccountID,
		Amount:       amountPtr(req.Amount),
		Details:      map[string]any{"toAccountId": req.ToAccountID},
	}
	if err != nil {
		event.Action = domain.AuditActionTransferFailed
	} else {
		event.ResourceType = "transaction"
		event.ResourceID = result.Transaction.ID
		event.Reference = result.Transaction.Reference
		event.Balances = []domain.BalanceChange{
			balanceChange(result.From.ID, *result.Transaction.FromBalanceBefore, *result.Transaction.FromBalanceAfter),
			balanceChange(result.To.ID, *result.Transaction.ToBalanceBefore, *result.Transaction.ToBalanceAfter),
		}
		fields["reference"] = result.Transaction.Reference
	}
	s.audit.record(ctx, event, err)
	logOutcome("ledger service transfer", err, fields)

	return result, err
}

func (s *LedgerService) transfer(ctx context.Context, actor domain.Actor, req TransferRequest) (TransferResult, error) {
	fromID := strings.TrimSpace(req.FromAccountID)
	toID := strings.TrimSpace(req.ToAccountID)
	if fromID == "" {
		return TransferResult{}, domain.NewValidationError("fromAccountId", "is required")
	}
	if toID == "" {
		return TransferResult{}, domain.NewValidationError("toAccountId", "is required")
	}
	if err := domain.ValidateAmount("amount", req.Amount); err != nil {
		return TransferResult{}, err
	}
	if fromID == toID {
		return TransferResult{}, domain.SelfTransfer(fromID)
	}

	var result TransferResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		accounts, err := tx.LockAccounts(ctx, fromID, toID)
		if err != nil {
			return accountLookupError(err)
		}
		from, to := accounts[0], accounts[1]

		if !actor.Owns(from.OwnerID) {
			return domain.NewAuthorizationError("caller does not own the source account")
		}
		if !from.IsActive() {
			return domain.AccountInactive(from.ID, from.Status)
		}
		if !to.IsActive() {
			return domain.AccountInactive(to.ID, to.Status)
		}
		if !from.CanDebit(req.Amount) {
			return domain.InsufficientFunds(from.ID, from.AvailableBalance(), req.Amount)
		}
		if err := checkBalanceCeiling(to, req.Amount); err != nil {
			return err
		}

		aggregate, err := s.limits.RecordOutgoing(ctx, tx, from, req.Amount, s.now())
		if err != nil {
			return err
		}

		fromBefore, toBefore := from.Balance, to.Balance
		from.Balance = from.Balance.Sub(req.Amount)
		to.Balance = to.Balance.Add(req.Amount)

		if err := tx.UpdateAccountBalance(ctx, from.ID, from.Balance); err != nil {
			return fmt.Errorf("debit account: %w", err)
		}
		if err := tx.UpdateAccountBalance(ctx, to.ID, to.Balance); err != nil {
			return fmt.Errorf("credit account: %w", err)
		}

		txn, err := s.insertTransaction(ctx, tx, domain.Transaction{
			Type:              domain.TransactionTypeTransfer,
			FromAccountID:     stringPtr(from.ID),
			ToAccountID:       stringPtr(to.ID),
			Amount:            req.Amount,
			FromBalanceBefore: amountPtr(fromBefore),
			FromBalanceAfter:  amountPtr(from.Balance),
			ToBalanceBefore:   amountPtr(toBefore),
			ToBalanceAfter:    amountPtr(to.Balance),
			Description:       strings.TrimSpace(req.Description),
			Status:            domain.TransactionStatusCompleted,
		})
		if err != nil {
			return err
		}

		result = TransferResult{Transaction: txn, From: from, To: to, Aggregate: aggregate}
		return nil
	})
	if err != nil {
		return TransferResult{}, err
	}

	return result, nil
}

func (s *LedgerService) Deposit(ctx context.Context, actor domain.Actor, req PostingRequest) (PostingResult, error) {
	return s.post(ctx, domain.AuditActionDeposit, posting{
		kind:        domain.TransactionTypeDeposit,
		accountID:   req.AccountID,
		amount:      req.Amount,
		description: req.Description,
		owner:       &actor,
	}, actor)
}

func (s *LedgerService) Withdraw(ctx context.Context, actor domain.Actor, req PostingRequest) (PostingResult, error) {
	return s.post(ctx, domain.AuditActionWithdrawal, posting{
		kind:        domain.TransactionTypeWithdrawal,
		accountID:   req.AccountID,
		amount:      req.Amount,
		description: req.Description,
		owner:       &actor,
	}, actor)
}

// Disburse credits loan funds inside the caller's unit of work. The funds originate
// outside the ledger, so there is no paired debit and no daily limit.
func (s *LedgerService) Disburse(ctx context.Context, tx domain.Tx, accountID string, amount decimal.Decimal, description string, loanID string) (PostingResult, error) {
	return s.apply(ctx, tx, posting{
		kind:        domain.TransactionTypeLoanDisbursement,
		accountID:   accountID,
		amount:      amount,
		description: description,
		loanID:      stringPtr(loanID),
	})
}

// SettleEMI debits an installment inside the caller's unit of work. The account must
// belong to ownerID. It is not subject to the daily limit.
func (s *LedgerService) SettleEMI(ctx context.Context, tx domain.Tx, ownerID string, accountID string, amount decimal.Decimal, description string, loanID string) (PostingResult, error) {
	return s.apply(ctx, tx, posting{
		kind:        domain.TransactionTypeLoanPayment,
		accountID:   accountID,
		amount:      amount,
		description: description,
		loanID:      stringPtr(loanID),
		owner:       &domain.Actor{OwnerID: ownerID, Role: domain.RoleCustomer},
	})
}

// GetTransaction returns a transaction the actor may read through either of its accounts.
func (s *LedgerService) GetTransaction(ctx context.Context, actor domain.Actor, id string) (domain.Transaction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Transaction{}, domain.NewValidationError("id", "is required")
	}

	txn, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Transaction{}, fmt.Errorf("transaction not found: %w", err)
		}
		logger.Error("ledger service get transaction failed", err, logger.Fields{"transactionId": id})
		return domain.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}

	for _, accountID := range []*string{txn.FromAccountID, txn.ToAccountID} {
		if accountID == nil {
			continue
		}
		account, err := s.store.GetAccount(ctx, *accountID)
		if err != nil {
			return domain.Transaction{}, accountLookupError(err)
		}
		if actor.CanRead(account.OwnerID) {
			return txn, nil
		}
	}

	return domain.Transaction{}, domain.NewAuthorizationError("caller cannot read this transaction")
}

// HistoryFilter selects transactions for ListTransactions. OwnerID defaults to the
// caller; AccountID narrows the search to one readable account. Empty fields are ignored.
type HistoryFilter struct {
	OwnerID   string
	AccountID string
	Type      string
	From      time.Time
	To        time.Time
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
}

func (f HistoryFilter) validate() (domain.TransactionType, error) {
	var errs []error

	txnType := domain.TransactionType(strings.ToLower(strings.TrimSpace(f.Type)))
	if txnType != "" && !txnType.IsValid() {
		errs = append(errs, domain.NewValidationError("type",
			"must be one of transfer, deposit, withdrawal, loan_disbursement, loan_payment"))
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.To.After(f.From) {
		errs = append(errs, domain.NewValidationError("to", "must be after from"))
	}
	if f.MinAmount != nil {
		if err := domain.ValidateAmount("minAmount", *f.MinAmount); err != nil {
			errs = append(errs, err)
		}
	}
	if f.MaxAmount != nil {
		if err := domain.ValidateAmount("maxAmount", *f.MaxAmount); err != nil {
			errs = append(errs, err)
		}
	}
	if f.MinAmount != nil && f.MaxAmount != nil && f.MinAmount.GreaterThan(*f.MaxAmount) {
		errs = append(errs, domain.NewValidationError("maxAmount", "must not be below minAmount"))
	}

	return txnType, errors.Join(errs...)
}

// ListTransactions returns every transaction touching the owner's accounts that
// matches filter, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, actor domain.Actor, filter HistoryFilter) ([]domain.Transaction, error) {
	fields := logger.Fields{
		"actorId":   actor.OwnerID,
		"ownerId":   filter.OwnerID,
		"accountId": filter.AccountID,
		"type":      filter.Type,
	}
	logger.Info("ledger service transaction history request", fields)

	if strings.TrimSpace(actor.OwnerID) == "" {
		return nil, domain.NewAuthorizationError("caller identity is required")
	}
	txnType, err := filter.validate()
	if err != nil {
		return nil, err
	}

	accountIDs, err := s.historyAccounts(ctx, actor, filter)
	if err != nil {
		return nil, err
	}

	txns, err := s.store.SearchTransactions(ctx, domain.TransactionFilter{
		AccountIDs: accountIDs,
		Type:       txnType,
		From:       filter.From,
		To:         filter.To,
		MinAmount:  filter.MinAmount,
		MaxAmount:  filter.MaxAmount,
	})
	if err != nil {
		logger.Error("ledger service transaction history failed", err, fields)
		return nil, fmt.Errorf("search transactions: %w", err)
	}

	fields["transactions"] = len(txns)
	logger.Info("ledger service transaction history success", fields)
	return txns, nil
}

func (s *LedgerService) historyAccounts(ctx context.Context, actor domain.Actor, filter HistoryFilter) ([]string, error) {
	if accountID := strings.TrimSpace(filter.AccountID); accountID != "" {
		account, err := s.store.GetAccount(ctx, accountID)
		if err != nil {
			return nil, accountLookupError(err)
		}
		if !actor.CanRead(account.OwnerID) {
			return nil, domain.NewAuthorizationError("caller cannot read this account")
		}
		return []string{account.ID}, nil
	}

	ownerID := strings.TrimSpace(filter.OwnerID)
	if ownerID == "" {
		ownerID = actor.OwnerID
	}
	if !actor.CanRead(ownerID) {
		return nil, domain.NewAuthorizationError("caller cannot read these transactions")
	}

	accounts, err := s.store.ListAccountsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	ids := make([]string, 0, len(accounts))
	for _, account := range accounts {
		ids = append(ids, account.ID)
	}
	return ids, nil
}

func (s *LedgerService) post(ctx context.Context, action domain.AuditAction, p posting, actor domain.Actor) (PostingResult, error) {
	fields := logger.Fields{
		"type":      p.kind,
		"accountId": p.accountID,
		"amount":    p.amount.StringFixed(2),
		"actorId":   actor.OwnerID,
	}
	logger.Info("ledger service posting request", fields)

	var result PostingResult
	err := validatePosting(p)
	if err == nil {
		err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
			posted, err := s.apply(ctx, tx, p)
			if err != nil {
				return err
			}
			result = posted
			return nil
		})
	}

	event := domain.AuditEvent{
		Action:       action,
		ActorID:      actor.OwnerID,
		ActorRole:    actor.Role,
		ResourceType: "account",
		ResourceID:   p.accountID,
		Amount:       amountPtr(p.amount),
	}
	if err == nil {
		event.ResourceType = "transaction"
		event.ResourceID = result.Transaction.ID
		event.Reference = result.Transaction.Reference
		before, after := sideBalances(result.Transaction)
		event.Balances = []domain.BalanceChange{balanceChange(result.Account.ID, before, after)}
		fields["reference"] = result.Transaction.Reference
	}
	s.audit.record(ctx, event, err)
	logOutcome("ledger service posting", err, fields)

	return result, err
}

func validatePosting(p posting) error {
	if strings.TrimSpace(p.accountID) == "" {
		return domain.NewValidationError("accountId", "is required")
	}
	return domain.ValidateAmount("amount", p.amount)
}

func (s *LedgerService) apply(ctx context.Context, tx domain.Tx, p posting) (PostingResult, error) {
	if err := validatePosting(p); err != nil {
		return PostingResult{}, err
	}

	accounts, err := tx.LockAccounts(ctx, strings.TrimSpace(p.accountID))
	if err != nil {
		return PostingResult{}, accountLookupError(err)
	}
	account := accounts[0]

	if p.owner != nil && !p.owner.Owns(account.OwnerID) {
		return PostingResult{}, domain.NewAuthorizationError("caller does not own the account")
	}
	if !account.IsActive() {
		return PostingResult{}, domain.AccountInactive(account.ID, account.Status)
	}

	before := account.Balance
	credit := p.kind == domain.TransactionTypeDeposit || p.kind == domain.TransactionTypeLoanDisbursement
	if credit {
		if err := checkBalanceCeiling(account, p.amount); err != nil {
			return PostingResult{}, err
		}
		account.Balance = account.Balance.Add(p.amount)
	} else {
		if !account.CanDebit(p.amount) {
			return PostingResult{}, domain.InsufficientFunds(account.ID, account.AvailableBalance(), p.amount)
		}
		account.Balance = account.Balance.Sub(p.amount)
	}

	if err := tx.UpdateAccountBalance(ctx, account.ID, account.Balance); err != nil {
		return PostingResult{}, fmt.Errorf("update account balance: %w", err)
	}

	record := domain.Transaction{
		Type:        p.kind,
		Amount:      p.amount,
		LoanID:      p.loanID,
		Description: strings.TrimSpace(p.description),
		Status:      domain.TransactionStatusCompleted,
	}
	if credit {
		record.ToAccountID = stringPtr(account.ID)
		record.ToBalanceBefore = amountPtr(before)
		record.ToBalanceAfter = amountPtr(account.Balance)
	} else {
		record.FromAccountID = stringPtr(account.ID)
		record.FromBalanceBefore = amountPtr(before)
		record.FromBalanceAfter = amountPtr(account.Balance)
	}

	txn, err := s.insertTransaction(ctx, tx, record)
	if err != nil {
		return PostingResult{}, err
	}

	return PostingResult{Transaction: txn, Account: account}, nil
}

func (s *LedgerService) insertTransaction(ctx context.Context, tx domain.Tx, record domain.Transaction) (domain.Transaction, error) {
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		record.Reference = generateReference(record.Type.ReferencePrefix(), s.now())

		created, err := tx.InsertTransaction(ctx, record)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, domain.ErrDuplicateReference) {
			return domain.Transaction{}, fmt.Errorf("insert transaction: %w", err)
		}
	}
	return domain.Transaction{}, fmt.Errorf("insert transaction: %w", domain.ErrDuplicateReference)
}

func checkBalanceCeiling(account domain.Account, amount decimal.Decimal) error {
	if account.Balance.Add(amount).GreaterThan(domain.MaxAmount) {
		return domain.NewValidationError("amount", "would take the balance above the ledger maximum")
	}
	return nil
}

func sideBalances(txn domain.Transaction) (decimal.Decimal, decimal.Decimal) {
	if txn.ToBalanceBefore != nil && txn.ToBalanceAfter != nil {
		return *txn.ToBalanceBefore, *txn.ToBalanceAfter
	}
	if txn.FromBalanceBefore != nil && txn.FromBalanceAfter != nil {
		return *txn.FromBalanceBefore, *txn.FromBalanceAfter
	}
	return decimal.Zero, decimal.Zero
}

func accountLookupError(err error) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return fmt.Errorf("account not found: %w", err)
	}
	return fmt.Errorf("lock accounts: %w", err)
}

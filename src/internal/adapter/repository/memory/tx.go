package memory

import (
	"fmt"
	"sort"

	"github.com/jade-bank/core-ledger/src/internal/domain"
)

type changes struct {
	accounts     map[string]domain.Account
	transactions map[string]domain.Transaction
	aggregates   map[aggregateKey]domain.DailyTransferAggregate
	loans        map[string]domain.Loan
	emiPayments  map[string]domain.LoanEMIPayment
	owners       map[string]domain.Owner
	kycDocuments map[string]domain.KYCDocument
}

func newChanges() *changes {
	return &changes{
		accounts:     make(map[string]domain.Account),
		transactions: make(map[string]domain.Transaction),
		aggregates:   make(map[aggregateKey]domain.DailyTransferAggregate),
		loans:        make(map[string]domain.Loan),
		emiPayments:  make(map[string]domain.LoanEMIPayment),
		owners:       make(map[string]domain.Owner),
		kycDocuments: make(map[string]domain.KYCDocument),
	}
}

// Tx is a unit of work over the memory store. A Tx without staged changes is a
// read-only view of committed state.
type Tx struct {
	store    *Store
	staged   *changes
	held     map[string]struct{}
	reserved []string
}

func (t *Tx) writable() error {
	if t.staged == nil {
		return fmt.Errorf("memory store: write outside unit of work")
	}
	return nil
}

// lock acquires row locks in ascending key order, skipping rows this Tx already holds.
func (t *Tx) lock(keys ...string) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	for _, key := range sorted {
		if _, ok := t.held[key]; ok {
			continue
		}
		t.store.locks.acquire(key)
		t.held[key] = struct{}{}
	}
}

func (t *Tx) holds(key string) bool {
	_, ok := t.held[key]
	return ok
}

func (t *Tx) reserve(key string) bool {
	if !t.store.reserve(key) {
		return false
	}
	t.reserved = append(t.reserved, key)
	return true
}

func (t *Tx) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, row := range t.staged.accounts {
		s.accounts[id] = row
	}
	for id, row := range t.staged.transactions {
		s.transactions[id] = row
	}
	for key, row := range t.staged.aggregates {
		s.aggregates[key] = row
	}
	for id, row := range t.staged.loans {
		s.loans[id] = row
	}
	for id, row := range t.staged.emiPayments {
		s.emiPayments[id] = row
	}
	for id, row := range t.staged.owners {
		s.owners[id] = row
	}
	for id, row := range t.staged.kycDocuments {
		s.kycDocuments[id] = row
	}
	for _, key := range t.reserved {
		delete(s.reserved, key)
		s.uniques[key] = struct{}{}
	}
	t.reserved = nil
}

// release drops reservations that were never committed and unlocks every held row.
func (t *Tx) release() {
	if len(t.reserved) > 0 {
		t.store.mu.Lock()
		for _, key := range t.reserved {
			delete(t.store.reserved, key)
		}
		t.store.mu.Unlock()
		t.reserved = nil
	}

	for key := range t.held {
		t.store.locks.release(key)
	}
	t.held = nil
}

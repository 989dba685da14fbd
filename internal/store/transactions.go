package store

import (
	"slices"
	"sync"
	"time"
)

// TransactionType is the direction of a coin movement.
type TransactionType string

const (
	Credit TransactionType = "credit"
	Debit  TransactionType = "debit"
)

// Transaction is a coin movement shown in the history.
type Transaction struct {
	ID        string
	Type      TransactionType
	Amount    int64
	Reason    string
	Timestamp time.Time
}

// Withdrawal is a cash-out request.
type Withdrawal struct {
	ID        string
	Amount    int64
	AmountINR float64
	UPIID     string
	Method    string
	Status    string // pending, approved, rejected, completed, failed
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TransactionsState is a snapshot of the Transactions container.
type TransactionsState struct {
	Transactions []Transaction
	Withdrawals  []Withdrawal
}

// Transactions holds the transaction and withdrawal history.
type Transactions struct {
	mu          sync.RWMutex
	txs         []Transaction
	withdrawals []Withdrawal
}

// NewTransactions creates an empty container.
func NewTransactions() *Transactions {
	return &Transactions{}
}

// Snapshot returns a copy of the current state.
func (t *Transactions) Snapshot() TransactionsState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return TransactionsState{
		Transactions: slices.Clone(t.txs),
		Withdrawals:  slices.Clone(t.withdrawals),
	}
}

// Add appends a transaction.
func (t *Transactions) Add(tx Transaction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.txs = append(t.txs, tx)
}

// SetTransactions replaces the transaction history.
func (t *Transactions) SetTransactions(txs []Transaction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.txs = slices.Clone(txs)
}

// SetWithdrawals replaces the withdrawal history.
func (t *Transactions) SetWithdrawals(ws []Withdrawal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.withdrawals = slices.Clone(ws)
}

// UpdateWithdrawalStatus sets the status of the withdrawal with id.
// It reports whether a matching withdrawal was found.
func (t *Transactions) UpdateWithdrawalStatus(id, status string, at time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := slices.IndexFunc(t.withdrawals, func(w Withdrawal) bool { return w.ID == id })
	if i < 0 {
		return false
	}
	t.withdrawals[i].Status = status
	if !at.IsZero() {
		t.withdrawals[i].UpdatedAt = at
	}
	return true
}

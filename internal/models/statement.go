package models

import (
	"time"
)

// OperationType is the category of a statement entry.
type OperationType string

const (
	OperationDeposit          OperationType = "deposit"
	OperationWithdraw         OperationType = "withdraw"
	OperationTransferSent     OperationType = "transfer_sent"
	OperationTransferReceived OperationType = "transfer_received"
)

// Valid reports whether t is one of the known operation types.
func (t OperationType) Valid() bool {
	switch t {
	case OperationDeposit, OperationWithdraw, OperationTransferSent, OperationTransferReceived:
		return true
	}
	return false
}

// Debits reports whether the operation takes money out of the account.
func (t OperationType) Debits() bool {
	return t == OperationWithdraw || t == OperationTransferSent
}

// Credits reports whether the operation puts money into the account.
func (t OperationType) Credits() bool {
	return t == OperationDeposit || t == OperationTransferReceived
}

// Statement is a single immutable ledger entry. Amounts are in the smallest
// currency unit (cents). Entries are append-only; balance is always derived
// by folding them, never stored.
type Statement struct {
	ID          string        `json:"id" db:"id"`
	UserID      string        `json:"user_id" db:"user_id"`
	Type        OperationType `json:"type" db:"type"`
	Amount      int64         `json:"amount" db:"amount"` // in cents
	Description string        `json:"description" db:"description"`
	SenderID    *string       `json:"sender_id,omitempty" db:"sender_id"` // counterpart on received transfers
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// Balance is the derived view returned by the balance query: a fold of the
// user's statements plus the full history that produced it.
type Balance struct {
	Balance    int64       `json:"balance"`
	Statements []Statement `json:"statements"`
}

package ledger

import "github.com/finledger/backend/internal/models"

// ComputeBalance folds a user's statements into their current balance:
// deposits and received transfers add, withdrawals and sent transfers
// subtract. Pure function; an empty history folds to zero.
func ComputeBalance(statements []models.Statement) int64 {
	var balance int64
	for _, statement := range statements {
		if statement.Type.Debits() {
			balance -= statement.Amount
		} else {
			balance += statement.Amount
		}
	}
	return balance
}

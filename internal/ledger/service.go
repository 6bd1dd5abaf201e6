package ledger

import (
	"context"
	"errors"
	"sync"

	"github.com/finledger/backend/internal/models"
	"github.com/finledger/backend/internal/storage"
)

// Service is the single writer of the statement log. Every debiting operation
// runs inside a per-user critical section spanning read history, fold balance,
// funds check and insert, so two concurrent withdrawals can never both pass
// the check against a balance only one of them can honor. Operations on
// different users do not contend.
type Service struct {
	statements storage.StatementStore
	users      storage.UserStore

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewService(statements storage.StatementStore, users storage.UserStore) *Service {
	return &Service{
		statements: statements,
		users:      users,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (s *Service) userLock(userID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// Deposit appends a credit entry. Deposits never run a funds check.
func (s *Service) Deposit(ctx context.Context, userID string, amount int64, description string) (*models.Statement, error) {
	return s.create(ctx, userID, models.OperationDeposit, amount, description, nil)
}

// Withdraw appends a debit entry after the sufficient-funds check. A
// withdrawal equal to the current balance is allowed and drives it to zero.
func (s *Service) Withdraw(ctx context.Context, userID string, amount int64, description string) (*models.Statement, error) {
	return s.create(ctx, userID, models.OperationWithdraw, amount, description, nil)
}

func (s *Service) create(ctx context.Context, userID string, opType models.OperationType, amount int64, description string, senderID *string) (*models.Statement, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if opType.Debits() {
		if err := s.checkFunds(ctx, userID, amount); err != nil {
			return nil, err
		}
	}

	statement := &models.Statement{
		UserID:      userID,
		Type:        opType,
		Amount:      amount,
		Description: description,
		SenderID:    senderID,
	}
	stored, err := s.statements.Insert(ctx, statement)
	if err != nil {
		return nil, storageErr("insert statement", err)
	}
	return stored, nil
}

// Transfer debits the sender and credits the receiver as one logical
// operation. The funds check applies to the sender only, and the two entries
// are written through the store's atomic pair insert so partial visibility is
// impossible.
func (s *Service) Transfer(ctx context.Context, senderID, receiverID string, amount int64, description string) (*models.Statement, error) {
	if err := s.requireUser(ctx, senderID); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, receiverID); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	// Lock both parties in id order to avoid deadlocking against a transfer
	// running the opposite direction.
	first, second := senderID, receiverID
	if first > second {
		first, second = second, first
	}
	firstLock := s.userLock(first)
	firstLock.Lock()
	defer firstLock.Unlock()
	if second != first {
		secondLock := s.userLock(second)
		secondLock.Lock()
		defer secondLock.Unlock()
	}

	if err := s.checkFunds(ctx, senderID, amount); err != nil {
		return nil, err
	}

	sent := &models.Statement{
		UserID:      senderID,
		Type:        models.OperationTransferSent,
		Amount:      amount,
		Description: description,
	}
	received := &models.Statement{
		UserID:      receiverID,
		Type:        models.OperationTransferReceived,
		Amount:      amount,
		Description: description,
		SenderID:    &senderID,
	}
	if err := s.statements.InsertTransfer(ctx, sent, received); err != nil {
		return nil, storageErr("insert transfer", err)
	}
	return sent, nil
}

// GetBalance returns the derived balance together with the history it was
// folded from. Neither is ever stored independently of the entry log.
func (s *Service) GetBalance(ctx context.Context, userID string) (*models.Balance, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	statements, err := s.statements.ListByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("list statements", err)
	}
	return &models.Balance{
		Balance:    ComputeBalance(statements),
		Statements: statements,
	}, nil
}

// GetStatementOperation looks up one entry scoped to its owner. An id that
// belongs to another user is indistinguishable from a missing one.
func (s *Service) GetStatementOperation(ctx context.Context, userID, statementID string) (*models.Statement, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	statement, err := s.statements.FindByID(ctx, userID, statementID)
	if err != nil {
		if errors.Is(err, storage.ErrStatementNotFound) {
			return nil, ErrStatementNotFound
		}
		return nil, storageErr("find statement", err)
	}
	return statement, nil
}

func (s *Service) requireUser(ctx context.Context, userID string) error {
	_, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return storageErr("find user", err)
	}
	return nil
}

// checkFunds folds the full existing history and rejects a debit that exceeds
// it. Caller must hold the user's lock.
func (s *Service) checkFunds(ctx context.Context, userID string, amount int64) error {
	statements, err := s.statements.ListByUser(ctx, userID)
	if err != nil {
		return storageErr("list statements", err)
	}
	if amount > ComputeBalance(statements) {
		return ErrInsufficientFunds
	}
	return nil
}

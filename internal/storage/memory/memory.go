package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finledger/backend/internal/models"
	"github.com/finledger/backend/internal/storage"
)

// Store is the in-memory reference implementation of both storage contracts.
// Statements live in a single append-ordered slice so ListByUser preserves
// creation order without extra bookkeeping. Safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	statements []models.Statement
	users      map[string]models.User
	emails     map[string]string // lowercased email -> user id
}

func NewStore() *Store {
	return &Store{
		users:  make(map[string]models.User),
		emails: make(map[string]string),
	}
}

func (s *Store) Insert(ctx context.Context, statement *models.Statement) (*models.Statement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.append(statement)
	return &stored, nil
}

func (s *Store) InsertTransfer(ctx context.Context, sent, received *models.Statement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Both appends happen under the same lock; readers never observe one leg
	// without the other.
	s.append(sent)
	s.append(received)
	return nil
}

// append fills in id and timestamp when unset and records the entry. Caller
// holds s.mu.
func (s *Store) append(statement *models.Statement) models.Statement {
	if statement.ID == "" {
		statement.ID = uuid.NewString()
	}
	if statement.CreatedAt.IsZero() {
		statement.CreatedAt = time.Now().UTC()
	}
	s.statements = append(s.statements, *statement)
	return *statement
}

func (s *Store) FindByID(ctx context.Context, userID, statementID string) (*models.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.statements {
		if s.statements[i].ID == statementID && s.statements[i].UserID == userID {
			stored := s.statements[i]
			return &stored, nil
		}
	}
	return nil, storage.ErrStatementNotFound
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Statement, 0)
	for _, statement := range s.statements {
		if statement.UserID == userID {
			result = append(result, statement)
		}
	}
	return result, nil
}

func (s *Store) Create(ctx context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := s.emails[email]; exists {
		return nil, storage.ErrEmailTaken
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	s.users[user.ID] = *user
	s.emails[email] = user.ID

	stored := *user
	return &stored, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return &user, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	user := s.users[id]
	return &user, nil
}

var (
	_ storage.StatementStore = (*Store)(nil)
	_ storage.UserStore      = (*Store)(nil)
)

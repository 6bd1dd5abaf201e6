package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/finledger/backend/internal/models"
	"github.com/finledger/backend/internal/storage"
)

// Store implements the statement and user stores on PostgreSQL. Statements
// carry a monotonically increasing position column so creation order survives
// identical timestamps.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Insert(ctx context.Context, statement *models.Statement) (*models.Statement, error) {
	prepareStatement(statement)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO statements (id, user_id, type, amount, description, sender_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		statement.ID, statement.UserID, statement.Type, statement.Amount,
		statement.Description, statement.SenderID, statement.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert statement: %w", err)
	}

	stored := *statement
	return &stored, nil
}

func (s *Store) InsertTransfer(ctx context.Context, sent, received *models.Statement) error {
	prepareStatement(sent)
	prepareStatement(received)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback()

	for _, statement := range []*models.Statement{sent, received} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO statements (id, user_id, type, amount, description, sender_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			statement.ID, statement.UserID, statement.Type, statement.Amount,
			statement.Description, statement.SenderID, statement.CreatedAt); err != nil {
			return fmt.Errorf("insert transfer leg: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, userID, statementID string) (*models.Statement, error) {
	var statement models.Statement
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, type, amount, description, sender_id, created_at
		FROM statements
		WHERE id = $1 AND user_id = $2`,
		statementID, userID).Scan(
		&statement.ID, &statement.UserID, &statement.Type, &statement.Amount,
		&statement.Description, &statement.SenderID, &statement.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrStatementNotFound
		}
		return nil, fmt.Errorf("find statement: %w", err)
	}
	return &statement, nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.Statement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, amount, description, sender_id, created_at
		FROM statements
		WHERE user_id = $1
		ORDER BY position ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	defer rows.Close()

	statements := make([]models.Statement, 0)
	for rows.Next() {
		var statement models.Statement
		if err := rows.Scan(
			&statement.ID, &statement.UserID, &statement.Type, &statement.Amount,
			&statement.Description, &statement.SenderID, &statement.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		statements = append(statements, statement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	return statements, nil
}

func (s *Store) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING created_at, updated_at`,
		user.ID, user.Name, user.Email, user.Password, now).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, storage.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	stored := *user
	return &stored, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, `
		SELECT id, name, email, password, created_at, updated_at
		FROM users WHERE id = $1`, id)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, `
		SELECT id, name, email, password, created_at, updated_at
		FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

func (s *Store) findUser(ctx context.Context, query, arg string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.Password,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func prepareStatement(statement *models.Statement) {
	if statement.ID == "" {
		statement.ID = uuid.NewString()
	}
	if statement.CreatedAt.IsZero() {
		statement.CreatedAt = time.Now().UTC()
	}
}

var (
	_ storage.StatementStore = (*Store)(nil)
	_ storage.UserStore      = (*Store)(nil)
)

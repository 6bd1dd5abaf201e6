package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/finledger/backend/internal/models"
	"github.com/finledger/backend/internal/storage"
)

func TestStore_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	t.Run("successful insert", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO statements").
			WithArgs(sqlmock.AnyArg(), "user-1", models.OperationDeposit, int64(100), "Test", nil, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		stored, err := store.Insert(context.Background(), &models.Statement{
			UserID:      "user-1",
			Type:        models.OperationDeposit,
			Amount:      100,
			Description: "Test",
		})
		assert.NoError(t, err)
		assert.NotEmpty(t, stored.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_InsertTransfer(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	t.Run("both legs inside one transaction", func(t *testing.T) {
		senderID := "user-1"
		sent := &models.Statement{UserID: senderID, Type: models.OperationTransferSent, Amount: 200, Description: "Rent"}
		received := &models.Statement{UserID: "user-2", Type: models.OperationTransferReceived, Amount: 200, Description: "Rent", SenderID: &senderID}

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO statements").
			WithArgs(sqlmock.AnyArg(), "user-1", models.OperationTransferSent, int64(200), "Rent", nil, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO statements").
			WithArgs(sqlmock.AnyArg(), "user-2", models.OperationTransferReceived, int64(200), "Rent", &senderID, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		err := store.InsertTransfer(context.Background(), sent, received)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed second leg rolls back", func(t *testing.T) {
		senderID := "user-1"
		sent := &models.Statement{UserID: senderID, Type: models.OperationTransferSent, Amount: 200, Description: "Rent"}
		received := &models.Statement{UserID: "user-2", Type: models.OperationTransferReceived, Amount: 200, Description: "Rent", SenderID: &senderID}

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO statements").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO statements").
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		err := store.InsertTransfer(context.Background(), sent, received)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	columns := []string{"id", "user_id", "type", "amount", "description", "sender_id", "created_at"}

	t.Run("existing statement", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, type, amount, description, sender_id, created_at FROM statements").
			WithArgs("stmt-1", "user-1").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("stmt-1", "user-1", "deposit", 100, "Test", nil, time.Now()))

		statement, err := store.FindByID(context.Background(), "user-1", "stmt-1")
		assert.NoError(t, err)
		assert.Equal(t, "stmt-1", statement.ID)
		assert.Equal(t, models.OperationDeposit, statement.Type)
	})

	t.Run("missing statement maps to sentinel", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, type, amount, description, sender_id, created_at FROM statements").
			WithArgs("stmt-404", "user-1").
			WillReturnError(sql.ErrNoRows)

		_, err := store.FindByID(context.Background(), "user-1", "stmt-404")
		assert.ErrorIs(t, err, storage.ErrStatementNotFound)
	})
}

func TestStore_ListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	columns := []string{"id", "user_id", "type", "amount", "description", "sender_id", "created_at"}

	t.Run("ordered history", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, type, amount, description, sender_id, created_at FROM statements").
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("stmt-1", "user-1", "deposit", 100, "First", nil, time.Now()).
				AddRow("stmt-2", "user-1", "withdraw", 40, "Second", nil, time.Now()))

		statements, err := store.ListByUser(context.Background(), "user-1")
		assert.NoError(t, err)
		assert.Len(t, statements, 2)
		assert.Equal(t, "stmt-1", statements[0].ID)
		assert.Equal(t, "stmt-2", statements[1].ID)
	})

	t.Run("empty history", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, type, amount, description, sender_id, created_at FROM statements").
			WithArgs("user-2").
			WillReturnRows(sqlmock.NewRows(columns))

		statements, err := store.ListByUser(context.Background(), "user-2")
		assert.NoError(t, err)
		assert.Empty(t, statements)
	})
}

func TestStore_Users(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	columns := []string{"id", "name", "email", "password", "created_at", "updated_at"}

	t.Run("create user", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("INSERT INTO users").
			WithArgs(sqlmock.AnyArg(), "User Test", "user@test.com", "hashed", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		user, err := store.Create(context.Background(), &models.User{
			Name:     "User Test",
			Email:    "user@test.com",
			Password: "hashed",
		})
		assert.NoError(t, err)
		assert.NotEmpty(t, user.ID)
	})

	t.Run("find by id", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, email, password, created_at, updated_at FROM users").
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("user-1", "User Test", "user@test.com", "hashed", time.Now(), time.Now()))

		user, err := store.FindUserByID(context.Background(), "user-1")
		assert.NoError(t, err)
		assert.Equal(t, "user@test.com", user.Email)
	})

	t.Run("missing user maps to sentinel", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, email, password, created_at, updated_at FROM users").
			WithArgs("user-404").
			WillReturnError(sql.ErrNoRows)

		_, err := store.FindUserByID(context.Background(), "user-404")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})
}

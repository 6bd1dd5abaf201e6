package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finledger/backend/internal/models"
	"github.com/finledger/backend/internal/storage/memory"
)

func setupAuthConfig() {
	viper.Set("argon2.salt_length", 16)
	viper.Set("argon2.time", 1)
	viper.Set("argon2.memory", 64*1024)
	viper.Set("argon2.threads", 4)
	viper.Set("argon2.key_length", 32)
	viper.Set("jwt.secret_key", "test-secret")
	viper.Set("jwt.expiry_hours", 24)
}

func TestAuthService_Register(t *testing.T) {
	setupAuthConfig()
	store := memory.NewStore()
	service := NewAuthService(store, nil)

	t.Run("successful registration", func(t *testing.T) {
		req := RegisterRequest{
			Name:     "John Doe",
			Email:    "test@example.com",
			Password: "password123",
		}

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/api/v1/users", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response AuthResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.NotEmpty(t, response.Token)
		assert.Equal(t, req.Email, response.User.Email)
		assert.NotEmpty(t, response.User.ID)

		// hash, never the raw password, lands in the store
		stored, err := store.FindByEmail(context.Background(), req.Email)
		require.NoError(t, err)
		assert.NotEqual(t, req.Password, stored.Password)
		assert.True(t, verifyPassword(req.Password, stored.Password))
	})

	t.Run("duplicate email", func(t *testing.T) {
		req := RegisterRequest{Name: "Jane Doe", Email: "test@example.com", Password: "password123"}

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/api/v1/users", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid request body", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/v1/users", bytes.NewBuffer([]byte("invalid")))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		req := RegisterRequest{Name: "J", Email: "not-an-email", Password: "123"}

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/api/v1/users", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var response ErrorResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Contains(t, response.Details, "Email")
	})
}

func TestAuthService_Login(t *testing.T) {
	setupAuthConfig()
	store := memory.NewStore()
	service := NewAuthService(store, nil)

	hashedPassword, err := hashPassword("password123")
	require.NoError(t, err)
	_, err = store.Create(context.Background(), &models.User{
		Name:     "User Test",
		Email:    "test@example.com",
		Password: hashedPassword,
	})
	require.NoError(t, err)

	t.Run("successful login", func(t *testing.T) {
		req := LoginRequest{Email: "test@example.com", Password: "password123"}

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/api/v1/sessions", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response AuthResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.NotEmpty(t, response.Token)
	})

	t.Run("user not found", func(t *testing.T) {
		req := LoginRequest{Email: "nonexistent@example.com", Password: "password123"}

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/api/v1/sessions", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("incorrect password", func(t *testing.T) {
		req := LoginRequest{Email: "test@example.com", Password: "incorrect-password"}

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/api/v1/sessions", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthService_Logout(t *testing.T) {
	setupAuthConfig()
	store := memory.NewStore()

	t.Run("blacklists the presented token", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		service := NewAuthService(store, redisClient)

		redisMock.ExpectSet("blacklist:some-token", "1", 24*time.Hour).SetVal("OK")

		r := httptest.NewRequest("POST", "/api/v1/sessions/logout", nil)
		r.Header.Set("Authorization", "Bearer some-token")
		w := httptest.NewRecorder()

		service.Logout(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("no token is still a successful logout", func(t *testing.T) {
		service := NewAuthService(store, nil)

		r := httptest.NewRequest("POST", "/api/v1/sessions/logout", nil)
		w := httptest.NewRecorder()

		service.Logout(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAuthService_Profile(t *testing.T) {
	setupAuthConfig()
	store := memory.NewStore()
	service := NewAuthService(store, nil)

	user, err := store.Create(context.Background(), &models.User{
		Name:     "User Test",
		Email:    "profile@example.com",
		Password: "hashed",
	})
	require.NoError(t, err)

	t.Run("returns the authenticated user", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/profile", nil)
		r = r.WithContext(context.WithValue(r.Context(), "userID", user.ID))
		w := httptest.NewRecorder()

		service.Profile(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var got models.User
		json.Unmarshal(w.Body.Bytes(), &got)
		assert.Equal(t, user.Email, got.Email)
	})

	t.Run("missing context user id", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/profile", nil)
		w := httptest.NewRecorder()

		service.Profile(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("deleted user", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/profile", nil)
		r = r.WithContext(context.WithValue(r.Context(), "userID", "non-existent-user"))
		w := httptest.NewRecorder()

		service.Profile(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPasswordHashing(t *testing.T) {
	setupAuthConfig()

	password := "testpassword"

	hashed, err := hashPassword(password)
	assert.NoError(t, err)
	assert.NotEmpty(t, hashed)

	assert.True(t, verifyPassword(password, hashed))
	assert.False(t, verifyPassword("wrongpassword", hashed))
	assert.False(t, verifyPassword(password, "not-a-valid-hash"))
}

func TestGenerateJWT(t *testing.T) {
	setupAuthConfig()

	token, err := generateJWT("user-123")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

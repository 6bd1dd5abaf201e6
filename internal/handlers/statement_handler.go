package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finledger/backend/internal/ledger"
	"github.com/finledger/backend/internal/models"
	"github.com/finledger/backend/internal/services"
)

// StatementHandler exposes the ledger core over HTTP. It owns the mapping
// from the ledger error taxonomy to response codes; the service itself never
// sees HTTP.
type StatementHandler struct {
	ledger    *ledger.Service
	validator *services.ValidationHelper
}

func NewStatementHandler(ledgerService *ledger.Service) *StatementHandler {
	return &StatementHandler{
		ledger:    ledgerService,
		validator: services.NewValidationHelper(),
	}
}

// StatementRequest is the body of deposit, withdraw and transfer requests.
// Amounts are in cents.
type StatementRequest struct {
	Amount      int64  `json:"amount" validate:"required,gt=0" example:"10000"`
	Description string `json:"description" validate:"required,max=200" example:"Paycheck"`
}

// Deposit creates a deposit statement
// @Summary Deposit funds
// @Description Append a deposit entry to the authenticated user's ledger
// @Tags statements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body StatementRequest true "Deposit request"
// @Success 201 {object} models.Statement
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /statements/deposit [post]
func (h *StatementHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.createStatement(w, r, models.OperationDeposit)
}

// Withdraw creates a withdrawal statement
// @Summary Withdraw funds
// @Description Append a withdrawal entry, subject to the sufficient-funds check
// @Tags statements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body StatementRequest true "Withdrawal request"
// @Success 201 {object} models.Statement
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /statements/withdraw [post]
func (h *StatementHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.createStatement(w, r, models.OperationWithdraw)
}

func (h *StatementHandler) createStatement(w http.ResponseWriter, r *http.Request, opType models.OperationType) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	req, ok := h.decodeStatementRequest(w, r)
	if !ok {
		return
	}

	var statement *models.Statement
	var err error
	if opType == models.OperationDeposit {
		statement, err = h.ledger.Deposit(r.Context(), userID, req.Amount, req.Description)
	} else {
		statement, err = h.ledger.Withdraw(r.Context(), userID, req.Amount, req.Description)
	}
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(statement)
}

// Transfer moves funds to another user
// @Summary Transfer funds
// @Description Debit the authenticated user and credit the receiver as one atomic operation
// @Tags statements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param receiverID path string true "Receiving user ID"
// @Param request body StatementRequest true "Transfer request"
// @Success 201 {object} models.Statement
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /statements/transfers/{receiverID} [post]
func (h *StatementHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	receiverID := chi.URLParam(r, "receiverID")

	req, ok := h.decodeStatementRequest(w, r)
	if !ok {
		return
	}

	statement, err := h.ledger.Transfer(r.Context(), userID, receiverID, req.Amount, req.Description)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(statement)
}

// GetBalance returns the current balance and full history
// @Summary Get balance
// @Description Get the authenticated user's balance and statement history
// @Tags statements
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Balance
// @Failure 404 {object} services.ErrorResponse
// @Router /statements/balance [get]
func (h *StatementHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	balance, err := h.ledger.GetBalance(r.Context(), userID)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(balance)
}

// GetStatementOperation returns a single statement
// @Summary Get statement operation
// @Description Get one ledger entry by id, scoped to the authenticated user
// @Tags statements
// @Produce json
// @Security BearerAuth
// @Param statementID path string true "Statement ID"
// @Success 200 {object} models.Statement
// @Failure 404 {object} services.ErrorResponse
// @Router /statements/{statementID} [get]
func (h *StatementHandler) GetStatementOperation(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	statementID := chi.URLParam(r, "statementID")

	statement, err := h.ledger.GetStatementOperation(r.Context(), userID, statementID)
	if err != nil {
		h.sendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statement)
}

func (h *StatementHandler) decodeStatementRequest(w http.ResponseWriter, r *http.Request) (*StatementRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req StatementRequest
	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return nil, false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return nil, false
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return nil, false
	}

	return &req, true
}

// sendLedgerError maps the ledger error taxonomy to response codes: not-found
// kinds to 404, business-rule violations to 400, storage failures to 500.
func (h *StatementHandler) sendLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrUserNotFound):
		services.SendErrorResponse(w, "User not found", http.StatusNotFound, nil)
	case errors.Is(err, ledger.ErrStatementNotFound):
		services.SendErrorResponse(w, "Statement not found", http.StatusNotFound, nil)
	case errors.Is(err, ledger.ErrInsufficientFunds):
		services.SendErrorResponse(w, "Insufficient funds", http.StatusBadRequest, nil)
	case errors.Is(err, ledger.ErrInvalidAmount):
		services.SendErrorResponse(w, "Amount must be positive", http.StatusBadRequest, nil)
	default:
		log.Printf("[HTTP] Ledger operation failed: %v", err)
		services.SendErrorResponse(w, "Failed to process operation", http.StatusInternalServerError, nil)
	}
}

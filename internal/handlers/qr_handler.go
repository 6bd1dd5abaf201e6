package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/finledger/backend/internal/services"
	"github.com/finledger/backend/internal/storage"
)

type QRHandler struct {
	service *services.QRService
}

func NewQRHandler(service *services.QRService) *QRHandler {
	return &QRHandler{service: service}
}

// ReceiveQR generates a QR code for receiving transfers
// @Summary Generate receive QR Code
// @Description Generate a PNG QR code encoding the authenticated user's id for receiving transfers
// @Tags QR
// @Produce png
// @Security BearerAuth
// @Success 200 {file} png
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /statements/receive-qr [get]
func (h *QRHandler) ReceiveQR(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	image, err := h.service.GenerateReceiveQR(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			services.SendErrorResponse(w, "User not found", http.StatusNotFound, nil)
			return
		}
		services.SendErrorResponse(w, "Failed to generate QR code", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(image)
}

// ResolveQRRequest carries the raw contents of a scanned receive QR code.
type ResolveQRRequest struct {
	Payload string `json:"payload"`
}

// ResolveReceiveQR resolves a scanned receive QR payload to a transfer target
// @Summary Resolve receive QR payload
// @Description Decode a scanned receive QR payload and return the receiving user's identity
// @Tags QR
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ResolveQRRequest true "Scanned payload"
// @Success 200 {object} services.ReceivePayload
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /statements/receive-qr/resolve [post]
func (h *QRHandler) ResolveReceiveQR(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req ResolveQRRequest
	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if req.Payload == "" {
		services.SendErrorResponse(w, "Payload is required", http.StatusBadRequest, nil)
		return
	}

	target, err := h.service.ResolveReceivePayload(r.Context(), req.Payload)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMalformedPayload):
			services.SendErrorResponse(w, "Malformed QR payload", http.StatusBadRequest, nil)
		case errors.Is(err, storage.ErrUserNotFound):
			services.SendErrorResponse(w, "User not found", http.StatusNotFound, nil)
		default:
			services.SendErrorResponse(w, "Failed to resolve QR payload", http.StatusInternalServerError, nil)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(target)
}

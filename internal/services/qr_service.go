package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"

	"github.com/skip2/go-qrcode"

	"github.com/finledger/backend/internal/storage"
)

// QRService renders a scannable payload another user can use to address a
// transfer. The payload is plain user identity, not a payment authorization,
// so no expiry or nonce is involved.
type QRService struct {
	users storage.UserStore
}

func NewQRService(users storage.UserStore) *QRService {
	return &QRService{users: users}
}

// ReceivePayload is what a receive-transfer QR code encodes.
type ReceivePayload struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// GenerateReceiveQR builds a PNG QR code encoding the user's id and name.
// Returns storage.ErrUserNotFound when the user does not exist.
func (s *QRService) GenerateReceiveQR(ctx context.Context, userID string) ([]byte, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(ReceivePayload{UserID: user.ID, Name: user.Name})
	if err != nil {
		return nil, err
	}

	qr, err := qrcode.New(base64.URLEncoding.EncodeToString(payload), qrcode.Medium)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ErrMalformedPayload reports a scanned payload that is not a receive QR code.
var ErrMalformedPayload = errors.New("malformed QR payload")

// DecodeReceivePayload parses the contents of a scanned receive QR code.
func DecodeReceivePayload(encoded string) (*ReceivePayload, error) {
	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrMalformedPayload
	}

	var payload ReceivePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, ErrMalformedPayload
	}
	if payload.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrMalformedPayload)
	}
	return &payload, nil
}

// ResolveReceivePayload decodes a scanned receive QR payload and confirms the
// encoded user still exists, returning their current identity. A sender scans
// a receive code, resolves it here, then addresses the transfer to the
// returned user id.
func (s *QRService) ResolveReceivePayload(ctx context.Context, encoded string) (*ReceivePayload, error) {
	payload, err := DecodeReceivePayload(encoded)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindUserByID(ctx, payload.UserID)
	if err != nil {
		return nil, err
	}
	return &ReceivePayload{UserID: user.ID, Name: user.Name}, nil
}

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aerosense/aerosense-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RegisterEnvelope wraps the signup response.
type RegisterEnvelope struct {
	Message string          `json:"message"`
	User    *domain.User    `json:"user"`
	Profile *domain.Profile `json:"profile"`
}

// VerifyOTPEnvelope wraps the OTP verification response.
type VerifyOTPEnvelope struct {
	Message           string `json:"message"`
	VerificationToken string `json:"verificationToken"`
}

// ProfileEnvelope wraps profile mutation responses.
type ProfileEnvelope struct {
	Message  string          `json:"message,omitempty"`
	Profile  *domain.Profile `json:"profile"`
	ImageURL string          `json:"imageUrl,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors to HTTP status codes. Anything not
// wrapped in a sentinel is an infrastructure failure and is reported as a
// sanitized 500.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrExpired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server error")
	}
}

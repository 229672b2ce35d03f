package handler

import (
	"encoding/json"
	"net/http"

	"github.com/aerosense/aerosense-api/internal/application/passwordreset"
)

// PasswordResetHandler handles the three-phase OTP reset flow.
type PasswordResetHandler struct {
	svc passwordreset.Service
}

func NewPasswordResetHandler(svc passwordreset.Service) *PasswordResetHandler {
	return &PasswordResetHandler{svc: svc}
}

type forgotRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type resetRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	VerificationToken string `json:"verificationToken"`
}

func (h *PasswordResetHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.Request(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	// Uniform response whether or not the account exists.
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "If the email is registered, an OTP has been sent."})
}

func (h *PasswordResetHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	verificationToken, err := h.svc.Verify(r.Context(), req.Email, req.OTP)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyOTPEnvelope{
		Message:           "OTP verified successfully",
		VerificationToken: verificationToken,
	})
}

func (h *PasswordResetHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.Reset(r.Context(), req.Email, req.Password, req.VerificationToken); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password reset successfully"})
}

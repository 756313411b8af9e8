package handlers

import (
	"log/slog"
	"net/http"

	"github.com/mmynk/spendwise/internal/http/respond"
	"github.com/mmynk/spendwise/internal/service"
)

// AuthHandler owns the signup and login endpoints.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/signup", h.handleSignup)
	mux.HandleFunc("POST /auth/login", h.handleLogin)
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	respond.JSON(w, http.StatusCreated, signupResponse{
		Message: "User created successfully",
		UserID:  user.ID,
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Email
	}

	result, err := h.svc.Login(r.Context(), identifier, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, loginResponse{
		Token:    result.Token,
		UserID:   result.User.ID,
		Username: result.User.Username,
		Email:    result.User.Email,
	})
}

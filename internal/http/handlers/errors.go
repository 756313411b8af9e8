package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mmynk/spendwise/internal/auth"
	"github.com/mmynk/spendwise/internal/http/respond"
	"github.com/mmynk/spendwise/internal/service"
	"github.com/mmynk/spendwise/internal/storage"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into dst. It writes a 400 response and
// returns false when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.ErrorDetails(w, http.StatusBadRequest, "Invalid JSON payload", err.Error())
		return false
	}
	return true
}

// writeError maps service and storage errors to HTTP responses.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		validationErr *service.ValidationError
		duplicateErr  *storage.DuplicateError
	)

	switch {
	case errors.As(err, &validationErr):
		respond.ErrorDetails(w, http.StatusBadRequest, validationErr.Error(), validationErr.Field)
	case errors.As(err, &duplicateErr):
		respond.Error(w, http.StatusBadRequest,
			fmt.Sprintf("The %s %q is already in use. Please choose another.", duplicateErr.Field, duplicateErr.Value))
	case errors.Is(err, auth.ErrInvalidCredentials):
		respond.Error(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, service.ErrExpenseNotFound):
		respond.Error(w, http.StatusNotFound, "Expense not found")
	case errors.Is(err, service.ErrUserNotFound):
		respond.Error(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrShareManaged):
		respond.Error(w, http.StatusForbidden, err.Error())
	default:
		logger.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		respond.ErrorDetails(w, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}

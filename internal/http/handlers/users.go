package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mmynk/spendwise/internal/http/respond"
	"github.com/mmynk/spendwise/internal/middleware"
	"github.com/mmynk/spendwise/internal/service"
)

// UserHandler owns the budget and user search endpoints.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler constructs the handler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// Register attaches user routes to the mux behind requireAuth.
func (h *UserHandler) Register(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	mux.Handle("GET /users/budget", requireAuth(http.HandlerFunc(h.handleGetBudget)))
	mux.Handle("PUT /users/budget", requireAuth(http.HandlerFunc(h.handleSetBudget)))
	mux.Handle("GET /users/search", requireAuth(http.HandlerFunc(h.handleSearch)))
}

func (h *UserHandler) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	budget, err := h.svc.GetBudget(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, budgetResponse{Budget: budget.Budget, Username: budget.Username})
}

func (h *UserHandler) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// Only a JSON number is accepted; "100" and null are rejected.
	raw := bytes.TrimSpace(req.Budget)
	var budget float64
	if len(raw) == 0 || !(raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')) || json.Unmarshal(raw, &budget) != nil {
		respond.ErrorDetails(w, http.StatusBadRequest, "Budget must be a non-negative number", "budget")
		return
	}

	if err := h.svc.SetBudget(r.Context(), middleware.GetUserID(r.Context()), budget); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, budgetResponse{Budget: budget, Message: "Budget updated successfully"})
}

func (h *UserHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.SearchUsers(r.Context(), r.URL.Query().Get("query"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, users)
}

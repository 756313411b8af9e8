package handlers

import (
	"log/slog"
	"net/http"

	"github.com/mmynk/spendwise/internal/http/respond"
	"github.com/mmynk/spendwise/internal/middleware"
	"github.com/mmynk/spendwise/internal/service"
)

// ExpenseHandler owns the /expenses endpoints. Every route requires an
// authenticated user.
type ExpenseHandler struct {
	svc    *service.ExpenseService
	logger *slog.Logger
}

// NewExpenseHandler constructs the handler.
func NewExpenseHandler(svc *service.ExpenseService, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{svc: svc, logger: logger}
}

// Register attaches expense routes to the mux behind requireAuth.
func (h *ExpenseHandler) Register(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	mux.Handle("GET /expenses", requireAuth(http.HandlerFunc(h.handleList)))
	mux.Handle("POST /expenses", requireAuth(http.HandlerFunc(h.handleCreate)))
	mux.Handle("GET /expenses/summary", requireAuth(http.HandlerFunc(h.handleSummary)))
	mux.Handle("PUT /expenses/{id}", requireAuth(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("DELETE /expenses/{id}", requireAuth(http.HandlerFunc(h.handleDelete)))
}

func (h *ExpenseHandler) handleList(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.svc.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		resp = append(resp, toExpenseResponse(e))
	}
	respond.JSON(w, http.StatusOK, resp)
}

func (h *ExpenseHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	expense, err := h.svc.Create(r.Context(), middleware.GetUserID(r.Context()), service.CreateExpenseInput{
		Description:    req.Description,
		Amount:         req.Amount,
		Category:       req.Category,
		Date:           req.Date,
		SplitWithUsers: req.SplitWithUsers,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toExpenseResponse(expense))
}

func (h *ExpenseHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	expense, err := h.svc.Update(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"), service.UpdateExpenseInput{
		Description:    req.Description,
		Amount:         req.Amount,
		Category:       req.Category,
		Date:           req.Date,
		SplitWithUsers: req.SplitWithUsers,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (h *ExpenseHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.Message(w, http.StatusOK, "Expense deleted successfully")
}

func (h *ExpenseHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context(), middleware.GetUserID(r.Context()), r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, toSummaryResponse(summary))
}

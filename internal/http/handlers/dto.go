package handlers

import (
	"encoding/json"
	"time"

	"github.com/mmynk/spendwise/internal/calculator"
	"github.com/mmynk/spendwise/internal/models"
	"github.com/mmynk/spendwise/internal/service"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// loginRequest accepts either identifier (username or email) or the older
// email field.
type loginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type createExpenseRequest struct {
	Description    string   `json:"description"`
	Amount         float64  `json:"amount"`
	Category       string   `json:"category"`
	Date           string   `json:"date"`
	SplitWithUsers []string `json:"splitWithUsers"`
}

type updateExpenseRequest struct {
	Description    *string  `json:"description"`
	Amount         *float64 `json:"amount"`
	Category       *string  `json:"category"`
	Date           *string  `json:"date"`
	SplitWithUsers []string `json:"splitWithUsers"`
}

type expenseResponse struct {
	ID                 string           `json:"id"`
	Description        string           `json:"description"`
	DisplayDescription string           `json:"displayDescription"`
	Amount             float64          `json:"amount"`
	Category           string           `json:"category"`
	Date               string           `json:"date"`
	UserID             string           `json:"userId"`
	SplitGroupID       *string          `json:"splitGroupId"`
	IsSplitCreator     bool             `json:"isSplitCreator"`
	SplitUsers         []models.UserRef `json:"splitUsers"`
	SplitCreator       *models.UserRef  `json:"splitCreator"`
	CreatedAt          string           `json:"createdAt"`
	UpdatedAt          string           `json:"updatedAt"`
}

func toExpenseResponse(d *service.ExpenseDetails) expenseResponse {
	resp := expenseResponse{
		ID:                 d.ID,
		Description:        d.Description,
		DisplayDescription: d.DisplayDescription,
		Amount:             d.Amount,
		Category:           d.Category,
		Date:               d.Date.Format(models.DateLayout),
		UserID:             d.OwnerID,
		IsSplitCreator:     d.IsSplitCreator,
		SplitUsers:         d.Participants,
		SplitCreator:       d.SplitCreator,
		CreatedAt:          formatUnix(d.CreatedAt),
		UpdatedAt:          formatUnix(d.UpdatedAt),
	}
	if d.SplitGroupID != "" {
		groupID := d.SplitGroupID
		resp.SplitGroupID = &groupID
	}
	if resp.SplitUsers == nil {
		resp.SplitUsers = []models.UserRef{}
	}
	return resp
}

func formatUnix(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

type budgetRequest struct {
	Budget json.RawMessage `json:"budget"`
}

type budgetResponse struct {
	Budget   float64 `json:"budget"`
	Username string  `json:"username,omitempty"`
	Message  string  `json:"message,omitempty"`
}

type categoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

type summaryResponse struct {
	Month      string          `json:"month"`
	Total      float64         `json:"total"`
	Budget     float64         `json:"budget"`
	Remaining  float64         `json:"remaining"`
	OverBudget bool            `json:"overBudget"`
	ByCategory []categoryTotal `json:"byCategory"`
}

func toSummaryResponse(s *calculator.MonthSummary) summaryResponse {
	categories := make([]categoryTotal, 0, len(s.ByCategory))
	for _, c := range s.ByCategory {
		categories = append(categories, categoryTotal{Category: c.Category, Total: c.Total})
	}
	return summaryResponse{
		Month:      s.Month,
		Total:      s.Total,
		Budget:     s.Budget,
		Remaining:  s.Remaining,
		OverBudget: s.OverBudget,
		ByCategory: categories,
	}
}

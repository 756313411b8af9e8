package calculator

import (
	"fmt"
	"sort"
	"time"

	"github.com/mmynk/spendwise/internal/models"
)

// MonthLayout is the format of a calendar month, e.g. "2026-10".
const MonthLayout = "2006-01"

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	Category string
	Total    float64
}

// MonthSummary represents one user's spending for a calendar month measured
// against their budget.
type MonthSummary struct {
	Month      string
	Total      float64
	Budget     float64
	Remaining  float64 // Negative when the budget is exceeded
	OverBudget bool
	ByCategory []CategoryTotal // Sorted by total, largest first
}

// ParseMonth parses a "YYYY-MM" string into the first day of that month (UTC).
// An empty string yields the month containing now.
func ParseMonth(value string, now time.Time) (time.Time, error) {
	if value == "" {
		y, m, _ := now.UTC().Date()
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC), nil
	}
	month, err := time.Parse(MonthLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("month must use the YYYY-MM format: %q", value)
	}
	return month, nil
}

// SummarizeMonth totals the expenses dated inside month and compares them
// with budget. Every record counts against its owner at face value: creator
// records at the full amount, share records at the share amount.
//
// Algorithm:
//   - keep expenses with month <= date < month+1
//   - sum per category and overall
//   - remaining = budget - total
func SummarizeMonth(expenses []*models.Expense, month time.Time, budget float64) MonthSummary {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	byCategory := make(map[string]float64)
	var total float64
	for _, e := range expenses {
		if e.Date.Before(start) || !e.Date.Before(end) {
			continue
		}
		total += e.Amount
		byCategory[e.Category] += e.Amount
	}

	categories := make([]CategoryTotal, 0, len(byCategory))
	for category, amount := range byCategory {
		categories = append(categories, CategoryTotal{Category: category, Total: amount})
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Total != categories[j].Total {
			return categories[i].Total > categories[j].Total
		}
		return categories[i].Category < categories[j].Category
	})

	remaining := budget - total
	return MonthSummary{
		Month:      start.Format(MonthLayout),
		Total:      total,
		Budget:     budget,
		Remaining:  remaining,
		OverBudget: budget > 0 && remaining < 0,
		ByCategory: categories,
	}
}

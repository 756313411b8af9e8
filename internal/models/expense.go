package models

import "time"

// DateLayout is the calendar-date format used for Expense.Date on the wire
// and in storage.
const DateLayout = "2006-01-02"

// Expense represents one spending record counted against its owner.
//
// A standalone expense has an empty SplitGroupID. Within a split group
// exactly one record has IsSplitCreator set; it holds the full amount and
// the ordered participant list. The remaining records are shares owned by
// the participants.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Description is the text entered by the user, without annotations.
	Description string

	// Amount is the amount counted against OwnerID. Always positive.
	Amount float64

	// Category is a free-form label such as "Food" or "Travel".
	Category string

	// Date is the calendar date of the expense at UTC midnight.
	Date time.Time

	// OwnerID is the user whose spending this record counts against.
	OwnerID string

	// SplitGroupID links all records produced by one split. Empty when
	// the expense is not split.
	SplitGroupID string

	// IsSplitCreator marks the payer's full-amount record in a split group.
	IsSplitCreator bool

	// SplitUsers lists the participant user IDs in the order they were
	// given. Only populated on the creator record.
	SplitUsers []string

	// CreatedAt is the Unix timestamp when the record was inserted.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last write to the record.
	UpdatedAt int64
}

// IsSplit reports whether the expense belongs to a split group.
func (e *Expense) IsSplit() bool {
	return e.SplitGroupID != ""
}

// IsShare reports whether the expense is a derived share record.
func (e *Expense) IsShare() bool {
	return e.SplitGroupID != "" && !e.IsSplitCreator
}

// ClearSplit turns the record into a standalone expense.
func (e *Expense) ClearSplit() {
	e.SplitGroupID = ""
	e.IsSplitCreator = false
	e.SplitUsers = nil
}

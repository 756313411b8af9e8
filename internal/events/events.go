// Package events publishes split lifecycle notifications after the store
// transaction that produced them has committed.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Type names a split lifecycle transition.
type Type string

const (
	SplitCreated   Type = "split.created"
	SplitUpdated   Type = "split.updated"
	SplitDissolved Type = "split.dissolved"
	SplitDeleted   Type = "split.deleted"
)

// Event describes one committed change to a split group.
type Event struct {
	Type         Type      `json:"type"`
	GroupID      string    `json:"groupId"`
	ExpenseID    string    `json:"expenseId"`
	CreatorID    string    `json:"creatorId"`
	Participants []string  `json:"participants,omitempty"`
	Amount       float64   `json:"amount"`
	ShareAmount  float64   `json:"shareAmount,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// RoutingKey is the topic routing key the event is published under.
func (e Event) RoutingKey() string {
	return "expense." + string(e.Type)
}

// Marshal encodes the event as JSON.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events to interested parties. Delivery is best-effort:
// callers log a failed publish and carry on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

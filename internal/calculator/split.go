package calculator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/spendwise/internal/models"
)

// UnknownUser is shown in place of a participant name that cannot be resolved.
const UnknownUser = "Unknown user"

var (
	// ErrSelfSplit is returned when the owner lists themselves as a participant.
	ErrSelfSplit = errors.New("cannot split an expense with yourself")
)

// NormalizeParticipants trims and de-duplicates participant IDs while
// preserving the order in which they were first given. Empty entries are
// dropped. The owner may not appear in the list.
func NormalizeParticipants(ownerID string, participantIDs []string) ([]string, error) {
	if len(participantIDs) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool, len(participantIDs))
	out := make([]string, 0, len(participantIDs))
	for _, id := range participantIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		if id == ownerID {
			return nil, ErrSelfSplit
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// TotalPeople returns the number of people sharing a split: every participant
// plus the creator.
func TotalPeople(participants int) int {
	return participants + 1
}

// ShareAmount computes one participant's share of total when it is split
// evenly between the creator and the given number of participants.
// Plain float division; no rounding correction is applied.
func ShareAmount(total float64, participants int) float64 {
	return total / float64(TotalPeople(participants))
}

// BuildShares derives one share record per participant of creator.
// The creator must already carry its split group ID and participant list.
func BuildShares(creator *models.Expense) ([]*models.Expense, error) {
	if !creator.IsSplitCreator || creator.SplitGroupID == "" {
		return nil, fmt.Errorf("expense %s is not a split creator", creator.ID)
	}
	if len(creator.SplitUsers) == 0 {
		return nil, fmt.Errorf("split creator %s has no participants", creator.ID)
	}

	amount := ShareAmount(creator.Amount, len(creator.SplitUsers))
	shares := make([]*models.Expense, 0, len(creator.SplitUsers))
	for _, participant := range creator.SplitUsers {
		shares = append(shares, &models.Expense{
			Description:  creator.Description,
			Amount:       amount,
			Category:     creator.Category,
			Date:         creator.Date,
			OwnerID:      participant,
			SplitGroupID: creator.SplitGroupID,
		})
	}
	return shares, nil
}

// DescribeCreator annotates a creator's description with the names of the
// people it was split with.
func DescribeCreator(description string, names []string) string {
	if len(names) == 0 {
		return description
	}
	return fmt.Sprintf("%s (Split with %s)", description, joinNames(names))
}

// DescribeShare annotates a share's description with the name of the
// person who created the split.
func DescribeShare(description, creatorName string) string {
	if creatorName == "" {
		creatorName = UnknownUser
	}
	return fmt.Sprintf("%s (Split by %s)", description, creatorName)
}

func joinNames(names []string) string {
	cleaned := make([]string, len(names))
	for i, name := range names {
		if name == "" {
			name = UnknownUser
		}
		cleaned[i] = name
	}
	return strings.Join(cleaned, ", ")
}

package service

import (
	"context"
	"fmt"

	"github.com/mmynk/spendwise/internal/calculator"
	"github.com/mmynk/spendwise/internal/models"
)

func (s *ExpenseService) describe(ctx context.Context, expense *models.Expense) (*ExpenseDetails, error) {
	details, err := s.describeAll(ctx, []*models.Expense{expense})
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

// describeAll resolves participant and creator names for display. Names are
// looked up at read time so renamed or missing users never leave stale text
// in storage; unresolved names fall back to calculator.UnknownUser.
func (s *ExpenseService) describeAll(ctx context.Context, expenses []*models.Expense) ([]*ExpenseDetails, error) {
	var groupIDs []string
	for _, e := range expenses {
		if e.IsShare() {
			groupIDs = append(groupIDs, e.SplitGroupID)
		}
	}

	creators := map[string]*models.Expense{}
	if len(groupIDs) > 0 {
		var err error
		creators, err = s.store.GetSplitCreators(ctx, groupIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load split creators: %w", err)
		}
	}

	userIDs := make([]string, 0)
	seen := make(map[string]bool)
	addUser := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			userIDs = append(userIDs, id)
		}
	}
	for _, e := range expenses {
		for _, id := range e.SplitUsers {
			addUser(id)
		}
	}
	for _, creator := range creators {
		addUser(creator.OwnerID)
	}

	users := map[string]*models.User{}
	if len(userIDs) > 0 {
		var err error
		users, err = s.store.GetUsersByIDs(ctx, userIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load users: %w", err)
		}
	}

	details := make([]*ExpenseDetails, 0, len(expenses))
	for _, e := range expenses {
		d := &ExpenseDetails{Expense: e, DisplayDescription: e.Description}

		switch {
		case e.IsSplitCreator:
			names := make([]string, 0, len(e.SplitUsers))
			d.Participants = make([]models.UserRef, 0, len(e.SplitUsers))
			for _, id := range e.SplitUsers {
				ref := models.UserRef{ID: id, Username: calculator.UnknownUser}
				if u, ok := users[id]; ok {
					ref = u.Ref()
				}
				d.Participants = append(d.Participants, ref)
				names = append(names, ref.Username)
			}
			d.DisplayDescription = calculator.DescribeCreator(e.Description, names)

		case e.IsShare():
			var creatorName string
			if creator, ok := creators[e.SplitGroupID]; ok {
				ref := models.UserRef{ID: creator.OwnerID, Username: calculator.UnknownUser}
				if u, ok := users[creator.OwnerID]; ok {
					ref = u.Ref()
				}
				d.SplitCreator = &ref
				creatorName = ref.Username
			}
			d.DisplayDescription = calculator.DescribeShare(e.Description, creatorName)
		}

		details = append(details, d)
	}
	return details, nil
}

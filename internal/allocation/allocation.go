// Package allocation splits a funding goal across milestones.
package allocation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
)

// ErrShareNotPositive is returned when goal/n underflows to zero
var ErrShareNotPositive = errors.New("milestone share must be positive")

// EqualSplit gives every milestone the same share, goal/n, at decimal division precision.
// There is no remainder redistribution: for goals that do not divide evenly the shares may
// sum to slightly less than goal.
func EqualSplit(goal models.Money, n int) ([]models.Money, error) {
	if n < 1 {
		return nil, fmt.Errorf("milestone count %d: at least one is required", n)
	}
	if !goal.IsPositive() {
		return nil, fmt.Errorf("goal %s: must be positive", goal.String())
	}

	share := goal.Decimal.Div(decimal.NewFromInt(int64(n)))
	if !share.IsPositive() {
		return nil, fmt.Errorf("%w: %s split %d ways", ErrShareNotPositive, goal.String(), n)
	}

	shares := make([]models.Money, n)
	for i := range shares {
		shares[i] = models.NewMoney(share)
	}
	return shares, nil
}

// Milestones builds the persisted milestones from the submission with amounts allocated
func Milestones(goal models.Money, subs []models.MilestoneSubmission) ([]models.Milestone, error) {
	shares, err := EqualSplit(goal, len(subs))
	if err != nil {
		return nil, err
	}
	out := make([]models.Milestone, len(subs))
	for i, m := range subs {
		out[i] = models.Milestone{
			Title:       m.Title,
			Description: m.Description,
			Amount:      shares[i],
			StartDate:   m.StartDate,
			DueDate:     m.EndDate,
			Status:      models.MilestoneStatusPending,
		}
	}
	return out, nil
}

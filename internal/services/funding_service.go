package services

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/internal/txn"
	"github.com/ArowuTest/crowdfund-backend/internal/validation"
)

// FundRequest is a contribution to apply. ExternalTxRef is accepted as given; settlement is not verified here.
type FundRequest struct {
	ProjectID     primitive.ObjectID
	ContributorID primitive.ObjectID
	Amount        models.Money
	ExternalTxRef string
}

// FundingResult is the ledger state after a contribution
type FundingResult struct {
	ProjectID     primitive.ObjectID   `json:"projectId"`
	Raised        models.Money         `json:"raised"`
	Goal          models.Money         `json:"goal"`
	FullyFunded   bool                 `json:"fullyFunded"`
	RemainingGoal models.Money         `json:"remainingGoal"`
	Status        models.ProjectStatus `json:"status"`
}

// FundingProcessor implements FundingService
type FundingProcessor struct {
	ledger
}

var _ FundingService = (*FundingProcessor)(nil)

// NewFundingProcessor creates a new FundingProcessor
func NewFundingProcessor(deps Dependencies) *FundingProcessor {
	return &FundingProcessor{ledger: newLedger(deps, "funding")}
}

// FundProject appends a contribution, moves raised, and updates both users' stats in one unit.
// Crossing the goal completes the project. Replaying a reference counts it again unless
// Policy.RejectDuplicateTxRef is set.
func (s *FundingProcessor) FundProject(ctx context.Context, req FundRequest) (*FundingResult, error) {
	if !req.Amount.IsPositive() {
		return nil, validation.Invalid("amount", "must be a positive amount")
	}
	if strings.TrimSpace(req.ExternalTxRef) == "" {
		return nil, validation.Invalid("externalTxRef", "is required")
	}

	var creatorID primitive.ObjectID
	result, err := txn.Run(ctx, s.coordinator, "FundProject", func(ctx context.Context) (*FundingResult, error) {
		project, err := s.store.Projects.FindByID(ctx, req.ProjectID)
		if err != nil {
			return nil, notFound(err, ErrProjectNotFound)
		}
		now := s.now()

		if project.FullyFunded() {
			return nil, ErrGoalAlreadyMet
		}
		if !project.Status.Allows(models.EventFund) {
			return nil, wrongStatus(project.Status, "fund")
		}
		if now.After(project.Funding.EndDate) {
			return nil, ErrFundingClosed
		}
		if s.policy.RejectDuplicateTxRef && project.HasTxRef(req.ExternalTxRef) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTxRef, req.ExternalTxRef)
		}

		raised := project.Funding.Raised.Add(req.Amount)
		next := project.Status
		if raised.GTE(project.Funding.Goal) {
			if next, err = models.Transition(project.Status, models.EventReachGoal); err != nil {
				return nil, wrongStatus(project.Status, "complete")
			}
		}

		contribution := models.Contribution{
			UserID:        req.ContributorID,
			Amount:        req.Amount,
			Timestamp:     now,
			ExternalTxRef: req.ExternalTxRef,
		}
		if err := s.store.Projects.AppendContribution(ctx, project.ID, contribution, next); err != nil {
			return nil, fmt.Errorf("append contribution: %w", err)
		}
		if err := s.store.Users.IncrementStats(ctx, req.ContributorID, models.UserStatsDelta{TotalContributed: req.Amount}); err != nil {
			return nil, notFound(err, ErrUserNotFound)
		}
		if err := s.store.Users.IncrementStats(ctx, project.CreatorID, models.UserStatsDelta{TotalRaised: req.Amount}); err != nil {
			return nil, notFound(err, ErrCreatorNotFound)
		}
		if next != project.Status {
			if err := s.store.Crowdfunds.SetStatus(ctx, project.ID, models.CrowdfundStatusFor(next)); err != nil {
				return nil, notFound(err, ErrCrowdfundNotFound)
			}
		}

		creatorID = project.CreatorID
		project.Funding.Raised = raised
		return &FundingResult{
			ProjectID:     project.ID,
			Raised:        raised,
			Goal:          project.Funding.Goal,
			FullyFunded:   project.FullyFunded(),
			RemainingGoal: project.RemainingGoal(),
			Status:        next,
		}, nil
	})
	if err != nil {
		return nil, surface(err)
	}

	s.log.Infow("contribution applied",
		"projectId", req.ProjectID.Hex(), "contributorId", req.ContributorID.Hex(),
		"amount", req.Amount.String(), "raised", result.Raised.String(), "status", result.Status)
	s.notify(ctx, models.Notification{
		Type:      models.NotificationProjectFunded,
		ProjectID: req.ProjectID,
		UserID:    creatorID,
		Subject:   "New contribution",
		Content:   fmt.Sprintf("Your project received %s.", req.Amount.String()),
		Data:      map[string]string{"amount": req.Amount.String(), "raised": result.Raised.String()},
	})
	if result.Status == models.ProjectStatusCompleted {
		s.notify(ctx, models.Notification{
			Type:      models.NotificationGoalReached,
			ProjectID: req.ProjectID,
			UserID:    creatorID,
			Subject:   "Funding goal reached",
			Content:   fmt.Sprintf("Your project reached its goal of %s.", result.Goal.String()),
		})
	}
	return result, nil
}

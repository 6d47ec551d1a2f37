package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/internal/txn"
)

// promotionBatch bounds how many projects one sweep promotes
const promotionBatch = 100

// PromotionReport summarises one promotion sweep
type PromotionReport struct {
	Candidates int                  `json:"candidates"`
	Promoted   []primitive.ObjectID `json:"promoted"`
	Failed     map[string]string    `json:"failed,omitempty"`
}

// Promoter implements PromotionService
type Promoter struct {
	ledger
}

var _ PromotionService = (*Promoter)(nil)

// NewPromoter creates a new Promoter
func NewPromoter(deps Dependencies) *Promoter {
	return &Promoter{ledger: newLedger(deps, "promotion")}
}

// PromoteProject moves a Validated project to Campaigning once its vote threshold is reached.
// Both the crowdfund tally and the recorded vote documents must meet the threshold.
func (s *Promoter) PromoteProject(ctx context.Context, projectID primitive.ObjectID) (*ProjectDetails, error) {
	result, err := s.advance(ctx, "PromoteProject", projectID, models.EventPromote, func(ctx context.Context, cf *models.Crowdfund) error {
		if !cf.ThresholdReached() {
			return fmt.Errorf("%w: %d of %d votes", ErrThresholdNotReached, cf.TotalVotes, cf.ThresholdVotes)
		}
		recorded, err := s.store.Votes.CountByProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("count votes: %w", err)
		}
		if recorded < cf.ThresholdVotes {
			s.log.Warnw("vote tally ahead of recorded votes",
				"projectId", projectID.Hex(), "tally", cf.TotalVotes, "recorded", recorded)
			return fmt.Errorf("%w: %d recorded votes of %d", ErrThresholdNotReached, recorded, cf.ThresholdVotes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("project promoted", "projectId", projectID.Hex(), "totalVotes", result.Crowdfund.TotalVotes)
	s.notify(ctx, models.Notification{
		Type:      models.NotificationProjectPromoted,
		ProjectID: projectID,
		UserID:    result.Project.CreatorID,
		Subject:   "Campaign started",
		Content:   fmt.Sprintf("Your project %q reached its vote threshold and is now campaigning.", result.Project.Title),
	})
	return result, nil
}

// LaunchProject moves a Campaigning project to Live
func (s *Promoter) LaunchProject(ctx context.Context, projectID primitive.ObjectID) (*ProjectDetails, error) {
	result, err := s.advance(ctx, "LaunchProject", projectID, models.EventLaunch, nil)
	if err != nil {
		return nil, err
	}
	s.log.Infow("project launched", "projectId", projectID.Hex())
	return result, nil
}

// PromoteEligible promotes every eligible project. A failure on one project is logged and
// recorded in the report without stopping the sweep.
func (s *Promoter) PromoteEligible(ctx context.Context) (*PromotionReport, error) {
	candidates, err := s.store.Crowdfunds.FindPromotable(ctx, promotionBatch)
	if err != nil {
		return nil, surface(err)
	}

	report := &PromotionReport{
		Candidates: len(candidates),
		Promoted:   []primitive.ObjectID{},
	}
	for _, cf := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, err := s.PromoteProject(ctx, cf.ProjectID); err != nil {
			s.log.Warnw("promotion failed", "projectId", cf.ProjectID.Hex(), "error", err)
			if report.Failed == nil {
				report.Failed = make(map[string]string)
			}
			report.Failed[cf.ProjectID.Hex()] = err.Error()
			continue
		}
		report.Promoted = append(report.Promoted, cf.ProjectID)
	}
	if report.Candidates > 0 {
		s.log.Infow("promotion sweep finished",
			"candidates", report.Candidates, "promoted", len(report.Promoted), "failed", len(report.Failed))
	}
	return report, nil
}

// advance applies ev to the project and mirrors the new status onto its crowdfund record
func (s *Promoter) advance(ctx context.Context, name string, projectID primitive.ObjectID, ev models.ProjectEvent, guard func(context.Context, *models.Crowdfund) error) (*ProjectDetails, error) {
	result, err := txn.Run(ctx, s.coordinator, name, func(ctx context.Context) (*ProjectDetails, error) {
		project, err := s.store.Projects.FindByID(ctx, projectID)
		if err != nil {
			return nil, notFound(err, ErrProjectNotFound)
		}
		crowdfund, err := s.store.Crowdfunds.FindByProjectID(ctx, projectID)
		if err != nil {
			return nil, notFound(err, ErrCrowdfundNotFound)
		}
		next, err := models.Transition(project.Status, ev)
		if err != nil {
			return nil, wrongStatus(project.Status, string(ev))
		}
		if guard != nil {
			if err := guard(ctx, crowdfund); err != nil {
				return nil, err
			}
		}

		now := s.now()
		project.Status = next
		project.UpdatedAt = now
		crowdfund.Status = models.CrowdfundStatusFor(next)
		crowdfund.UpdatedAt = now

		if err := s.store.Projects.Update(ctx, project); err != nil {
			return nil, fmt.Errorf("update project: %w", err)
		}
		if err := s.store.Crowdfunds.Update(ctx, crowdfund); err != nil {
			return nil, fmt.Errorf("update crowdfund record: %w", err)
		}
		return &ProjectDetails{Project: project, Crowdfund: crowdfund}, nil
	})
	return result, surface(err)
}

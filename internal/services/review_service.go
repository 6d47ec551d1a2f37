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

// ReviewAction is the admin decision on a project in review
type ReviewAction string

const (
	ReviewApprove ReviewAction = "approve"
	ReviewReject  ReviewAction = "reject"
)

// DefaultRejectedReason is stored when a rejection carries no note
const DefaultRejectedReason = "Rejected by admin review"

// ReviewRequest is an admin decision
type ReviewRequest struct {
	ProjectID primitive.ObjectID
	AdminID   primitive.ObjectID
	Action    ReviewAction
	Note      string
}

// ReviewGate implements ReviewService
type ReviewGate struct {
	ledger
}

var _ ReviewService = (*ReviewGate)(nil)

// NewReviewGate creates a new ReviewGate
func NewReviewGate(deps Dependencies) *ReviewGate {
	return &ReviewGate{ledger: newLedger(deps, "review")}
}

// AdminReview approves or rejects a project that is in Reviewing. Any other source status
// fails, so a second review of the same project is reported instead of ignored.
func (s *ReviewGate) AdminReview(ctx context.Context, req ReviewRequest) (*ProjectDetails, error) {
	var event models.ProjectEvent
	switch req.Action {
	case ReviewApprove:
		event = models.EventApprove
	case ReviewReject:
		event = models.EventReject
	default:
		return nil, validation.Invalid("action", "must be %s or %s", ReviewApprove, ReviewReject)
	}
	note := strings.TrimSpace(req.Note)

	result, err := txn.Run(ctx, s.coordinator, "AdminReview", func(ctx context.Context) (*ProjectDetails, error) {
		project, err := s.store.Projects.FindByID(ctx, req.ProjectID)
		if err != nil {
			return nil, notFound(err, ErrProjectNotFound)
		}
		crowdfund, err := s.store.Crowdfunds.FindByProjectID(ctx, req.ProjectID)
		if err != nil {
			return nil, notFound(err, ErrCrowdfundNotFound)
		}
		next, err := models.Transition(project.Status, event)
		if err != nil {
			return nil, wrongStatus(project.Status, string(req.Action))
		}

		now := s.now()
		adminID := req.AdminID
		project.Status = next
		project.ApprovedBy = &adminID
		project.ApprovedAt = &now
		project.AdminNote = note
		project.UpdatedAt = now

		crowdfund.Status = models.CrowdfundStatusFor(next)
		crowdfund.ReviewedBy = &adminID
		crowdfund.ReviewedAt = &now
		crowdfund.UpdatedAt = now
		if req.Action == ReviewApprove {
			crowdfund.VoteDeadline = crowdfund.VoteDeadline.Add(s.policy.VotingPeriod)
			project.Voting.EndDate = crowdfund.VoteDeadline
		} else {
			crowdfund.RejectedReason = note
			if crowdfund.RejectedReason == "" {
				crowdfund.RejectedReason = DefaultRejectedReason
			}
		}

		if err := s.store.Projects.Update(ctx, project); err != nil {
			return nil, fmt.Errorf("update project: %w", err)
		}
		if err := s.store.Crowdfunds.Update(ctx, crowdfund); err != nil {
			return nil, fmt.Errorf("update crowdfund record: %w", err)
		}
		return &ProjectDetails{Project: project, Crowdfund: crowdfund}, nil
	})
	if err != nil {
		return nil, surface(err)
	}

	s.log.Infow("project reviewed",
		"projectId", req.ProjectID.Hex(), "adminId", req.AdminID.Hex(), "action", req.Action, "status", result.Project.Status)
	s.notify(ctx, models.Notification{
		Type:      models.NotificationProjectReviewed,
		ProjectID: req.ProjectID,
		UserID:    result.Project.CreatorID,
		Subject:   "Project reviewed",
		Content:   fmt.Sprintf("Your project %q is now %s.", result.Project.Title, result.Project.Status),
		Data:      map[string]string{"action": string(req.Action), "note": note},
	})
	return result, nil
}

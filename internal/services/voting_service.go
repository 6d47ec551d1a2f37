package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/internal/repositories"
	"github.com/ArowuTest/crowdfund-backend/internal/txn"
	"github.com/ArowuTest/crowdfund-backend/internal/validation"
)

// VoteRequest is one user's vote on a project
type VoteRequest struct {
	ProjectID primitive.ObjectID
	VoterID   primitive.ObjectID
	Direction models.VoteDirection
}

// VoteResult holds the tallies after a vote
type VoteResult struct {
	ProjectID        primitive.ObjectID `json:"projectId"`
	TotalVotes       int64              `json:"totalVotes"`
	PositiveVotes    int64              `json:"positiveVotes"`
	NegativeVotes    int64              `json:"negativeVotes"`
	ThresholdVotes   int64              `json:"thresholdVotes"`
	ThresholdReached bool               `json:"thresholdReached"`
}

// VotingEngine implements VotingService
type VotingEngine struct {
	ledger
}

var _ VotingService = (*VotingEngine)(nil)

// NewVotingEngine creates a new VotingEngine
func NewVotingEngine(deps Dependencies) *VotingEngine {
	return &VotingEngine{ledger: newLedger(deps, "voting")}
}

// VoteOnProject records a vote and bumps the tallies on the project and its crowdfund record.
// It reports when the threshold is reached; promotion itself is left to PromotionService.
func (s *VotingEngine) VoteOnProject(ctx context.Context, req VoteRequest) (*VoteResult, error) {
	if !req.Direction.Valid() {
		return nil, validation.Invalid("direction", "must be %s or %s", models.VotePositive, models.VoteNegative)
	}

	result, err := txn.Run(ctx, s.coordinator, "VoteOnProject", func(ctx context.Context) (*VoteResult, error) {
		project, err := s.store.Projects.FindByID(ctx, req.ProjectID)
		if err != nil {
			return nil, notFound(err, ErrProjectNotFound)
		}
		crowdfund, err := s.store.Crowdfunds.FindByProjectID(ctx, req.ProjectID)
		if err != nil {
			return nil, notFound(err, ErrCrowdfundNotFound)
		}

		now := s.now()
		if !project.Status.Allows(models.EventVote) {
			return nil, fmt.Errorf("%w: project is %s", ErrVotingClosed, project.Status)
		}
		if now.Before(project.Voting.StartDate) || now.After(crowdfund.VoteDeadline) {
			return nil, ErrVotingClosed
		}
		if project.HasVoted(req.VoterID) {
			return nil, ErrDuplicateVote
		}

		vote := models.Vote{
			ProjectID: project.ID,
			UserID:    req.VoterID,
			Direction: req.Direction,
			Timestamp: now,
		}
		// The unique (projectId, userId) index closes the race the check above leaves open
		if err := s.store.Votes.Create(ctx, &vote); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return nil, ErrDuplicateVote
			}
			return nil, fmt.Errorf("record vote: %w", err)
		}
		if err := s.store.Projects.AppendVote(ctx, project.ID, vote); err != nil {
			return nil, fmt.Errorf("append vote: %w", err)
		}
		if err := s.store.Crowdfunds.IncrementVotes(ctx, project.ID, req.Direction); err != nil {
			return nil, notFound(err, ErrCrowdfundNotFound)
		}

		crowdfund.TotalVotes++
		if req.Direction == models.VotePositive {
			crowdfund.PositiveVotes++
		} else {
			crowdfund.NegativeVotes++
		}
		return &VoteResult{
			ProjectID:        project.ID,
			TotalVotes:       crowdfund.TotalVotes,
			PositiveVotes:    crowdfund.PositiveVotes,
			NegativeVotes:    crowdfund.NegativeVotes,
			ThresholdVotes:   crowdfund.ThresholdVotes,
			ThresholdReached: crowdfund.ThresholdReached(),
		}, nil
	})
	if err != nil {
		return nil, surface(err)
	}

	if result.ThresholdReached {
		s.log.Infow("vote threshold reached", "projectId", req.ProjectID.Hex(),
			"totalVotes", result.TotalVotes, "threshold", result.ThresholdVotes)
	}
	return result, nil
}

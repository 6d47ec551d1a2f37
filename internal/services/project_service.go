package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ArowuTest/crowdfund-backend/internal/allocation"
	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/internal/txn"
	"github.com/ArowuTest/crowdfund-backend/internal/validation"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// ProjectManager implements ProjectService
type ProjectManager struct {
	ledger
}

var _ ProjectService = (*ProjectManager)(nil)

// NewProjectManager creates a new ProjectManager
func NewProjectManager(deps Dependencies) *ProjectManager {
	return &ProjectManager{ledger: newLedger(deps, "projects")}
}

// CreateProject runs the validation gate and milestone allocation before opening a transaction,
// so a rejected submission never touches storage.
func (s *ProjectManager) CreateProject(ctx context.Context, creatorID primitive.ObjectID, sub *models.ProjectSubmission) (*ProjectDetails, error) {
	if err := validation.Submission(sub); err != nil {
		return nil, err
	}
	milestones, err := allocation.Milestones(sub.FundingAmount, sub.Milestones)
	if err != nil {
		return nil, validation.Invalid("milestones", "%v", err)
	}

	result, err := txn.Run(ctx, s.coordinator, "CreateProject", func(ctx context.Context) (*ProjectDetails, error) {
		if _, err := s.store.Users.FindByID(ctx, creatorID); err != nil {
			return nil, notFound(err, ErrCreatorNotFound)
		}

		now := s.now()
		project := s.newProject(creatorID, sub, milestones)
		project.CreatedAt = now
		project.UpdatedAt = now

		var crowdfund *models.Crowdfund
		if sub.Draft {
			project.Status = models.ProjectStatusIdea
		} else {
			project.Status = models.ProjectStatusReviewing
			crowdfund = s.openWindows(project, now)
		}

		if err := s.store.Projects.Create(ctx, project); err != nil {
			return nil, fmt.Errorf("create project: %w", err)
		}
		if crowdfund != nil {
			if err := s.store.Crowdfunds.Create(ctx, crowdfund); err != nil {
				return nil, fmt.Errorf("create crowdfund record: %w", err)
			}
		}
		if err := s.store.Users.IncrementStats(ctx, creatorID, models.UserStatsDelta{ProjectsCreated: 1}); err != nil {
			return nil, notFound(err, ErrCreatorNotFound)
		}
		return &ProjectDetails{Project: project, Crowdfund: crowdfund}, nil
	})
	if err != nil {
		return nil, surface(err)
	}

	s.log.Infow("project created",
		"projectId", result.Project.ID.Hex(), "creatorId", creatorID.Hex(), "status", result.Project.Status)
	s.notify(ctx, models.Notification{
		Type:      models.NotificationProjectCreated,
		ProjectID: result.Project.ID,
		UserID:    creatorID,
		Subject:   "Project created",
		Content:   fmt.Sprintf("Your project %q was created with status %s.", result.Project.Title, result.Project.Status),
	})
	s.inviteTeam(ctx, result.Project)
	return result, nil
}

// SubmitProject moves a draft into review. Only the creator may submit.
func (s *ProjectManager) SubmitProject(ctx context.Context, projectID, creatorID primitive.ObjectID) (*ProjectDetails, error) {
	result, err := txn.Run(ctx, s.coordinator, "SubmitProject", func(ctx context.Context) (*ProjectDetails, error) {
		project, err := s.store.Projects.FindByID(ctx, projectID)
		if err != nil {
			return nil, notFound(err, ErrProjectNotFound)
		}
		if project.CreatorID != creatorID {
			return nil, ErrNotCreator
		}
		next, err := models.Transition(project.Status, models.EventSubmit)
		if err != nil {
			return nil, wrongStatus(project.Status, "submit")
		}

		now := s.now()
		project.Status = next
		project.UpdatedAt = now
		crowdfund := s.openWindows(project, now)

		if err := s.store.Projects.Update(ctx, project); err != nil {
			return nil, fmt.Errorf("update project: %w", err)
		}
		if err := s.store.Crowdfunds.Create(ctx, crowdfund); err != nil {
			return nil, fmt.Errorf("create crowdfund record: %w", err)
		}
		return &ProjectDetails{Project: project, Crowdfund: crowdfund}, nil
	})
	if err != nil {
		return nil, surface(err)
	}
	s.log.Infow("project submitted for review", "projectId", projectID.Hex())
	return result, nil
}

// GetProject returns a project and its crowdfund record
func (s *ProjectManager) GetProject(ctx context.Context, projectID primitive.ObjectID) (*ProjectDetails, error) {
	details, err := s.details(ctx, projectID)
	return details, surface(err)
}

// ListProjects returns one page of projects
func (s *ProjectManager) ListProjects(ctx context.Context, status models.ProjectStatus, page, limit int) (*ProjectPage, error) {
	if status != "" && !status.Valid() {
		return nil, validation.Invalid("status", "unknown status %q", status)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	projects, err := s.store.Projects.FindAll(ctx, status, page, limit)
	if err != nil {
		return nil, surface(err)
	}
	total, err := s.store.Projects.Count(ctx, status)
	if err != nil {
		return nil, surface(err)
	}
	return &ProjectPage{Projects: projects, Total: total, Page: page, Limit: limit}, nil
}

func (s *ProjectManager) newProject(creatorID primitive.ObjectID, sub *models.ProjectSubmission, milestones []models.Milestone) *models.Project {
	currency := sub.Currency
	if currency == "" {
		currency = s.policy.Currency
	}
	return &models.Project{
		ID:              primitive.NewObjectID(),
		CreatorID:       creatorID,
		Type:            models.ProjectTypeCrowdfund,
		Title:           sub.Title,
		Vision:          sub.Vision,
		Category:        sub.Category,
		Description:     sub.Description,
		Logo:            sub.Logo,
		Contact:         sub.Contact,
		Team:            append([]models.TeamMember(nil), sub.Team...),
		SocialLinks:     append([]models.SocialLink(nil), sub.SocialLinks...),
		RepositoryLinks: append([]string(nil), sub.RepositoryLinks...),
		Website:         sub.Website,
		DemoVideo:       sub.DemoVideo,
		Funding: models.Funding{
			Goal:         sub.FundingAmount,
			Raised:       models.ZeroMoney(),
			Currency:     currency,
			Contributors: []models.Contribution{},
		},
		Voting:     models.Voting{Voters: []models.Vote{}},
		Milestones: milestones,
	}
}

// openWindows starts the voting and funding periods and builds the paired crowdfund record
func (s *ProjectManager) openWindows(project *models.Project, now time.Time) *models.Crowdfund {
	voteDeadline := now.Add(s.policy.VotingPeriod)
	project.Funding.EndDate = now.Add(s.policy.FundingPeriod)
	project.Voting.StartDate = now
	project.Voting.EndDate = voteDeadline
	return &models.Crowdfund{
		ID:             primitive.NewObjectID(),
		ProjectID:      project.ID,
		ThresholdVotes: s.policy.VoteThreshold,
		Status:         models.CrowdfundStatusFor(project.Status),
		VoteDeadline:   voteDeadline,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *ProjectManager) inviteTeam(ctx context.Context, project *models.Project) {
	if s.invitations == nil {
		return
	}
	for _, member := range project.Team {
		if _, err := s.invitations.Issue(ctx, project, member); err != nil {
			s.log.Warnw("team invitation failed",
				"projectId", project.ID.Hex(), "email", member.Email, "error", err)
		}
	}
}

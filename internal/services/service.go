package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/ArowuTest/crowdfund-backend/internal/logger"
	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/internal/repositories"
	"github.com/ArowuTest/crowdfund-backend/internal/txn"
)

// ProjectService defines the interface for project creation and reads
type ProjectService interface {
	// CreateProject validates the submission, allocates milestones and stores the project,
	// its crowdfund record and the creator's stats as one unit
	CreateProject(ctx context.Context, creatorID primitive.ObjectID, sub *models.ProjectSubmission) (*ProjectDetails, error)

	// SubmitProject moves a draft from Idea to Reviewing and opens its windows
	SubmitProject(ctx context.Context, projectID, creatorID primitive.ObjectID) (*ProjectDetails, error)

	// GetProject returns a project with its crowdfund record (nil for drafts)
	GetProject(ctx context.Context, projectID primitive.ObjectID) (*ProjectDetails, error)

	// ListProjects lists projects newest first, optionally filtered by status
	ListProjects(ctx context.Context, status models.ProjectStatus, page, limit int) (*ProjectPage, error)
}

// FundingService defines the interface for applying contributions
type FundingService interface {
	FundProject(ctx context.Context, req FundRequest) (*FundingResult, error)
}

// VotingService defines the interface for casting votes
type VotingService interface {
	VoteOnProject(ctx context.Context, req VoteRequest) (*VoteResult, error)
}

// ReviewService defines the interface for the admin review gate
type ReviewService interface {
	AdminReview(ctx context.Context, req ReviewRequest) (*ProjectDetails, error)
}

// PromotionService defines the interface for moving validated projects into their campaign
type PromotionService interface {
	// PromoteProject moves a Validated project whose vote threshold is reached to Campaigning
	PromoteProject(ctx context.Context, projectID primitive.ObjectID) (*ProjectDetails, error)

	// LaunchProject moves a Campaigning project to Live
	LaunchProject(ctx context.Context, projectID primitive.ObjectID) (*ProjectDetails, error)

	// PromoteEligible promotes every project currently eligible for promotion
	PromoteEligible(ctx context.Context) (*PromotionReport, error)
}

// InboxService reads the notifications stored for a user
type InboxService interface {
	ListNotifications(ctx context.Context, userID primitive.ObjectID, page, limit int) (*NotificationPage, error)
}

// Notifier delivers post-commit notifications
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// InvitationIssuer invites a team member to a project
type InvitationIssuer interface {
	Issue(ctx context.Context, project *models.Project, member models.TeamMember) (*models.TeamInvitation, error)
}

// ProjectDetails is a project together with its crowdfund record
type ProjectDetails struct {
	Project   *models.Project   `json:"project"`
	Crowdfund *models.Crowdfund `json:"crowdfund,omitempty"`
}

// ProjectPage is one page of a project listing
type ProjectPage struct {
	Projects []*models.Project `json:"projects"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// Policy holds the ledger's business constants
type Policy struct {
	VoteThreshold        int64
	VotingPeriod         time.Duration
	FundingPeriod        time.Duration
	Currency             string
	RejectDuplicateTxRef bool
}

// DefaultPolicy returns the production defaults
func DefaultPolicy() Policy {
	return Policy{
		VoteThreshold: 100,
		VotingPeriod:  30 * 24 * time.Hour,
		FundingPeriod: 90 * 24 * time.Hour,
		Currency:      "USD",
	}
}

// Dependencies are shared by every ledger service
type Dependencies struct {
	Store       *repositories.Store
	Coordinator *txn.Coordinator
	Policy      Policy
	Notifier    Notifier         // optional
	Invitations InvitationIssuer // optional
	Clock       func() time.Time // defaults to time.Now
	Logger      *zap.SugaredLogger
}

// ledger carries the shared dependencies and post-commit helpers
type ledger struct {
	store       *repositories.Store
	coordinator *txn.Coordinator
	policy      Policy
	notifier    Notifier
	invitations InvitationIssuer
	clock       func() time.Time
	log         *zap.SugaredLogger
}

func newLedger(deps Dependencies, component string) ledger {
	l := ledger{
		store:       deps.Store,
		coordinator: deps.Coordinator,
		policy:      deps.Policy,
		notifier:    deps.Notifier,
		invitations: deps.Invitations,
		clock:       deps.Clock,
		log:         deps.Logger,
	}
	if l.coordinator == nil {
		l.coordinator = txn.NewCoordinator(deps.Store.Tx, txn.DefaultPolicy())
	}
	if l.clock == nil {
		l.clock = time.Now
	}
	if l.log == nil {
		l.log = logger.L()
	}
	l.log = l.log.Named(component)
	return l
}

func (l ledger) now() time.Time {
	return l.clock().UTC()
}

// details loads a project and, when one exists, its crowdfund record
func (l ledger) details(ctx context.Context, projectID primitive.ObjectID) (*ProjectDetails, error) {
	project, err := l.store.Projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound)
	}
	crowdfund, err := l.store.Crowdfunds.FindByProjectID(ctx, projectID)
	if err != nil && !errorsIsNotFound(err) {
		return nil, err
	}
	return &ProjectDetails{Project: project, Crowdfund: crowdfund}, nil
}

// notify hands n to the dispatcher. Failures are logged and never returned.
func (l ledger) notify(ctx context.Context, n models.Notification) {
	if l.notifier == nil {
		return
	}
	n.CreatedAt = l.now()
	if err := l.notifier.Notify(ctx, n); err != nil {
		l.log.Warnw("post-commit notification failed",
			"type", n.Type, "projectId", n.ProjectID.Hex(), "error", err)
	}
}

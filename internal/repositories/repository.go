package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/internal/txn"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when a lookup matches no document
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateKey is returned when a write violates a unique index
	ErrDuplicateKey = errors.New("duplicate key")
)

// ProjectRepository defines the interface for project ledger operations.
// Every method joins the caller's transaction when ctx carries one.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	FindAll(ctx context.Context, status models.ProjectStatus, page, limit int) ([]*models.Project, error)
	Count(ctx context.Context, status models.ProjectStatus) (int64, error)
	Update(ctx context.Context, project *models.Project) error
	// AppendContribution pushes c, increments funding.raised by c.Amount and sets status
	AppendContribution(ctx context.Context, id primitive.ObjectID, c models.Contribution, status models.ProjectStatus) error
	// AppendVote pushes v and increments the total and directional counters
	AppendVote(ctx context.Context, id primitive.ObjectID, v models.Vote) error
}

// CrowdfundRepository defines the interface for the per-project aggregate record
type CrowdfundRepository interface {
	Create(ctx context.Context, crowdfund *models.Crowdfund) error
	FindByProjectID(ctx context.Context, projectID primitive.ObjectID) (*models.Crowdfund, error)
	Update(ctx context.Context, crowdfund *models.Crowdfund) error
	IncrementVotes(ctx context.Context, projectID primitive.ObjectID, direction models.VoteDirection) error
	SetStatus(ctx context.Context, projectID primitive.ObjectID, status models.CrowdfundStatus) error
	// FindPromotable returns VALIDATED records whose totalVotes reached thresholdVotes
	FindPromotable(ctx context.Context, limit int) ([]*models.Crowdfund, error)
}

// UserRepository defines the interface for the user directory collaborator
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// IncrementStats applies delta with relative increments; ErrNotFound when the user is missing
	IncrementStats(ctx context.Context, id primitive.ObjectID, delta models.UserStatsDelta) error
}

// VoteRepository stores one vote per (project, user). Create returns ErrDuplicateKey on a second vote.
type VoteRepository interface {
	Create(ctx context.Context, vote *models.Vote) error
	CountByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error)
}

// InvitationRepository defines the interface for team invitation records
type InvitationRepository interface {
	Create(ctx context.Context, invitation *models.TeamInvitation) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.TeamInvitation, error)
	// UpdateStatus moves an invitation from one status to another; ErrNotFound when no invitation
	// with that id is in the from status
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.InvitationStatus, at time.Time) error
}

// NotificationRepository keeps delivered notifications. It is written outside ledger transactions.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	// FindByUser lists a user's notifications newest first
	FindByUser(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]*models.Notification, error)
	CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// Store bundles the repositories together with the transaction runner that binds them
type Store struct {
	Tx          txn.Runner
	Projects    ProjectRepository
	Crowdfunds  CrowdfundRepository
	Users       UserRepository
	Votes       VoteRepository
	Invitations InvitationRepository

	Notifications NotificationRepository
}

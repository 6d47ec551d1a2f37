package mongodb

import (
	"context"
	"fmt"

	"github.com/ArowuTest/crowdfund-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	CollectionProjects    = "projects"
	CollectionCrowdfunds  = "crowdfunds"
	CollectionUsers       = "users"
	CollectionVotes       = "project_votes"
	CollectionInvitations = "team_invitations"

	CollectionNotifications = "notifications"
)

// NewStore wires every repository to db and binds them to sessions for transactions
func NewStore(db *mongo.Database, sessions SessionStarter) *repositories.Store {
	return &repositories.Store{
		Tx:          NewTxRunner(sessions),
		Projects:    NewProjectRepository(db),
		Crowdfunds:  NewCrowdfundRepository(db),
		Users:       NewUserRepository(db),
		Votes:       NewVoteRepository(db),
		Invitations: NewInvitationRepository(db),

		Notifications: NewNotificationRepository(db),
	}
}

// EnsureIndexes creates the collections and the unique indexes the ledger relies on.
// Collections must exist before the first transaction writes to them.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}
	for _, name := range []string{CollectionProjects, CollectionCrowdfunds, CollectionUsers, CollectionVotes, CollectionInvitations, CollectionNotifications} {
		if have[name] {
			continue
		}
		if err := db.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
	}

	indexes := map[string][]mongo.IndexModel{
		CollectionVotes: {
			{
				Keys:    bson.D{{Key: "projectId", Value: 1}, {Key: "userId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_project_user"),
			},
		},
		CollectionCrowdfunds: {
			{
				Keys:    bson.D{{Key: "projectId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_project"),
			},
			{
				Keys:    bson.D{{Key: "status", Value: 1}},
				Options: options.Index().SetName("status"),
			},
		},
		CollectionProjects: {
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("status_createdAt"),
			},
			{
				Keys:    bson.D{{Key: "creatorId", Value: 1}},
				Options: options.Index().SetName("creator"),
			},
		},
		CollectionInvitations: {
			{
				Keys:    bson.D{{Key: "projectId", Value: 1}},
				Options: options.Index().SetName("project"),
			},
		},
		CollectionUsers: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("email"),
			},
		},
		CollectionNotifications: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("user_createdAt"),
			},
		},
	}
	for collection, specs := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
	}
	return nil
}

package mongodb

import (
	"context"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Compile-time check to ensure VoteRepository implements the interface
var _ repositories.VoteRepository = (*VoteRepository)(nil)

// VoteRepository stores votes; the (projectId, userId) unique index is the source of truth for one-vote-per-user
type VoteRepository struct {
	collection *mongo.Collection
}

// NewVoteRepository creates a new VoteRepository
func NewVoteRepository(db *mongo.Database) *VoteRepository {
	return &VoteRepository{
		collection: db.Collection(CollectionVotes),
	}
}

// Create inserts a vote, returning repositories.ErrDuplicateKey for a repeat voter
func (r *VoteRepository) Create(ctx context.Context, vote *models.Vote) error {
	_, err := r.collection.InsertOne(ctx, vote)
	return mapError(err)
}

// CountByProject counts the votes cast on a project
func (r *VoteRepository) CountByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"projectId": projectID})
	return n, mapError(err)
}

package mongodb

import (
	"context"
	"time"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure CrowdfundRepository implements the interface
var _ repositories.CrowdfundRepository = (*CrowdfundRepository)(nil)

// CrowdfundRepository handles MongoDB operations for the crowdfund aggregate
type CrowdfundRepository struct {
	collection *mongo.Collection
}

// NewCrowdfundRepository creates a new CrowdfundRepository
func NewCrowdfundRepository(db *mongo.Database) *CrowdfundRepository {
	return &CrowdfundRepository{
		collection: db.Collection(CollectionCrowdfunds),
	}
}

// Create inserts the aggregate record; the unique projectId index rejects a second one
func (r *CrowdfundRepository) Create(ctx context.Context, crowdfund *models.Crowdfund) error {
	if crowdfund.ID.IsZero() {
		crowdfund.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, crowdfund)
	return mapError(err)
}

// FindByProjectID finds the aggregate for a project
func (r *CrowdfundRepository) FindByProjectID(ctx context.Context, projectID primitive.ObjectID) (*models.Crowdfund, error) {
	var crowdfund models.Crowdfund
	err := r.collection.FindOne(ctx, bson.M{"projectId": projectID}).Decode(&crowdfund)
	if err != nil {
		return nil, mapError(err)
	}
	return &crowdfund, nil
}

// Update replaces the aggregate record
func (r *CrowdfundRepository) Update(ctx context.Context, crowdfund *models.Crowdfund) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"projectId": crowdfund.ProjectID}, crowdfund)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// IncrementVotes bumps the mirrored tallies
func (r *CrowdfundRepository) IncrementVotes(ctx context.Context, projectID primitive.ObjectID, direction models.VoteDirection) error {
	directional := "negativeVotes"
	if direction == models.VotePositive {
		directional = "positiveVotes"
	}
	update := bson.M{
		"$inc": bson.M{"totalVotes": 1, directional: 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	return r.updateOne(ctx, projectID, update)
}

// SetStatus sets only the status field
func (r *CrowdfundRepository) SetStatus(ctx context.Context, projectID primitive.ObjectID, status models.CrowdfundStatus) error {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}}
	return r.updateOne(ctx, projectID, update)
}

// FindPromotable finds validated records whose vote count reached the threshold
func (r *CrowdfundRepository) FindPromotable(ctx context.Context, limit int) ([]*models.Crowdfund, error) {
	filter := bson.M{
		"status":         models.CrowdfundStatusValidated,
		"thresholdVotes": bson.M{"$gt": 0},
		"$expr":          bson.M{"$gte": bson.A{"$totalVotes", "$thresholdVotes"}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "projectId", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, mapError(err)
	}
	defer cursor.Close(ctx)

	var result []*models.Crowdfund
	if err := cursor.All(ctx, &result); err != nil {
		return nil, mapError(err)
	}
	if result == nil {
		result = []*models.Crowdfund{}
	}
	return result, nil
}

func (r *CrowdfundRepository) updateOne(ctx context.Context, projectID primitive.ObjectID, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"projectId": projectID}, update)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

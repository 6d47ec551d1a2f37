package mongodb

import (
	"context"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure ProjectRepository implements the interface
var _ repositories.ProjectRepository = (*ProjectRepository)(nil)

// ProjectRepository handles MongoDB operations for Project
type ProjectRepository struct {
	collection *mongo.Collection
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *mongo.Database) *ProjectRepository {
	return &ProjectRepository{
		collection: db.Collection(CollectionProjects),
	}
}

// Create inserts a new project
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	normalizeArrays(project)
	_, err := r.collection.InsertOne(ctx, project)
	return mapError(err)
}

// FindByID finds a project by ID
func (r *ProjectRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if err != nil {
		return nil, mapError(err)
	}
	return &project, nil
}

// FindAll lists projects newest first, optionally filtered by status
func (r *ProjectRepository) FindAll(ctx context.Context, status models.ProjectStatus, page, limit int) ([]*models.Project, error) {
	if page < 1 {
		page = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetSkip(int64((page - 1) * limit)).SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, statusFilter(status), opts)
	if err != nil {
		return nil, mapError(err)
	}
	defer cursor.Close(ctx)

	var projects []*models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, mapError(err)
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	return projects, nil
}

// Count counts projects, optionally filtered by status
func (r *ProjectRepository) Count(ctx context.Context, status models.ProjectStatus) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, statusFilter(status))
	return n, mapError(err)
}

// Update replaces the whole project document
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	normalizeArrays(project)
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": project.ID}, project)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// AppendContribution pushes the contribution and increments raised server-side
func (r *ProjectRepository) AppendContribution(ctx context.Context, id primitive.ObjectID, c models.Contribution, status models.ProjectStatus) error {
	update := bson.M{
		"$push": bson.M{"funding.contributors": c},
		"$inc":  bson.M{"funding.raised": c.Amount},
		"$set": bson.M{
			"status":    status,
			"updatedAt": c.Timestamp,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// AppendVote pushes the vote and increments the tallies
func (r *ProjectRepository) AppendVote(ctx context.Context, id primitive.ObjectID, v models.Vote) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, appendVoteUpdate(v))
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// appendVoteUpdate stamps updatedAt with the vote's own timestamp
func appendVoteUpdate(v models.Vote) bson.M {
	directional := "voting.negativeVotes"
	if v.Direction == models.VotePositive {
		directional = "voting.positiveVotes"
	}
	return bson.M{
		"$push": bson.M{"voting.voters": models.Vote{UserID: v.UserID, Direction: v.Direction, Timestamp: v.Timestamp}},
		"$inc": bson.M{
			"voting.totalVotes": 1,
			directional:         1,
		},
		"$set": bson.M{"updatedAt": v.Timestamp},
	}
}

func statusFilter(status models.ProjectStatus) bson.M {
	if status == "" {
		return bson.M{}
	}
	return bson.M{"status": status}
}

// normalizeArrays stores empty arrays instead of null so that $push always has an array to extend
func normalizeArrays(p *models.Project) {
	if p.Funding.Contributors == nil {
		p.Funding.Contributors = []models.Contribution{}
	}
	if p.Voting.Voters == nil {
		p.Voting.Voters = []models.Vote{}
	}
	if p.Milestones == nil {
		p.Milestones = []models.Milestone{}
	}
	if p.Team == nil {
		p.Team = []models.TeamMember{}
	}
	if p.SocialLinks == nil {
		p.SocialLinks = []models.SocialLink{}
	}
}

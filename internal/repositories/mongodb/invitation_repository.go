package mongodb

import (
	"context"
	"time"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Compile-time check to ensure InvitationRepository implements the interface
var _ repositories.InvitationRepository = (*InvitationRepository)(nil)

// InvitationRepository handles MongoDB operations for TeamInvitation
type InvitationRepository struct {
	collection *mongo.Collection
}

// NewInvitationRepository creates a new InvitationRepository
func NewInvitationRepository(db *mongo.Database) *InvitationRepository {
	return &InvitationRepository{
		collection: db.Collection(CollectionInvitations),
	}
}

// Create inserts an invitation record
func (r *InvitationRepository) Create(ctx context.Context, invitation *models.TeamInvitation) error {
	if invitation.ID.IsZero() {
		invitation.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, invitation)
	return mapError(err)
}

// FindByID finds an invitation by its ID
func (r *InvitationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.TeamInvitation, error) {
	var invitation models.TeamInvitation
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&invitation); err != nil {
		return nil, mapError(err)
	}
	return &invitation, nil
}

// UpdateStatus sets the status only while the invitation is still in from
func (r *InvitationRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.InvitationStatus, at time.Time) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "respondedAt": at}},
	)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

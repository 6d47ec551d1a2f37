package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InvitationStatus is the state of a team invitation
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "PENDING"
	InvitationStatusAccepted InvitationStatus = "ACCEPTED"
	InvitationStatusExpired  InvitationStatus = "EXPIRED"
)

// TeamInvitation records an invitation sent to a team member. Only the bcrypt hash of the token is stored.
type TeamInvitation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ProjectID   primitive.ObjectID `bson:"projectId" json:"projectId"`
	Email       string             `bson:"email" json:"email"`
	Role        string             `bson:"role,omitempty" json:"role,omitempty"`
	TokenHash   string             `bson:"tokenHash" json:"-"`
	Status      InvitationStatus   `bson:"status" json:"status"`
	ExpiresAt   time.Time          `bson:"expiresAt" json:"expiresAt"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	RespondedAt *time.Time         `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
}

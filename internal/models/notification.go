package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType identifies the ledger event a notification reports
type NotificationType string

const (
	NotificationProjectCreated  NotificationType = "PROJECT_CREATED"
	NotificationProjectReviewed NotificationType = "PROJECT_REVIEWED"
	NotificationProjectFunded   NotificationType = "PROJECT_FUNDED"
	NotificationGoalReached     NotificationType = "GOAL_REACHED"
	NotificationProjectPromoted NotificationType = "PROJECT_PROMOTED"
	NotificationTeamInvitation  NotificationType = "TEAM_INVITATION"
)

// Notification is a message handed to the dispatcher after a commit.
// The store dispatcher keeps it in the notifications collection as the user's inbox.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Type      NotificationType   `bson:"type" json:"type"`
	ProjectID primitive.ObjectID `bson:"projectId" json:"projectId"`
	UserID    primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	Recipient string             `bson:"recipient,omitempty" json:"recipient,omitempty"` // email, when the recipient is not a known user
	Subject   string             `bson:"subject" json:"subject"`
	Content   string             `bson:"content" json:"content"`
	Data      map[string]string  `bson:"data,omitempty" json:"data,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Crowdfund is the denormalized voting/review record kept 1:1 with a Project.
// Its Status must always equal CrowdfundStatusFor(project.Status).
type Crowdfund struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	ProjectID      primitive.ObjectID  `bson:"projectId" json:"projectId"`
	ThresholdVotes int64               `bson:"thresholdVotes" json:"thresholdVotes"`
	TotalVotes     int64               `bson:"totalVotes" json:"totalVotes"`
	PositiveVotes  int64               `bson:"positiveVotes" json:"positiveVotes"`
	NegativeVotes  int64               `bson:"negativeVotes" json:"negativeVotes"`
	Status         CrowdfundStatus     `bson:"status" json:"status"`
	VoteDeadline   time.Time           `bson:"voteDeadline" json:"voteDeadline"`
	ReviewedBy     *primitive.ObjectID `bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt     *time.Time          `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	RejectedReason string              `bson:"rejectedReason,omitempty" json:"rejectedReason,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ThresholdReached reports whether enough votes were cast to promote the project
func (c *Crowdfund) ThresholdReached() bool {
	return c.ThresholdVotes > 0 && c.TotalVotes >= c.ThresholdVotes
}

// Clone returns a deep copy
func (c *Crowdfund) Clone() *Crowdfund {
	if c == nil {
		return nil
	}
	cp := *c
	if c.ReviewedBy != nil {
		id := *c.ReviewedBy
		cp.ReviewedBy = &id
	}
	if c.ReviewedAt != nil {
		t := *c.ReviewedAt
		cp.ReviewedAt = &t
	}
	return &cp
}

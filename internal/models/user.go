package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the subset of the user directory the ledger reads and updates
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email     string             `bson:"email" json:"email"`
	Name      string             `bson:"name" json:"name"`
	Stats     UserStats          `bson:"stats" json:"stats"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UserStats are counters that move together with project mutations
type UserStats struct {
	ProjectsCreated  int64 `bson:"projectsCreated" json:"projectsCreated"`
	TotalContributed Money `bson:"totalContributed" json:"totalContributed"`
	TotalRaised      Money `bson:"totalRaised" json:"totalRaised"`
}

// UserStatsDelta is a relative change applied with $inc semantics
type UserStatsDelta struct {
	ProjectsCreated  int64
	TotalContributed Money
	TotalRaised      Money
}

// IsZero reports whether the delta changes nothing
func (d UserStatsDelta) IsZero() bool {
	return d.ProjectsCreated == 0 && d.TotalContributed.IsZero() && d.TotalRaised.IsZero()
}

// Apply adds the delta to s
func (s UserStats) Apply(d UserStatsDelta) UserStats {
	s.ProjectsCreated += d.ProjectsCreated
	s.TotalContributed = s.TotalContributed.Add(d.TotalContributed)
	s.TotalRaised = s.TotalRaised.Add(d.TotalRaised)
	return s
}

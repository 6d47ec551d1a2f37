package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectTypeCrowdfund is the only project type handled by the ledger
const ProjectTypeCrowdfund = "CROWDFUND"

// Project represents a crowdfunding campaign and its funding/voting ledger
type Project struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	CreatorID       primitive.ObjectID  `bson:"creatorId" json:"creatorId"`
	Type            string              `bson:"type" json:"type"`
	Title           string              `bson:"title" json:"title"`
	Vision          string              `bson:"vision" json:"vision"`
	Category        string              `bson:"category" json:"category"`
	Description     string              `bson:"description" json:"description"`
	Logo            string              `bson:"logo" json:"logo"`
	Contact         string              `bson:"contact,omitempty" json:"contact,omitempty"`
	Team            []TeamMember        `bson:"team" json:"team"`
	SocialLinks     []SocialLink        `bson:"socialLinks" json:"socialLinks"`
	RepositoryLinks []string            `bson:"repositoryLinks,omitempty" json:"repositoryLinks,omitempty"`
	Website         string              `bson:"website,omitempty" json:"website,omitempty"`
	DemoVideo       string              `bson:"demoVideo,omitempty" json:"demoVideo,omitempty"`
	Status          ProjectStatus       `bson:"status" json:"status"`
	Funding         Funding             `bson:"funding" json:"funding"`
	Voting          Voting              `bson:"voting" json:"voting"`
	Milestones      []Milestone         `bson:"milestones" json:"milestones"`
	ApprovedBy      *primitive.ObjectID `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time          `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	AdminNote       string              `bson:"adminNote,omitempty" json:"adminNote,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Funding is the funding block of a project. Raised always equals the sum of Contributors.
type Funding struct {
	Goal         Money          `bson:"goal" json:"goal"`
	Raised       Money          `bson:"raised" json:"raised"`
	Currency     string         `bson:"currency" json:"currency"`
	EndDate      time.Time      `bson:"endDate" json:"endDate"`
	Contributors []Contribution `bson:"contributors" json:"contributors"`
}

// Contribution is an append-only funding entry
type Contribution struct {
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	Amount        Money              `bson:"amount" json:"amount"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
	ExternalTxRef string             `bson:"externalTxRef" json:"externalTxRef"`
}

// Voting is the voting block of a project.
// TotalVotes == PositiveVotes + NegativeVotes == len(Voters).
type Voting struct {
	StartDate     time.Time `bson:"startDate" json:"startDate"`
	EndDate       time.Time `bson:"endDate" json:"endDate"`
	TotalVotes    int64     `bson:"totalVotes" json:"totalVotes"`
	PositiveVotes int64     `bson:"positiveVotes" json:"positiveVotes"`
	NegativeVotes int64     `bson:"negativeVotes" json:"negativeVotes"`
	Voters        []Vote    `bson:"voters" json:"voters"`
}

// VoteDirection is the polarity of a vote
type VoteDirection string

const (
	VotePositive VoteDirection = "POSITIVE"
	VoteNegative VoteDirection = "NEGATIVE"
)

// Valid reports whether d is a known direction
func (d VoteDirection) Valid() bool {
	return d == VotePositive || d == VoteNegative
}

// Vote is one user's immutable vote on a project
type Vote struct {
	ProjectID primitive.ObjectID `bson:"projectId,omitempty" json:"projectId,omitempty"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Direction VoteDirection      `bson:"direction" json:"direction"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// MilestoneStatus is the delivery state of a milestone
type MilestoneStatus string

const (
	MilestoneStatusPending   MilestoneStatus = "PENDING"
	MilestoneStatusCompleted MilestoneStatus = "COMPLETED"
)

// Milestone is a named share of the funding goal
type Milestone struct {
	Title       string          `bson:"title" json:"title"`
	Description string          `bson:"description" json:"description"`
	Amount      Money           `bson:"amount" json:"amount"`
	StartDate   time.Time       `bson:"startDate" json:"startDate"`
	DueDate     time.Time       `bson:"dueDate" json:"dueDate"`
	Status      MilestoneStatus `bson:"status" json:"status"`
}

// TeamMember is a person listed on the project submission
type TeamMember struct {
	Name  string `bson:"name" json:"name"`
	Role  string `bson:"role,omitempty" json:"role,omitempty"`
	Email string `bson:"email" json:"email"`
}

// SocialLink is a platform/URL pair
type SocialLink struct {
	Platform string `bson:"platform" json:"platform"`
	URL      string `bson:"url" json:"url"`
}

// RemainingGoal is goal minus raised, floored at zero
func (p *Project) RemainingGoal() Money {
	return p.Funding.Goal.Sub(p.Funding.Raised).FloorZero()
}

// FullyFunded reports raised >= goal
func (p *Project) FullyFunded() bool {
	return p.Funding.Raised.GTE(p.Funding.Goal)
}

// HasVoted reports whether userID already appears among the voters
func (p *Project) HasVoted(userID primitive.ObjectID) bool {
	for _, v := range p.Voting.Voters {
		if v.UserID == userID {
			return true
		}
	}
	return false
}

// HasTxRef reports whether a contribution with ref was already recorded
func (p *Project) HasTxRef(ref string) bool {
	for _, c := range p.Funding.Contributors {
		if c.ExternalTxRef == ref {
			return true
		}
	}
	return false
}

// Clone returns a deep copy
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	c.Team = append([]TeamMember(nil), p.Team...)
	c.SocialLinks = append([]SocialLink(nil), p.SocialLinks...)
	c.RepositoryLinks = append([]string(nil), p.RepositoryLinks...)
	c.Milestones = append([]Milestone(nil), p.Milestones...)
	c.Funding.Contributors = append([]Contribution(nil), p.Funding.Contributors...)
	c.Voting.Voters = append([]Vote(nil), p.Voting.Voters...)
	if p.ApprovedBy != nil {
		id := *p.ApprovedBy
		c.ApprovedBy = &id
	}
	if p.ApprovedAt != nil {
		t := *p.ApprovedAt
		c.ApprovedAt = &t
	}
	return &c
}

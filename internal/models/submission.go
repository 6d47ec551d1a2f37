package models

import "time"

// ProjectSubmission is the creator-supplied payload for a new project
type ProjectSubmission struct {
	Title           string                `json:"title"`
	Vision          string                `json:"vision"`
	Category        string                `json:"category"`
	Description     string                `json:"description"`
	Logo            string                `json:"logo"`
	FundingAmount   Money                 `json:"fundingAmount"`
	Currency        string                `json:"currency,omitempty"`
	Milestones      []MilestoneSubmission `json:"milestones"`
	Team            []TeamMember          `json:"team"`
	Contact         string                `json:"contact,omitempty"`
	SocialLinks     []SocialLink          `json:"socialLinks"`
	RepositoryLinks []string              `json:"repositoryLinks,omitempty"`
	Website         string                `json:"website,omitempty"`
	DemoVideo       string                `json:"demoVideo,omitempty"`
	// Draft stores the project as an Idea until the creator submits it
	Draft bool `json:"draft,omitempty"`
}

// MilestoneSubmission is a milestone before its amount is allocated
type MilestoneSubmission struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}

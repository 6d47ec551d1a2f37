package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
)

func validSubmission() *models.ProjectSubmission {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return &models.ProjectSubmission{
		Title:         "Solar Kiosk",
		Vision:        "Clean power for market stalls",
		Category:      "energy",
		Description:   "Pay-as-you-go solar charging",
		Logo:          "https://cdn.example.com/logo.png",
		FundingAmount: models.MoneyFromInt(1000),
		Milestones: []models.MilestoneSubmission{
			{Title: "Prototype", Description: "First kiosk", StartDate: start, EndDate: start.AddDate(0, 1, 0)},
		},
		Team:        []models.TeamMember{{Name: "Ada", Email: "ada@example.com"}},
		SocialLinks: []models.SocialLink{{Platform: "x", URL: "https://x.com/solarkiosk"}},
		Website:     "https://solarkiosk.example.com",
	}
}

func TestSubmissionAcceptsCompletePayload(t *testing.T) {
	require.NoError(t, Submission(validSubmission()))
}

func TestSubmissionReportsFirstFailingField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *models.ProjectSubmission)
		field  string
	}{
		{"missing title", func(s *models.ProjectSubmission) { s.Title = "  " }, "title"},
		{"missing vision", func(s *models.ProjectSubmission) { s.Vision = "" }, "vision"},
		{"missing category", func(s *models.ProjectSubmission) { s.Category = "" }, "category"},
		{"missing description", func(s *models.ProjectSubmission) { s.Description = "" }, "description"},
		{"missing logo", func(s *models.ProjectSubmission) { s.Logo = "" }, "logo"},
		{"zero funding", func(s *models.ProjectSubmission) { s.FundingAmount = models.ZeroMoney() }, "fundingAmount"},
		{"negative funding", func(s *models.ProjectSubmission) { s.FundingAmount = models.MoneyFromInt(-5) }, "fundingAmount"},
		{"no milestones", func(s *models.ProjectSubmission) { s.Milestones = nil }, "milestones"},
		{"milestone without title", func(s *models.ProjectSubmission) { s.Milestones[0].Title = "" }, "milestones[0].title"},
		{"milestone without description", func(s *models.ProjectSubmission) { s.Milestones[0].Description = "" }, "milestones[0].description"},
		{"milestone ends before start", func(s *models.ProjectSubmission) {
			s.Milestones[0].EndDate = s.Milestones[0].StartDate.Add(-time.Hour)
		}, "milestones[0]"},
		{"milestone start equals end", func(s *models.ProjectSubmission) {
			s.Milestones[0].EndDate = s.Milestones[0].StartDate
		}, "milestones[0]"},
		{"no team", func(s *models.ProjectSubmission) { s.Team = nil }, "team"},
		{"bad team email", func(s *models.ProjectSubmission) {
			s.Team = append(s.Team, models.TeamMember{Name: "Bob", Email: "bob-at-example"})
		}, "team[1].email"},
		{"no social links", func(s *models.ProjectSubmission) { s.SocialLinks = nil }, "socialLinks"},
		{"social link without platform", func(s *models.ProjectSubmission) { s.SocialLinks[0].Platform = "" }, "socialLinks[0].platform"},
		{"relative social url", func(s *models.ProjectSubmission) { s.SocialLinks[0].URL = "/solarkiosk" }, "socialLinks[0].url"},
		{"bad repository link", func(s *models.ProjectSubmission) { s.RepositoryLinks = []string{"github.com/x"} }, "repositoryLinks[0]"},
		{"bad website", func(s *models.ProjectSubmission) { s.Website = "not a url" }, "website"},
		{"bad demo video", func(s *models.ProjectSubmission) { s.DemoVideo = "watch-me" }, "demoVideo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubmission()
			tt.mutate(s)

			err := Submission(s)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestSubmissionNil(t *testing.T) {
	assert.ErrorIs(t, Submission(nil), ErrValidation)
}

func TestEmailAndURL(t *testing.T) {
	assert.True(t, Email("dev@crowd.example.org"))
	assert.False(t, Email(""))
	assert.False(t, Email("dev@"))

	assert.True(t, AbsoluteURL("https://github.com/org/repo"))
	assert.False(t, AbsoluteURL(""))
	assert.False(t, AbsoluteURL("github.com/org/repo"))
}

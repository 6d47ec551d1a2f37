package services

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
)

func TestCreateProjectSplitsGoalAcrossMilestones(t *testing.T) {
	f := newFixture(t)

	d, err := f.projects.CreateProject(f.ctx, f.creator, submission(1000, 4))
	require.NoError(t, err)

	p := d.Project
	assert.Equal(t, models.ProjectStatusReviewing, p.Status)
	assert.Equal(t, models.ProjectTypeCrowdfund, p.Type)
	require.Len(t, p.Milestones, 4)
	for _, m := range p.Milestones {
		assert.Equal(t, "250.00", m.Amount.StringFixed(2))
	}
	assert.True(t, p.Funding.Raised.IsZero())
	assert.Equal(t, "USD", p.Funding.Currency)
	assert.Equal(t, f.now.Add(90*24*time.Hour), p.Funding.EndDate)
	assert.Equal(t, f.now, p.Voting.StartDate)
	assert.Equal(t, f.now.Add(30*24*time.Hour), p.Voting.EndDate)

	cf := f.crowdfund(p.ID)
	assert.Equal(t, models.CrowdfundStatusUnderReview, cf.Status)
	assert.Equal(t, int64(3), cf.ThresholdVotes)
	assert.Equal(t, p.Voting.EndDate, cf.VoteDeadline)

	assert.Equal(t, int64(1), f.user(f.creator).Stats.ProjectsCreated)
	assert.Len(t, f.notificationsOf(models.NotificationProjectCreated), 1)
	assert.Equal(t, []string{"ada@example.com", "lin@example.com"}, f.issuer.issued)
	f.assertLedgerInvariants(p.ID)
}

func TestCreateProjectMilestonesShareGoalEqually(t *testing.T) {
	f := newFixture(t)
	for n := 1; n <= 6; n++ {
		d, err := f.projects.CreateProject(f.ctx, f.creator, submission(1000, n))
		require.NoError(t, err)
		var amounts []models.Money
		for _, m := range d.Project.Milestones {
			assert.True(t, m.Amount.Equal(d.Project.Milestones[0].Amount), "n=%d", n)
			amounts = append(amounts, m.Amount)
		}
		assert.True(t, models.SumMoney(amounts...).Decimal.LessThanOrEqual(d.Project.Funding.Goal.Decimal), "n=%d", n)
	}
}

func TestCreateProjectValidationFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	sub := submission(1000, 2)
	sub.Team[1].Email = "not-an-email"

	_, err := f.projects.CreateProject(f.ctx, f.creator, sub)
	require.ErrorIs(t, err, ErrValidation)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "team[1].email", ve.Field)

	n, err := f.store.Projects.Count(f.ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, f.mem.Attempts())
	assert.Zero(t, f.user(f.creator).Stats.ProjectsCreated)
}

func TestCreateProjectAllowsSubCentShares(t *testing.T) {
	f := newFixture(t)
	sub := submission(1, 2)
	sub.FundingAmount = models.MoneyFromFloat(0.01)

	d, err := f.projects.CreateProject(f.ctx, f.creator, sub)
	require.NoError(t, err)
	for _, m := range d.Project.Milestones {
		assert.True(t, m.Amount.Equal(models.MoneyFromFloat(0.005)))
	}
}

func TestCreateProjectRejectsUnsplittableGoal(t *testing.T) {
	f := newFixture(t)
	sub := submission(1, 2)
	sub.FundingAmount = models.NewMoney(decimal.New(1, -20))

	_, err := f.projects.CreateProject(f.ctx, f.creator, sub)
	assert.ErrorIs(t, err, ErrValidation)

	n, err := f.store.Projects.Count(f.ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateProjectUnknownCreator(t *testing.T) {
	f := newFixture(t)
	_, err := f.projects.CreateProject(f.ctx, primitive.NewObjectID(), submission(1000, 2))
	assert.ErrorIs(t, err, ErrCreatorNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := f.store.Projects.Count(f.ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostCommitFailuresDoNotRollBack(t *testing.T) {
	f := newFixture(t)
	f.notes.Err = errors.New("smtp down")
	f.issuer.err = errors.New("invite service down")

	d, err := f.projects.CreateProject(f.ctx, f.creator, submission(500, 1))
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusReviewing, f.project(d.Project.ID).Status)
}

func TestDraftThenSubmit(t *testing.T) {
	f := newFixture(t)
	sub := submission(800, 2)
	sub.Draft = true

	d, err := f.projects.CreateProject(f.ctx, f.creator, sub)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusIdea, d.Project.Status)
	assert.Nil(t, d.Crowdfund)
	f.assertLedgerInvariants(d.Project.ID)

	_, err = f.projects.SubmitProject(f.ctx, d.Project.ID, f.backer)
	assert.ErrorIs(t, err, ErrForbidden)

	f.now = f.now.Add(48 * time.Hour)
	submitted, err := f.projects.SubmitProject(f.ctx, d.Project.ID, f.creator)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusReviewing, submitted.Project.Status)
	assert.Equal(t, f.now, submitted.Project.Voting.StartDate)
	assert.Equal(t, models.CrowdfundStatusUnderReview, submitted.Crowdfund.Status)
	f.assertLedgerInvariants(d.Project.ID)

	_, err = f.projects.SubmitProject(f.ctx, d.Project.ID, f.creator)
	assert.ErrorIs(t, err, ErrWrongStatus)
}

func TestGetAndListProjects(t *testing.T) {
	f := newFixture(t)
	first := f.reviewing(1000)
	f.now = f.now.Add(time.Hour)
	second := f.validated(2000)

	d, err := f.projects.GetProject(f.ctx, second)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusValidated, d.Project.Status)
	require.NotNil(t, d.Crowdfund)
	assert.Equal(t, models.CrowdfundStatusValidated, d.Crowdfund.Status)

	_, err = f.projects.GetProject(f.ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrProjectNotFound)

	page, err := f.projects.ListProjects(f.ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
	require.Len(t, page.Projects, 2)
	assert.Equal(t, second, page.Projects[0].ID)
	assert.Equal(t, first, page.Projects[1].ID)

	page, err = f.projects.ListProjects(f.ctx, models.ProjectStatusReviewing, 1, 500)
	require.NoError(t, err)
	assert.Equal(t, 100, page.Limit)
	require.Len(t, page.Projects, 1)
	assert.Equal(t, first, page.Projects[0].ID)

	_, err = f.projects.ListProjects(f.ctx, models.ProjectStatus("SHIPPED"), 1, 10)
	assert.ErrorIs(t, err, ErrValidation)
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
)

func (f *fixture) castVotes(id primitive.ObjectID, n int) {
	f.t.Helper()
	for i := 0; i < n; i++ {
		_, err := f.voting.VoteOnProject(f.ctx, VoteRequest{ProjectID: id, VoterID: f.addUser("voter@example.com"), Direction: models.VotePositive})
		require.NoError(f.t, err)
	}
}

func TestPromoteProjectRequiresThreshold(t *testing.T) {
	f := newFixture(t)
	id := f.validated(1000)
	f.castVotes(id, 2)

	_, err := f.promoter.PromoteProject(f.ctx, id)
	assert.ErrorIs(t, err, ErrThresholdNotReached)
	assert.Equal(t, models.ProjectStatusValidated, f.project(id).Status)

	f.castVotes(id, 1)
	d, err := f.promoter.PromoteProject(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusCampaigning, d.Project.Status)
	assert.Equal(t, models.CrowdfundStatusCampaigning, f.crowdfund(id).Status)
	assert.Len(t, f.notificationsOf(models.NotificationProjectPromoted), 1)
	f.assertLedgerInvariants(id)

	_, err = f.promoter.PromoteProject(f.ctx, id)
	assert.ErrorIs(t, err, ErrWrongStatus)
}

func TestPromoteProjectChecksRecordedVotes(t *testing.T) {
	f := newFixture(t)
	id := f.validated(1000)
	f.castVotes(id, 1)

	cf := f.crowdfund(id)
	cf.TotalVotes = 3
	cf.PositiveVotes = 3
	require.NoError(t, f.store.Crowdfunds.Update(f.ctx, cf))

	_, err := f.promoter.PromoteProject(f.ctx, id)
	assert.ErrorIs(t, err, ErrThresholdNotReached)
	assert.Equal(t, models.ProjectStatusValidated, f.project(id).Status)
	assert.Equal(t, models.CrowdfundStatusValidated, f.crowdfund(id).Status)
}

func TestPromoteProjectFromReviewingFails(t *testing.T) {
	f := newFixture(t)
	id := f.reviewing(1000)
	f.castVotes(id, 3)

	_, err := f.promoter.PromoteProject(f.ctx, id)
	assert.ErrorIs(t, err, ErrWrongStatus)
}

func TestLaunchProject(t *testing.T) {
	f := newFixture(t)
	id := f.validated(1000)

	_, err := f.promoter.LaunchProject(f.ctx, id)
	assert.ErrorIs(t, err, ErrWrongStatus)

	f.castVotes(id, 3)
	_, err = f.promoter.PromoteProject(f.ctx, id)
	require.NoError(t, err)
	d, err := f.promoter.LaunchProject(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusLive, d.Project.Status)
	assert.Equal(t, models.CrowdfundStatusLive, d.Crowdfund.Status)
}

func TestPromoteEligible(t *testing.T) {
	f := newFixture(t)
	ready := f.validated(1000)
	f.castVotes(ready, 3)
	short := f.validated(1000)
	f.castVotes(short, 1)
	inReview := f.reviewing(1000)
	f.castVotes(inReview, 3)

	report, err := f.promoter.PromoteEligible(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Candidates)
	assert.Equal(t, []primitive.ObjectID{ready}, report.Promoted)
	assert.Empty(t, report.Failed)

	assert.Equal(t, models.ProjectStatusCampaigning, f.project(ready).Status)
	assert.Equal(t, models.ProjectStatusValidated, f.project(short).Status)
	assert.Equal(t, models.ProjectStatusReviewing, f.project(inReview).Status)

	report, err = f.promoter.PromoteEligible(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Candidates)
	assert.Empty(t, report.Promoted)
}

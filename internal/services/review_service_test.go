package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
)

func TestAdminReviewReject(t *testing.T) {
	f := newFixture(t)
	id := f.reviewing(1000)

	d, err := f.review.AdminReview(f.ctx, ReviewRequest{ProjectID: id, AdminID: f.admin, Action: ReviewReject, Note: "insufficient detail"})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusRejected, d.Project.Status)
	assert.Equal(t, models.CrowdfundStatusRejected, d.Crowdfund.Status)
	assert.Equal(t, "insufficient detail", d.Crowdfund.RejectedReason)

	cf := f.crowdfund(id)
	assert.Equal(t, models.CrowdfundStatusRejected, cf.Status)
	assert.Equal(t, "insufficient detail", cf.RejectedReason)
	p := f.project(id)
	require.NotNil(t, p.ApprovedBy)
	assert.Equal(t, f.admin, *p.ApprovedBy)
	assert.Equal(t, "insufficient detail", p.AdminNote)

	_, err = f.review.AdminReview(f.ctx, ReviewRequest{ProjectID: id, AdminID: f.admin, Action: ReviewReject})
	assert.ErrorIs(t, err, ErrWrongStatus)
	assert.ErrorIs(t, err, ErrConflict)
	f.assertLedgerInvariants(id)
}

func TestAdminReviewRejectDefaultReason(t *testing.T) {
	f := newFixture(t)
	id := f.reviewing(1000)

	_, err := f.review.AdminReview(f.ctx, ReviewRequest{ProjectID: id, AdminID: f.admin, Action: ReviewReject, Note: "   "})
	require.NoError(t, err)
	assert.Equal(t, DefaultRejectedReason, f.crowdfund(id).RejectedReason)
}

func TestAdminReviewApprove(t *testing.T) {
	f := newFixture(t)
	id := f.reviewing(1000)
	deadline := f.crowdfund(id).VoteDeadline

	f.now = f.now.Add(time.Hour)
	d, err := f.review.AdminReview(f.ctx, ReviewRequest{ProjectID: id, AdminID: f.admin, Action: ReviewApprove, Note: "looks good"})
	require.NoError(t, err)

	assert.Equal(t, models.ProjectStatusValidated, d.Project.Status)
	assert.Equal(t, models.CrowdfundStatusValidated, d.Crowdfund.Status)
	assert.Equal(t, deadline.Add(30*24*time.Hour), d.Crowdfund.VoteDeadline)
	assert.Equal(t, d.Crowdfund.VoteDeadline, d.Project.Voting.EndDate)
	require.NotNil(t, d.Project.ApprovedAt)
	assert.Equal(t, f.now, *d.Project.ApprovedAt)
	assert.Empty(t, d.Crowdfund.RejectedReason)
	assert.Len(t, f.notificationsOf(models.NotificationProjectReviewed), 1)

	_, err = f.review.AdminReview(f.ctx, ReviewRequest{ProjectID: id, AdminID: f.admin, Action: ReviewApprove})
	assert.ErrorIs(t, err, ErrWrongStatus)
	f.assertLedgerInvariants(id)
}

func TestAdminReviewFailures(t *testing.T) {
	f := newFixture(t)

	_, err := f.review.AdminReview(f.ctx, ReviewRequest{ProjectID: primitive.NewObjectID(), AdminID: f.admin, Action: "archive"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.review.AdminReview(f.ctx, ReviewRequest{ProjectID: primitive.NewObjectID(), AdminID: f.admin, Action: ReviewApprove})
	assert.ErrorIs(t, err, ErrProjectNotFound)

	sub := submission(1000, 1)
	sub.Draft = true
	draft, err := f.projects.CreateProject(f.ctx, f.creator, sub)
	require.NoError(t, err)
	_, err = f.review.AdminReview(f.ctx, ReviewRequest{ProjectID: draft.Project.ID, AdminID: f.admin, Action: ReviewApprove})
	assert.ErrorIs(t, err, ErrCrowdfundNotFound)
}

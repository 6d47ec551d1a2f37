package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
)

func TestParallelFundingKeepsLedgerConsistent(t *testing.T) {
	f := newFixture(t)
	id := f.validated(1000)

	const workers = 50
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.fund(id, 10, fmt.Sprintf("0x%03d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	p := f.project(id)
	assert.Equal(t, "500", p.Funding.Raised.String())
	assert.Len(t, p.Funding.Contributors, workers)
	assert.Equal(t, models.ProjectStatusValidated, p.Status)
	assert.Equal(t, "500", f.user(f.backer).Stats.TotalContributed.String())
	assert.Equal(t, "500", f.user(f.creator).Stats.TotalRaised.String())
	assert.Len(t, f.notificationsOf(models.NotificationProjectFunded), workers)
	f.assertLedgerInvariants(id)
}

func TestParallelDuplicateVotesAcceptOnlyOne(t *testing.T) {
	f := newFixture(t)
	id := f.validated(1000)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.voting.VoteOnProject(f.ctx, VoteRequest{ProjectID: id, VoterID: f.backer, Direction: models.VotePositive})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, ErrDuplicateVote), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	p := f.project(id)
	assert.Equal(t, int64(1), p.Voting.TotalVotes)
	assert.Equal(t, int64(1), f.crowdfund(id).TotalVotes)
	n, err := f.store.Votes.CountByProject(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	f.assertLedgerInvariants(id)
}

func TestParallelVotesFromDistinctUsersAllCount(t *testing.T) {
	f := newFixture(t)
	id := f.reviewing(1000)

	voters := make([]primitive.ObjectID, 10)
	for i := range voters {
		voters[i] = f.addUser(fmt.Sprintf("voter%d@example.com", i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(voters))
	for _, voter := range voters {
		wg.Add(1)
		go func(voter primitive.ObjectID) {
			defer wg.Done()
			_, err := f.voting.VoteOnProject(f.ctx, VoteRequest{ProjectID: id, VoterID: voter, Direction: models.VotePositive})
			errs <- err
		}(voter)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	p := f.project(id)
	assert.Equal(t, int64(len(voters)), p.Voting.TotalVotes)
	assert.Equal(t, int64(len(voters)), p.Voting.PositiveVotes)
	assert.Equal(t, int64(len(voters)), f.crowdfund(id).PositiveVotes)
	f.assertLedgerInvariants(id)
}

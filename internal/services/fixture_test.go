package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/internal/repositories"
	"github.com/ArowuTest/crowdfund-backend/internal/repositories/memory"
	"github.com/ArowuTest/crowdfund-backend/internal/txn"
	"github.com/ArowuTest/crowdfund-backend/pkg/notifier"
)

type fakeIssuer struct {
	mu     sync.Mutex
	issued []string
	err    error
}

func (f *fakeIssuer) Issue(ctx context.Context, project *models.Project, member models.TeamMember) (*models.TeamInvitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.issued = append(f.issued, member.Email)
	return &models.TeamInvitation{ProjectID: project.ID, Email: member.Email}, nil
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	mem      *memory.Store
	store    *repositories.Store
	now      time.Time
	waits    []time.Duration
	notes    *notifier.Recorder
	issuer   *fakeIssuer
	creator  primitive.ObjectID
	backer   primitive.ObjectID
	admin    primitive.ObjectID
	projects *ProjectManager
	funding  *FundingProcessor
	voting   *VotingEngine
	review   *ReviewGate
	promoter *Promoter
}

func newFixture(t *testing.T, configure ...func(*Policy)) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		mem:    memory.New(),
		now:    time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
		notes:  &notifier.Recorder{},
		issuer: &fakeIssuer{},
	}
	f.store = f.mem.Repositories()

	policy := DefaultPolicy()
	policy.VoteThreshold = 3
	for _, c := range configure {
		c(&policy)
	}

	coordinator := txn.NewCoordinator(f.store.Tx, txn.DefaultPolicy(), txn.WithSleeper(func(ctx context.Context, d time.Duration) error {
		f.waits = append(f.waits, d)
		return nil
	}))
	deps := Dependencies{
		Store:       f.store,
		Coordinator: coordinator,
		Policy:      policy,
		Notifier:    f.notes,
		Invitations: f.issuer,
		Clock:       func() time.Time { return f.now },
	}
	f.projects = NewProjectManager(deps)
	f.funding = NewFundingProcessor(deps)
	f.voting = NewVotingEngine(deps)
	f.review = NewReviewGate(deps)
	f.promoter = NewPromoter(deps)

	f.creator = f.addUser("creator@example.com")
	f.backer = f.addUser("backer@example.com")
	f.admin = f.addUser("admin@example.com")
	return f
}

func (f *fixture) addUser(email string) primitive.ObjectID {
	f.t.Helper()
	u := &models.User{Email: email, Name: email, Stats: models.UserStats{TotalContributed: models.ZeroMoney(), TotalRaised: models.ZeroMoney()}}
	require.NoError(f.t, f.store.Users.Create(f.ctx, u))
	return u.ID
}

func (f *fixture) user(id primitive.ObjectID) *models.User {
	f.t.Helper()
	u, err := f.store.Users.FindByID(f.ctx, id)
	require.NoError(f.t, err)
	return u
}

func (f *fixture) project(id primitive.ObjectID) *models.Project {
	f.t.Helper()
	p, err := f.store.Projects.FindByID(f.ctx, id)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) crowdfund(id primitive.ObjectID) *models.Crowdfund {
	f.t.Helper()
	cf, err := f.store.Crowdfunds.FindByProjectID(f.ctx, id)
	require.NoError(f.t, err)
	return cf
}

func submission(goal int64, milestones int) *models.ProjectSubmission {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	sub := &models.ProjectSubmission{
		Title:         "Community Library",
		Vision:        "Books for every street",
		Category:      "education",
		Description:   "A lending library run by volunteers",
		Logo:          "https://cdn.example.com/library.png",
		FundingAmount: models.MoneyFromInt(goal),
		Team: []models.TeamMember{
			{Name: "Ada", Role: "lead", Email: "ada@example.com"},
			{Name: "Lin", Role: "ops", Email: "lin@example.com"},
		},
		SocialLinks: []models.SocialLink{{Platform: "x", URL: "https://x.com/library"}},
	}
	for i := 0; i < milestones; i++ {
		sub.Milestones = append(sub.Milestones, models.MilestoneSubmission{
			Title:       "Phase",
			Description: "Deliverable",
			StartDate:   start.AddDate(0, i, 0),
			EndDate:     start.AddDate(0, i+1, 0),
		})
	}
	return sub
}

// reviewing creates a project in Reviewing
func (f *fixture) reviewing(goal int64) primitive.ObjectID {
	f.t.Helper()
	d, err := f.projects.CreateProject(f.ctx, f.creator, submission(goal, 2))
	require.NoError(f.t, err)
	return d.Project.ID
}

// validated creates a project and approves it
func (f *fixture) validated(goal int64) primitive.ObjectID {
	f.t.Helper()
	id := f.reviewing(goal)
	_, err := f.review.AdminReview(f.ctx, ReviewRequest{ProjectID: id, AdminID: f.admin, Action: ReviewApprove})
	require.NoError(f.t, err)
	return id
}

func (f *fixture) fund(id primitive.ObjectID, amount int64, ref string) (*FundingResult, error) {
	return f.funding.FundProject(f.ctx, FundRequest{
		ProjectID:     id,
		ContributorID: f.backer,
		Amount:        models.MoneyFromInt(amount),
		ExternalTxRef: ref,
	})
}

func (f *fixture) notificationsOf(kind models.NotificationType) []models.Notification {
	var out []models.Notification
	for _, n := range f.notes.Sent() {
		if n.Type == kind {
			out = append(out, n)
		}
	}
	return out
}

// assertLedgerInvariants checks the funding, voting and aggregate invariants for a project
func (f *fixture) assertLedgerInvariants(id primitive.ObjectID) {
	f.t.Helper()
	p := f.project(id)

	var amounts []models.Money
	for _, c := range p.Funding.Contributors {
		amounts = append(amounts, c.Amount)
	}
	require.True(f.t, models.SumMoney(amounts...).Equal(p.Funding.Raised),
		"raised %s != sum of contributions", p.Funding.Raised.String())

	require.Equal(f.t, p.Voting.PositiveVotes+p.Voting.NegativeVotes, p.Voting.TotalVotes)
	require.Equal(f.t, int64(len(p.Voting.Voters)), p.Voting.TotalVotes)
	seen := map[primitive.ObjectID]bool{}
	for _, v := range p.Voting.Voters {
		require.False(f.t, seen[v.UserID], "user voted twice")
		seen[v.UserID] = true
	}

	cf, err := f.store.Crowdfunds.FindByProjectID(f.ctx, id)
	if p.Status == models.ProjectStatusIdea {
		require.ErrorIs(f.t, err, repositories.ErrNotFound)
		return
	}
	require.NoError(f.t, err)
	require.Equal(f.t, models.CrowdfundStatusFor(p.Status), cf.Status)
	require.Equal(f.t, p.Voting.TotalVotes, cf.TotalVotes)
}

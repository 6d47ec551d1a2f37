// Package memory is an in-process ledger store used for local development and tests.
// Transactions are serialized by a single lock and rolled back from a snapshot.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/internal/repositories"
	"github.com/ArowuTest/crowdfund-backend/internal/txn"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type txKey struct{}

type voteKey struct {
	projectID primitive.ObjectID
	userID    primitive.ObjectID
}

type state struct {
	projects    map[primitive.ObjectID]*models.Project
	crowdfunds  map[primitive.ObjectID]*models.Crowdfund // keyed by project id
	users       map[primitive.ObjectID]*models.User
	votes       map[voteKey]*models.Vote
	invitations []*models.TeamInvitation
}

func newState() state {
	return state{
		projects:   make(map[primitive.ObjectID]*models.Project),
		crowdfunds: make(map[primitive.ObjectID]*models.Crowdfund),
		users:      make(map[primitive.ObjectID]*models.User),
		votes:      make(map[voteKey]*models.Vote),
	}
}

func (st state) clone() state {
	cp := newState()
	for k, v := range st.projects {
		cp.projects[k] = v.Clone()
	}
	for k, v := range st.crowdfunds {
		cp.crowdfunds[k] = v.Clone()
	}
	for k, v := range st.users {
		u := *v
		cp.users[k] = &u
	}
	for k, v := range st.votes {
		vote := *v
		cp.votes[k] = &vote
	}
	for _, inv := range st.invitations {
		i := *inv
		cp.invitations = append(cp.invitations, &i)
	}
	return cp
}

// Store holds all collections in memory
type Store struct {
	mu          sync.Mutex
	data        state
	inbox       []*models.Notification
	failCommits int
	attempts    int
	commits     int
}

// Compile-time check to ensure Store can run transactions
var _ txn.Runner = (*Store)(nil)

// New creates an empty Store
func New() *Store {
	return &Store{data: newState()}
}

// Repositories returns the repository set backed by this store
func (s *Store) Repositories() *repositories.Store {
	return &repositories.Store{
		Tx:          s,
		Projects:    &ProjectRepository{store: s},
		Crowdfunds:  &CrowdfundRepository{store: s},
		Users:       &UserRepository{store: s},
		Votes:       &VoteRepository{store: s},
		Invitations: &InvitationRepository{store: s},

		Notifications: &NotificationRepository{store: s},
	}
}

// RunInTransaction runs fn holding the store lock. Any error, including an injected
// commit failure, restores the state captured before fn ran.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts++
	snapshot := s.data.clone()
	err := fn(context.WithValue(ctx, txKey{}, s))
	if err == nil && s.failCommits > 0 {
		s.failCommits--
		err = txn.Transient(errors.New("simulated write conflict on commit"))
	}
	if err != nil {
		s.data = snapshot
		return err
	}
	s.commits++
	return nil
}

// FailNextCommits makes the next n transactions fail at commit with a transient conflict
func (s *Store) FailNextCommits(n int) {
	s.mu.Lock()
	s.failCommits = n
	s.mu.Unlock()
}

// Attempts is the number of transactions started
func (s *Store) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// Commits is the number of transactions committed
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// access locks the store unless ctx already belongs to one of its transactions
func (s *Store) access(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// ProjectRepository implements repositories.ProjectRepository
type ProjectRepository struct {
	store *Store
}

var _ repositories.ProjectRepository = (*ProjectRepository)(nil)

func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	defer r.store.access(ctx)()
	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	if _, exists := r.store.data.projects[project.ID]; exists {
		return repositories.ErrDuplicateKey
	}
	r.store.data.projects[project.ID] = project.Clone()
	return nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	defer r.store.access(ctx)()
	p, ok := r.store.data.projects[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *ProjectRepository) FindAll(ctx context.Context, status models.ProjectStatus, page, limit int) ([]*models.Project, error) {
	defer r.store.access(ctx)()
	projects := []*models.Project{}
	for _, p := range r.store.data.projects {
		if status == "" || p.Status == status {
			projects = append(projects, p.Clone())
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		if projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].ID.Hex() > projects[j].ID.Hex()
		}
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return projects, nil
	}
	start := (page - 1) * limit
	if start >= len(projects) {
		return []*models.Project{}, nil
	}
	end := start + limit
	if end > len(projects) {
		end = len(projects)
	}
	return projects[start:end], nil
}

func (r *ProjectRepository) Count(ctx context.Context, status models.ProjectStatus) (int64, error) {
	defer r.store.access(ctx)()
	var n int64
	for _, p := range r.store.data.projects {
		if status == "" || p.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	defer r.store.access(ctx)()
	if _, ok := r.store.data.projects[project.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.store.data.projects[project.ID] = project.Clone()
	return nil
}

func (r *ProjectRepository) AppendContribution(ctx context.Context, id primitive.ObjectID, c models.Contribution, status models.ProjectStatus) error {
	defer r.store.access(ctx)()
	p, ok := r.store.data.projects[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Funding.Contributors = append(p.Funding.Contributors, c)
	p.Funding.Raised = p.Funding.Raised.Add(c.Amount)
	p.Status = status
	p.UpdatedAt = c.Timestamp
	return nil
}

func (r *ProjectRepository) AppendVote(ctx context.Context, id primitive.ObjectID, v models.Vote) error {
	defer r.store.access(ctx)()
	p, ok := r.store.data.projects[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Voting.Voters = append(p.Voting.Voters, v)
	p.Voting.TotalVotes++
	if v.Direction == models.VotePositive {
		p.Voting.PositiveVotes++
	} else {
		p.Voting.NegativeVotes++
	}
	p.UpdatedAt = v.Timestamp
	return nil
}

// CrowdfundRepository implements repositories.CrowdfundRepository
type CrowdfundRepository struct {
	store *Store
}

var _ repositories.CrowdfundRepository = (*CrowdfundRepository)(nil)

func (r *CrowdfundRepository) Create(ctx context.Context, crowdfund *models.Crowdfund) error {
	defer r.store.access(ctx)()
	if _, exists := r.store.data.crowdfunds[crowdfund.ProjectID]; exists {
		return repositories.ErrDuplicateKey
	}
	if crowdfund.ID.IsZero() {
		crowdfund.ID = primitive.NewObjectID()
	}
	r.store.data.crowdfunds[crowdfund.ProjectID] = crowdfund.Clone()
	return nil
}

func (r *CrowdfundRepository) FindByProjectID(ctx context.Context, projectID primitive.ObjectID) (*models.Crowdfund, error) {
	defer r.store.access(ctx)()
	c, ok := r.store.data.crowdfunds[projectID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return c.Clone(), nil
}

func (r *CrowdfundRepository) Update(ctx context.Context, crowdfund *models.Crowdfund) error {
	defer r.store.access(ctx)()
	if _, ok := r.store.data.crowdfunds[crowdfund.ProjectID]; !ok {
		return repositories.ErrNotFound
	}
	r.store.data.crowdfunds[crowdfund.ProjectID] = crowdfund.Clone()
	return nil
}

func (r *CrowdfundRepository) IncrementVotes(ctx context.Context, projectID primitive.ObjectID, direction models.VoteDirection) error {
	defer r.store.access(ctx)()
	c, ok := r.store.data.crowdfunds[projectID]
	if !ok {
		return repositories.ErrNotFound
	}
	c.TotalVotes++
	if direction == models.VotePositive {
		c.PositiveVotes++
	} else {
		c.NegativeVotes++
	}
	return nil
}

func (r *CrowdfundRepository) SetStatus(ctx context.Context, projectID primitive.ObjectID, status models.CrowdfundStatus) error {
	defer r.store.access(ctx)()
	c, ok := r.store.data.crowdfunds[projectID]
	if !ok {
		return repositories.ErrNotFound
	}
	c.Status = status
	return nil
}

func (r *CrowdfundRepository) FindPromotable(ctx context.Context, limit int) ([]*models.Crowdfund, error) {
	defer r.store.access(ctx)()
	result := []*models.Crowdfund{}
	for _, c := range r.store.data.crowdfunds {
		if c.Status == models.CrowdfundStatusValidated && c.ThresholdReached() {
			result = append(result, c.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ProjectID.Hex() < result[j].ProjectID.Hex() })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// UserRepository implements repositories.UserRepository
type UserRepository struct {
	store *Store
}

var _ repositories.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	defer r.store.access(ctx)()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, exists := r.store.data.users[user.ID]; exists {
		return repositories.ErrDuplicateKey
	}
	u := *user
	r.store.data.users[user.ID] = &u
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	defer r.store.access(ctx)()
	u, ok := r.store.data.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	defer r.store.access(ctx)()
	for _, u := range r.store.data.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *UserRepository) IncrementStats(ctx context.Context, id primitive.ObjectID, delta models.UserStatsDelta) error {
	defer r.store.access(ctx)()
	u, ok := r.store.data.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Stats = u.Stats.Apply(delta)
	return nil
}

// VoteRepository implements repositories.VoteRepository with a unique (project, user) key
type VoteRepository struct {
	store *Store
}

var _ repositories.VoteRepository = (*VoteRepository)(nil)

func (r *VoteRepository) Create(ctx context.Context, vote *models.Vote) error {
	defer r.store.access(ctx)()
	key := voteKey{projectID: vote.ProjectID, userID: vote.UserID}
	if _, exists := r.store.data.votes[key]; exists {
		return repositories.ErrDuplicateKey
	}
	v := *vote
	r.store.data.votes[key] = &v
	return nil
}

func (r *VoteRepository) CountByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	defer r.store.access(ctx)()
	var n int64
	for k := range r.store.data.votes {
		if k.projectID == projectID {
			n++
		}
	}
	return n, nil
}

// InvitationRepository implements repositories.InvitationRepository
type InvitationRepository struct {
	store *Store
}

var _ repositories.InvitationRepository = (*InvitationRepository)(nil)

func (r *InvitationRepository) Create(ctx context.Context, invitation *models.TeamInvitation) error {
	defer r.store.access(ctx)()
	if invitation.ID.IsZero() {
		invitation.ID = primitive.NewObjectID()
	}
	inv := *invitation
	r.store.data.invitations = append(r.store.data.invitations, &inv)
	return nil
}

func (r *InvitationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.TeamInvitation, error) {
	defer r.store.access(ctx)()
	for _, inv := range r.store.data.invitations {
		if inv.ID == id {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *InvitationRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.InvitationStatus, at time.Time) error {
	defer r.store.access(ctx)()
	for _, inv := range r.store.data.invitations {
		if inv.ID == id && inv.Status == from {
			inv.Status = to
			inv.RespondedAt = &at
			return nil
		}
	}
	return repositories.ErrNotFound
}

// NotificationRepository implements repositories.NotificationRepository. Notifications live
// outside the transactional state, so a rollback never removes one.
type NotificationRepository struct {
	store *Store
}

var _ repositories.NotificationRepository = (*NotificationRepository)(nil)

func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	defer r.store.access(ctx)()
	if notification.ID.IsZero() {
		notification.ID = primitive.NewObjectID()
	}
	n := *notification
	r.store.inbox = append(r.store.inbox, &n)
	return nil
}

func (r *NotificationRepository) FindByUser(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]*models.Notification, error) {
	defer r.store.access(ctx)()
	if page < 1 {
		page = 1
	}
	result := []*models.Notification{}
	skip := (page - 1) * limit
	// newest first
	for i := len(r.store.inbox) - 1; i >= 0; i-- {
		n := r.store.inbox[i]
		if n.UserID != userID {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		if limit > 0 && len(result) == limit {
			break
		}
		cp := *n
		result = append(result, &cp)
	}
	return result, nil
}

func (r *NotificationRepository) CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	defer r.store.access(ctx)()
	var n int64
	for _, note := range r.store.inbox {
		if note.UserID == userID {
			n++
		}
	}
	return n, nil
}

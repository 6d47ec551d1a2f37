// Package invitation issues team invitations. Only a bcrypt hash of each token is stored;
// the raw token goes out once through the notification dispatcher.
package invitation

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/internal/repositories"
	"github.com/ArowuTest/crowdfund-backend/pkg/notifier"
)

const (
	tokenBytes = 24
	// DefaultTTL is how long an invitation stays valid
	DefaultTTL = 7 * 24 * time.Hour
)

var (
	// ErrTokenMismatch is returned by Verify when the token does not match the stored hash
	ErrTokenMismatch = errors.New("invitation token does not match")
	ErrExpired       = errors.New("invitation has expired")
	ErrNotPending    = errors.New("invitation is no longer pending")
	// ErrWrongRecipient is returned when the caller's email is not the invited one
	ErrWrongRecipient = errors.New("invitation was sent to a different email")
	ErrNotFound       = errors.New("invitation not found")
)

// Issuer creates invitations and sends their tokens
type Issuer struct {
	repo       repositories.InvitationRepository
	dispatcher notifier.Dispatcher
	ttl        time.Duration
	cost       int
	now        func() time.Time
}

// Option customises an Issuer
type Option func(*Issuer)

// WithTTL sets the invitation lifetime
func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) { i.ttl = ttl }
}

// WithCost sets the bcrypt cost
func WithCost(cost int) Option {
	return func(i *Issuer) { i.cost = cost }
}

// NewIssuer creates an Issuer
func NewIssuer(repo repositories.InvitationRepository, dispatcher notifier.Dispatcher, opts ...Option) *Issuer {
	i := &Issuer{
		repo:       repo,
		dispatcher: dispatcher,
		ttl:        DefaultTTL,
		cost:       bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue stores an invitation for member and delivers its token
func (i *Issuer) Issue(ctx context.Context, project *models.Project, member models.TeamMember) (*models.TeamInvitation, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), i.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash invitation token: %w", err)
	}

	now := i.now().UTC()
	inv := &models.TeamInvitation{
		ProjectID: project.ID,
		Email:     member.Email,
		Role:      member.Role,
		TokenHash: string(hash),
		Status:    models.InvitationStatusPending,
		ExpiresAt: now.Add(i.ttl),
		CreatedAt: now,
	}
	if err := i.repo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to store invitation: %w", err)
	}

	if i.dispatcher != nil {
		err := i.dispatcher.Notify(ctx, models.Notification{
			Type:      models.NotificationTeamInvitation,
			ProjectID: project.ID,
			Recipient: member.Email,
			Subject:   fmt.Sprintf("You have been added to %s", project.Title),
			Content:   fmt.Sprintf("%s listed you on the team of %q.", member.Name, project.Title),
			Data:      map[string]string{"token": token, "invitationId": inv.ID.Hex()},
			CreatedAt: now,
		})
		if err != nil {
			return inv, fmt.Errorf("failed to deliver invitation: %w", err)
		}
	}
	return inv, nil
}

// Accept marks a pending invitation accepted for the invited email. An expired
// invitation is marked EXPIRED and rejected.
func (i *Issuer) Accept(ctx context.Context, id primitive.ObjectID, email, token string) (*models.TeamInvitation, error) {
	inv, err := i.repo.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load invitation: %w", err)
	}
	if !strings.EqualFold(inv.Email, strings.TrimSpace(email)) {
		return nil, ErrWrongRecipient
	}
	if inv.Status != models.InvitationStatusPending {
		return nil, fmt.Errorf("%w: %s", ErrNotPending, inv.Status)
	}

	now := i.now().UTC()
	if err := Verify(inv, token, now); err != nil {
		if errors.Is(err, ErrExpired) {
			if uerr := i.setStatus(ctx, inv, models.InvitationStatusExpired, now); uerr != nil {
				return nil, uerr
			}
		}
		return nil, err
	}
	if err := i.setStatus(ctx, inv, models.InvitationStatusAccepted, now); err != nil {
		return nil, err
	}
	return inv, nil
}

func (i *Issuer) setStatus(ctx context.Context, inv *models.TeamInvitation, to models.InvitationStatus, at time.Time) error {
	err := i.repo.UpdateStatus(ctx, inv.ID, models.InvitationStatusPending, to, at)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotPending
	}
	if err != nil {
		return fmt.Errorf("failed to update invitation: %w", err)
	}
	inv.Status = to
	inv.RespondedAt = &at
	return nil
}

// Verify checks token against inv and its expiry
func Verify(inv *models.TeamInvitation, token string, now time.Time) error {
	if now.After(inv.ExpiresAt) {
		return fmt.Errorf("%w: %s at %s", ErrExpired, inv.ID.Hex(), inv.ExpiresAt.Format(time.RFC3339))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(inv.TokenHash), []byte(token)); err != nil {
		return ErrTokenMismatch
	}
	return nil
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate invitation token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

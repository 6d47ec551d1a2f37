// Package notifier delivers ledger notifications to people outside the core.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/internal/repositories"
	"github.com/ArowuTest/crowdfund-backend/pkg/jwt"
)

// Dispatcher represents a notification channel
type Dispatcher interface {
	Notify(ctx context.Context, n models.Notification) error
}

// Mode names a dispatcher implementation in config
const (
	ModeLog     = "log"
	ModeWebhook = "webhook"
)

// Config selects and configures a dispatcher
type Config struct {
	Mode          string
	WebhookURL    string
	SigningSecret string
	Timeout       time.Duration
	// Inbox also stores notifications addressed to a known user
	Inbox bool
}

// New builds the dispatcher named by cfg.Mode. With cfg.Inbox set and a non-nil inbox the
// dispatcher is wrapped in a StoreDispatcher.
func New(cfg Config, log *zap.SugaredLogger, inbox repositories.NotificationRepository) (Dispatcher, error) {
	var d Dispatcher
	switch cfg.Mode {
	case "", ModeLog:
		d = NewLogDispatcher(log)
	case ModeWebhook:
		w, err := NewWebhookDispatcher(cfg)
		if err != nil {
			return nil, err
		}
		d = w
	default:
		return nil, fmt.Errorf("unknown notifier mode %q", cfg.Mode)
	}
	if cfg.Inbox && inbox != nil {
		d = NewStoreDispatcher(inbox, d)
	}
	return d, nil
}

// StoreDispatcher saves user notifications to the inbox and then hands every notification to next
type StoreDispatcher struct {
	inbox repositories.NotificationRepository
	next  Dispatcher
}

// NewStoreDispatcher creates a StoreDispatcher. next may be nil.
func NewStoreDispatcher(inbox repositories.NotificationRepository, next Dispatcher) *StoreDispatcher {
	return &StoreDispatcher{inbox: inbox, next: next}
}

// Notify stores n when it has a user and forwards it
func (d *StoreDispatcher) Notify(ctx context.Context, n models.Notification) error {
	var errs []error
	if !n.UserID.IsZero() {
		if err := d.inbox.Create(ctx, &n); err != nil {
			errs = append(errs, fmt.Errorf("failed to store notification: %w", err))
		}
	}
	if d.next != nil {
		if err := d.next.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogDispatcher writes notifications to the log
type LogDispatcher struct {
	log *zap.SugaredLogger
}

// NewLogDispatcher creates a LogDispatcher
func NewLogDispatcher(log *zap.SugaredLogger) *LogDispatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &LogDispatcher{log: log.Named("notifier")}
}

// Notify logs n
func (d *LogDispatcher) Notify(ctx context.Context, n models.Notification) error {
	d.log.Infow("notification",
		"type", n.Type, "projectId", n.ProjectID.Hex(), "userId", n.UserID.Hex(),
		"recipient", n.Recipient, "subject", n.Subject)
	return nil
}

// webhookSubject identifies this service in webhook bearer tokens
const webhookSubject = "crowdfund-backend"

// WebhookDispatcher posts notifications as JSON to an HTTP endpoint. Each request carries a
// short-lived HS256 bearer token signed with the shared secret.
type WebhookDispatcher struct {
	url        string
	tokens     *jwt.TokenService
	httpClient *http.Client
}

// NewWebhookDispatcher creates a WebhookDispatcher
func NewWebhookDispatcher(cfg Config) (*WebhookDispatcher, error) {
	if cfg.WebhookURL == "" {
		return nil, errors.New("notifier webhook url is required")
	}
	tokens, err := jwt.NewTokenService(cfg.SigningSecret, "crowdfund-backend", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("notifier signing: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookDispatcher{
		url:    cfg.WebhookURL,
		tokens: tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Notify posts n to the webhook
func (d *WebhookDispatcher) Notify(ctx context.Context, n models.Notification) error {
	token, err := d.tokens.Issue(webhookSubject, "", "notifier")
	if err != nil {
		return fmt.Errorf("failed to sign webhook token: %w", err)
	}

	jsonBody, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook failed with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Recorder keeps notifications in memory
type Recorder struct {
	mu   sync.Mutex
	sent []models.Notification
	Err  error
}

// Notify records n, or returns Err when set
func (r *Recorder) Notify(ctx context.Context, n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, n)
	return nil
}

// Sent returns a copy of the recorded notifications
func (r *Recorder) Sent() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.sent...)
}

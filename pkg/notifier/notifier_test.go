package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/internal/repositories/memory"
	"github.com/ArowuTest/crowdfund-backend/pkg/jwt"
)

func TestNewSelectsDispatcher(t *testing.T) {
	d, err := New(Config{}, zap.NewNop().Sugar(), nil)
	require.NoError(t, err)
	assert.IsType(t, &LogDispatcher{}, d)

	_, err = New(Config{Mode: ModeWebhook}, nil, nil)
	assert.Error(t, err)

	_, err = New(Config{Mode: ModeWebhook, WebhookURL: "http://localhost"}, nil, nil)
	assert.ErrorIs(t, err, jwt.ErrMissingSecret)

	_, err = New(Config{Mode: "pigeon"}, nil, nil)
	assert.Error(t, err)
}

func TestWebhookDispatcherSignsRequests(t *testing.T) {
	verifier, err := jwt.NewTokenService("hook-secret", "crowdfund-backend", 0)
	require.NoError(t, err)

	var got models.Notification
	var claims *jwt.Claims
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var err error
		claims, err = verifier.Parse(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		assert.NoError(t, err)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	d, err := NewWebhookDispatcher(Config{WebhookURL: server.URL, SigningSecret: "hook-secret"})
	require.NoError(t, err)

	n := models.Notification{
		Type:      models.NotificationProjectFunded,
		ProjectID: primitive.NewObjectID(),
		Recipient: "ada@example.com",
		Subject:   "Funded",
	}
	require.NoError(t, d.Notify(context.Background(), n))
	assert.Equal(t, n.ProjectID, got.ProjectID)
	assert.Equal(t, n.Subject, got.Subject)
	require.NotNil(t, claims)
	assert.Equal(t, webhookSubject, claims.Subject)
	assert.Empty(t, claims.Email)
	assert.Equal(t, "notifier", claims.Role)
}

func TestWebhookDispatcherReportsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusBadGateway)
	}))
	defer server.Close()

	d, err := NewWebhookDispatcher(Config{WebhookURL: server.URL, SigningSecret: "hook-secret"})
	require.NoError(t, err)
	err = d.Notify(context.Background(), models.Notification{Type: models.NotificationGoalReached})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "down for maintenance")
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Notify(context.Background(), models.Notification{Subject: "one"}))

	sent := r.Sent()
	require.Len(t, sent, 1)
	sent[0].Subject = "changed"
	assert.Equal(t, "one", r.Sent()[0].Subject)

	r.Err = errors.New("smtp down")
	assert.Error(t, r.Notify(context.Background(), models.Notification{}))
	assert.Len(t, r.Sent(), 1)
}

func TestStoreDispatcherKeepsUserNotifications(t *testing.T) {
	store := memory.New().Repositories()
	next := &Recorder{}
	d, err := New(Config{Inbox: true}, nil, store.Notifications)
	require.NoError(t, err)
	require.IsType(t, &StoreDispatcher{}, d)
	d = NewStoreDispatcher(store.Notifications, next)

	user := primitive.NewObjectID()
	ctx := context.Background()
	require.NoError(t, d.Notify(ctx, models.Notification{Type: models.NotificationProjectCreated, UserID: user, Subject: "first"}))
	require.NoError(t, d.Notify(ctx, models.Notification{Type: models.NotificationProjectFunded, UserID: user, Subject: "second"}))
	require.NoError(t, d.Notify(ctx, models.Notification{Type: models.NotificationTeamInvitation, Recipient: "ada@example.com"}))

	assert.Len(t, next.Sent(), 3)
	inbox, err := store.Notifications.FindByUser(ctx, user, 1, 10)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, "second", inbox[0].Subject)
	assert.False(t, inbox[0].ID.IsZero())

	n, err := store.Notifications.CountByUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	next.Err = errors.New("webhook down")
	err = d.Notify(ctx, models.Notification{UserID: user})
	assert.ErrorIs(t, err, next.Err)
	n, _ = store.Notifications.CountByUser(ctx, user)
	assert.Equal(t, int64(3), n)
}

package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/internal/repositories"
)

// NotificationPage is one page of a user's inbox
type NotificationPage struct {
	Notifications []*models.Notification `json:"notifications"`
	Total         int64                  `json:"total"`
	Page          int                    `json:"page"`
	Limit         int                    `json:"limit"`
}

// Inbox implements InboxService
type Inbox struct {
	repo repositories.NotificationRepository
}

var _ InboxService = (*Inbox)(nil)

// NewInbox creates a new Inbox
func NewInbox(repo repositories.NotificationRepository) *Inbox {
	return &Inbox{repo: repo}
}

// ListNotifications returns one page of userID's notifications, newest first
func (s *Inbox) ListNotifications(ctx context.Context, userID primitive.ObjectID, page, limit int) (*NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	notifications, err := s.repo.FindByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, surface(err)
	}
	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, surface(err)
	}
	return &NotificationPage{Notifications: notifications, Total: total, Page: page, Limit: limit}, nil
}

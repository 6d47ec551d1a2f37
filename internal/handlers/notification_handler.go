package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ArowuTest/crowdfund-backend/internal/middleware"
	"github.com/ArowuTest/crowdfund-backend/internal/services"
)

// NotificationHandler serves the caller's notification inbox
type NotificationHandler struct {
	inbox services.InboxService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(inbox services.InboxService) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

// ListNotifications handles GET /notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.inbox.ListNotifications(c.Request.Context(), userID, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

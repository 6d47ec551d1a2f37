package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ArowuTest/crowdfund-backend/internal/middleware"
	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/pkg/invitation"
)

// InvitationAcceptor accepts team invitations
type InvitationAcceptor interface {
	Accept(ctx context.Context, id primitive.ObjectID, email, token string) (*models.TeamInvitation, error)
}

// InvitationHandler handles team invitation requests
type InvitationHandler struct {
	invitations InvitationAcceptor
}

// NewInvitationHandler creates a new InvitationHandler
func NewInvitationHandler(invitations InvitationAcceptor) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

// AcceptInvitationRequest is the body of POST /invitations/:id/accept
type AcceptInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}

// AcceptInvitation handles POST /invitations/:id/accept. The caller's email claim must match the invitation.
func (h *InvitationHandler) AcceptInvitation(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	email, ok := middleware.UserEmail(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Token carries no email"})
		return
	}

	var req AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inv, err := h.invitations.Accept(c.Request.Context(), id, email, req.Token)
	if err != nil {
		writeInvitationError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func writeInvitationError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, invitation.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, invitation.ErrWrongRecipient), errors.Is(err, invitation.ErrTokenMismatch):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, invitation.ErrExpired), errors.Is(err, invitation.ErrNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

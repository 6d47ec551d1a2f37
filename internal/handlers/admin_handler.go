package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ArowuTest/crowdfund-backend/internal/middleware"
	"github.com/ArowuTest/crowdfund-backend/internal/services"
)

// AdminHandler handles admin review and promotion requests
type AdminHandler struct {
	review    services.ReviewService
	promotion services.PromotionService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(review services.ReviewService, promotion services.PromotionService) *AdminHandler {
	return &AdminHandler{
		review:    review,
		promotion: promotion,
	}
}

// ReviewRequest is the body of POST /admin/projects/:id/review
type ReviewRequest struct {
	Action string `json:"action" binding:"required"`
	Note   string `json:"note"`
}

// ReviewProject handles POST /admin/projects/:id/review
func (h *AdminHandler) ReviewProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	adminID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	details, err := h.review.AdminReview(c.Request.Context(), services.ReviewRequest{
		ProjectID: id,
		AdminID:   adminID,
		Action:    services.ReviewAction(strings.ToLower(req.Action)),
		Note:      req.Note,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// PromoteProject handles POST /admin/projects/:id/promote
func (h *AdminHandler) PromoteProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	details, err := h.promotion.PromoteProject(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// LaunchProject handles POST /admin/projects/:id/launch
func (h *AdminHandler) LaunchProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	details, err := h.promotion.LaunchProject(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// PromoteEligible handles POST /admin/promotions/run
func (h *AdminHandler) PromoteEligible(c *gin.Context) {
	report, err := h.promotion.PromoteEligible(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

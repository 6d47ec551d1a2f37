package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ArowuTest/crowdfund-backend/internal/middleware"
	"github.com/ArowuTest/crowdfund-backend/internal/models"
	"github.com/ArowuTest/crowdfund-backend/internal/services"
)

// ProjectHandler handles project, funding and voting HTTP requests
type ProjectHandler struct {
	projects services.ProjectService
	funding  services.FundingService
	voting   services.VotingService
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projects services.ProjectService, funding services.FundingService, voting services.VotingService) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		funding:  funding,
		voting:   voting,
	}
}

// FundRequest is the body of POST /projects/:id/fund
type FundRequest struct {
	Amount        models.Money `json:"amount"`
	ExternalTxRef string       `json:"externalTxRef"`
}

// VoteRequest is the body of POST /projects/:id/votes
type VoteRequest struct {
	Direction string `json:"direction" binding:"required"`
}

// CreateProject handles POST /projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	creatorID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
		return
	}

	var sub models.ProjectSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	details, err := h.projects.CreateProject(c.Request.Context(), creatorID, &sub)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, details)
}

// SubmitProject handles POST /projects/:id/submit
func (h *ProjectHandler) SubmitProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	creatorID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
		return
	}

	details, err := h.projects.SubmitProject(c.Request.Context(), id, creatorID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// GetProject handles GET /projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	details, err := h.projects.GetProject(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// ListProjects handles GET /projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	status := models.ProjectStatus(strings.ToUpper(c.Query("status")))

	result, err := h.projects.ListProjects(c.Request.Context(), status, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// FundProject handles POST /projects/:id/fund
func (h *ProjectHandler) FundProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	contributorID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
		return
	}

	var req FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.funding.FundProject(c.Request.Context(), services.FundRequest{
		ProjectID:     id,
		ContributorID: contributorID,
		Amount:        req.Amount,
		ExternalTxRef: req.ExternalTxRef,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// VoteOnProject handles POST /projects/:id/votes
func (h *ProjectHandler) VoteOnProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	voterID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.voting.VoteOnProject(c.Request.Context(), services.VoteRequest{
		ProjectID: id,
		VoterID:   voterID,
		Direction: models.VoteDirection(strings.ToUpper(req.Direction)),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// projectID parses the :id path parameter, writing a 400 when it is malformed
func projectID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return primitive.NilObjectID, false
	}
	return id, true
}

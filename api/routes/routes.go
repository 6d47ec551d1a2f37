package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ArowuTest/crowdfund-backend/internal/handlers"
	"github.com/ArowuTest/crowdfund-backend/internal/middleware"
	"github.com/ArowuTest/crowdfund-backend/pkg/jwt"
)

// HandlerDependencies holds everything the router needs
type HandlerDependencies struct {
	ProjectHandler      *handlers.ProjectHandler
	AdminHandler        *handlers.AdminHandler
	NotificationHandler *handlers.NotificationHandler
	InvitationHandler   *handlers.InvitationHandler
	Tokens              *jwt.TokenService
	AllowedHosts        []string
	Logger              *zap.SugaredLogger
}

// SetupRouter sets up the router
func SetupRouter(deps HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(deps.AllowedHosts))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(deps.Logger))

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})
		public.GET("/projects", deps.ProjectHandler.ListProjects)
		public.GET("/projects/:id", deps.ProjectHandler.GetProject)
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(deps.Tokens, deps.Logger))
	{
		projects := protected.Group("/projects")
		{
			projects.POST("", deps.ProjectHandler.CreateProject)
			projects.POST("/:id/submit", deps.ProjectHandler.SubmitProject)
			projects.POST("/:id/fund", deps.ProjectHandler.FundProject)
			projects.POST("/:id/votes", deps.ProjectHandler.VoteOnProject)
		}

		protected.GET("/notifications", deps.NotificationHandler.ListNotifications)
		protected.POST("/invitations/:id/accept", deps.InvitationHandler.AcceptInvitation)

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireRole(jwt.RoleAdmin))
		{
			admin.POST("/projects/:id/review", deps.AdminHandler.ReviewProject)
			admin.POST("/projects/:id/promote", deps.AdminHandler.PromoteProject)
			admin.POST("/projects/:id/launch", deps.AdminHandler.LaunchProject)
			admin.POST("/promotions/run", deps.AdminHandler.PromoteEligible)
		}
	}

	return router
}

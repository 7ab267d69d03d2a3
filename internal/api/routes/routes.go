package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/transparencity/backend/internal/api/handlers"
	"github.com/transparencity/backend/internal/api/middleware"
	"github.com/transparencity/backend/internal/cache"
	"github.com/transparencity/backend/internal/config"
	"github.com/transparencity/backend/internal/services"
)

// Services bundles the long-lived service instances shared by the HTTP layer, the deadline
// scheduler and the CLI.
type Services struct {
	Auth           *services.AuthService
	Users          *services.UserService
	Proposals      *services.ProposalService
	Votes          *services.VoteService
	Comments       *services.CommentService
	Responses      *services.ResponseService
	Implementation *services.ImplementationService
	Audit          *services.AuditService
	Notifications  *services.NotificationService
}

// NewServices builds every service on top of db. When cacheClient is non-nil, identity
// verification answers are cached in Redis.
func NewServices(db *gorm.DB, cfg config.Config, cacheClient *cache.Client) *Services {
	audit := services.NewAuditService(db)
	notifications := services.NewNotificationService(db)

	var verifier services.IdentityVerifier = services.NewDBVerifier(db)
	var invalidator services.VerificationInvalidator
	if cacheClient != nil {
		cached := services.NewCachedVerifier(verifier, cacheClient, cfg.VerificationCacheTTL)
		verifier = cached
		invalidator = cached
	}

	proposals := services.NewProposalService(db, audit, verifier, notifications, services.ProposalOptions{
		VotingPeriod:   cfg.VotingPeriod,
		ReviewRequired: cfg.ReviewRequired,
	})
	return &Services{
		Auth:           services.NewAuthService(db, cfg),
		Users:          services.NewUserService(db, audit, invalidator),
		Proposals:      proposals,
		Votes:          services.NewVoteService(db, audit, verifier, proposals),
		Comments:       services.NewCommentService(db, audit, verifier),
		Responses:      services.NewResponseService(db, audit, notifications),
		Implementation: services.NewImplementationService(db, audit, notifications),
		Audit:          audit,
		Notifications:  notifications,
	}
}

// Options carries optional collaborators for Register.
type Options struct {
	// Cache is reported by the health endpoint when set.
	Cache handlers.Pinger
	// Registry is exposed at /metrics when set.
	Registry *prometheus.Registry
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
}

// Register wires up the versioned API.
func Register(router *gin.Engine, db *gorm.DB, svc *Services, opts Options) {
	if opts.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")
	api.GET("/health", handlers.NewHealthHandler(db, opts.Cache).Check)

	authHandler := handlers.NewAuthHandler(svc.Auth, opts.SecureCookies)
	userHandler := handlers.NewUserHandler(svc.Users)
	proposalHandler := handlers.NewProposalHandler(svc.Proposals)
	voteHandler := handlers.NewVoteHandler(svc.Votes)
	commentHandler := handlers.NewCommentHandler(svc.Comments)
	responseHandler := handlers.NewResponseHandler(svc.Responses)
	implementationHandler := handlers.NewImplementationHandler(svc.Implementation)
	auditHandler := handlers.NewAuditHandler(svc.Audit)
	providerHandler := handlers.NewNotificationProviderHandler(svc.Notifications)

	// Public
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/proposals", proposalHandler.List)
	api.GET("/proposals/:id", proposalHandler.Get)
	api.GET("/proposals/:id/votes", voteHandler.List)
	api.GET("/proposals/:id/comments", commentHandler.Thread)
	api.GET("/comments/:id/replies", commentHandler.Replies)
	api.GET("/proposals/:id/response", responseHandler.Get)
	api.GET("/proposals/:id/implementation", implementationHandler.List)
	api.GET("/audit", auditHandler.Range)
	api.GET("/audit/proposals/:id", auditHandler.ByProposal)
	api.GET("/audit/actors/:actor", auditHandler.ByActor)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(svc.Auth))
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/change-password", authHandler.ChangePassword)

		protected.POST("/proposals", proposalHandler.Create)
		protected.POST("/proposals/:id/close", proposalHandler.Close)
		protected.POST("/proposals/:id/votes", voteHandler.Cast)
		protected.GET("/proposals/:id/votes/me", voteHandler.Mine)
		protected.PUT("/votes/:id", voteHandler.Update)
		protected.POST("/proposals/:id/comments", commentHandler.Create)
	}

	admin := protected.Group("/")
	admin.Use(middleware.RequireRole("admin"))
	{
		admin.GET("/users", userHandler.List)
		admin.GET("/users/:id", userHandler.Get)
		admin.POST("/users/:id/verify", userHandler.Verify)
		admin.DELETE("/users/:id/verify", userHandler.Revoke)

		admin.PUT("/proposals/:id/status", proposalHandler.UpdateStatus)
		admin.POST("/proposals/:id/response", responseHandler.Create)
		admin.POST("/proposals/:id/implementation", implementationHandler.Create)
		admin.GET("/audit/verify", auditHandler.Verify)

		admin.GET("/notifications/providers", providerHandler.List)
		admin.POST("/notifications/providers", providerHandler.Create)
		admin.PUT("/notifications/providers/:id", providerHandler.Update)
		admin.DELETE("/notifications/providers/:id", providerHandler.Delete)
		admin.POST("/notifications/providers/test", providerHandler.Test)
	}
}

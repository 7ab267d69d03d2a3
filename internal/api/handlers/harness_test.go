package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/transparencity/backend/internal/api/middleware"
	"github.com/transparencity/backend/internal/config"
	"github.com/transparencity/backend/internal/services"
)

// apiEnv is a router wired with real services over an in-memory database.
type apiEnv struct {
	db     *gorm.DB
	router *gin.Engine
	auth   *services.AuthService
	users  *services.UserService

	adminToken   string
	citizenToken string
	citizenID    uint
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := OpenTestDB(t)
	cfg := config.Config{JWTSecret: "test-secret", VotingPeriod: time.Hour}

	audit := services.NewAuditService(db)
	notifications := services.NewNotificationService(db)
	verifier := services.NewDBVerifier(db)
	proposals := services.NewProposalService(db, audit, verifier, notifications,
		services.ProposalOptions{VotingPeriod: cfg.VotingPeriod})

	env := &apiEnv{
		db:    db,
		auth:  services.NewAuthService(db, cfg),
		users: services.NewUserService(db, audit, nil),
	}

	proposalHandler := NewProposalHandler(proposals)
	voteHandler := NewVoteHandler(services.NewVoteService(db, audit, verifier, proposals))
	commentHandler := NewCommentHandler(services.NewCommentService(db, audit, verifier))
	responseHandler := NewResponseHandler(services.NewResponseService(db, audit, notifications))
	implHandler := NewImplementationHandler(services.NewImplementationService(db, audit, notifications))
	auditHandler := NewAuditHandler(audit)
	authHandler := NewAuthHandler(env.auth, false)
	userHandler := NewUserHandler(env.users)

	r := gin.New()
	r.Use(middleware.RequestID())
	api := r.Group("/api/v1")
	api.GET("/health", NewHealthHandler(db, nil).Check)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/proposals", proposalHandler.List)
	api.GET("/proposals/:id", proposalHandler.Get)
	api.GET("/proposals/:id/votes", voteHandler.List)
	api.GET("/proposals/:id/comments", commentHandler.Thread)
	api.GET("/comments/:id/replies", commentHandler.Replies)
	api.GET("/proposals/:id/response", responseHandler.Get)
	api.GET("/proposals/:id/implementation", implHandler.List)
	api.GET("/audit", auditHandler.Range)
	api.GET("/audit/proposals/:id", auditHandler.ByProposal)
	api.GET("/audit/actors/:actor", auditHandler.ByActor)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(env.auth))
	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/auth/me", authHandler.Me)
	protected.POST("/auth/change-password", authHandler.ChangePassword)
	protected.POST("/proposals", proposalHandler.Create)
	protected.POST("/proposals/:id/close", proposalHandler.Close)
	protected.POST("/proposals/:id/votes", voteHandler.Cast)
	protected.GET("/proposals/:id/votes/me", voteHandler.Mine)
	protected.PUT("/votes/:id", voteHandler.Update)
	protected.POST("/proposals/:id/comments", commentHandler.Create)
	protected.GET("/users", userHandler.List)
	protected.GET("/users/:id", userHandler.Get)
	protected.POST("/users/:id/verify", userHandler.Verify)
	protected.DELETE("/users/:id/verify", userHandler.Revoke)
	protected.PUT("/proposals/:id/status", proposalHandler.UpdateStatus)
	protected.POST("/proposals/:id/response", responseHandler.Create)
	protected.POST("/proposals/:id/implementation", implHandler.Create)
	protected.GET("/audit/verify", auditHandler.Verify)
	env.router = r

	adminUser, err := env.auth.Register("admin@city.example", "password123", "City Clerk")
	require.NoError(t, err)
	citizenUser, err := env.auth.Register("citizen@city.example", "password123", "Ada Citizen")
	require.NoError(t, err)
	env.citizenID = citizenUser.ID

	env.adminToken, err = env.auth.GenerateToken(adminUser)
	require.NoError(t, err)
	env.citizenToken, err = env.auth.GenerateToken(citizenUser)
	require.NoError(t, err)
	return env
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *apiEnv) verifyCitizen(t *testing.T) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/users/"+itoa(e.citizenID)+"/verify", e.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func (e *apiEnv) createProposal(t *testing.T, title string) uint {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/proposals", e.adminToken, map[string]interface{}{
		"title":       title,
		"description": "Details for " + title,
		"category":    "transportation",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p struct {
		ID uint `json:"id"`
	}
	decode(t, w, &p)
	return p.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

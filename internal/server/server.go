package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"planner/internal/app"
	"planner/internal/jira"
	"planner/internal/storage/sqlite"
)

// Server provides the HTTP surface of the planner: project and local task
// CRUD, ordered issue views, the schedule operations, and tracker mutation
// passthroughs.
type Server struct {
	engine    *gin.Engine
	store     *sqlite.Store
	tracker   *jira.Client
	svc       *app.Service
	logger    *slog.Logger
	staticDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *sqlite.Store, tracker *jira.Client, svc *app.Service, logger *slog.Logger, staticDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))

	srv := &Server{
		engine:    router,
		store:     store,
		tracker:   tracker,
		svc:       svc,
		logger:    logger,
		staticDir: staticDir,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.POST("/refresh", s.handleRefresh)

		projects := api.Group("/projects")
		{
			projects.GET("", s.handleListProjects)
			projects.POST("", s.handleCreateProject)
			projects.PUT(":id", s.handleUpdateProject)
			projects.DELETE(":id", s.handleDeleteProject)
			projects.GET(":id/tasks", s.handleListLocalTasks)
			projects.POST(":id/tasks", s.handleCreateLocalTask)
			projects.GET(":id/issues", s.handleListIssues)
			projects.POST(":id/issues", s.handleCreateIssue)
			projects.GET(":id/progress", s.handleProgress)
		}

		api.PUT("/tasks/:id", s.handleReplaceLocalTask)
		api.DELETE("/tasks/:id", s.handleDeleteLocalTask)

		issues := api.Group("/issues")
		{
			issues.PUT(":key", s.handleEditIssue)
			issues.DELETE(":key", s.handleDeleteIssue)
			issues.POST(":key/transition", s.handleTransitionIssue)
			issues.POST(":key/comment", s.handleCommentIssue)
			issues.POST(":key/assign", s.handleAssignIssue)
		}

		sched := api.Group("/schedule")
		{
			sched.GET("", s.handleGetSchedule)
			sched.POST("", s.handleAddToSchedule)
			sched.DELETE(":id", s.handleRemoveFromSchedule)
			sched.POST("reorder", s.handleReorderSchedule)
			sched.POST(":id/expand", s.handleExpandSchedule)
		}
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleRefresh sweeps all tracked projects. Per-project failures are
// reported inside the result list without failing the request.
func (s *Server) handleRefresh(c *gin.Context) {
	results, err := s.svc.RefreshAll(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"results": results})
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if err != nil {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}

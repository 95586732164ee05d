package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"planner/internal/models"
)

type taskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
}

// handleListLocalTasks returns a project's locally created tasks in display
// order.
func (s *Server) handleListLocalTasks(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	tasks, err := s.svc.ListOrderedLocalTasks(c.Request.Context(), projectID)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": tasks})
}

// handleCreateLocalTask inserts a new locally created task.
func (s *Server) handleCreateLocalTask(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Title == nil || *req.Title == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("title is required"))
		return
	}

	task := models.Task{
		ProjectID:   projectID,
		Title:       *req.Title,
		Description: req.Description,
		Status:      getString(req.Status),
		Priority:    getString(req.Priority),
	}
	created, err := s.store.CreateTask(c.Request.Context(), task)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": created})
}

// handleReplaceLocalTask overwrites the whole task record. Task mutation is
// replace-by-id rather than per-field patching.
func (s *Server) handleReplaceLocalTask(c *gin.Context) {
	id := c.Param("id")

	var task models.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	task.ID = id
	if task.Key == "" {
		task.Key = id
	}

	replaced, err := s.store.ReplaceTask(c.Request.Context(), task)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": replaced})
}

// handleDeleteLocalTask removes a locally created task completely.
func (s *Server) handleDeleteLocalTask(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.DeleteTask(c.Request.Context(), id); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

func getString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"planner/internal/models"
)

// handleGetSchedule returns the personal schedule in display order.
func (s *Server) handleGetSchedule(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"schedule": s.svc.Schedule()})
}

type addToScheduleRequest struct {
	ProjectID int64  `json:"project_id"`
	TaskID    string `json:"task_id"`
}

// handleAddToSchedule queues a task. Adding an already scheduled task is not
// an error; the response reports changed=false.
func (s *Server) handleAddToSchedule(c *gin.Context) {
	var req addToScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	change, err := s.svc.AddToSchedule(c.Request.Context(), req.ProjectID, req.TaskID)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"changed": change.Changed, "schedule": s.svc.Schedule()})
}

// handleRemoveFromSchedule drops one schedule entry; missing ids are a
// no-op.
func (s *Server) handleRemoveFromSchedule(c *gin.Context) {
	change, err := s.svc.RemoveFromSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"changed": change.Changed, "schedule": s.svc.Schedule()})
}

type reorderRequest struct {
	OldIndex int `json:"old_index"`
	NewIndex int `json:"new_index"`
}

// handleReorderSchedule moves one entry to a new position.
func (s *Server) handleReorderSchedule(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	change, err := s.svc.ReorderSchedule(c.Request.Context(), req.OldIndex, req.NewIndex)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"changed": change.Changed, "schedule": s.svc.Schedule()})
}

type expandRequest struct {
	Subtasks []models.Task `json:"subtasks"`
}

// handleExpandSchedule splices generated subtasks in directly after their
// parent entry.
func (s *Server) handleExpandSchedule(c *gin.Context) {
	var req expandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	change, err := s.svc.ExpandSchedule(c.Request.Context(), c.Param("id"), req.Subtasks)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"changed": change.Changed, "schedule": s.svc.Schedule()})
}

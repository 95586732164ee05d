package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleListIssues returns a project's cached tracker issues in display
// order. The cache is filled by POST /api/refresh.
func (s *Server) handleListIssues(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"issues": s.svc.ListOrderedIssues(projectID)})
}

type createIssueRequest struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// handleCreateIssue creates an issue in the project's tracker project.
func (s *Server) handleCreateIssue(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req createIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Summary == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("summary is required"))
		return
	}

	project, err := s.store.GetProject(c.Request.Context(), projectID)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if !project.Tracked() {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("project %q has no tracker key", project.Name))
		return
	}

	key, err := s.tracker.CreateIssue(c.Request.Context(), project.JiraKey, req.Summary, req.Description, req.Priority)
	if err != nil {
		s.respondError(c, http.StatusBadGateway, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"key": key})
}

type editIssueRequest struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

// handleEditIssue updates an issue's summary or description.
func (s *Server) handleEditIssue(c *gin.Context) {
	var req editIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := s.tracker.EditIssue(c.Request.Context(), c.Param("key"), req.Summary, req.Description); err != nil {
		s.respondError(c, http.StatusBadGateway, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "updated"})
}

// handleDeleteIssue removes an issue from the tracker.
func (s *Server) handleDeleteIssue(c *gin.Context) {
	if err := s.tracker.DeleteIssue(c.Request.Context(), c.Param("key")); err != nil {
		s.respondError(c, http.StatusBadGateway, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleTransitionIssue moves an issue to a new workflow state.
func (s *Server) handleTransitionIssue(c *gin.Context) {
	var req struct {
		TransitionID string `json:"transition_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.TransitionID == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("transition_id is required"))
		return
	}
	if err := s.tracker.TransitionIssue(c.Request.Context(), c.Param("key"), req.TransitionID); err != nil {
		s.respondError(c, http.StatusBadGateway, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "transitioned"})
}

// handleCommentIssue posts a plain-text comment on an issue.
func (s *Server) handleCommentIssue(c *gin.Context) {
	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Body == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("body is required"))
		return
	}
	if err := s.tracker.AddComment(c.Request.Context(), c.Param("key"), req.Body); err != nil {
		s.respondError(c, http.StatusBadGateway, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"status": "commented"})
}

// handleAssignIssue sets or clears an issue's assignee.
func (s *Server) handleAssignIssue(c *gin.Context) {
	var req struct {
		AccountID string `json:"account_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := s.tracker.AssignIssue(c.Request.Context(), c.Param("key"), req.AccountID); err != nil {
		s.respondError(c, http.StatusBadGateway, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "assigned"})
}

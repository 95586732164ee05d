package jira

import (
	"strings"
	"time"

	"planner/internal/adf"
	"planner/internal/models"
)

// Defaults applied when the tracker omits a field.
const (
	defaultTitle  = "No summary"
	defaultStatus = "Unknown"
)

// MapIssue converts one raw tracker record, including its embedded sub-issue
// records, into a Task owned by the given project. Missing optional fields
// degrade to defaults; MapIssue never fails. Records lacking id and key are
// a caller error.
func MapIssue(rec Issue, projectID int64) models.Task {
	key := rec.Key
	task := models.Task{
		ID:           rec.ID,
		Key:          key,
		Title:        defaultTitle,
		Status:       defaultStatus,
		PriorityEnum: models.NormalizePriority(""),
		ProjectID:    projectID,
		JiraTicketID: &key,
	}

	if rec.Fields.Summary != "" {
		task.Title = rec.Fields.Summary
	}
	task.Description = adf.Extract(rec.Fields.Description)
	if rec.Fields.Status != nil && rec.Fields.Status.Name != "" {
		task.Status = rec.Fields.Status.Name
	}
	if a := rec.Fields.Assignee; a != nil {
		if a.DisplayName != "" {
			name := a.DisplayName
			task.Assignee = &name
		}
		if a.EmailAddress != "" {
			email := a.EmailAddress
			task.AssigneeEmail = &email
		}
	}
	if p := rec.Fields.Priority; p != nil {
		task.Priority = p.Name
		task.PriorityEnum = models.NormalizePriority(p.Name)
	}
	task.CreatedAt = timestampPtr(rec.Fields.Created)
	task.UpdatedAt = timestampPtr(rec.Fields.Updated)

	// The sprint field is the issue's sprint history; the last entry is
	// taken as the most recent one. If the tracker ever returns the history
	// out of chronological order this picks the wrong sprint.
	if sprints := parseSprints(rec.Fields.Sprint); len(sprints) > 0 {
		last := sprints[len(sprints)-1]
		if last.Name != "" {
			name := last.Name
			task.SprintName = &name
		}
		task.InActiveSprint = last.Active()
	}

	if rec.Fields.Parent != nil && rec.Fields.Parent.Key != "" {
		parentKey := rec.Fields.Parent.Key
		task.ParentKey = &parentKey
	}

	// Subtask classification comes strictly from the issue type. A record
	// with a parent but a different type (a task under an epic) is not a
	// subtask.
	if it := rec.Fields.IssueType; it != nil {
		task.IsSubtask = strings.EqualFold(it.Name, "subtask")
	}

	for _, sub := range rec.Fields.Subtasks {
		child := MapIssue(sub, projectID)
		parentKey := key
		child.ParentKey = &parentKey
		task.Subtasks = append(task.Subtasks, child)
	}

	return task
}

func timestampPtr(ts *Timestamp) *time.Time {
	if ts == nil || ts.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}

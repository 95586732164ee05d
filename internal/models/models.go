package models

import (
	"strings"
	"time"
)

// Project groups tasks and optionally links them to a tracker project.
type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	JiraKey   string    `json:"jira_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tracked reports whether the project is backed by a tracker project.
func (p Project) Tracked() bool {
	return p.JiraKey != ""
}

// Priority is the normalized urgency bucket derived from the tracker's
// free-text priority name.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank returns the ordering weight for a priority; higher sorts first.
// Unrecognized values rank below every known priority.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// NormalizePriority maps a tracker priority name to the Priority enum.
// Anything unrecognized, including the empty string, becomes medium.
func NormalizePriority(name string) Priority {
	switch strings.ToLower(name) {
	case "highest", "critical":
		return PriorityCritical
	case "high":
		return PriorityHigh
	case "lowest", "low":
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// Task is the unit of work, sourced either from the tracker or created
// locally. Tracker-sourced tasks carry a non-nil JiraTicketID.
type Task struct {
	ID             string     `json:"id"`
	Key            string     `json:"key"`
	Title          string     `json:"title"`
	Description    *string    `json:"description,omitempty"`
	Status         string     `json:"status"`
	Assignee       *string    `json:"assignee,omitempty"`
	AssigneeEmail  *string    `json:"assignee_email,omitempty"`
	Priority       string     `json:"priority"`
	PriorityEnum   Priority   `json:"priority_enum"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
	SprintName     *string    `json:"sprint_name,omitempty"`
	InActiveSprint bool       `json:"in_active_sprint"`
	Subtasks       []Task     `json:"subtasks,omitempty"`
	ParentKey      *string    `json:"parent_key,omitempty"`
	IsSubtask      bool       `json:"is_subtask"`
	ProjectID      int64      `json:"project_id"`
	JiraTicketID   *string    `json:"jira_ticket_id,omitempty"`
	QueuedForAI    bool       `json:"queued_for_ai"`
}

// closedStatuses are the status labels that count as completed work.
var closedStatuses = map[string]struct{}{
	"done":     {},
	"closed":   {},
	"resolved": {},
}

// IsCompleted reports whether the task's status is a closed state. Derived
// from Status on every call, never stored.
func (t Task) IsCompleted() bool {
	_, ok := closedStatuses[strings.ToLower(t.Status)]
	return ok
}

// ScheduledTask wraps one Task queued in the user's personal schedule.
// Its ID is independent of the wrapped task's ID.
type ScheduledTask struct {
	ID           string     `json:"id"`
	Task         Task       `json:"task"`
	ProjectID    int64      `json:"project_id"`
	ProjectName  string     `json:"project_name"`
	ProjectColor string     `json:"project_color"`
	ScheduledAt  time.Time  `json:"scheduled_at"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

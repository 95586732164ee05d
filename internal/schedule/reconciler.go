// Package schedule owns the user's personal work queue: an ordered in-memory
// list of scheduled tasks mutated only through the Reconciler.
//
// The Reconciler is not safe for concurrent use; callers serialize access
// through a single writer (see internal/app).
package schedule

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"planner/internal/models"
)

// ChangeKind labels what a reconciler operation did.
type ChangeKind string

const (
	ChangeAdded     ChangeKind = "added"
	ChangeRemoved   ChangeKind = "removed"
	ChangeReordered ChangeKind = "reordered"
	ChangeExpanded  ChangeKind = "expanded"
	ChangeNone      ChangeKind = "none"
)

// Change describes the outcome of one mutating operation. Duplicate and
// missing-id conditions are reported here with Changed false, never as
// errors. Consumers that mirror the schedule elsewhere subscribe to these
// descriptors instead of mutating shared callback lists.
type Change struct {
	Kind    ChangeKind
	Changed bool
	Added   []models.ScheduledTask
}

func noChange() Change {
	return Change{Kind: ChangeNone}
}

// Reconciler merges externally fetched and locally created tasks into the
// single ordered schedule, guaranteeing no task is scheduled twice.
type Reconciler struct {
	entries []models.ScheduledTask
	now     func() time.Time
	newID   func() string
}

// NewReconciler returns an empty reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Entries returns a copy of the schedule in display order.
func (r *Reconciler) Entries() []models.ScheduledTask {
	out := make([]models.ScheduledTask, len(r.entries))
	copy(out, r.entries)
	return out
}

// Replace loads a previously persisted schedule, dropping the current one.
func (r *Reconciler) Replace(entries []models.ScheduledTask) {
	r.entries = make([]models.ScheduledTask, len(entries))
	copy(r.entries, entries)
}

// wraps reports whether the entry wraps the given task on either identity
// channel: the local id, or the tracker key when the task carries one. A
// task re-fetched after a local edit may carry a new local id but the same
// tracker key and must still count as a duplicate.
func wraps(entry models.ScheduledTask, task models.Task) bool {
	if entry.Task.ID != "" && entry.Task.ID == task.ID {
		return true
	}
	if task.JiraTicketID != nil && entry.Task.JiraTicketID != nil &&
		*entry.Task.JiraTicketID == *task.JiraTicketID {
		return true
	}
	return false
}

func (r *Reconciler) isScheduled(task models.Task) bool {
	for _, entry := range r.entries {
		if wraps(entry, task) {
			return true
		}
	}
	return false
}

// newEntry wraps a task with its project's schedule metadata.
func (r *Reconciler) newEntry(task models.Task, project models.Project) models.ScheduledTask {
	return models.ScheduledTask{
		ID:           r.newID(),
		Task:         task,
		ProjectID:    project.ID,
		ProjectName:  project.Name,
		ProjectColor: project.Color,
		ScheduledAt:  r.now(),
	}
}

// Add appends the task to the schedule. When an existing entry already wraps
// a task with the same id or the same tracker key, nothing changes and the
// returned descriptor says so.
func (r *Reconciler) Add(task models.Task, project models.Project) Change {
	if r.isScheduled(task) {
		return noChange()
	}
	entry := r.newEntry(task, project)
	r.entries = append(r.entries, entry)
	return Change{Kind: ChangeAdded, Changed: true, Added: []models.ScheduledTask{entry}}
}

// Remove drops the entry with the given schedule id; no-op if absent.
func (r *Reconciler) Remove(scheduledID string) Change {
	for i, entry := range r.entries {
		if entry.ID == scheduledID {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return Change{Kind: ChangeRemoved, Changed: true}
		}
	}
	return noChange()
}

// Reorder moves the entry at oldIndex to newIndex, preserving all other
// entries' relative order. The entry is removed first, so a downward move
// lands exactly at newIndex in the shortened list. Out-of-range indices are
// a no-op.
func (r *Reconciler) Reorder(oldIndex, newIndex int) Change {
	n := len(r.entries)
	if oldIndex < 0 || oldIndex >= n || newIndex < 0 || newIndex >= n || oldIndex == newIndex {
		return noChange()
	}

	entry := r.entries[oldIndex]
	r.entries = append(r.entries[:oldIndex], r.entries[oldIndex+1:]...)
	r.entries = append(r.entries[:newIndex], append([]models.ScheduledTask{entry}, r.entries[newIndex:]...)...)
	return Change{Kind: ChangeReordered, Changed: true}
}

// AutoScheduleAssigned sweeps the fetched issues of every tracked project and
// schedules each non-completed issue assigned to the current user that is not
// already wrapped, including by an entry built earlier in the same sweep. The
// sweep is idempotent: unchanged inputs add nothing on a second run.
func (r *Reconciler) AutoScheduleAssigned(projects []models.Project, issuesByProject map[int64][]models.Task, currentUserEmail string) Change {
	if currentUserEmail == "" {
		return noChange()
	}

	var added []models.ScheduledTask
	for _, project := range projects {
		if !project.Tracked() {
			continue
		}
		for _, issue := range issuesByProject[project.ID] {
			if issue.AssigneeEmail == nil || !strings.EqualFold(*issue.AssigneeEmail, currentUserEmail) {
				continue
			}
			if issue.IsCompleted() || r.isScheduled(issue) {
				continue
			}
			entry := r.newEntry(issue, project)
			r.entries = append(r.entries, entry)
			added = append(added, entry)
		}
	}

	if len(added) == 0 {
		return noChange()
	}
	return Change{Kind: ChangeAdded, Changed: true, Added: added}
}

// ExpandWithSubtasks splices generated child tasks into the schedule directly
// after the parent entry, preserving generation order. Each child is marked
// as a subtask of the parent's task. A missing parent is a no-op.
func (r *Reconciler) ExpandWithSubtasks(parentScheduledID string, generated []models.Task) Change {
	parentIdx := -1
	for i, entry := range r.entries {
		if entry.ID == parentScheduledID {
			parentIdx = i
			break
		}
	}
	if parentIdx == -1 || len(generated) == 0 {
		return noChange()
	}

	parent := r.entries[parentIdx]
	project := models.Project{
		ID:    parent.ProjectID,
		Name:  parent.ProjectName,
		Color: parent.ProjectColor,
	}

	added := make([]models.ScheduledTask, 0, len(generated))
	for _, task := range generated {
		if task.ID == "" {
			task.ID = r.newID()
		}
		if task.Key == "" {
			task.Key = task.ID
		}
		parentKey := parent.Task.Key
		task.ParentKey = &parentKey
		task.IsSubtask = true
		task.ProjectID = parent.ProjectID
		added = append(added, r.newEntry(task, project))
	}

	tail := make([]models.ScheduledTask, len(r.entries[parentIdx+1:]))
	copy(tail, r.entries[parentIdx+1:])
	r.entries = append(r.entries[:parentIdx+1], append(added, tail...)...)
	return Change{Kind: ChangeExpanded, Changed: true, Added: added}
}

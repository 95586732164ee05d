// Package app coordinates the tracker gateway, the schedule reconciler and
// the store behind a single writer. All schedule mutation flows through one
// Service, which serializes operations with a mutex and persists the
// schedule after every change.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"planner/internal/jira"
	"planner/internal/models"
	"planner/internal/ordering"
	"planner/internal/schedule"
	"planner/internal/storage/sqlite"
)

// Service owns the in-memory schedule and the per-project issue caches.
type Service struct {
	mu      sync.Mutex
	store   *sqlite.Store
	tracker *jira.Client
	rec     *schedule.Reconciler
	logger  *slog.Logger

	userEmail    string
	autoSchedule bool
}

// New assembles the service and restores the persisted schedule.
func New(ctx context.Context, store *sqlite.Store, tracker *jira.Client, userEmail string, autoSchedule bool, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	rec := schedule.NewReconciler()
	entries, err := store.LoadSchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore schedule: %w", err)
	}
	rec.Replace(entries)

	return &Service{
		store:        store,
		tracker:      tracker,
		rec:          rec,
		logger:       logger,
		userEmail:    userEmail,
		autoSchedule: autoSchedule,
	}, nil
}

// ListOrderedIssues returns the project's cached tracker issues in display
// order.
func (s *Service) ListOrderedIssues(projectID int64) []models.Task {
	return ordering.Order(s.tracker.CachedIssues(projectID))
}

// ListOrderedLocalTasks returns the project's locally created tasks in
// display order.
func (s *Service) ListOrderedLocalTasks(ctx context.Context, projectID int64) ([]models.Task, error) {
	tasks, err := s.store.ListTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return ordering.Order(tasks), nil
}

// Progress carries the derived completion metrics for one project.
type Progress struct {
	PercentComplete       float64 `json:"percent_complete"`
	SprintPercentComplete float64 `json:"sprint_percent_complete"`
}

// ProjectProgress computes completion percentages over the project's tracker
// issues and local tasks combined.
func (s *Service) ProjectProgress(ctx context.Context, projectID int64) (Progress, error) {
	tasks := s.tracker.CachedIssues(projectID)
	local, err := s.store.ListTasks(ctx, projectID)
	if err != nil {
		return Progress{}, err
	}
	tasks = append(tasks, local...)
	return Progress{
		PercentComplete:       ordering.PercentComplete(tasks),
		SprintPercentComplete: ordering.SprintPercentComplete(tasks),
	}, nil
}

// Schedule returns the current schedule in display order.
func (s *Service) Schedule() []models.ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Entries()
}

// RefreshResult reports the outcome of one project's fetch during a sweep.
type RefreshResult struct {
	ProjectID   int64  `json:"project_id"`
	ProjectName string `json:"project_name"`
	IssueCount  int    `json:"issue_count"`
	Error       string `json:"error,omitempty"`
}

// RefreshAll fetches issues for every tracked project, one project at a
// time. A failing project is reported in its result and does not abort the
// sweep for the others. When auto-scheduling is enabled, issues assigned to
// the configured user are queued after the sweep.
func (s *Service) RefreshAll(ctx context.Context) ([]RefreshResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	var results []RefreshResult
	for _, project := range projects {
		if !project.Tracked() {
			continue
		}
		result := RefreshResult{ProjectID: project.ID, ProjectName: project.Name}
		tasks, err := s.tracker.FetchProjectIssues(ctx, project)
		if err != nil {
			s.logger.Warn("project refresh failed",
				slog.String("project", project.Name), slog.String("error", err.Error()))
			result.Error = err.Error()
		} else {
			result.IssueCount = len(tasks)
		}
		results = append(results, result)
	}

	if s.autoSchedule && s.userEmail != "" {
		issuesByProject := make(map[int64][]models.Task, len(projects))
		for _, project := range projects {
			if project.Tracked() {
				issuesByProject[project.ID] = s.tracker.CachedIssues(project.ID)
			}
		}
		change := s.rec.AutoScheduleAssigned(projects, issuesByProject, s.userEmail)
		if change.Changed {
			s.logger.Info("auto-scheduled assigned issues", slog.Int("count", len(change.Added)))
			if err := s.persistSchedule(ctx); err != nil {
				return results, err
			}
		}
	}

	return results, nil
}

// AddToSchedule queues the identified task. The id may be a local task id, a
// tracker issue id, or a tracker key. Duplicates come back as an unchanged
// descriptor, not an error.
func (s *Service) AddToSchedule(ctx context.Context, projectID int64, taskID string) (schedule.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return schedule.Change{}, err
	}
	task, err := s.findTask(ctx, projectID, taskID)
	if err != nil {
		return schedule.Change{}, err
	}

	change := s.rec.Add(task, project)
	if !change.Changed {
		return change, nil
	}
	return change, s.persistSchedule(ctx)
}

// RemoveFromSchedule drops a schedule entry by its schedule id.
func (s *Service) RemoveFromSchedule(ctx context.Context, scheduledID string) (schedule.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	change := s.rec.Remove(scheduledID)
	if !change.Changed {
		return change, nil
	}
	return change, s.persistSchedule(ctx)
}

// ReorderSchedule moves one entry to a new position.
func (s *Service) ReorderSchedule(ctx context.Context, oldIndex, newIndex int) (schedule.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	change := s.rec.Reorder(oldIndex, newIndex)
	if !change.Changed {
		return change, nil
	}
	return change, s.persistSchedule(ctx)
}

// ExpandSchedule inserts generated subtasks directly after their parent
// entry.
func (s *Service) ExpandSchedule(ctx context.Context, parentScheduledID string, generated []models.Task) (schedule.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	change := s.rec.ExpandWithSubtasks(parentScheduledID, generated)
	if !change.Changed {
		return change, nil
	}
	return change, s.persistSchedule(ctx)
}

// persistSchedule writes the reconciler's current state through the store.
// Callers hold s.mu.
func (s *Service) persistSchedule(ctx context.Context) error {
	if err := s.store.SaveSchedule(ctx, s.rec.Entries()); err != nil {
		return fmt.Errorf("persist schedule: %w", err)
	}
	return nil
}

// findTask resolves a task by id or key, searching local tasks first and
// then the project's cached issues including their subtasks.
func (s *Service) findTask(ctx context.Context, projectID int64, taskID string) (models.Task, error) {
	if task, err := s.store.GetTask(ctx, taskID); err == nil && task.ProjectID == projectID {
		return task, nil
	}

	if task, ok := findInIssues(s.tracker.CachedIssues(projectID), taskID); ok {
		return task, nil
	}
	return models.Task{}, fmt.Errorf("task %q not found in project %d", taskID, projectID)
}

func findInIssues(issues []models.Task, taskID string) (models.Task, bool) {
	for _, issue := range issues {
		if issue.ID == taskID || issue.Key == taskID {
			return issue, true
		}
		if sub, ok := findInIssues(issue.Subtasks, taskID); ok {
			return sub, true
		}
	}
	return models.Task{}, false
}

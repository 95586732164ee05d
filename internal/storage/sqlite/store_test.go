package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"planner/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "planner.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestProjectLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, "Planner", "#2563eb", "PRJ")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if !p.Tracked() || p.JiraKey != "PRJ" {
		t.Errorf("project should carry its tracker key, got %q", p.JiraKey)
	}

	p, err = store.UpdateProject(ctx, p.ID, "Planner v2", "#dc2626", "")
	if err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	if p.Tracked() {
		t.Error("clearing the tracker key should untrack the project")
	}

	projects, err := store.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 1 || projects[0].Name != "Planner v2" {
		t.Errorf("ListProjects = %v", projects)
	}

	if err := store.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if err := store.DeleteProject(ctx, p.ID); err == nil {
		t.Error("deleting a missing project should fail")
	}
}

func TestTaskRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, "Planner", "", "")
	if err != nil {
		t.Fatal(err)
	}

	desc := "flattened description"
	assignee := "Ada Lovelace"
	email := "ada@example.com"
	sprint := "Sprint 2"
	parentKey := "PRJ-9"
	ticket := "PRJ-10"
	created := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	in := models.Task{
		ID:             "task-1",
		Key:            "PRJ-10",
		Title:          "Everything set",
		Description:    &desc,
		Status:         "In Progress",
		Assignee:       &assignee,
		AssigneeEmail:  &email,
		Priority:       "Highest",
		PriorityEnum:   models.PriorityCritical,
		CreatedAt:      &created,
		SprintName:     &sprint,
		InActiveSprint: true,
		Subtasks: []models.Task{
			{ID: "task-2", Key: "PRJ-11", Title: "child", Status: "To Do", IsSubtask: true},
		},
		ParentKey:    &parentKey,
		IsSubtask:    false,
		ProjectID:    p.ID,
		JiraTicketID: &ticket,
		QueuedForAI:  true,
	}

	if _, err := store.CreateTask(ctx, in); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	got, err := store.GetTask(ctx, "task-1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}

	if got.Title != in.Title || got.Status != in.Status || got.Priority != in.Priority {
		t.Errorf("scalar fields did not round-trip: %+v", got)
	}
	if got.PriorityEnum != models.PriorityCritical {
		t.Errorf("PriorityEnum = %q", got.PriorityEnum)
	}
	if got.Description == nil || *got.Description != desc {
		t.Errorf("Description = %v", got.Description)
	}
	if got.Assignee == nil || *got.Assignee != assignee {
		t.Errorf("Assignee = %v", got.Assignee)
	}
	if got.AssigneeEmail == nil || *got.AssigneeEmail != email {
		t.Errorf("AssigneeEmail = %v", got.AssigneeEmail)
	}
	if got.SprintName == nil || *got.SprintName != sprint || !got.InActiveSprint {
		t.Errorf("sprint fields = %v / %v", got.SprintName, got.InActiveSprint)
	}
	if got.ParentKey == nil || *got.ParentKey != parentKey {
		t.Errorf("ParentKey = %v", got.ParentKey)
	}
	if got.JiraTicketID == nil || *got.JiraTicketID != ticket {
		t.Errorf("JiraTicketID = %v", got.JiraTicketID)
	}
	if !got.QueuedForAI {
		t.Error("QueuedForAI did not round-trip")
	}
	if len(got.Subtasks) != 1 || got.Subtasks[0].Key != "PRJ-11" || !got.Subtasks[0].IsSubtask {
		t.Errorf("Subtasks = %+v", got.Subtasks)
	}
	if got.CreatedAt == nil || !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v", got.CreatedAt)
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, "Planner", "", "")
	if err != nil {
		t.Fatal(err)
	}

	got, err := store.CreateTask(ctx, models.Task{Title: "bare minimum", ProjectID: p.ID})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if got.ID == "" {
		t.Error("an id should be assigned")
	}
	if got.Key != got.ID {
		t.Errorf("Key = %q, want mirror of id for local tasks", got.Key)
	}
	if got.JiraTicketID != nil {
		t.Error("local tasks must not carry a tracker key")
	}
	if got.PriorityEnum != models.PriorityMedium {
		t.Errorf("PriorityEnum = %q, want medium default", got.PriorityEnum)
	}
}

func TestReplaceTask(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, "Planner", "", "")
	if err != nil {
		t.Fatal(err)
	}
	created, err := store.CreateTask(ctx, models.Task{Title: "before", ProjectID: p.ID})
	if err != nil {
		t.Fatal(err)
	}

	created.Title = "after"
	created.Status = "Done"
	got, err := store.ReplaceTask(ctx, created)
	if err != nil {
		t.Fatalf("ReplaceTask: %v", err)
	}
	if got.Title != "after" || got.Status != "Done" {
		t.Errorf("replaced record = %+v", got)
	}

	missing := created
	missing.ID = "nope"
	if _, err := store.ReplaceTask(ctx, missing); err == nil {
		t.Error("replacing a missing task should fail")
	}
}

func TestReplaceTaskKeepsRowOnFailedInsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, "Planner", "", "")
	if err != nil {
		t.Fatal(err)
	}
	created, err := store.CreateTask(ctx, models.Task{Title: "keep me", ProjectID: p.ID})
	if err != nil {
		t.Fatal(err)
	}

	// Pointing at a nonexistent project trips the foreign key on re-insert.
	broken := created
	broken.Title = "never stored"
	broken.ProjectID = p.ID + 1000
	if _, err := store.ReplaceTask(ctx, broken); err == nil {
		t.Fatal("replace with an invalid project should fail")
	}

	got, err := store.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("original task should survive a failed replace: %v", err)
	}
	if got.Title != "keep me" || got.ProjectID != p.ID {
		t.Errorf("surviving record = %+v", got)
	}
}

func TestScheduleRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ticket := "PRJ-1"
	due := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	entries := []models.ScheduledTask{
		{
			ID:           "s1",
			Task:         models.Task{ID: "t1", Key: "PRJ-1", Title: "first", Status: "To Do", JiraTicketID: &ticket},
			ProjectID:    1,
			ProjectName:  "Planner",
			ProjectColor: "#2563eb",
			ScheduledAt:  time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
			DueDate:      &due,
		},
		{
			ID:          "s2",
			Task:        models.Task{ID: "t2", Key: "t2", Title: "second", Status: "To Do"},
			ProjectID:   2,
			ScheduledAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		},
	}

	if err := store.SaveSchedule(ctx, entries); err != nil {
		t.Fatalf("SaveSchedule: %v", err)
	}

	got, err := store.LoadSchedule(ctx)
	if err != nil {
		t.Fatalf("LoadSchedule: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "s1" || got[1].ID != "s2" {
		t.Errorf("order not preserved: %v, %v", got[0].ID, got[1].ID)
	}
	if got[0].Task.JiraTicketID == nil || *got[0].Task.JiraTicketID != "PRJ-1" {
		t.Errorf("embedded task did not round-trip: %+v", got[0].Task)
	}
	if got[0].DueDate == nil || !got[0].DueDate.Equal(due) {
		t.Errorf("DueDate = %v", got[0].DueDate)
	}

	// Saving again fully replaces the previous schedule.
	if err := store.SaveSchedule(ctx, entries[:1]); err != nil {
		t.Fatalf("SaveSchedule (replace): %v", err)
	}
	got, err = store.LoadSchedule(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("replaced schedule has %d entries, want 1", len(got))
	}
}

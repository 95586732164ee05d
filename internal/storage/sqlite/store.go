package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"planner/internal/models"
)

// Store wraps access to the SQLite database and exposes high level helpers
// for projects, locally created tasks, and the persisted schedule.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open initializes a new SQLite store and runs the required migrations.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{db: conn, logger: logger}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS projects (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL UNIQUE,
            color TEXT NOT NULL DEFAULT '#2563eb',
            jira_key TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id TEXT PRIMARY KEY,
            key TEXT NOT NULL,
            project_id INTEGER NOT NULL,
            title TEXT NOT NULL,
            description TEXT,
            status TEXT NOT NULL DEFAULT 'To Do',
            assignee TEXT,
            assignee_email TEXT,
            priority TEXT NOT NULL DEFAULT '',
            priority_enum TEXT NOT NULL DEFAULT 'medium',
            created_at DATETIME,
            updated_at DATETIME,
            sprint_name TEXT,
            in_active_sprint INTEGER NOT NULL DEFAULT 0,
            subtasks TEXT NOT NULL DEFAULT '[]',
            parent_key TEXT,
            is_subtask INTEGER NOT NULL DEFAULT 0,
            jira_ticket_id TEXT,
            queued_for_ai INTEGER NOT NULL DEFAULT 0,
            FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
        );`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);`,
		`CREATE TABLE IF NOT EXISTS schedule (
            id TEXT PRIMARY KEY,
            position INTEGER NOT NULL,
            task TEXT NOT NULL,
            project_id INTEGER NOT NULL,
            project_name TEXT NOT NULL DEFAULT '',
            project_color TEXT NOT NULL DEFAULT '',
            scheduled_at DATETIME NOT NULL,
            due_date DATETIME
        );`,
		`CREATE TRIGGER IF NOT EXISTS trg_projects_updated
            AFTER UPDATE ON projects
            FOR EACH ROW BEGIN
                UPDATE projects SET updated_at = CURRENT_TIMESTAMP WHERE id = OLD.id;
            END;`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// ListProjects retrieves all projects ordered by creation date.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color, jira_key, created_at, updated_at FROM projects ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Color, &p.JiraKey, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateProject persists a new project with an optional color and tracker key.
func (s *Store) CreateProject(ctx context.Context, name, color, jiraKey string) (models.Project, error) {
	if strings.TrimSpace(name) == "" {
		return models.Project{}, fmt.Errorf("project name must not be empty")
	}
	if color == "" {
		color = randomPaletteColor()
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO projects(name, color, jira_key) VALUES(?, ?, ?)`,
		strings.TrimSpace(name), color, strings.TrimSpace(jiraKey))
	if err != nil {
		return models.Project{}, fmt.Errorf("insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Project{}, fmt.Errorf("project id: %w", err)
	}
	return s.GetProject(ctx, id)
}

// GetProject fetches a single project by id.
func (s *Store) GetProject(ctx context.Context, id int64) (models.Project, error) {
	var p models.Project
	err := s.db.QueryRowContext(ctx, `SELECT id, name, color, jira_key, created_at, updated_at FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Color, &p.JiraKey, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, fmt.Errorf("project not found")
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// UpdateProject renames a project and optionally changes its color or
// tracker key.
func (s *Store) UpdateProject(ctx context.Context, id int64, name, color, jiraKey string) (models.Project, error) {
	if strings.TrimSpace(name) == "" {
		return models.Project{}, fmt.Errorf("project name must not be empty")
	}
	if color == "" {
		color = randomPaletteColor()
	}

	res, err := s.db.ExecContext(ctx, `UPDATE projects SET name = ?, color = ?, jira_key = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		strings.TrimSpace(name), color, strings.TrimSpace(jiraKey), id)
	if err != nil {
		return models.Project{}, fmt.Errorf("update project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Project{}, err
	}
	if affected == 0 {
		return models.Project{}, fmt.Errorf("project not found")
	}
	return s.GetProject(ctx, id)
}

// DeleteProject removes a project along with its tasks.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("project not found")
	}
	return nil
}

const taskColumns = `id, key, project_id, title, description, status, assignee, assignee_email,
    priority, priority_enum, created_at, updated_at, sprint_name, in_active_sprint,
    subtasks, parent_key, is_subtask, jira_ticket_id, queued_for_ai`

// ListTasks returns the locally created tasks of a project in insertion
// order. Display ordering is applied by the caller.
func (s *Store) ListTasks(ctx context.Context, projectID int64) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY rowid`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTask inserts a new locally created task, assigning an id and key
// when absent.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return models.Task{}, fmt.Errorf("task title must not be empty")
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Key == "" {
		t.Key = t.ID
	}
	if t.Status == "" {
		t.Status = "To Do"
	}
	if t.PriorityEnum == "" {
		t.PriorityEnum = models.NormalizePriority(t.Priority)
	}
	now := time.Now().UTC()
	if t.CreatedAt == nil {
		t.CreatedAt = &now
	}
	if t.UpdatedAt == nil {
		t.UpdatedAt = &now
	}

	if err := insertTask(ctx, s.db, t); err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, t.ID)
}

// ReplaceTask overwrites the whole stored record for the task's id. Task
// mutation is replace-by-id, never per-field. The delete and re-insert run
// in one transaction so a failed replace leaves the original row untouched.
func (s *Store) ReplaceTask(ctx context.Context, t models.Task) (models.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Task{}, fmt.Errorf("replace task: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, t.ID)
	if err != nil {
		return models.Task{}, fmt.Errorf("replace task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
		return models.Task{}, fmt.Errorf("task not found")
	}
	now := time.Now().UTC()
	t.UpdatedAt = &now
	if err := insertTask(ctx, tx, t); err != nil {
		return models.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Task{}, fmt.Errorf("replace task: %w", err)
	}
	return s.GetTask(ctx, t.ID)
}

// execer abstracts over *sql.DB and *sql.Tx for the insert helper.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTask(ctx context.Context, db execer, t models.Task) error {
	subtasks, err := json.Marshal(t.Subtasks)
	if err != nil {
		return fmt.Errorf("encode subtasks: %w", err)
	}

	_, err = db.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Key, t.ProjectID, strings.TrimSpace(t.Title), t.Description, t.Status,
		t.Assignee, t.AssigneeEmail, t.Priority, string(t.PriorityEnum),
		t.CreatedAt, t.UpdatedAt, t.SprintName, t.InActiveSprint,
		string(subtasks), t.ParentKey, t.IsSubtask, t.JiraTicketID, t.QueuedForAI)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask retrieves a locally created task by id.
func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task not found")
	}
	if err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// DeleteTask removes a locally created task by id.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("task not found")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		t            models.Task
		priorityEnum string
		subtasksRaw  string
		createdAt    sql.NullTime
		updatedAt    sql.NullTime
	)
	err := row.Scan(&t.ID, &t.Key, &t.ProjectID, &t.Title, &t.Description, &t.Status,
		&t.Assignee, &t.AssigneeEmail, &t.Priority, &priorityEnum,
		&createdAt, &updatedAt, &t.SprintName, &t.InActiveSprint,
		&subtasksRaw, &t.ParentKey, &t.IsSubtask, &t.JiraTicketID, &t.QueuedForAI)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, err
		}
		return models.Task{}, fmt.Errorf("scan task: %w", err)
	}

	t.PriorityEnum = models.Priority(priorityEnum)
	if createdAt.Valid {
		created := createdAt.Time
		t.CreatedAt = &created
	}
	if updatedAt.Valid {
		updated := updatedAt.Time
		t.UpdatedAt = &updated
	}
	if subtasksRaw != "" && subtasksRaw != "[]" && subtasksRaw != "null" {
		if err := json.Unmarshal([]byte(subtasksRaw), &t.Subtasks); err != nil {
			return models.Task{}, fmt.Errorf("decode subtasks: %w", err)
		}
	}
	return t, nil
}

// LoadSchedule returns the persisted schedule in display order.
func (s *Store) LoadSchedule(ctx context.Context) ([]models.ScheduledTask, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, task, project_id, project_name, project_color, scheduled_at, due_date
        FROM schedule ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	defer rows.Close()

	var entries []models.ScheduledTask
	for rows.Next() {
		var (
			entry   models.ScheduledTask
			taskRaw string
			dueDate sql.NullTime
		)
		if err := rows.Scan(&entry.ID, &taskRaw, &entry.ProjectID, &entry.ProjectName,
			&entry.ProjectColor, &entry.ScheduledAt, &dueDate); err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		if err := json.Unmarshal([]byte(taskRaw), &entry.Task); err != nil {
			return nil, fmt.Errorf("decode scheduled task: %w", err)
		}
		if dueDate.Valid {
			due := dueDate.Time
			entry.DueDate = &due
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SaveSchedule replaces the persisted schedule with the given entries. The
// write happens in one transaction so readers never observe a partial
// schedule.
func (s *Store) SaveSchedule(ctx context.Context, entries []models.ScheduledTask) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save schedule: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule`); err != nil {
		return fmt.Errorf("clear schedule: %w", err)
	}

	for pos, entry := range entries {
		taskRaw, err := json.Marshal(entry.Task)
		if err != nil {
			return fmt.Errorf("encode scheduled task: %w", err)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO schedule(id, position, task, project_id, project_name, project_color, scheduled_at, due_date)
            VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, pos, string(taskRaw), entry.ProjectID, entry.ProjectName,
			entry.ProjectColor, entry.ScheduledAt, entry.DueDate)
		if err != nil {
			return fmt.Errorf("insert schedule entry: %w", err)
		}
	}

	return tx.Commit()
}

func randomPaletteColor() string {
	palette := []string{
		"#2563eb", // blue-600
		"#7c3aed", // violet-600
		"#dc2626", // red-600
		"#059669", // green-600
		"#ea580c", // orange-600
		"#d97706", // amber-600
		"#0ea5e9", // sky-500
	}
	return palette[rand.Intn(len(palette))]
}

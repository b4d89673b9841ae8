package client

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/volunteerhub/internal/app/features/tasks"
	"github.com/dalemusser/volunteerhub/internal/app/system/csvutil"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
)

// TaskFilter narrows task lists. Empty fields are not sent.
type TaskFilter struct {
	Status     string // assigned | in_progress | completed | overdue
	Priority   string
	AssignedTo string // email
}

func (f TaskFilter) values() url.Values {
	return url.Values{
		"status":      {f.Status},
		"priority":    {f.Priority},
		"assigned_to": {f.AssignedTo},
	}
}

// NewTask is the body of CreateTask. DueDate is YYYY-MM-DD or RFC 3339.
type NewTask struct {
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	DueDate        string   `json:"due_date,omitempty"`
	Priority       string   `json:"priority,omitempty"`
	AssignToEmails []string `json:"assign_to_emails,omitempty"`
}

// TaskUpdate changes the non-nil fields of a task. An empty DueDate
// clears it.
type TaskUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	Priority    *string `json:"priority,omitempty"`
}

type taskList struct {
	Tasks []tasks.TaskView `json:"tasks"`
	Stats tasks.Stats      `json:"stats"`
}

type taskBody struct {
	Task tasks.TaskView `json:"task"`
}

// ListTasks returns the tasks the caller may see: their own assignments
// for volunteers, the organization's tasks for admins.
func (c *Client) ListTasks(ctx context.Context, f TaskFilter) ([]tasks.TaskView, error) {
	var out taskList
	if err := c.get(ctx, "/tasks", f.values(), &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// MyTasks returns the caller's own assignments.
func (c *Client) MyTasks(ctx context.Context, f TaskFilter) ([]tasks.TaskView, error) {
	var out taskList
	if err := c.get(ctx, "/tasks/my", f.values(), &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// AdminTasks returns the organization's tasks with assignment roll-ups
// and status counts.
func (c *Client) AdminTasks(ctx context.Context, f TaskFilter) ([]tasks.TaskView, tasks.Stats, error) {
	var out taskList
	if err := c.get(ctx, "/admin/tasks", f.values(), &out); err != nil {
		return nil, tasks.Stats{}, err
	}
	return out.Tasks, out.Stats, nil
}

// CreateTask creates a task and one assignment per email.
func (c *Client) CreateTask(ctx context.Context, in NewTask) (*tasks.TaskView, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, validationError("Title is required.")
	}
	var out taskBody
	if err := c.sendJSON(ctx, http.MethodPost, "/tasks", in, &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

// UpdateTask edits a task's fields.
func (c *Client) UpdateTask(ctx context.Context, id string, upd TaskUpdate) (*tasks.TaskView, error) {
	var out taskBody
	if err := c.sendJSON(ctx, http.MethodPut, "/tasks/"+escape(id), upd, &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

// DeleteTask deletes a task and its assignments. The server refuses with
// a conflict when any assignment is completed; see CanDeleteTask.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/tasks/"+escape(id), nil, nil)
}

// CanDeleteTask reports whether a delete control should be enabled.
func CanDeleteTask(t tasks.TaskView) bool {
	if t.HasCompletedWork {
		return false
	}
	for _, a := range t.Assignments {
		if a.Status == models.StatusCompleted {
			return false
		}
	}
	return true
}

// CompleteForUser marks userID's assignment complete on the admin's behalf.
func (c *Client) CompleteForUser(ctx context.Context, taskID, userID, notes, feedback string) (*tasks.TaskView, error) {
	var out taskBody
	err := c.sendJSON(ctx, http.MethodPost, "/tasks/"+escape(taskID)+"/complete", map[string]string{
		"user_id":        userID,
		"notes":          notes,
		"admin_feedback": feedback,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Task, nil
}

// UpdateTaskStatus sets the caller's own assignment status.
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID, status, notes string) (*tasks.TaskView, error) {
	var out taskBody
	err := c.sendJSON(ctx, http.MethodPut, "/tasks/"+escape(taskID)+"/status", map[string]string{
		"status": status,
		"notes":  notes,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Task, nil
}

// TaskReportRows flattens loaded tasks into report lines: one per
// assignment on admin views, one per task otherwise. Status is recomputed
// against now.
func TaskReportRows(list []tasks.TaskView, now time.Time) []csvutil.TaskRow {
	var rows []csvutil.TaskRow
	for _, t := range list {
		base := csvutil.TaskRow{
			Title:       t.Title,
			Description: t.Description,
			Priority:    t.Priority,
			DueDate:     t.DueDate,
		}
		switch {
		case len(t.Assignments) > 0:
			for _, a := range t.Assignments {
				row := base
				row.Assignee = a.Name
				row.Email = a.Email
				row.Status = models.EffectiveStatus(t.DueDate, a.Status, now)
				row.CompletedAt = a.CompletedAt
				row.Notes = a.CompletionNotes
				rows = append(rows, row)
			}
		case t.Assignment != nil:
			row := base
			row.Status = models.EffectiveStatus(t.DueDate, t.Assignment.Status, now)
			row.CompletedAt = t.Assignment.CompletedAt
			row.Notes = t.Assignment.CompletionNotes
			rows = append(rows, row)
		default:
			row := base
			row.Status = t.Status
			rows = append(rows, row)
		}
	}
	return rows
}

// ExportTasksCSV writes the already loaded tasks as a tasks report and
// returns the file name to save it under. Nothing is fetched.
func ExportTasksCSV(w io.Writer, list []tasks.TaskView, now time.Time) (string, error) {
	if err := csvutil.WriteTasksReport(w, TaskReportRows(list, now)); err != nil {
		return "", err
	}
	return csvutil.FileName(csvutil.TasksReportPrefix, now), nil
}

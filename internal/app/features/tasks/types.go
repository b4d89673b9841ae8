// internal/app/features/tasks/types.go
package tasks

import (
	"strings"
	"time"

	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssigneeView is one assignment of a task as shown to admins.
type AssigneeView struct {
	UserID          string     `json:"user_id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Status          string     `json:"status"`
	AssignedAt      time.Time  `json:"assigned_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CompletionNotes string     `json:"completion_notes,omitempty"`
	AdminFeedback   string     `json:"admin_feedback,omitempty"`
}

// TaskView is a task plus its derived status.
type TaskView struct {
	models.Task
	Status           string         `json:"status"`
	IsOverdue        bool           `json:"is_overdue"`
	HasCompletedWork bool           `json:"has_completed_work"`
	Assignments      []AssigneeView `json:"assignments,omitempty"`

	// Assignment is the caller's own assignment on volunteer views.
	Assignment *models.Assignment `json:"assignment,omitempty"`
}

// Stats counts tasks by derived status.
type Stats struct {
	Total      int `json:"total"`
	Assigned   int `json:"assigned"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Overdue    int `json:"overdue"`
}

func (s *Stats) Add(status string) {
	s.Total++
	switch status {
	case models.StatusAssigned:
		s.Assigned++
	case models.StatusInProgress:
		s.InProgress++
	case models.StatusCompleted:
		s.Completed++
	case models.StatusOverdue:
		s.Overdue++
	}
}

// adminView rolls a task's assignments up into one view.
func adminView(t models.Task, as []models.Assignment, users map[primitive.ObjectID]models.User, now time.Time) TaskView {
	rolled := models.TaskStatus(as)
	v := TaskView{
		Task:             t,
		Status:           models.EffectiveStatus(t.DueDate, rolled, now),
		IsOverdue:        models.IsOverdue(t.DueDate, rolled, now),
		HasCompletedWork: models.HasCompletedWork(as),
		Assignments:      make([]AssigneeView, 0, len(as)),
	}
	for _, a := range as {
		u := users[a.UserID]
		if u.ID.IsZero() {
			u = models.User{ID: a.UserID}
		}
		v.Assignments = append(v.Assignments, AssigneeView{
			UserID:          a.UserID.Hex(),
			Name:            models.DisplayName(u),
			Email:           u.Email,
			Status:          models.EffectiveStatus(t.DueDate, a.Status, now),
			AssignedAt:      a.AssignedAt,
			CompletedAt:     a.CompletedAt,
			CompletionNotes: a.CompletionNotes,
			AdminFeedback:   a.AdminFeedback,
		})
	}
	return v
}

// assigneeView shows a task from one assignee's side.
func assigneeView(t models.Task, a models.Assignment, now time.Time) TaskView {
	a2 := a
	return TaskView{
		Task:             t,
		Status:           models.EffectiveStatus(t.DueDate, a.Status, now),
		IsOverdue:        models.IsOverdue(t.DueDate, a.Status, now),
		HasCompletedWork: a.Status == models.StatusCompleted,
		Assignment:       &a2,
	}
}

// ParseDueDate accepts RFC 3339 or YYYY-MM-DD. A bare date is due at the
// end of that day in UTC. Empty input means no due date.
func ParseDueDate(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, true
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		t := d.Add(24*time.Hour - time.Second).UTC()
		return &t, true
	}
	return nil, false
}

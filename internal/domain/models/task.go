// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// AllPriorities lists priorities from least to most pressing.
var AllPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Assignment statuses. "overdue" is derived, never stored.
const (
	StatusAssigned   = "assigned"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusOverdue    = "overdue"
)

// AllAssignmentStatuses lists the persisted assignment statuses.
var AllAssignmentStatuses = []string{StatusAssigned, StatusInProgress, StatusCompleted}

// Task is a unit of work an admin hands out. Whether it is done is
// tracked per assignee on Assignment.
type Task struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	Title          string             `bson:"title" json:"title"`
	TitleCI        string             `bson:"title_ci" json:"-"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	DueDate        *time.Time         `bson:"due_date,omitempty" json:"due_date,omitempty"`
	Priority       string             `bson:"priority" json:"priority"`

	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Assignment joins a Task to the User expected to do it.
type Assignment struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	TaskID         primitive.ObjectID `bson:"task_id" json:"task_id"`
	UserID         primitive.ObjectID `bson:"user_id" json:"user_id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	Status         string             `bson:"status" json:"status"`

	CompletionNotes string              `bson:"completion_notes,omitempty" json:"completion_notes,omitempty"`
	AdminFeedback   string              `bson:"admin_feedback,omitempty" json:"admin_feedback,omitempty"`
	CompletedBy     *primitive.ObjectID `bson:"completed_by,omitempty" json:"completed_by,omitempty"`
	CompletedAt     *time.Time          `bson:"completed_at,omitempty" json:"completed_at,omitempty"`

	AssignedAt time.Time `bson:"assigned_at" json:"assigned_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// IsOverdue is the single definition of overdue: a due date in the past
// on work that is not completed.
func IsOverdue(due *time.Time, status string, now time.Time) bool {
	return due != nil && due.Before(now) && status != StatusCompleted
}

// EffectiveStatus returns status, or StatusOverdue when IsOverdue holds.
func EffectiveStatus(due *time.Time, status string, now time.Time) string {
	if IsOverdue(due, status, now) {
		return StatusOverdue
	}
	return status
}

// TaskStatus rolls a task's assignments up into one status: completed when
// every assignment is, in_progress when any has started or finished, else
// assigned. A task with no assignments reports assigned.
func TaskStatus(assignments []Assignment) string {
	if len(assignments) == 0 {
		return StatusAssigned
	}
	done, started := 0, 0
	for _, a := range assignments {
		switch a.Status {
		case StatusCompleted:
			done++
		case StatusInProgress:
			started++
		}
	}
	switch {
	case done == len(assignments):
		return StatusCompleted
	case done > 0 || started > 0:
		return StatusInProgress
	default:
		return StatusAssigned
	}
}

// HasCompletedWork reports whether any assignment is completed. Such
// tasks cannot be deleted.
func HasCompletedWork(assignments []Assignment) bool {
	for _, a := range assignments {
		if a.Status == StatusCompleted {
			return true
		}
	}
	return false
}

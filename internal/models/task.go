package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskStatus tracks the lifecycle of a remediation work item.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusDone       TaskStatus = "done"
)

// TaskPriority ranks the urgency of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// Task represents a compliance work item owned by one organization.
// ControlID and AssigneeID, when set, must reference records in the same
// organization; the store rejects cross-tenant references.
type Task struct {
	ID            uuid.UUID    `json:"id"`
	OrgID         uuid.UUID    `json:"organization_id"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Status        TaskStatus   `json:"status"`
	Priority      TaskPriority `json:"priority"`
	DueDate       *time.Time   `json:"due_date,omitempty"`
	RecurringRule string       `json:"recurring_rule,omitempty"` // RRULE format
	ControlID     *uuid.UUID   `json:"control_id,omitempty"`
	AssigneeID    *uuid.UUID   `json:"assignee_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NewTask creates a new Task owned by the given organization.
func NewTask(orgID uuid.UUID, title string) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:        uuid.New(),
		OrgID:     orgID,
		Title:     title,
		Status:    TaskStatusTodo,
		Priority:  TaskPriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsOverdue reports whether the task's due date has passed and the task is
// not done. Tasks without a due date are never overdue.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != TaskStatusDone
}

// Dday computes the deadline countdown label for a due date relative to now.
// Both instants are truncated to calendar days in UTC before differencing:
// "D-Day" for today, "D-n" for n days remaining, "D+n" for n days past due.
// A nil due date yields no label. The second return value reports overdue.
func Dday(due *time.Time, now time.Time) (string, bool) {
	if due == nil {
		return "", false
	}

	truncate := func(t time.Time) time.Time {
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}

	diff := int(truncate(*due).Sub(truncate(now)).Hours() / 24)
	switch {
	case diff == 0:
		return "D-Day", false
	case diff > 0:
		return fmt.Sprintf("D-%d", diff), false
	default:
		return fmt.Sprintf("D+%d", -diff), true
	}
}

// TaskWithDday annotates a task with its deadline countdown.
type TaskWithDday struct {
	*Task
	Dday      string `json:"dday,omitempty"`
	IsOverdue bool   `json:"is_overdue"`
}

// CreateTaskRequest is the request body for creating a task.
type CreateTaskRequest struct {
	Title         string       `json:"title" binding:"required,min=1,max=255"`
	Description   string       `json:"description,omitempty"`
	Status        TaskStatus   `json:"status,omitempty" binding:"omitempty,oneof=todo in_progress review done"`
	Priority      TaskPriority `json:"priority,omitempty" binding:"omitempty,oneof=low medium high urgent"`
	DueDate       *time.Time   `json:"due_date,omitempty"`
	RecurringRule string       `json:"recurring_rule,omitempty"`
	ControlID     *uuid.UUID   `json:"control_id,omitempty"`
	AssigneeID    *uuid.UUID   `json:"assignee_id,omitempty"`
}

// UpdateTaskRequest is the request body for updating a task.
// Nil fields are left unchanged.
type UpdateTaskRequest struct {
	Title         *string       `json:"title,omitempty" binding:"omitempty,min=1,max=255"`
	Description   *string       `json:"description,omitempty"`
	Status        *TaskStatus   `json:"status,omitempty" binding:"omitempty,oneof=todo in_progress review done"`
	Priority      *TaskPriority `json:"priority,omitempty" binding:"omitempty,oneof=low medium high urgent"`
	DueDate       *time.Time    `json:"due_date,omitempty"`
	RecurringRule *string       `json:"recurring_rule,omitempty"`
	ControlID     *uuid.UUID    `json:"control_id,omitempty"`
	AssigneeID    *uuid.UUID    `json:"assignee_id,omitempty"`
}

// Apply copies the set fields onto t. A set DueDate/ControlID/AssigneeID
// replaces the previous value; clearing them is done by PATCHing an explicit
// null, which arrives here as a set pointer to the zero value upstream.
func (r *UpdateTaskRequest) Apply(t *Task) {
	if r.Title != nil {
		t.Title = *r.Title
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	if r.Status != nil {
		t.Status = *r.Status
	}
	if r.Priority != nil {
		t.Priority = *r.Priority
	}
	if r.DueDate != nil {
		t.DueDate = r.DueDate
	}
	if r.RecurringRule != nil {
		t.RecurringRule = *r.RecurringRule
	}
	if r.ControlID != nil {
		t.ControlID = r.ControlID
	}
	if r.AssigneeID != nil {
		t.AssigneeID = r.AssigneeID
	}
	t.UpdatedAt = time.Now().UTC()
}

// TaskFilter narrows task listings. Search matches title or description
// substrings, case-insensitively.
type TaskFilter struct {
	Status      *TaskStatus
	Priority    *TaskPriority
	ControlID   *uuid.UUID
	AssigneeID  *uuid.UUID
	OverdueOnly bool
	Search      *string
}

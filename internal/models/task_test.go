package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDday(t *testing.T) {
	now := time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name        string
		due         *time.Time
		wantLabel   string
		wantOverdue bool
	}{
		{
			name:        "nil due date",
			due:         nil,
			wantLabel:   "",
			wantOverdue: false,
		},
		{
			name:        "due today earlier in the day",
			due:         timePtr(time.Date(2025, 3, 15, 1, 0, 0, 0, time.UTC)),
			wantLabel:   "D-Day",
			wantOverdue: false,
		},
		{
			name:        "due today later in the day",
			due:         timePtr(time.Date(2025, 3, 15, 23, 59, 0, 0, time.UTC)),
			wantLabel:   "D-Day",
			wantOverdue: false,
		},
		{
			name:        "due in five days",
			due:         timePtr(time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)),
			wantLabel:   "D-5",
			wantOverdue: false,
		},
		{
			name:        "due tomorrow just after midnight",
			due:         timePtr(time.Date(2025, 3, 16, 0, 0, 1, 0, time.UTC)),
			wantLabel:   "D-1",
			wantOverdue: false,
		},
		{
			name:        "due yesterday",
			due:         timePtr(time.Date(2025, 3, 14, 23, 0, 0, 0, time.UTC)),
			wantLabel:   "D+1",
			wantOverdue: true,
		},
		{
			name:        "ten days overdue",
			due:         timePtr(time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)),
			wantLabel:   "D+10",
			wantOverdue: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, overdue := Dday(tt.due, now)
			if label != tt.wantLabel {
				t.Errorf("expected label %q, got %q", tt.wantLabel, label)
			}
			if overdue != tt.wantOverdue {
				t.Errorf("expected overdue %v, got %v", tt.wantOverdue, overdue)
			}
		})
	}
}

func TestDdayNonUTCDueDate(t *testing.T) {
	// 2025-03-16 02:00 KST is 2025-03-15 17:00 UTC, still the same UTC day.
	kst := time.FixedZone("KST", 9*3600)
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	due := time.Date(2025, 3, 16, 2, 0, 0, 0, kst)

	label, overdue := Dday(&due, now)
	if label != "D-Day" {
		t.Errorf("expected D-Day, got %q", label)
	}
	if overdue {
		t.Error("expected not overdue")
	}
}

func TestTaskIsOverdue(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	task := NewTask(uuid.New(), "rotate access keys")
	if task.IsOverdue(now) {
		t.Error("task without due date should never be overdue")
	}

	task.DueDate = &past
	if !task.IsOverdue(now) {
		t.Error("expected overdue for past due date")
	}

	task.Status = TaskStatusDone
	if task.IsOverdue(now) {
		t.Error("done task should not be overdue")
	}

	task.Status = TaskStatusInProgress
	task.DueDate = &future
	if task.IsOverdue(now) {
		t.Error("future due date should not be overdue")
	}
}

func TestNewTaskDefaults(t *testing.T) {
	orgID := uuid.New()
	task := NewTask(orgID, "review supplier agreements")

	if task.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if task.OrgID != orgID {
		t.Errorf("expected OrgID %v, got %v", orgID, task.OrgID)
	}
	if task.Status != TaskStatusTodo {
		t.Errorf("expected status todo, got %s", task.Status)
	}
	if task.Priority != TaskPriorityMedium {
		t.Errorf("expected priority medium, got %s", task.Priority)
	}
}

func timePtr(t time.Time) *time.Time { return &t }

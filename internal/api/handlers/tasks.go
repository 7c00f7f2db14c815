package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/haneul-labs/complyhub/internal/models"
)

// TaskStore defines the persistence operations for tasks.
type TaskStore interface {
	GetTasks(ctx context.Context, orgID uuid.UUID, filter models.TaskFilter) ([]*models.Task, error)
	GetUpcomingTasks(ctx context.Context, orgID uuid.UUID, windowDays int) ([]*models.Task, error)
	GetTaskByID(ctx context.Context, orgID, id uuid.UUID) (*models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, orgID, id uuid.UUID) error
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// TasksHandler handles task-related HTTP endpoints.
type TasksHandler struct {
	store       TaskStore
	recorder    ActivityRecorder
	logger      zerolog.Logger
	defaultDays int
}

// NewTasksHandler creates a new TasksHandler. defaultDays is the upcoming
// view's window when the request does not specify one.
func NewTasksHandler(store TaskStore, recorder ActivityRecorder, defaultDays int, logger zerolog.Logger) *TasksHandler {
	if defaultDays <= 0 {
		defaultDays = 7
	}
	return &TasksHandler{
		store:       store,
		recorder:    recorder,
		logger:      logger.With().Str("component", "tasks_handler").Logger(),
		defaultDays: defaultDays,
	}
}

// RegisterRoutes registers task routes on the given router group.
func (h *TasksHandler) RegisterRoutes(r *gin.RouterGroup) {
	tasks := r.Group("/tasks")
	{
		tasks.GET("", h.List)
		tasks.GET("/upcoming", h.Upcoming)
		tasks.POST("", h.Create)
		tasks.GET("/:id", h.Get)
		tasks.PATCH("/:id", h.Update)
		tasks.DELETE("/:id", h.Delete)
	}
}

// taskAggregates summarizes a filtered task listing. Counts are computed
// over the same filtered set the listing returns.
type taskAggregates struct {
	Total        int            `json:"total"`
	ByStatus     map[string]int `json:"by_status"`
	ByPriority   map[string]int `json:"by_priority"`
	OverdueCount int            `json:"overdue_count"`
}

// withDday annotates tasks with their deadline countdown labels.
func withDday(tasks []*models.Task, now time.Time) []*models.TaskWithDday {
	out := make([]*models.TaskWithDday, 0, len(tasks))
	for _, task := range tasks {
		label, overdue := models.Dday(task.DueDate, now)
		if task.Status == models.TaskStatusDone {
			overdue = false
		}
		out = append(out, &models.TaskWithDday{Task: task, Dday: label, IsOverdue: overdue})
	}
	return out
}

// List returns the organization's tasks matching the query filters, each
// annotated with its D-day label, plus aggregates over the filtered set.
// GET /api/v1/tasks
func (h *TasksHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var filter models.TaskFilter
	if s := c.Query("status"); s != "" {
		status := models.TaskStatus(s)
		filter.Status = &status
	}
	if s := c.Query("priority"); s != "" {
		priority := models.TaskPriority(s)
		filter.Priority = &priority
	}
	if s := c.Query("control_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid control_id"})
			return
		}
		filter.ControlID = &id
	}
	if s := c.Query("assignee_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignee_id"})
			return
		}
		filter.AssigneeID = &id
	}
	if s := c.Query("search"); s != "" {
		filter.Search = &s
	}
	filter.OverdueOnly = c.Query("overdue") == "true"

	tasks, err := h.store.GetTasks(c.Request.Context(), p.OrgID, filter)
	if err != nil {
		respondStoreError(c, h.logger, err, "tasks")
		return
	}

	now := time.Now().UTC()
	annotated := withDday(tasks, now)

	agg := taskAggregates{
		Total:      len(tasks),
		ByStatus:   make(map[string]int),
		ByPriority: make(map[string]int),
	}
	for _, task := range tasks {
		agg.ByStatus[string(task.Status)]++
		agg.ByPriority[string(task.Priority)]++
		if task.IsOverdue(now) {
			agg.OverdueCount++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks":      annotated,
		"aggregates": agg,
	})
}

// Upcoming returns unfinished tasks due within the window, annotated with
// D-day labels. Overdue tasks are included so they stay visible.
// GET /api/v1/tasks/upcoming
func (h *TasksHandler) Upcoming(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	days := h.defaultDays
	if s := c.Query("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 30 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
			return
		}
		days = n
	}

	tasks, err := h.store.GetUpcomingTasks(c.Request.Context(), p.OrgID, days)
	if err != nil {
		respondStoreError(c, h.logger, err, "tasks")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks":       withDday(tasks, time.Now().UTC()),
		"window_days": days,
	})
}

// Get returns one task annotated with its D-day label.
// GET /api/v1/tasks/:id
func (h *TasksHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	task, err := h.store.GetTaskByID(c.Request.Context(), p.OrgID, id)
	if err != nil {
		respondStoreError(c, h.logger, err, "task")
		return
	}

	label, overdue := models.Dday(task.DueDate, time.Now().UTC())
	if task.Status == models.TaskStatusDone {
		overdue = false
	}
	c.JSON(http.StatusOK, &models.TaskWithDday{Task: task, Dday: label, IsOverdue: overdue})
}

// Create creates a task. Assigning someone other than the caller notifies
// the assignee.
// POST /api/v1/tasks
func (h *TasksHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task := models.NewTask(p.OrgID, req.Title)
	task.Description = req.Description
	if req.Status != "" {
		task.Status = req.Status
	}
	if req.Priority != "" {
		task.Priority = req.Priority
	}
	task.DueDate = req.DueDate
	task.RecurringRule = req.RecurringRule
	task.ControlID = req.ControlID
	task.AssigneeID = req.AssigneeID

	if err := h.store.CreateTask(c.Request.Context(), task); err != nil {
		respondStoreError(c, h.logger, err, "task")
		return
	}

	h.record(c, models.NewActivity(p.OrgID, p.UserID, models.ActivityTaskCreated,
		"created task "+task.Title, map[string]any{"task_id": task.ID.String()}))

	h.notifyAssignee(c, p.UserID, task, nil)

	label, overdue := models.Dday(task.DueDate, time.Now().UTC())
	c.JSON(http.StatusCreated, &models.TaskWithDday{Task: task, Dday: label, IsOverdue: overdue})
}

// Update applies a partial update to a task. Completing a task and handing
// it to a new assignee each produce their own side effects.
// PATCH /api/v1/tasks/:id
func (h *TasksHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req models.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.store.GetTaskByID(c.Request.Context(), p.OrgID, id)
	if err != nil {
		respondStoreError(c, h.logger, err, "task")
		return
	}

	prevStatus := task.Status
	prevAssignee := task.AssigneeID
	req.Apply(task)

	if err := h.store.UpdateTask(c.Request.Context(), task); err != nil {
		respondStoreError(c, h.logger, err, "task")
		return
	}

	if task.Status == models.TaskStatusDone && prevStatus != models.TaskStatusDone {
		h.record(c, models.NewActivity(p.OrgID, p.UserID, models.ActivityTaskCompleted,
			"completed task "+task.Title, map[string]any{"task_id": task.ID.String()}))
	} else {
		h.record(c, models.NewActivity(p.OrgID, p.UserID, models.ActivityTaskUpdated,
			"updated task "+task.Title, map[string]any{"task_id": task.ID.String()}))
	}

	h.notifyAssignee(c, p.UserID, task, prevAssignee)

	label, overdue := models.Dday(task.DueDate, time.Now().UTC())
	if task.Status == models.TaskStatusDone {
		overdue = false
	}
	c.JSON(http.StatusOK, &models.TaskWithDday{Task: task, Dday: label, IsOverdue: overdue})
}

// Delete removes a task.
// DELETE /api/v1/tasks/:id
func (h *TasksHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	task, err := h.store.GetTaskByID(c.Request.Context(), p.OrgID, id)
	if err != nil {
		respondStoreError(c, h.logger, err, "task")
		return
	}

	if err := h.store.DeleteTask(c.Request.Context(), p.OrgID, id); err != nil {
		respondStoreError(c, h.logger, err, "task")
		return
	}

	h.record(c, models.NewActivity(p.OrgID, p.UserID, models.ActivityTaskDeleted,
		"deleted task "+task.Title, map[string]any{"task_id": id.String()}))

	c.Status(http.StatusNoContent)
}

// notifyAssignee creates a task_assigned notification when the task gained
// an assignee who is not the acting user. Failures are logged, not surfaced.
func (h *TasksHandler) notifyAssignee(c *gin.Context, actor uuid.UUID, task *models.Task, prevAssignee *uuid.UUID) {
	if task.AssigneeID == nil || *task.AssigneeID == actor {
		return
	}
	if prevAssignee != nil && *prevAssignee == *task.AssigneeID {
		return
	}

	n := models.NewNotification(task.OrgID, *task.AssigneeID, models.NotificationTaskAssigned,
		"Task assigned", "You were assigned: "+task.Title)
	n.RelatedTaskID = &task.ID
	if err := h.store.CreateNotification(c.Request.Context(), n); err != nil {
		h.logger.Warn().Err(err).Str("task_id", task.ID.String()).Msg("failed to create assignment notification")
	}
}

func (h *TasksHandler) record(c *gin.Context, activity *models.Activity) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.Record(c.Request.Context(), activity); err != nil {
		h.logger.Warn().Err(err).Str("type", string(activity.Type)).Msg("failed to record activity")
	}
}

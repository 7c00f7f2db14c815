// Package notify runs the scheduled deadline scanner that turns approaching
// task due dates and document expiry dates into user notifications.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/haneul-labs/complyhub/internal/models"
)

// approachingDays are the D-day marks that produce an early warning.
var approachingDays = []int{30, 7}

// documentExpiryWindowDays is how far ahead expiring documents are flagged.
const documentExpiryWindowDays = 30

// Store defines the persistence operations the scanner needs.
type Store interface {
	GetAssignedTasksDueWithin(ctx context.Context, windowDays int) ([]*models.Task, error)
	GetDocumentsExpiringWithin(ctx context.Context, windowDays int) ([]*models.Document, error)
	HasRecentNotification(ctx context.Context, userID uuid.UUID, typ models.NotificationType, taskID, docID *uuid.UUID, since time.Time) (bool, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// Scheduler runs the deadline scan on a cron schedule.
type Scheduler struct {
	store  Store
	cron   *cron.Cron
	spec   string
	logger zerolog.Logger
}

// NewScheduler creates a Scheduler. spec is a standard 5-field cron
// expression; the default fires daily at 09:00 server time.
func NewScheduler(store Store, spec string, logger zerolog.Logger) *Scheduler {
	if spec == "" {
		spec = "0 9 * * *"
	}
	return &Scheduler{
		store:  store,
		cron:   cron.New(),
		spec:   spec,
		logger: logger.With().Str("component", "notify_scheduler").Logger(),
	}
}

// Start registers the scan job and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.RunScan(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule deadline scan: %w", err)
	}
	s.cron.Start()
	s.logger.Info().Str("spec", s.spec).Msg("deadline scanner started")
	return nil
}

// Stop stops the cron loop and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("deadline scanner stopped")
}

// RunScan performs one full scan over due tasks and expiring documents. It
// is idempotent within a day: alerts already sent in the last 24 hours are
// not repeated.
func (s *Scheduler) RunScan(ctx context.Context) {
	now := time.Now().UTC()
	created := 0
	created += s.scanTasks(ctx, now)
	created += s.scanDocuments(ctx, now)
	s.logger.Info().Int("notifications_created", created).Msg("deadline scan complete")
}

func (s *Scheduler) scanTasks(ctx context.Context, now time.Time) int {
	// The widest approaching mark bounds the query window. Overdue tasks
	// have past due dates and are always inside it.
	window := approachingDays[0]
	tasks, err := s.store.GetAssignedTasksDueWithin(ctx, window)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load due tasks")
		return 0
	}

	created := 0
	for _, task := range tasks {
		label, overdue := models.Dday(task.DueDate, now)

		var typ models.NotificationType
		var title, message string
		switch {
		case overdue:
			typ = models.NotificationDeadlineOverdue
			title = "Task overdue"
			message = fmt.Sprintf("%q is overdue (%s)", task.Title, label)
		case label == "D-Day":
			typ = models.NotificationDeadlineToday
			title = "Task due today"
			message = fmt.Sprintf("%q is due today", task.Title)
		case s.isApproachingMark(label):
			typ = models.NotificationDeadlineApproaching
			title = "Task deadline approaching"
			message = fmt.Sprintf("%q is due in %s", task.Title, label)
		default:
			continue
		}

		if s.emit(ctx, task.OrgID, *task.AssigneeID, typ, title, message, &task.ID, nil) {
			created++
		}
	}
	return created
}

func (s *Scheduler) scanDocuments(ctx context.Context, now time.Time) int {
	docs, err := s.store.GetDocumentsExpiringWithin(ctx, documentExpiryWindowDays)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load expiring documents")
		return 0
	}

	created := 0
	for _, doc := range docs {
		if doc.UploadedByID == nil {
			continue
		}
		label, expired := models.Dday(doc.ExpiresAt, now)
		message := fmt.Sprintf("%q expires in %s", doc.Name, label)
		if expired {
			message = fmt.Sprintf("%q has expired (%s)", doc.Name, label)
		}
		if s.emit(ctx, doc.OrgID, *doc.UploadedByID, models.NotificationDocumentExpiring,
			"Document expiring", message, nil, &doc.ID) {
			created++
		}
	}
	return created
}

// emit creates the notification unless an identical alert went out in the
// last 24 hours. Returns true when a notification was created.
func (s *Scheduler) emit(ctx context.Context, orgID, userID uuid.UUID, typ models.NotificationType, title, message string, taskID, docID *uuid.UUID) bool {
	since := time.Now().UTC().Add(-24 * time.Hour)
	exists, err := s.store.HasRecentNotification(ctx, userID, typ, taskID, docID, since)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check existing notification")
		return false
	}
	if exists {
		return false
	}

	n := models.NewNotification(orgID, userID, typ, title, message)
	n.RelatedTaskID = taskID
	n.RelatedDocumentID = docID
	if err := s.store.CreateNotification(ctx, n); err != nil {
		s.logger.Error().Err(err).Str("type", string(typ)).Msg("failed to create notification")
		return false
	}
	return true
}

func (s *Scheduler) isApproachingMark(label string) bool {
	for _, d := range approachingDays {
		if label == fmt.Sprintf("D-%d", d) {
			return true
		}
	}
	return false
}

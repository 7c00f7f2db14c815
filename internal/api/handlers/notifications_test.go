package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/haneul-labs/complyhub/internal/db"
	"github.com/haneul-labs/complyhub/internal/models"
)

type mockNotificationStore struct {
	notifications []*models.Notification
}

func (m *mockNotificationStore) GetNotificationsByUser(_ context.Context, orgID, userID uuid.UUID, unreadOnly bool) ([]*models.Notification, error) {
	var result []*models.Notification
	for _, n := range m.notifications {
		if n.OrgID != orgID || n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		result = append(result, n)
	}
	return result, nil
}

func (m *mockNotificationStore) UnreadNotificationCount(_ context.Context, orgID, userID uuid.UUID) (int, error) {
	count := 0
	for _, n := range m.notifications {
		if n.OrgID == orgID && n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationStore) MarkNotificationRead(_ context.Context, orgID, userID, id uuid.UUID) error {
	for _, n := range m.notifications {
		if n.ID == id && n.OrgID == orgID && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *mockNotificationStore) MarkAllNotificationsRead(_ context.Context, orgID, userID uuid.UUID) (int64, error) {
	var updated int64
	for _, n := range m.notifications {
		if n.OrgID == orgID && n.UserID == userID && !n.IsRead {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}

func TestListNotifications(t *testing.T) {
	orgID := uuid.New()
	p := memberPrincipal(orgID)

	read := models.NewNotification(orgID, p.UserID, models.NotificationTaskAssigned, "Task assigned", "x")
	read.IsRead = true
	unread := models.NewNotification(orgID, p.UserID, models.NotificationDeadlineToday, "Task due today", "y")
	other := models.NewNotification(orgID, uuid.New(), models.NotificationDeadlineToday, "Task due today", "z")

	store := &mockNotificationStore{notifications: []*models.Notification{read, unread, other}}
	h := NewNotificationsHandler(store, zerolog.Nop())

	t.Run("all mine", func(t *testing.T) {
		w := doJSON(newTestRouter(h, p), "GET", "/api/v1/notifications", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp struct {
			Notifications []*models.Notification `json:"notifications"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if len(resp.Notifications) != 2 {
			t.Errorf("expected 2 notifications, got %d (other user's leaked in?)", len(resp.Notifications))
		}
	})

	t.Run("unread only", func(t *testing.T) {
		w := doJSON(newTestRouter(h, p), "GET", "/api/v1/notifications?unread=true", "")
		var resp struct {
			Notifications []*models.Notification `json:"notifications"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if len(resp.Notifications) != 1 || resp.Notifications[0].ID != unread.ID {
			t.Errorf("unread filter returned %d notifications", len(resp.Notifications))
		}
	})

	t.Run("unread count", func(t *testing.T) {
		w := doJSON(newTestRouter(h, p), "GET", "/api/v1/notifications/unread-count", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp struct {
			UnreadCount int `json:"unread_count"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if resp.UnreadCount != 1 {
			t.Errorf("unread_count = %d, want 1", resp.UnreadCount)
		}
	})
}

func TestMarkNotificationRead(t *testing.T) {
	orgID := uuid.New()
	p := memberPrincipal(orgID)
	n := models.NewNotification(orgID, p.UserID, models.NotificationDeadlineOverdue, "Task overdue", "x")
	store := &mockNotificationStore{notifications: []*models.Notification{n}}
	h := NewNotificationsHandler(store, zerolog.Nop())

	t.Run("success", func(t *testing.T) {
		w := doJSON(newTestRouter(h, p), "POST", "/api/v1/notifications/"+n.ID.String()+"/read", "")
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
		if !n.IsRead {
			t.Error("notification not marked read")
		}
	})

	t.Run("someone else's notification", func(t *testing.T) {
		w := doJSON(newTestRouter(h, memberPrincipal(orgID)), "POST",
			"/api/v1/notifications/"+n.ID.String()+"/read", "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}

func TestMarkAllNotificationsRead(t *testing.T) {
	orgID := uuid.New()
	p := memberPrincipal(orgID)
	store := &mockNotificationStore{notifications: []*models.Notification{
		models.NewNotification(orgID, p.UserID, models.NotificationDeadlineToday, "a", "a"),
		models.NewNotification(orgID, p.UserID, models.NotificationDeadlineOverdue, "b", "b"),
		models.NewNotification(orgID, uuid.New(), models.NotificationDeadlineToday, "c", "c"),
	}}
	h := NewNotificationsHandler(store, zerolog.Nop())

	w := doJSON(newTestRouter(h, p), "POST", "/api/v1/notifications/read-all", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Updated int64 `json:"updated"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if resp.Updated != 2 {
		t.Errorf("updated = %d, want 2", resp.Updated)
	}
}

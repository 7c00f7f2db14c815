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

type mockOrganizationStore struct {
	org   *models.Organization
	stats *models.OrganizationStats
}

func (m *mockOrganizationStore) GetOrganizationByID(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	if m.org != nil && m.org.ID == id {
		return m.org, nil
	}
	return nil, db.ErrNotFound
}

func (m *mockOrganizationStore) UpdateOrganization(_ context.Context, _ *models.Organization) error {
	return nil
}

func (m *mockOrganizationStore) GetOrganizationStats(_ context.Context, _ uuid.UUID) (*models.OrganizationStats, error) {
	return m.stats, nil
}

func TestGetCurrentOrganization(t *testing.T) {
	org := models.NewOrganization("Haneul Labs", models.ProfileSME)
	store := &mockOrganizationStore{org: org}
	h := NewOrganizationsHandler(store, zerolog.Nop())

	w := doJSON(newTestRouter(h, memberPrincipal(org.ID)), "GET", "/api/v1/organizations/current", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.Organization
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if resp.ID != org.ID || resp.ProfileType != models.ProfileSME {
		t.Errorf("wrong organization returned: %+v", resp)
	}
}

func TestUpdateCurrentOrganization(t *testing.T) {
	t.Run("admin updates profile", func(t *testing.T) {
		org := models.NewOrganization("Haneul Labs", models.ProfileStartup)
		store := &mockOrganizationStore{org: org}
		h := NewOrganizationsHandler(store, zerolog.Nop())

		w := doJSON(newTestRouter(h, adminPrincipal(org.ID)), "PATCH",
			"/api/v1/organizations/current", `{"profile_type":"midsize"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if org.ProfileType != models.ProfileMidsize {
			t.Errorf("profile_type = %s, not applied", org.ProfileType)
		}
	})

	t.Run("member forbidden", func(t *testing.T) {
		org := models.NewOrganization("Haneul Labs", models.ProfileStartup)
		h := NewOrganizationsHandler(&mockOrganizationStore{org: org}, zerolog.Nop())

		w := doJSON(newTestRouter(h, memberPrincipal(org.ID)), "PATCH",
			"/api/v1/organizations/current", `{"name":"Renamed"}`)
		if w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", w.Code)
		}
	})

	t.Run("invalid profile type", func(t *testing.T) {
		org := models.NewOrganization("Haneul Labs", models.ProfileStartup)
		h := NewOrganizationsHandler(&mockOrganizationStore{org: org}, zerolog.Nop())

		w := doJSON(newTestRouter(h, adminPrincipal(org.ID)), "PATCH",
			"/api/v1/organizations/current", `{"profile_type":"megacorp"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestGetOrganizationStats(t *testing.T) {
	org := models.NewOrganization("Haneul Labs", models.ProfileStartup)
	store := &mockOrganizationStore{
		org: org,
		stats: &models.OrganizationStats{
			TotalControls:     93,
			CompletedControls: 12,
			TotalTasks:        8,
			OverdueTasks:      2,
			TotalDocuments:    5,
			ExpiringDocuments: 1,
		},
	}
	h := NewOrganizationsHandler(store, zerolog.Nop())

	w := doJSON(newTestRouter(h, memberPrincipal(org.ID)), "GET", "/api/v1/organizations/current/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.OrganizationStats
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if resp.TotalControls != 93 || resp.OverdueTasks != 2 {
		t.Errorf("stats passed through wrong: %+v", resp)
	}
}

package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"expensetracker/internal/models"
	"expensetracker/internal/session"
	"expensetracker/pkg/apiclient"
)

type testAPI struct {
	mux          *http.ServeMux
	server       *httptest.Server
	expenses     []models.Expense
	expensePosts atomic.Int64
	nextID       int
	memberships  map[string][]models.Membership
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	api := &testAPI{
		mux:    http.NewServeMux(),
		nextID: 100,
		memberships: map[string][]models.Membership{
			"1": {{ProjectID: 1, MemberID: 7, MemberName: "Alice", ProjectName: "Apollo", MemberRole: models.RoleAdmin}},
			"2": {{ProjectID: 2, MemberID: 8, MemberName: "Bob", ProjectName: "Hermes", MemberRole: models.RoleAdmin}},
		},
	}

	api.mux.HandleFunc("GET /users/{id}/projects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Project{
			{ID: 1, ProjectName: "Apollo"},
			{ID: 2, ProjectName: "Hermes"},
		})
	})
	api.mux.HandleFunc("GET /expenses", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.expenses)
	})
	api.mux.HandleFunc("GET /projects/{id}/members", func(w http.ResponseWriter, r *http.Request) {
		members, ok := api.memberships[r.PathValue("id")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No members found for this project"})
			return
		}
		writeJSON(w, http.StatusOK, members)
	})
	api.mux.HandleFunc("POST /expenses", func(w http.ResponseWriter, r *http.Request) {
		api.expensePosts.Add(1)
		var e models.Expense
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid json"})
			return
		}
		e.ID = api.nextID
		api.nextID++
		api.expenses = append(api.expenses, e)
		writeJSON(w, http.StatusOK, e)
	})

	api.server = httptest.NewServer(api.mux)
	t.Cleanup(api.server.Close)
	return api
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func newTestManager(t *testing.T, api *testAPI, userID int, name string) *Manager {
	t.Helper()
	client := apiclient.NewClient(api.server.URL)
	mgr := NewManager(client, session.Session{
		UserID: userID, Name: name, Email: strings.ToLower(name) + "@example.com", Token: "test-token",
	})
	if err := mgr.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return mgr
}

func TestSelectProjectResolvesRole(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name      string
		userID    int
		projectID int
		want      models.Role
	}{
		{name: "admin of selected project", userID: 7, projectID: 1, want: models.RoleAdmin},
		{name: "not a member of selected project", userID: 9, projectID: 1, want: models.RoleMember},
		{name: "no membership list at all", userID: 7, projectID: 3, want: models.RoleMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := newTestManager(t, api, tt.userID, "Alice")
			if err := mgr.SelectProject(context.Background(), tt.projectID); err != nil {
				t.Fatalf("select project: %v", err)
			}
			if got := mgr.Role(); got != tt.want {
				t.Fatalf("role = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectProjectDiscardsStaleFetch(t *testing.T) {
	api := newTestAPI(t)

	slowReceived := make(chan struct{})
	slowRelease := make(chan struct{})
	api.mux.HandleFunc("GET /projects/1/members", func(w http.ResponseWriter, r *http.Request) {
		close(slowReceived)
		<-slowRelease
		writeJSON(w, http.StatusOK, api.memberships["1"])
	})

	mgr := newTestManager(t, api, 7, "Alice")

	done := make(chan error, 1)
	go func() {
		done <- mgr.SelectProject(context.Background(), 1)
	}()

	// Wait until the fetch for project 1 is in flight, then switch to
	// project 2 before it can complete.
	<-slowReceived
	if err := mgr.SelectProject(context.Background(), 2); err != nil {
		t.Fatalf("select project 2: %v", err)
	}
	close(slowRelease)
	if err := <-done; err != nil {
		t.Fatalf("select project 1: %v", err)
	}

	if got := mgr.SelectedProject(); got != 2 {
		t.Fatalf("selected project = %d, want 2 (stale fetch must not win)", got)
	}
	members := mgr.Memberships()
	if len(members) != 1 || members[0].ProjectID != 2 {
		t.Fatalf("memberships belong to the wrong project: %+v", members)
	}
	// User 7 is admin of project 1 only; the late project-1 result must
	// not have promoted them.
	if got := mgr.Role(); got != models.RoleMember {
		t.Fatalf("role = %q, want member", got)
	}
}

func TestSubmitExpenseValidationSkipsNetwork(t *testing.T) {
	api := newTestAPI(t)
	mgr := newTestManager(t, api, 7, "Alice")
	if err := mgr.SelectProject(context.Background(), 1); err != nil {
		t.Fatalf("select project: %v", err)
	}

	_, err := mgr.SubmitExpense(context.Background(), ExpenseForm{
		ProjectID: "1",
		Name:      "Taxi",
		Amount:    "abc",
		Date:      "2026-03-14",
		Type:      "travel",
		Status:    "Approved",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if got := api.expensePosts.Load(); got != 0 {
		t.Fatalf("expected no POST for an invalid form, got %d", got)
	}
}

func TestSubmitExpenseAppendsCreated(t *testing.T) {
	api := newTestAPI(t)
	mgr := newTestManager(t, api, 7, "Alice")
	if err := mgr.SelectProject(context.Background(), 1); err != nil {
		t.Fatalf("select project: %v", err)
	}

	before := len(mgr.Expenses())
	created, err := mgr.SubmitExpense(context.Background(), ExpenseForm{
		ProjectID: "1",
		Name:      "Hotel night",
		Amount:    "1200",
		Date:      "2026-03-14",
		Type:      "hotel",
		Status:    "Approved",
	})
	if err != nil {
		t.Fatalf("submit expense: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected server-assigned id, got %+v", created)
	}

	expenses := mgr.Expenses()
	if len(expenses) != before+1 {
		t.Fatalf("expected local list to grow by one, %d -> %d", before, len(expenses))
	}
	last := expenses[len(expenses)-1]
	if last.ExpenseName != "Hotel night" || last.Amount != 1200 || last.ProjectName != "Apollo" {
		t.Fatalf("appended expense does not match submission: %+v", last)
	}

	// A fresh fetch returns the same new entry.
	if err := mgr.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	refetched := mgr.Expenses()
	if len(refetched) != before+1 || refetched[len(refetched)-1].ID != created.ID {
		t.Fatalf("refetched list does not contain the created expense: %+v", refetched)
	}
}

func TestSubmitExpenseSurfacesServerDetail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/{id}/projects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Project{{ID: 1, ProjectName: "Apollo"}})
	})
	mux.HandleFunc("GET /expenses", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Expense{})
	})
	mux.HandleFunc("GET /projects/{id}/members", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Membership{
			{ProjectID: 1, MemberID: 7, MemberName: "Alice", ProjectName: "Apollo", MemberRole: models.RoleAdmin},
		})
	})
	mux.HandleFunc("POST /expenses", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "amount exceeds project budget"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mgr := NewManager(apiclient.NewClient(srv.URL), session.Session{UserID: 7, Name: "Alice", Email: "alice@example.com"})
	if err := mgr.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := mgr.SelectProject(context.Background(), 1); err != nil {
		t.Fatalf("select project: %v", err)
	}

	_, err := mgr.SubmitExpense(context.Background(), ExpenseForm{
		ProjectID: "1", Name: "Taxi", Amount: "10", Date: "2026-03-14", Type: "travel", Status: "Approved",
	})
	if err == nil || !strings.Contains(err.Error(), "amount exceeds project budget") {
		t.Fatalf("expected server detail in error, got %v", err)
	}
	if len(mgr.Expenses()) != 0 {
		t.Fatalf("failed submission must not be appended locally")
	}
}

func TestUpdateStatusRequiresAdmin(t *testing.T) {
	api := newTestAPI(t)
	mgr := newTestManager(t, api, 9, "Carol") // not a member of project 1
	if err := mgr.SelectProject(context.Background(), 1); err != nil {
		t.Fatalf("select project: %v", err)
	}

	_, err := mgr.UpdateStatus(context.Background(), 1, models.StatusApproved)
	if err == nil || !strings.Contains(err.Error(), "admin") {
		t.Fatalf("expected admin gate error, got %v", err)
	}
}

package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"expensetracker/internal/models"
)

func TestDoSurfacesServerDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Member is already assigned to this project."})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.AddMember(context.Background(), models.Membership{ProjectID: 1, MemberID: 2})
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := err.Error(); got != "Member is already assigned to this project." {
		t.Fatalf("error = %q, want the server detail", got)
	}
	if IsNotFound(err) {
		t.Fatal("a 400 must not report as not found")
	}
}

func TestIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "User not found"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.GetUserByEmail(context.Background(), "nobody@example.com")
	if !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestProjectsForUserTreatsNotFoundAsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "No projects found for this user"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	projects, err := client.ProjectsForUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("expected nil error for a user without projects, got %v", err)
	}
	if len(projects) != 0 {
		t.Fatalf("expected no projects, got %+v", projects)
	}
}

func TestProjectMembersTreatsNotFoundAsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "No members found for this project"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	members, err := client.ProjectMembers(context.Background(), 42)
	if err != nil {
		t.Fatalf("expected nil error for an empty project, got %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("expected no members, got %+v", members)
	}
}

func TestLoginSendsFormAndStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("content type = %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostFormValue("username"); got != "alice@example.com" {
			t.Errorf("username = %q", got)
		}
		if got := r.PostFormValue("password"); got != "secret123" {
			t.Errorf("password = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-abc", "token_type": "bearer"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	token, err := client.Login(context.Background(), "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token != "tok-abc" {
		t.Fatalf("token = %q", token)
	}
	if client.Token != "tok-abc" {
		t.Fatalf("client did not store the token: %q", client.Token)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid credentials"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Login(context.Background(), "alice@example.com", "wrong")
	if err == nil || err.Error() != "Invalid credentials" {
		t.Fatalf("expected Invalid credentials, got %v", err)
	}
	if client.Token != "" {
		t.Fatalf("token must stay empty after a failed login, got %q", client.Token)
	}
}

func TestBearerTokenSentWhenSet(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]models.Expense{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if _, err := client.ListExpenses(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("no token set but Authorization = %q", gotAuth)
	}

	client.SetToken("tok-abc")
	if _, err := client.ListExpenses(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotAuth != "Bearer tok-abc" {
		t.Fatalf("Authorization = %q, want Bearer tok-abc", gotAuth)
	}
}

func TestUpdateExpenseStatusPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/expenses/5" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["expense_status"] != "Approved" {
			t.Errorf("expense_status = %q", body["expense_status"])
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.Expense{ID: 5, ExpenseStatus: models.StatusApproved})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	updated, err := client.UpdateExpenseStatus(context.Background(), 5, models.StatusApproved)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.ID != 5 || updated.ExpenseStatus != models.StatusApproved {
		t.Fatalf("updated = %+v", updated)
	}
}

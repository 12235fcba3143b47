package workflow

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"expensetracker/internal/models"
	"expensetracker/internal/session"
	"expensetracker/pkg/apiclient"
)

// Manager orchestrates the expense workflow for one authenticated user:
// fetching project, membership and expense data, tracking the selected
// project and the user's role in it, and submitting role-gated expenses.
//
// Project selection fetches carry a generation counter so that a late
// response for a previously selected project never overwrites the state of
// the current one.
type Manager struct {
	api     *apiclient.Client
	session session.Session

	mu          sync.Mutex
	gen         atomic.Uint64
	projects    []models.Project
	expenses    []models.Expense
	memberships []models.Membership
	selected    int
	role        models.Role
}

// NewManager creates a Manager for the given authenticated session
func NewManager(api *apiclient.Client, sess session.Session) *Manager {
	api.SetToken(sess.Token)
	return &Manager{api: api, session: sess, role: models.RoleMember}
}

// Session returns the identity the manager was created with
func (m *Manager) Session() session.Session {
	return m.session
}

// Refresh re-fetches the user's projects and the full expense list
func (m *Manager) Refresh(ctx context.Context) error {
	projects, err := m.api.ProjectsForUser(ctx, m.session.UserID)
	if err != nil {
		return fmt.Errorf("failed to load projects: %w", err)
	}
	expenses, err := m.api.ListExpenses(ctx)
	if err != nil {
		return fmt.Errorf("failed to load expenses: %w", err)
	}

	m.mu.Lock()
	m.projects = projects
	m.expenses = expenses
	m.mu.Unlock()
	return nil
}

// SelectProject switches the active project and loads its membership list.
// If another selection happens while the fetch is in flight, the stale
// result is discarded.
func (m *Manager) SelectProject(ctx context.Context, projectID int) error {
	gen := m.gen.Add(1)

	var memberships []models.Membership
	if projectID != 0 {
		var err error
		memberships, err = m.api.ProjectMembers(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to load members for project %d: %w", projectID, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen.Load() != gen {
		// A newer selection superseded this fetch.
		return nil
	}
	m.selected = projectID
	m.memberships = memberships
	m.role = ResolveRole(projectID, m.session.UserID, memberships)
	return nil
}

// SelectedProject returns the id of the active project, 0 when unset
func (m *Manager) SelectedProject() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// Role returns the user's role in the active project
func (m *Manager) Role() models.Role {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.role
}

// Projects returns the loaded project list
func (m *Manager) Projects() []models.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Project(nil), m.projects...)
}

// Memberships returns the membership list of the active project
func (m *Manager) Memberships() []models.Membership {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Membership(nil), m.memberships...)
}

// Expenses returns the loaded expense list
func (m *Manager) Expenses() []models.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Expense(nil), m.expenses...)
}

// ProjectExpenses returns the expenses of the active project
func (m *Manager) ProjectExpenses() []models.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	return FilterByProject(m.expenses, m.selected)
}

// SubmitExpense validates the form for the user's current role and submits
// it. Validation failures happen before any network call. On success the
// created expense is appended to the local list; the next Refresh
// reconciles against the server.
func (m *Manager) SubmitExpense(ctx context.Context, form ExpenseForm) (models.Expense, error) {
	m.mu.Lock()
	role := m.role
	projects := append([]models.Project(nil), m.projects...)
	m.mu.Unlock()

	payload, err := BuildExpensePayload(form, role,
		models.User{ID: m.session.UserID, Name: m.session.Name, Email: m.session.Email}, projects)
	if err != nil {
		return models.Expense{}, err
	}

	created, err := m.api.CreateExpense(ctx, payload)
	if err != nil {
		return models.Expense{}, fmt.Errorf("failed to add expense: %w", err)
	}

	m.mu.Lock()
	m.expenses = append(m.expenses, created)
	m.mu.Unlock()
	return created, nil
}

// UpdateStatus sets a new status on an expense. Only project admins see the
// status controls, and the same gate is enforced here.
func (m *Manager) UpdateStatus(ctx context.Context, expenseID int, status models.ExpenseStatus) (models.Expense, error) {
	if m.Role() != models.RoleAdmin {
		return models.Expense{}, fmt.Errorf("only a project admin can update expense status")
	}
	if !status.Valid() {
		return models.Expense{}, fmt.Errorf("unknown expense status %q", status)
	}

	updated, err := m.api.UpdateExpenseStatus(ctx, expenseID, status)
	if err != nil {
		return models.Expense{}, fmt.Errorf("failed to update status: %w", err)
	}

	m.mu.Lock()
	for i := range m.expenses {
		if m.expenses[i].ID == updated.ID {
			m.expenses[i] = updated
			break
		}
	}
	m.mu.Unlock()
	return updated, nil
}

package server

import (
	"context"

	"expensetracker/internal/models"
)

// Store is the persistence surface the API handlers depend on.
// *db.Store satisfies it; tests use an in-memory fake.
type Store interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetCredentials(ctx context.Context, email string) (int, string, error)
	ListUsers(ctx context.Context) ([]models.User, error)

	CreateProject(ctx context.Context, p models.Project) (models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id int) (models.Project, error)
	ListProjectsForUser(ctx context.Context, userID int) ([]models.Project, error)
	ListProjectMembers(ctx context.Context, projectID int) ([]models.Membership, error)
	AddMember(ctx context.Context, m models.Membership) (models.Membership, error)

	CreateExpense(ctx context.Context, e models.Expense) (models.Expense, error)
	ListExpenses(ctx context.Context) ([]models.Expense, error)
	GetExpense(ctx context.Context, id int) (models.Expense, error)
	UpdateExpenseStatus(ctx context.Context, id int, status models.ExpenseStatus) (models.Expense, error)
}

// Notifier publishes expense lifecycle events to an external channel.
// Implementations must never fail the triggering request.
type Notifier interface {
	ExpenseCreated(e models.Expense)
	ExpenseStatusChanged(e models.Expense, old models.ExpenseStatus)
}

package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"expensetracker/internal/models"
)

// CreateExpense inserts a new expense and returns it with its assigned id
func (s *Store) CreateExpense(ctx context.Context, e models.Expense) (models.Expense, error) {
	var date *time.Time
	if e.ExpenseDate != "" {
		d, err := time.Parse(dateLayout, e.ExpenseDate)
		if err != nil {
			return models.Expense{}, fmt.Errorf("invalid expense date %q: %w", e.ExpenseDate, err)
		}
		date = &d
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO expenses (project_id, member_id, member_name, project_name, expense_name,
                               expense_type, amount, expense_date, expense_detail, expense_proof, expense_status)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		e.ProjectID, e.MemberID, e.MemberName, e.ProjectName, e.ExpenseName,
		e.ExpenseType, e.Amount, date, e.ExpenseDetail, e.ExpenseProof, e.ExpenseStatus).Scan(&e.ID)
	if err != nil {
		return models.Expense{}, fmt.Errorf("failed to create expense: %w", err)
	}
	return e, nil
}

func scanExpenses(rows pgx.Rows) ([]models.Expense, error) {
	var expenses []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense rows: %w", err)
	}
	return expenses, nil
}

func scanExpense(row pgx.Row) (models.Expense, error) {
	var e models.Expense
	var date *time.Time
	if err := row.Scan(&e.ID, &e.ProjectID, &e.MemberID, &e.MemberName, &e.ProjectName,
		&e.ExpenseName, &e.ExpenseType, &e.Amount, &date, &e.ExpenseDetail,
		&e.ExpenseProof, &e.ExpenseStatus); err != nil {
		return models.Expense{}, fmt.Errorf("failed to scan expense row: %w", err)
	}
	if date != nil {
		e.ExpenseDate = formatDate(*date)
	}
	return e, nil
}

const expenseColumns = `id, project_id, member_id, member_name, project_name, expense_name,
expense_type, amount, expense_date, expense_detail, expense_proof, expense_status`

// ListExpenses returns all expenses across all projects
func (s *Store) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()
	return scanExpenses(rows)
}

// GetExpense returns a single expense by id
func (s *Store) GetExpense(ctx context.Context, id int) (models.Expense, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Expense{}, ErrNotFound
		}
		return models.Expense{}, err
	}
	return e, nil
}

// UpdateExpenseStatus sets the status of an expense and returns the updated row
func (s *Store) UpdateExpenseStatus(ctx context.Context, id int, status models.ExpenseStatus) (models.Expense, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE expenses SET expense_status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return models.Expense{}, fmt.Errorf("failed to update expense %d status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.Expense{}, ErrNotFound
	}
	return s.GetExpense(ctx, id)
}

package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"expensetracker/internal/models"
)

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func parseDatePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", *s, err)
	}
	return &t, nil
}

// CreateProject inserts a new project and returns it with its assigned id
func (s *Store) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	start, err := time.Parse(dateLayout, p.StartDate)
	if err != nil {
		return models.Project{}, fmt.Errorf("invalid start date %q: %w", p.StartDate, err)
	}
	end, err := parseDatePtr(p.EndDate)
	if err != nil {
		return models.Project{}, err
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO projects (project_name, project_admin_id, project_admin_name, start_date, end_date)
         VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		p.ProjectName, p.ProjectAdminID, p.ProjectAdminName, start, end).Scan(&p.ID)
	if err != nil {
		return models.Project{}, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

func scanProjects(rows pgx.Rows) ([]models.Project, error) {
	var projects []models.Project
	for rows.Next() {
		var p models.Project
		var start time.Time
		var end *time.Time
		if err := rows.Scan(&p.ID, &p.ProjectName, &p.ProjectAdminID, &p.ProjectAdminName, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		p.StartDate = formatDate(start)
		p.EndDate = formatDatePtr(end)
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate project rows: %w", err)
	}
	return projects, nil
}

// ListProjects returns all projects
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_name, project_admin_id, project_admin_name, start_date, end_date
         FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()
	return scanProjects(rows)
}

// GetProject returns a single project by id
func (s *Store) GetProject(ctx context.Context, id int) (models.Project, error) {
	var p models.Project
	var start time.Time
	var end *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT id, project_name, project_admin_id, project_admin_name, start_date, end_date
         FROM projects WHERE id = $1`, id).
		Scan(&p.ID, &p.ProjectName, &p.ProjectAdminID, &p.ProjectAdminName, &start, &end)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Project{}, ErrNotFound
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("failed to get project %d: %w", id, err)
	}
	p.StartDate = formatDate(start)
	p.EndDate = formatDatePtr(end)
	return p, nil
}

// ListProjectsForUser returns all projects the user is a member of
func (s *Store) ListProjectsForUser(ctx context.Context, userID int) ([]models.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.project_name, p.project_admin_id, p.project_admin_name, p.start_date, p.end_date
         FROM projects p
         JOIN members m ON p.id = m.project_id
         WHERE m.member_id = $1
         ORDER BY p.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects for user %d: %w", userID, err)
	}
	defer rows.Close()
	return scanProjects(rows)
}

// ListProjectMembers returns all memberships of a project
func (s *Store) ListProjectMembers(ctx context.Context, projectID int) ([]models.Membership, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT project_id, member_id, member_name, project_name, member_role
         FROM members WHERE project_id = $1 ORDER BY member_id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members for project %d: %w", projectID, err)
	}
	defer rows.Close()

	var members []models.Membership
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.ProjectID, &m.MemberID, &m.MemberName, &m.ProjectName, &m.MemberRole); err != nil {
			return nil, fmt.Errorf("failed to scan membership row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate membership rows: %w", err)
	}
	return members, nil
}

// AddMember assigns a user to a project. Each (project, user) pair may only
// exist once; a second insert returns ErrDuplicateMember.
func (s *Store) AddMember(ctx context.Context, m models.Membership) (models.Membership, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM members WHERE project_id = $1 AND member_id = $2)`,
		m.ProjectID, m.MemberID).Scan(&exists)
	if err != nil {
		return models.Membership{}, fmt.Errorf("failed to check existing membership: %w", err)
	}
	if exists {
		return models.Membership{}, ErrDuplicateMember
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO members (project_id, member_id, member_name, project_name, member_role)
         VALUES ($1, $2, $3, $4, $5)`,
		m.ProjectID, m.MemberID, m.MemberName, m.ProjectName, m.MemberRole)
	if err != nil {
		return models.Membership{}, fmt.Errorf("failed to add member: %w", err)
	}
	return m, nil
}

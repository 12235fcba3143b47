// Package workflow implements the role-aware expense submission and
// approval view-model: it derives the current user's role for a project,
// gates which expense statuses can be chosen, validates form input before
// any network call, and computes the filtered/summed views the client
// renders.
package workflow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"expensetracker/internal/models"
)

// ResolveRole derives the user's role for a project from its membership
// list. Absence of a matching membership yields the least-privileged role.
func ResolveRole(projectID, userID int, memberships []models.Membership) models.Role {
	for _, m := range memberships {
		if m.ProjectID == projectID && m.MemberID == userID && m.MemberRole == models.RoleAdmin {
			return models.RoleAdmin
		}
	}
	return models.RoleMember
}

// DefaultStatusFor returns the initial status for the expense form.
// Admins must choose explicitly, so their default is unset; members are
// fixed to Pending Approval.
func DefaultStatusFor(role models.Role) models.ExpenseStatus {
	if role == models.RoleAdmin {
		return ""
	}
	return models.StatusPendingApproval
}

// ExpenseForm holds the raw field values of the add-expense form
type ExpenseForm struct {
	ProjectID string
	Name      string
	Amount    string
	Date      string
	Type      string
	Status    string
	Detail    string
	Proof     string
}

// FieldError describes a single invalid form field
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationError aggregates every invalid field of a form submission
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "invalid expense form: " + strings.Join(msgs, "; ")
}

const dateLayout = "2006-01-02"

// BuildExpensePayload validates the form for the given role and assembles
// the expense to submit. member supplies the submitter's identity and
// projects the loaded project list; both denormalized names are embedded so
// the expense row stays displayable without a join. All field problems are
// reported together in a single *ValidationError.
func BuildExpensePayload(form ExpenseForm, role models.Role, member models.User, projects []models.Project) (models.Expense, error) {
	var verr ValidationError

	projectID := 0
	projectName := ""
	if strings.TrimSpace(form.ProjectID) == "" {
		verr.Fields = append(verr.Fields, FieldError{Field: "projectId", Reason: "is required"})
	} else {
		id, err := strconv.Atoi(strings.TrimSpace(form.ProjectID))
		if err != nil || id <= 0 {
			verr.Fields = append(verr.Fields, FieldError{Field: "projectId", Reason: "must be a positive number"})
		} else {
			projectID = id
			for _, p := range projects {
				if p.ID == id {
					projectName = p.ProjectName
					break
				}
			}
			if projectName == "" {
				verr.Fields = append(verr.Fields, FieldError{Field: "projectId", Reason: "does not match a loaded project"})
			}
		}
	}

	name := strings.TrimSpace(form.Name)
	if name == "" {
		verr.Fields = append(verr.Fields, FieldError{Field: "name", Reason: "is required"})
	}

	var amount int64
	if strings.TrimSpace(form.Amount) == "" {
		verr.Fields = append(verr.Fields, FieldError{Field: "amount", Reason: "is required"})
	} else {
		v, err := strconv.ParseInt(strings.TrimSpace(form.Amount), 10, 64)
		if err != nil {
			verr.Fields = append(verr.Fields, FieldError{Field: "amount", Reason: "must be a number"})
		} else if v < 0 {
			verr.Fields = append(verr.Fields, FieldError{Field: "amount", Reason: "must not be negative"})
		} else {
			amount = v
		}
	}

	date := strings.TrimSpace(form.Date)
	if date == "" {
		verr.Fields = append(verr.Fields, FieldError{Field: "date", Reason: "is required"})
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		verr.Fields = append(verr.Fields, FieldError{Field: "date", Reason: "must be formatted as YYYY-MM-DD"})
	}

	expenseType := models.ExpenseType(strings.TrimSpace(form.Type))
	if expenseType == "" {
		verr.Fields = append(verr.Fields, FieldError{Field: "type", Reason: "is required"})
	} else if !expenseType.Valid() {
		verr.Fields = append(verr.Fields, FieldError{Field: "type", Reason: "must be one of food, travel, hotel, others"})
	}

	// Members cannot choose a status: it is fixed to Pending Approval
	// no matter what the form carries. Admins must pick one explicitly.
	status := models.StatusPendingApproval
	if role == models.RoleAdmin {
		status = models.ExpenseStatus(strings.TrimSpace(form.Status))
		if status == "" {
			verr.Fields = append(verr.Fields, FieldError{Field: "status", Reason: "is required"})
		} else if !status.Valid() {
			verr.Fields = append(verr.Fields, FieldError{Field: "status", Reason: "is not a recognized status"})
		}
	}

	if len(verr.Fields) > 0 {
		return models.Expense{}, &verr
	}

	var detail, proof *string
	if d := strings.TrimSpace(form.Detail); d != "" {
		detail = &d
	}
	if p := strings.TrimSpace(form.Proof); p != "" {
		proof = &p
	}

	return models.Expense{
		ProjectID:     projectID,
		MemberID:      member.ID,
		MemberName:    member.Name,
		ProjectName:   projectName,
		ExpenseName:   name,
		ExpenseType:   expenseType,
		Amount:        amount,
		ExpenseDate:   date,
		ExpenseDetail: detail,
		ExpenseProof:  proof,
		ExpenseStatus: status,
	}, nil
}

// FilterByProject returns the expenses belonging to the project. An unset
// project id yields an empty result.
func FilterByProject(expenses []models.Expense, projectID int) []models.Expense {
	if projectID == 0 {
		return nil
	}
	var out []models.Expense
	for _, e := range expenses {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	return out
}

// TotalAmount sums the amounts of the given expenses
func TotalAmount(expenses []models.Expense) int64 {
	var total int64
	for _, e := range expenses {
		total += e.Amount
	}
	return total
}

// ProjectTotal is the aggregate spend of one project
type ProjectTotal struct {
	ProjectName string
	Total       int64
}

// TotalsByProject computes the total expense per project, in project order
func TotalsByProject(projects []models.Project, expenses []models.Expense) []ProjectTotal {
	totals := make([]ProjectTotal, 0, len(projects))
	for _, p := range projects {
		totals = append(totals, ProjectTotal{
			ProjectName: p.ProjectName,
			Total:       TotalAmount(FilterByProject(expenses, p.ID)),
		})
	}
	return totals
}

// StatusColor maps an expense status to the ANSI color used when rendering
// the expense table
func StatusColor(status models.ExpenseStatus) string {
	switch status {
	case models.StatusRejected:
		return "\033[31m" // red
	case models.StatusPaid:
		return "\033[32m" // green
	case models.StatusPendingApproval:
		return "\033[33m" // yellow
	case models.StatusApproved:
		return "\033[34m" // blue
	case models.StatusUnderReview:
		return "\033[91m" // bright red / orange
	case models.StatusPartiallyPaid:
		return "\033[36m" // teal
	case models.StatusOnHold:
		return "\033[90m" // gray
	case models.StatusSubmitted:
		return "\033[35m" // purple
	case models.StatusCanceled:
		return "\033[37m" // light gray
	case models.StatusReimbursed:
		return "\033[92m" // bright green
	default:
		return "\033[0m"
	}
}

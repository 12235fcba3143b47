package models

// Role is the capability a user has inside a project
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// ExpenseStatus is the approval state of an expense
type ExpenseStatus string

const (
	StatusPendingApproval ExpenseStatus = "Pending Approval"
	StatusApproved        ExpenseStatus = "Approved"
	StatusRejected        ExpenseStatus = "Rejected"
	StatusUnderReview     ExpenseStatus = "Under Review"
	StatusPaid            ExpenseStatus = "Paid"
	StatusPartiallyPaid   ExpenseStatus = "Partially Paid"
	StatusOnHold          ExpenseStatus = "On Hold"
	StatusSubmitted       ExpenseStatus = "Submitted for Reimbursement"
	StatusCanceled        ExpenseStatus = "Canceled"
	StatusReimbursed      ExpenseStatus = "Reimbursed"
)

// AllStatuses lists every expense status an admin may assign
var AllStatuses = []ExpenseStatus{
	StatusPendingApproval,
	StatusApproved,
	StatusRejected,
	StatusUnderReview,
	StatusPaid,
	StatusPartiallyPaid,
	StatusOnHold,
	StatusSubmitted,
	StatusCanceled,
	StatusReimbursed,
}

// Valid reports whether s is one of the enumerated statuses
func (s ExpenseStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ExpenseType is the category of an expense
type ExpenseType string

const (
	TypeFood   ExpenseType = "food"
	TypeTravel ExpenseType = "travel"
	TypeHotel  ExpenseType = "hotel"
	TypeOthers ExpenseType = "others"
)

// AllTypes lists every expense type
var AllTypes = []ExpenseType{TypeFood, TypeTravel, TypeHotel, TypeOthers}

// Valid reports whether t is one of the enumerated types
func (t ExpenseType) Valid() bool {
	for _, v := range AllTypes {
		if t == v {
			return true
		}
	}
	return false
}

// User represents a registered user
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Project represents a cost-tracking unit with an admin owner and a time window
type Project struct {
	ID               int     `json:"id"`
	ProjectName      string  `json:"project_name"`
	ProjectAdminID   int     `json:"project_admin_id"`
	ProjectAdminName string  `json:"project_admin_name"`
	StartDate        string  `json:"start_date"`
	EndDate          *string `json:"end_date"` // nil means the project is ongoing
}

// Membership links a user to a project with a role.
// project_name and member_name are denormalized so membership rows stay
// displayable without an extra join; the foreign keys remain authoritative.
type Membership struct {
	ProjectID   int    `json:"project_id"`
	MemberID    int    `json:"member_id"`
	MemberName  string `json:"member_name"`
	ProjectName string `json:"project_name"`
	MemberRole  Role   `json:"member_role"`
}

// Expense is a single dated, typed monetary entry attributed to a member
// within a project. Amounts are whole currency units.
type Expense struct {
	ID            int           `json:"id"`
	ProjectID     int           `json:"project_id"`
	MemberID      int           `json:"member_id"`
	MemberName    string        `json:"member_name"`
	ProjectName   string        `json:"project_name"`
	ExpenseName   string        `json:"expense_name"`
	ExpenseType   ExpenseType   `json:"expense_type"`
	Amount        int64         `json:"amount"`
	ExpenseDate   string        `json:"expense_date"`
	ExpenseDetail *string       `json:"expense_detail"`
	ExpenseProof  *string       `json:"expense_proof"`
	ExpenseStatus ExpenseStatus `json:"expense_status"`
}

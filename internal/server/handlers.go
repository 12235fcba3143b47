package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"expensetracker/internal/db"
	"expensetracker/internal/models"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		s.log.Error("hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to register user"})
		return
	}

	user, err := s.store.CreateUser(c.Request.Context(), req.Name, req.Email, hash)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Email is already registered"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleLogin(c *gin.Context) {
	email := c.PostForm("username")
	password := c.PostForm("password")

	id, hash, err := s.store.GetCredentials(c.Request.Context(), email)
	if err != nil || !CheckPassword(hash, password) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid credentials"})
		return
	}

	token, err := s.tokens.Issue(email)
	if err != nil {
		s.log.Error("issue token", zap.Error(err), zap.Int("user_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		s.log.Error("list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) handleGetUserByEmail(c *gin.Context) {
	user, err := s.store.GetUserByEmail(c.Request.Context(), c.Param("email"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}
	if err != nil {
		s.log.Error("get user by email", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to get user"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleProjectsForUser(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid user id"})
		return
	}
	projects, err := s.store.ListProjectsForUser(c.Request.Context(), userID)
	if err != nil {
		s.log.Error("list projects for user", zap.Error(err), zap.Int("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list projects"})
		return
	}
	if len(projects) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "No projects found for this user"})
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context())
	if err != nil {
		s.log.Error("list projects", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list projects"})
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	c.JSON(http.StatusOK, projects)
}

type createProjectRequest struct {
	ProjectName      string  `json:"project_name" binding:"required"`
	ProjectAdminID   int     `json:"project_admin_id" binding:"required,gt=0"`
	ProjectAdminName string  `json:"project_admin_name" binding:"required"`
	StartDate        string  `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate          *string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	project, err := s.store.CreateProject(c.Request.Context(), models.Project{
		ProjectName:      req.ProjectName,
		ProjectAdminID:   req.ProjectAdminID,
		ProjectAdminName: req.ProjectAdminName,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
	})
	if err != nil {
		s.log.Error("create project", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to create project"})
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) handleProjectMembers(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid project id"})
		return
	}
	if _, err := s.store.GetProject(c.Request.Context(), projectID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Project not found"})
			return
		}
		s.log.Error("get project", zap.Error(err), zap.Int("project_id", projectID))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to get project"})
		return
	}

	members, err := s.store.ListProjectMembers(c.Request.Context(), projectID)
	if err != nil {
		s.log.Error("list project members", zap.Error(err), zap.Int("project_id", projectID))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list members"})
		return
	}
	if len(members) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "No members found for this project"})
		return
	}
	c.JSON(http.StatusOK, members)
}

type addMemberRequest struct {
	ProjectID   int    `json:"project_id" binding:"required,gt=0"`
	MemberID    int    `json:"member_id" binding:"required,gt=0"`
	MemberName  string `json:"member_name" binding:"required"`
	ProjectName string `json:"project_name" binding:"required"`
	MemberRole  string `json:"member_role" binding:"omitempty,oneof=admin member"`
}

func (s *Server) handleAddMember(c *gin.Context) {
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if req.MemberRole == "" {
		req.MemberRole = string(models.RoleMember)
	}

	member, err := s.store.AddMember(c.Request.Context(), models.Membership{
		ProjectID:   req.ProjectID,
		MemberID:    req.MemberID,
		MemberName:  req.MemberName,
		ProjectName: req.ProjectName,
		MemberRole:  models.Role(req.MemberRole),
	})
	if errors.Is(err, db.ErrDuplicateMember) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Member is already assigned to this project."})
		return
	}
	if err != nil {
		s.log.Error("add member", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to add member"})
		return
	}
	c.JSON(http.StatusOK, member)
}

func (s *Server) handleListExpenses(c *gin.Context) {
	expenses, err := s.store.ListExpenses(c.Request.Context())
	if err != nil {
		s.log.Error("list expenses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list expenses"})
		return
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	c.JSON(http.StatusOK, expenses)
}

type addExpenseRequest struct {
	ProjectID     int     `json:"project_id" binding:"required,gt=0"`
	MemberID      int     `json:"member_id" binding:"required,gt=0"`
	MemberName    string  `json:"member_name" binding:"required"`
	ProjectName   string  `json:"project_name" binding:"required"`
	ExpenseName   string  `json:"expense_name" binding:"required"`
	ExpenseType   string  `json:"expense_type" binding:"required,expensetype"`
	Amount        *int64  `json:"amount" binding:"required,gte=0"`
	ExpenseDate   string  `json:"expense_date" binding:"required,datetime=2006-01-02"`
	ExpenseDetail *string `json:"expense_detail"`
	ExpenseProof  *string `json:"expense_proof"`
	ExpenseStatus string  `json:"expense_status" binding:"required,expensestatus"`
}

func (s *Server) handleCreateExpense(c *gin.Context) {
	var req addExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	expense, err := s.store.CreateExpense(c.Request.Context(), models.Expense{
		ProjectID:     req.ProjectID,
		MemberID:      req.MemberID,
		MemberName:    req.MemberName,
		ProjectName:   req.ProjectName,
		ExpenseName:   req.ExpenseName,
		ExpenseType:   models.ExpenseType(req.ExpenseType),
		Amount:        *req.Amount,
		ExpenseDate:   req.ExpenseDate,
		ExpenseDetail: req.ExpenseDetail,
		ExpenseProof:  req.ExpenseProof,
		ExpenseStatus: models.ExpenseStatus(req.ExpenseStatus),
	})
	if err != nil {
		s.log.Error("create expense", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to create expense"})
		return
	}

	if s.notifier != nil {
		s.notifier.ExpenseCreated(expense)
	}
	c.JSON(http.StatusOK, expense)
}

type updateStatusRequest struct {
	ExpenseStatus string `json:"expense_status" binding:"required,expensestatus"`
}

func (s *Server) handleUpdateExpenseStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid expense id"})
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	prev, err := s.store.GetExpense(c.Request.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Expense not found"})
		return
	}
	if err != nil {
		s.log.Error("get expense", zap.Error(err), zap.Int("expense_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to get expense"})
		return
	}

	expense, err := s.store.UpdateExpenseStatus(c.Request.Context(), id, models.ExpenseStatus(req.ExpenseStatus))
	if err != nil {
		s.log.Error("update expense status", zap.Error(err), zap.Int("expense_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to update expense status"})
		return
	}

	if s.notifier != nil && prev.ExpenseStatus != expense.ExpenseStatus {
		s.notifier.ExpenseStatusChanged(expense, prev.ExpenseStatus)
	}
	c.JSON(http.StatusOK, expense)
}

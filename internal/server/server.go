package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"expensetracker/internal/models"
)

// Server wires the HTTP API handlers to storage, auth and notifications
type Server struct {
	store    Store
	tokens   *TokenIssuer
	notifier Notifier
	log      *zap.Logger
}

// New creates a Server. notifier may be nil when Discord notifications are disabled.
func New(store Store, tokens *TokenIssuer, notifier Notifier, log *zap.Logger) *Server {
	registerEnumValidators()
	return &Server{store: store, tokens: tokens, notifier: notifier, log: log}
}

func registerEnumValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("expensestatus", func(fl validator.FieldLevel) bool {
		return models.ExpenseStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("expensetype", func(fl validator.FieldLevel) bool {
		return models.ExpenseType(fl.Field().String()).Valid()
	})
}

// Router builds the gin engine with all API routes registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(corsMiddleware())

	r.POST("/users", s.handleRegister)
	r.POST("/login", s.handleLogin)
	r.GET("/users", s.handleListUsers)
	r.GET("/users/email/:email", s.handleGetUserByEmail)
	r.GET("/users/:id/projects", s.handleProjectsForUser)
	r.GET("/projects", s.handleListProjects)
	r.GET("/projects/:id/members", s.handleProjectMembers)
	r.GET("/expenses", s.handleListExpenses)

	authed := r.Group("/")
	authed.Use(s.requireAuth)
	authed.POST("/projects", s.handleCreateProject)
	authed.POST("/members", s.handleAddMember)
	authed.POST("/expenses", s.handleCreateExpense)
	authed.PUT("/expenses/:id", s.handleUpdateExpenseStatus)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requireAuth validates the bearer token and stores the caller's email in the context
func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}
	email, err := s.tokens.Verify(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}
	c.Set("email", email)
	c.Next()
}

package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"expensetracker/internal/models"
)

// Client talks to the expense tracker REST API
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a new API client for the given base URL
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken sets the bearer token sent with subsequent requests
func (c *Client) SetToken(token string) {
	c.Token = token
}

// APIError is a non-2xx response from the server. Detail carries the
// server-provided message when present.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// IsNotFound reports whether err is an APIError with HTTP status 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var detail struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(respBody, &detail) == nil {
			apiErr.Detail = detail.Detail
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %v, body: %s", err, string(respBody))
		}
	}
	return nil
}

// Register creates a new user account
func (c *Client) Register(ctx context.Context, name, email, password string) (models.User, error) {
	var user models.User
	payload := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/users", payload, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Login exchanges credentials for an access token and stores it on the client
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/login",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var detail struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(respBody, &detail) == nil {
			apiErr.Detail = detail.Detail
		}
		return "", apiErr
	}

	var result struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal login response: %w", err)
	}
	c.Token = result.AccessToken
	return result.AccessToken, nil
}

// GetUserByEmail looks up a user by email address
func (c *Client) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/users/email/"+url.PathEscape(email), nil, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// ListUsers returns all registered users
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListProjects returns all projects
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ProjectsForUser returns the projects the user belongs to. A user with no
// memberships yields an empty list, not an error.
func (c *Client) ProjectsForUser(ctx context.Context, userID int) ([]models.Project, error) {
	var projects []models.Project
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/projects", userID), nil, &projects)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a new project
func (c *Client) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	var created models.Project
	if err := c.do(ctx, http.MethodPost, "/projects", p, &created); err != nil {
		return models.Project{}, err
	}
	return created, nil
}

// ProjectMembers returns the memberships of a project. A project with no
// members yields an empty list, not an error.
func (c *Client) ProjectMembers(ctx context.Context, projectID int) ([]models.Membership, error) {
	var members []models.Membership
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/projects/%d/members", projectID), nil, &members)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return members, nil
}

// AddMember assigns a user to a project with a role
func (c *Client) AddMember(ctx context.Context, m models.Membership) (models.Membership, error) {
	var created models.Membership
	if err := c.do(ctx, http.MethodPost, "/members", m, &created); err != nil {
		return models.Membership{}, err
	}
	return created, nil
}

// ListExpenses returns all expenses
func (c *Client) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	var expenses []models.Expense
	if err := c.do(ctx, http.MethodGet, "/expenses", nil, &expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// CreateExpense submits a new expense
func (c *Client) CreateExpense(ctx context.Context, e models.Expense) (models.Expense, error) {
	var created models.Expense
	if err := c.do(ctx, http.MethodPost, "/expenses", e, &created); err != nil {
		return models.Expense{}, err
	}
	return created, nil
}

// UpdateExpenseStatus sets the status of an expense
func (c *Client) UpdateExpenseStatus(ctx context.Context, id int, status models.ExpenseStatus) (models.Expense, error) {
	var updated models.Expense
	payload := map[string]models.ExpenseStatus{"expense_status": status}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/expenses/%d", id), payload, &updated); err != nil {
		return models.Expense{}, err
	}
	return updated, nil
}

// Package client is the HTTP client for the admin API. Every request goes
// through a transport that injects the stored bearer token and reports 401
// responses to a single unauthorized hook, so an expired session is detected
// no matter which call hits it first.
package client

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iqtestim/iqadmin/internal/auth"
	"github.com/iqtestim/iqadmin/internal/cli/tokenstore"
)

// ErrUnauthorized indicates the server rejected the session token
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response from the admin API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

// Unwrap lets errors.Is match ErrUnauthorized on 401 responses
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Client represents an HTTP client for the admin API
type Client struct {
	baseURL    string
	serverAddr string
	httpClient *http.Client
	transport  *authTransport
}

// New creates a new API client. Tokens are read from the store on every
// request, so a login performed mid-session is picked up without rebuilding
// the client.
func New(serverAddr string, tokens tokenstore.Store) *Client {
	// Assume HTTPS by default (self-signed certificates are accepted)
	transport := &authTransport{
		base: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		},
		serverAddr: serverAddr,
		tokens:     tokens,
	}

	return &Client{
		baseURL:    fmt.Sprintf("https://%s", serverAddr),
		serverAddr: serverAddr,
		transport:  transport,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// SetBaseURL overrides the base URL (used by tests against httptest servers)
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// OnUnauthorized registers the hook fired when any authenticated request
// comes back 401. Login requests never fire it: a wrong password is not an
// expired session.
func (c *Client) OnUnauthorized(fn func()) {
	c.transport.onUnauthorized = fn
}

// authTransport injects the bearer token and watches for 401 responses
type authTransport struct {
	base           http.RoundTripper
	serverAddr     string
	tokens         tokenstore.Store
	onUnauthorized func()
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token, ok := t.tokens.Read(t.serverAddr); ok {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized &&
		t.onUnauthorized != nil &&
		!strings.HasSuffix(req.URL.Path, "/auth/login") {
		t.onUnauthorized()
	}

	return resp, nil
}

// do runs a request and decodes the JSON response into out (if non-nil)
func (c *Client) do(method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errBody struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &errBody) == nil && errBody.Error != "" {
			apiErr.Message = errBody.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) get(path string, out interface{}) error {
	return c.do(http.MethodGet, path, nil, out)
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the flat login response
type LoginResponse struct {
	Token string    `json:"token"`
	ID    string    `json:"_id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  auth.Role `json:"role"`
}

// Login authenticates the user and returns the token with identity fields.
// The token is NOT stored; the caller decides whether to persist it.
func (c *Client) Login(email, password string) (*LoginResponse, error) {
	var loginResp LoginResponse
	err := c.do(http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    email,
		Password: password,
	}, &loginResp)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return &loginResp, nil
}

// User is the account shape returned by the API
type User struct {
	ID            string    `json:"_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          auth.Role `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     string    `json:"created_at"`
}

// Me returns the account behind the stored token
func (c *Client) Me() (*User, error) {
	var user User
	if err := c.get("/api/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Users lists accounts, optionally filtered by role
func (c *Client) Users(role string) ([]User, error) {
	path := "/api/users"
	if role != "" {
		path += "?role=" + role
	}
	var users []User
	if err := c.get(path, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Category is a question/test category
type Category struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	IsActive bool   `json:"is_active"`
}

// Categories lists all categories
func (c *Client) Categories() ([]Category, error) {
	var categories []Category
	if err := c.get("/api/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Question is a quiz question summary
type Question struct {
	ID         string   `json:"_id"`
	Text       string   `json:"question_text"`
	Options    []string `json:"options"`
	Difficulty string   `json:"difficulty"`
	Points     int      `json:"points"`
	Category   Category `json:"category"`
}

// Questions lists all questions
func (c *Client) Questions() ([]Question, error) {
	var questions []Question
	if err := c.get("/api/questions", &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// Test is a published quiz summary
type Test struct {
	ID           string   `json:"_id"`
	Title        string   `json:"title"`
	Difficulty   string   `json:"difficulty"`
	IsActive     bool     `json:"is_active"`
	Participants int      `json:"participants"`
	Rating       float64  `json:"rating"`
	Category     Category `json:"category"`
}

// Tests lists all tests
func (c *Client) Tests() ([]Test, error) {
	var tests []Test
	if err := c.get("/api/tests", &tests); err != nil {
		return nil, err
	}
	return tests, nil
}

// SubscriptionPlan is a purchasable plan summary
type SubscriptionPlan struct {
	ID           string  `json:"_id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	DurationDays int     `json:"duration_days"`
	IsActive     bool    `json:"is_active"`
}

// Plans lists all subscription plans
func (c *Client) Plans() ([]SubscriptionPlan, error) {
	var plans []SubscriptionPlan
	if err := c.get("/api/subscription-plans", &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Subscription links a user to a plan
type Subscription struct {
	ID     string            `json:"_id"`
	Status string            `json:"status"`
	User   *User             `json:"user"`
	Plan   *SubscriptionPlan `json:"plan"`
	EndsAt string            `json:"ends_at"`
}

// Subscriptions lists all subscriptions
func (c *Client) Subscriptions() ([]Subscription, error) {
	var subs []Subscription
	if err := c.get("/api/subscriptions", &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// BlogPost is a blog post summary
type BlogPost struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Language    string `json:"language"`
	IsPublished bool   `json:"is_published"`
	Views       int    `json:"views"`
}

// BlogPosts lists all blog posts
func (c *Client) BlogPosts() ([]BlogPost, error) {
	var posts []BlogPost
	if err := c.get("/api/blog", &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Page is a static page summary
type Page struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	IsPublished bool   `json:"is_published"`
}

// Pages lists all pages
func (c *Client) Pages() ([]Page, error) {
	var pages []Page
	if err := c.get("/api/pages", &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// Campaign is a marketing campaign summary
type Campaign struct {
	ID           string  `json:"_id"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	BudgetAmount float64 `json:"budget_amount"`
	Conversions  int     `json:"conversions"`
}

// Campaigns lists all campaigns
func (c *Client) Campaigns() ([]Campaign, error) {
	var campaigns []Campaign
	if err := c.get("/api/campaigns", &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}

// Pixel is a tracking pixel summary
type Pixel struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	PixelID string `json:"pixel_id"`
	Status  string `json:"status"`
}

// Pixels lists all tracking pixels
func (c *Client) Pixels() ([]Pixel, error) {
	var pixels []Pixel
	if err := c.get("/api/pixels", &pixels); err != nil {
		return nil, err
	}
	return pixels, nil
}

// Notification is a notification summary
type Notification struct {
	ID         string `json:"_id"`
	Title      string `json:"title"`
	Type       string `json:"type"`
	Recipients string `json:"recipients"`
	IsSent     bool   `json:"is_sent"`
	SentAt     string `json:"sent_at"`
}

// Notifications lists all notifications
func (c *Client) Notifications() ([]Notification, error) {
	var notifications []Notification
	if err := c.get("/api/notifications", &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// SendNotification dispatches a notification immediately
func (c *Client) SendNotification(id string) error {
	return c.do(http.MethodPost, "/api/notifications/"+id+"/send", nil, nil)
}

// Activity is one audit trail entry
type Activity struct {
	ID         string `json:"_id"`
	ActorEmail string `json:"actor_email"`
	Action     string `json:"action"`
	Resource   string `json:"resource"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Status     int    `json:"status"`
	CreatedAt  string `json:"created_at"`
}

// Activities lists recent audit trail entries
func (c *Client) Activities(limit int) ([]Activity, error) {
	path := "/api/admin-activities"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var activities []Activity
	if err := c.get(path, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// DashboardOverview returns the headline platform numbers
func (c *Client) DashboardOverview() (map[string]interface{}, error) {
	var overview map[string]interface{}
	if err := c.get("/api/admin/dashboard-overview", &overview); err != nil {
		return nil, err
	}
	return overview, nil
}

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/iqtestim/iqadmin/internal/auth"
	"github.com/iqtestim/iqadmin/internal/config"
	"github.com/iqtestim/iqadmin/internal/models"
)

// newTestServer spins up a server backed by a throwaway SQLite file
func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.HTTP.Addr = ":0"
	cfg.Database.URL = filepath.Join(t.TempDir(), "test.sqlite")
	cfg.Redis.Address = "localhost:6379"

	srv, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)
	return srv
}

// doJSON runs a request against the router and returns the recorder
func doJSON(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

// setupAdmin completes first-run setup and returns the super admin's token
func setupAdmin(t *testing.T, srv *Server) LoginResponse {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/setup", "", SetupRequest{
		Email:    "admin@example.com",
		Password: "super-secret",
		Name:     "First Admin",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp
}

// createUser inserts an account directly and returns it
func createUser(t *testing.T, srv *Server, email string, role auth.Role) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, srv.db.Create(user).Error)
	return user
}

func TestSetupFirstAdmin(t *testing.T) {
	srv := newTestServer(t)

	resp := setupAdmin(t, srv)
	require.Equal(t, auth.RoleSuperAdmin, resp.Role)
	require.Equal(t, "admin@example.com", resp.Email)
	require.NotEmpty(t, resp.ID)

	// Setup only works once
	rec := doJSON(t, srv, http.MethodPost, "/api/setup", "", SetupRequest{
		Email:    "second@example.com",
		Password: "whatever",
		Name:     "Second",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginFlatResponse(t *testing.T) {
	srv := newTestServer(t)
	setupAdmin(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "admin@example.com",
		Password: "super-secret",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The response is flat: token and identity fields side by side,
	// with the Mongo-style _id key
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Contains(t, raw, "token")
	require.Contains(t, raw, "_id")
	require.Contains(t, raw, "role")
	require.Contains(t, raw, "name")
	require.Contains(t, raw, "email")
	require.NotContains(t, raw, "user")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t)
	setupAdmin(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "admin@example.com",
		Password: "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginIssuesTokenForAnyRole(t *testing.T) {
	// The server issues tokens for valid credentials regardless of role.
	// The API itself rejects non-privileged tokens; the console's client
	// refuses to keep them.
	srv := newTestServer(t)
	setupAdmin(t, srv)
	createUser(t, srv, "player@example.com", auth.RoleUser)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "player@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, auth.RoleUser, resp.Role)

	// But the token is useless against the admin API
	rec = doJSON(t, srv, http.MethodGet, "/api/users", resp.Token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	srv := newTestServer(t)
	admin := setupAdmin(t, srv)

	t.Run("no token", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/auth/me", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/auth/me", admin.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var user models.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
		require.Equal(t, admin.ID, user.ID)
	})

	t.Run("token for deleted account", func(t *testing.T) {
		ghost := createUser(t, srv, "ghost@example.com", auth.RoleAdmin)
		token, err := auth.GenerateToken(ghost.ID, ghost.Email, ghost.Role)
		require.NoError(t, err)
		require.NoError(t, srv.db.Delete(ghost).Error)

		rec := doJSON(t, srv, http.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("demoted account loses access", func(t *testing.T) {
		// Role is re-read from the account on every request, so a token
		// minted while admin stops working after demotion
		demoted := createUser(t, srv, "demoted@example.com", auth.RoleAdmin)
		token, err := auth.GenerateToken(demoted.ID, demoted.Email, demoted.Role)
		require.NoError(t, err)

		rec := doJSON(t, srv, http.MethodGet, "/api/users", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		require.NoError(t, srv.db.Model(demoted).Update("role", auth.RoleUser).Error)

		rec = doJSON(t, srv, http.MethodGet, "/api/users", token, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestUserDeletionRules(t *testing.T) {
	srv := newTestServer(t)
	superAdmin := setupAdmin(t, srv)
	admin := createUser(t, srv, "admin2@example.com", auth.RoleAdmin)
	adminToken, err := auth.GenerateToken(admin.ID, admin.Email, admin.Role)
	require.NoError(t, err)

	victim := createUser(t, srv, "victim@example.com", auth.RoleUser)

	t.Run("plain admin cannot delete", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodDelete, "/api/users/"+victim.ID, adminToken, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("super admin cannot delete self", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodDelete, "/api/users/"+superAdmin.ID, superAdmin.Token, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("super admin deletes user", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodDelete, "/api/users/"+victim.ID, superAdmin.Token, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestCategoryLifecycle(t *testing.T) {
	srv := newTestServer(t)
	admin := setupAdmin(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/categories", admin.Token, CategoryRequest{
		Name:        "Logic",
		Description: "Logical reasoning",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var category models.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &category))
	require.NotEmpty(t, category.ID)
	require.True(t, category.IsActive)

	// Toggle off
	rec = doJSON(t, srv, http.MethodPatch, fmt.Sprintf("/api/categories/%s/toggle", category.ID), admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var toggled models.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &toggled))
	require.False(t, toggled.IsActive)

	// A category with questions refuses deletion
	question := &models.Question{
		Text:          "2 + 2 = ?",
		Options:       []string{"3", "4", "5"},
		CorrectAnswer: 1,
		CategoryID:    category.ID,
	}
	require.NoError(t, srv.db.Create(question).Error)

	rec = doJSON(t, srv, http.MethodDelete, "/api/categories/"+category.ID, admin.Token, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	require.NoError(t, srv.db.Delete(question).Error)
	rec = doJSON(t, srv, http.MethodDelete, "/api/categories/"+category.ID, admin.Token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestQuestionValidation(t *testing.T) {
	srv := newTestServer(t)
	admin := setupAdmin(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/categories", admin.Token, CategoryRequest{Name: "Numeric"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var category models.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &category))

	t.Run("correct answer out of range", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/questions", admin.Token, QuestionRequest{
			Text:          "Pick one",
			Options:       []string{"a", "b"},
			CorrectAnswer: 5,
			CategoryID:    category.ID,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown category", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/questions", admin.Token, QuestionRequest{
			Text:          "Pick one",
			Options:       []string{"a", "b"},
			CorrectAnswer: 0,
			CategoryID:    "no-such-category",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("valid question", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/questions", admin.Token, QuestionRequest{
			Text:          "3 * 3 = ?",
			Options:       []string{"6", "9", "12"},
			CorrectAnswer: 1,
			CategoryID:    category.ID,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})
}

func TestActivityTrail(t *testing.T) {
	srv := newTestServer(t)
	admin := setupAdmin(t, srv)

	// Mutations are recorded, reads are not
	rec := doJSON(t, srv, http.MethodPost, "/api/categories", admin.Token, CategoryRequest{Name: "Verbal"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/categories", admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var activities []models.AdminActivity
	require.NoError(t, srv.db.Find(&activities).Error)
	require.Len(t, activities, 1)
	require.Equal(t, "create", activities[0].Action)
	require.Equal(t, "categories", activities[0].Resource)
	require.Equal(t, admin.ID, activities[0].ActorID)
}

func TestSettingsUpdate(t *testing.T) {
	srv := newTestServer(t)
	admin := setupAdmin(t, srv)

	t.Run("invalid cron schedule", func(t *testing.T) {
		schedule := "not a cron expr"
		rec := doJSON(t, srv, http.MethodPatch, "/api/config", admin.Token, SettingsRequest{
			DigestSchedule: &schedule,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("valid schedule computes next run", func(t *testing.T) {
		schedule := "0 8 * * *"
		rec := doJSON(t, srv, http.MethodPatch, "/api/config", admin.Token, SettingsRequest{
			DigestSchedule: &schedule,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var settings models.Settings
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
		require.Equal(t, schedule, settings.DigestSchedule)
		require.NotNil(t, settings.NextDigestAt)
	})

	t.Run("jwt secret never leaves the server", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/config", admin.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotContains(t, rec.Body.String(), "jwt")
	})
}

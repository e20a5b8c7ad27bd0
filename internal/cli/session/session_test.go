package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iqtestim/iqadmin/internal/auth"
	"github.com/iqtestim/iqadmin/internal/cli/client"
	"github.com/iqtestim/iqadmin/internal/cli/tokenstore"
)

const testServerAddr = "admin.test:443"

// mockAPI is a fake admin server with one account and one valid token
type mockAPI struct {
	mu         sync.Mutex
	validToken string
	email      string
	password   string
	role       auth.Role
	revoked    bool

	meCalls int64
}

func (m *mockAPI) revoke() {
	m.mu.Lock()
	m.revoked = true
	m.mu.Unlock()
}

func (m *mockAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		m.mu.Lock()
		ok := req.Email == m.email && req.Password == m.password
		role := m.role
		token := m.validToken
		m.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "Invalid email or password"}`))
			return
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"token": token,
			"_id":   "user-1",
			"name":  "Test Admin",
			"email": req.Email,
			"role":  role,
		})
	})

	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&m.meCalls, 1)

		m.mu.Lock()
		valid := !m.revoked && r.Header.Get("Authorization") == "Bearer "+m.validToken
		email := m.email
		role := m.role
		m.mu.Unlock()

		if !valid {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "Unauthorized"}`))
			return
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"_id":   "user-1",
			"name":  "Test Admin",
			"email": email,
			"role":  role,
		})
	})

	return mux
}

// newTestSession wires a controller against a mock API
func newTestSession(t *testing.T, api *mockAPI, tokens tokenstore.Store) (*Controller, *client.Client, func()) {
	t.Helper()

	server := httptest.NewServer(api.handler())

	apiClient := client.New(testServerAddr, tokens)
	apiClient.SetBaseURL(server.URL)
	ctrl := NewController(testServerAddr, tokens, apiClient)

	return ctrl, apiClient, server.Close
}

func defaultAPI() *mockAPI {
	return &mockAPI{
		validToken: "token-abc",
		email:      "admin@example.com",
		password:   "password123",
		role:       auth.RoleAdmin,
	}
}

func TestControllerStartsLoading(t *testing.T) {
	tokens := tokenstore.NewMemory()
	ctrl, _, closeAPI := newTestSession(t, defaultAPI(), tokens)
	defer closeAPI()

	state, identity := ctrl.Current()
	if state != StateLoading {
		t.Errorf("expected initial state loading, got %s", state)
	}
	if identity != nil {
		t.Errorf("expected nil identity before restore, got %+v", identity)
	}
}

func TestRestoreWithoutToken(t *testing.T) {
	tokens := tokenstore.NewMemory()
	ctrl, _, closeAPI := newTestSession(t, defaultAPI(), tokens)
	defer closeAPI()

	if err := ctrl.Restore(context.Background()); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	state, _ := ctrl.Current()
	if state != StateAnonymous {
		t.Errorf("expected anonymous after restore without token, got %s", state)
	}
}

func TestRestoreWithValidToken(t *testing.T) {
	tokens := tokenstore.NewMemory()
	tokens.Save(testServerAddr, "token-abc")

	ctrl, _, closeAPI := newTestSession(t, defaultAPI(), tokens)
	defer closeAPI()

	if err := ctrl.Restore(context.Background()); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	state, identity := ctrl.Current()
	if state != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", state)
	}
	if identity.Email != "admin@example.com" {
		t.Errorf("expected identity email admin@example.com, got %s", identity.Email)
	}
	if !identity.Role.Privileged() {
		t.Errorf("expected privileged role, got %s", identity.Role)
	}
}

func TestRestoreClearsStaleToken(t *testing.T) {
	tokens := tokenstore.NewMemory()
	tokens.Save(testServerAddr, "expired-token")

	ctrl, _, closeAPI := newTestSession(t, defaultAPI(), tokens)
	defer closeAPI()

	if err := ctrl.Restore(context.Background()); err != nil {
		t.Fatalf("restore with stale token should not error, got: %v", err)
	}

	state, _ := ctrl.Current()
	if state != StateAnonymous {
		t.Errorf("expected anonymous after stale restore, got %s", state)
	}
	if _, ok := tokens.Read(testServerAddr); ok {
		t.Error("stale token should have been cleared from the store")
	}
}

func TestRestoreNonPrivilegedClearsToken(t *testing.T) {
	// A token that still validates but belongs to a demoted account must
	// not restore a session. The token is dropped like a stale one.
	api := defaultAPI()
	api.role = auth.RoleUser

	tokens := tokenstore.NewMemory()
	tokens.Save(testServerAddr, "token-abc")

	ctrl, _, closeAPI := newTestSession(t, api, tokens)
	defer closeAPI()

	if err := ctrl.Restore(context.Background()); err != nil {
		t.Fatalf("restore of a demoted account should not error, got: %v", err)
	}

	state, identity := ctrl.Current()
	if state != StateAnonymous {
		t.Errorf("expected anonymous after non-privileged restore, got %s", state)
	}
	if identity != nil {
		t.Errorf("identity should be nil, got %+v", identity)
	}
	if _, ok := tokens.Read(testServerAddr); ok {
		t.Error("token for non-privileged account should have been cleared")
	}
}

func TestLoginPersistsToken(t *testing.T) {
	tokens := tokenstore.NewMemory()
	ctrl, _, closeAPI := newTestSession(t, defaultAPI(), tokens)
	defer closeAPI()

	identity, err := ctrl.Login(context.Background(), "admin@example.com", "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if identity.Name != "Test Admin" {
		t.Errorf("unexpected identity name: %s", identity.Name)
	}

	state, _ := ctrl.Current()
	if state != StateAuthenticated {
		t.Errorf("expected authenticated after login, got %s", state)
	}

	token, ok := tokens.Read(testServerAddr)
	if !ok || token != "token-abc" {
		t.Errorf("expected persisted token token-abc, got %q (ok=%t)", token, ok)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	tokens := tokenstore.NewMemory()
	ctrl, _, closeAPI := newTestSession(t, defaultAPI(), tokens)
	defer closeAPI()

	if _, err := ctrl.Login(context.Background(), "admin@example.com", "wrong"); err == nil {
		t.Fatal("expected login error for wrong password")
	}

	state, _ := ctrl.Current()
	if state != StateAnonymous {
		t.Errorf("expected anonymous after failed login, got %s", state)
	}
	if _, ok := tokens.Read(testServerAddr); ok {
		t.Error("no token should be stored after failed login")
	}
}

func TestLoginNonPrivilegedDiscardsToken(t *testing.T) {
	// Valid credentials on a plain user account must behave like an
	// authentication failure: the issued token is never written anywhere.
	api := defaultAPI()
	api.role = auth.RoleUser

	tokens := tokenstore.NewMemory()
	ctrl, _, closeAPI := newTestSession(t, api, tokens)
	defer closeAPI()

	_, err := ctrl.Login(context.Background(), "admin@example.com", "password123")
	if !errors.Is(err, ErrNotPrivileged) {
		t.Fatalf("expected ErrNotPrivileged, got %v", err)
	}

	if _, ok := tokens.Read(testServerAddr); ok {
		t.Error("token for non-privileged account leaked into the store")
	}

	state, _ := ctrl.Current()
	if state == StateAuthenticated {
		t.Error("non-privileged login must not authenticate the session")
	}
}

func TestLoginWithoutTokenFails(t *testing.T) {
	// A 200 with a privileged role but no token field is a malformed
	// response. It must not authenticate or write to the store.
	api := defaultAPI()
	api.validToken = ""

	tokens := tokenstore.NewMemory()
	ctrl, _, closeAPI := newTestSession(t, api, tokens)
	defer closeAPI()

	if _, err := ctrl.Login(context.Background(), "admin@example.com", "password123"); err == nil {
		t.Fatal("expected error for login response without token")
	}

	state, _ := ctrl.Current()
	if state == StateAuthenticated {
		t.Error("tokenless login must not authenticate the session")
	}
	if _, ok := tokens.Read(testServerAddr); ok {
		t.Error("empty token leaked into the store")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	tokens := tokenstore.NewMemory()
	ctrl, _, closeAPI := newTestSession(t, defaultAPI(), tokens)
	defer closeAPI()

	if _, err := ctrl.Login(context.Background(), "admin@example.com", "password123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// Logout from authenticated, then again from anonymous
	for i := 0; i < 3; i++ {
		if err := ctrl.Logout(); err != nil {
			t.Fatalf("logout #%d returned error: %v", i+1, err)
		}
		state, identity := ctrl.Current()
		if state != StateAnonymous {
			t.Errorf("logout #%d: expected anonymous, got %s", i+1, state)
		}
		if identity != nil {
			t.Errorf("logout #%d: identity should be nil", i+1)
		}
		if _, ok := tokens.Read(testServerAddr); ok {
			t.Errorf("logout #%d: token still in store", i+1)
		}
	}
}

func TestConcurrent401SingleFlip(t *testing.T) {
	api := defaultAPI()
	tokens := tokenstore.NewMemory()
	ctrl, apiClient, closeAPI := newTestSession(t, api, tokens)
	defer closeAPI()

	if _, err := ctrl.Login(context.Background(), "admin@example.com", "password123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	transitions := ctrl.Watch()

	// Every request from here on comes back 401
	api.revoke()

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := apiClient.Me()
			if !errors.Is(err, client.ErrUnauthorized) {
				t.Errorf("expected ErrUnauthorized, got %v", err)
			}
		}()
	}
	wg.Wait()

	state, _ := ctrl.Current()
	if state != StateAnonymous {
		t.Fatalf("expected anonymous after 401s, got %s", state)
	}
	if _, ok := tokens.Read(testServerAddr); ok {
		t.Error("token should have been cleared after forced logout")
	}

	// Exactly one transition despite 16 concurrent failures
	flips := 0
	for {
		select {
		case s := <-transitions:
			if s == StateAnonymous {
				flips++
			}
		default:
			if flips != 1 {
				t.Errorf("expected exactly 1 anonymous transition, got %d", flips)
			}
			return
		}
	}
}

func TestGuardBlocksUntilRestoreResolves(t *testing.T) {
	tokens := tokenstore.NewMemory()
	tokens.Save(testServerAddr, "token-abc")

	ctrl, _, closeAPI := newTestSession(t, defaultAPI(), tokens)
	defer closeAPI()
	guard := NewGuard(ctrl)

	type result struct {
		identity *Identity
		err      error
	}
	done := make(chan result, 1)
	go func() {
		identity, err := guard.Ensure(context.Background())
		done <- result{identity, err}
	}()

	// Ensure must not resolve while the session is still loading
	select {
	case <-done:
		t.Fatal("guard resolved before restore")
	case <-time.After(50 * time.Millisecond):
	}

	if err := ctrl.Restore(context.Background()); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("guard returned error: %v", res.err)
		}
		if res.identity.Email != "admin@example.com" {
			t.Errorf("unexpected identity: %+v", res.identity)
		}
	case <-time.After(time.Second):
		t.Fatal("guard did not resolve after restore")
	}
}

func TestGuardRejectsAnonymous(t *testing.T) {
	tokens := tokenstore.NewMemory()
	ctrl, _, closeAPI := newTestSession(t, defaultAPI(), tokens)
	defer closeAPI()
	guard := NewGuard(ctrl)

	if err := ctrl.Restore(context.Background()); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	if _, err := guard.Ensure(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestGuardWatchDeliversForcedLogout(t *testing.T) {
	// A long-running command watching the guard sees the anonymous flip
	// when a background request comes back 401
	api := defaultAPI()
	tokens := tokenstore.NewMemory()
	ctrl, apiClient, closeAPI := newTestSession(t, api, tokens)
	defer closeAPI()
	guard := NewGuard(ctrl)

	if _, err := ctrl.Login(context.Background(), "admin@example.com", "password123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	transitions := guard.Watch()
	api.revoke()

	if _, err := apiClient.Me(); !errors.Is(err, client.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	select {
	case state := <-transitions:
		if state != StateAnonymous {
			t.Errorf("expected anonymous transition, got %s", state)
		}
	default:
		t.Error("expected a transition after forced logout")
	}
}

func TestGuardHonorsContext(t *testing.T) {
	tokens := tokenstore.NewMemory()
	ctrl, _, closeAPI := newTestSession(t, defaultAPI(), tokens)
	defer closeAPI()
	guard := NewGuard(ctrl)

	// Never restore; the guard should give up with the context
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := guard.Ensure(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context deadline error, got %v", err)
	}
}

func TestLoginRestoreRoundTrip(t *testing.T) {
	// A session persisted by one controller is restored by a fresh one
	// sharing the same store, yielding the same identity.
	api := defaultAPI()
	tokens := tokenstore.NewMemory()

	ctrl, _, closeAPI := newTestSession(t, api, tokens)
	loggedIn, err := ctrl.Login(context.Background(), "admin@example.com", "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	closeAPI()

	ctrl2, _, closeAPI2 := newTestSession(t, api, tokens)
	defer closeAPI2()

	if err := ctrl2.Restore(context.Background()); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	state, restored := ctrl2.Current()
	if state != StateAuthenticated {
		t.Fatalf("expected authenticated after round trip, got %s", state)
	}
	if restored.ID != loggedIn.ID || restored.Email != loggedIn.Email || restored.Role != loggedIn.Role {
		t.Errorf("restored identity %+v does not match logged-in identity %+v", restored, loggedIn)
	}
}

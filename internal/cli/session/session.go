// Package session tracks whether the CLI holds a valid admin session.
//
// The controller is a three-state machine: it starts in StateLoading, and the
// first Restore resolves it to StateAuthenticated or StateAnonymous. After
// that every transition is explicit (Login, Logout) or forced by the client's
// unauthorized hook when the server rejects the token. Commands never see
// StateLoading: the Guard blocks until restore has resolved.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iqtestim/iqadmin/internal/auth"
	"github.com/iqtestim/iqadmin/internal/cli/client"
	"github.com/iqtestim/iqadmin/internal/cli/tokenstore"
)

// State is the session state
type State int

const (
	// StateLoading means restore has not resolved yet
	StateLoading State = iota
	// StateAuthenticated means a privileged session is active
	StateAuthenticated
	// StateAnonymous means no session is active
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrNotPrivileged is returned when credentials are valid but the account
// has no admin access. The token from such a login is never persisted.
var ErrNotPrivileged = errors.New("account does not have admin access")

// ErrNotAuthenticated is returned by the guard when no session is active
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'iqadmin login' first")

// Identity is who the session belongs to
type Identity struct {
	ID    string
	Name  string
	Email string
	Role  auth.Role
}

// Controller owns the session state for one server
type Controller struct {
	serverAddr string
	tokens     tokenstore.Store
	client     *client.Client

	mu       sync.Mutex
	state    State
	identity *Identity
	watchers []chan State

	resolveOnce sync.Once
	resolved    chan struct{}
}

// NewController creates a controller in StateLoading and registers it as the
// client's unauthorized hook
func NewController(serverAddr string, tokens tokenstore.Store, apiClient *client.Client) *Controller {
	c := &Controller{
		serverAddr: serverAddr,
		tokens:     tokens,
		client:     apiClient,
		state:      StateLoading,
		resolved:   make(chan struct{}),
	}
	apiClient.OnUnauthorized(c.HandleUnauthorized)
	return c
}

// Current returns the state and identity (nil unless authenticated)
func (c *Controller) Current() (State, *Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.identity
}

// Watch returns a channel that receives every state transition. The channel
// is buffered; slow readers drop transitions rather than block the controller.
func (c *Controller) Watch() <-chan State {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan State, 8)
	c.watchers = append(c.watchers, ch)
	return ch
}

// setState transitions the state machine. Caller must hold c.mu.
func (c *Controller) setState(state State, identity *Identity) {
	c.state = state
	c.identity = identity
	for _, ch := range c.watchers {
		select {
		case ch <- state:
		default:
		}
	}
	if state != StateLoading {
		c.resolveOnce.Do(func() { close(c.resolved) })
	}
}

// Restore resolves the initial state from the stored token. With no token the
// session is anonymous. With a token the server decides: a 401 clears the
// stale token; any other failure leaves the token in place so a later restart
// can retry, but still resolves to anonymous so commands do not hang.
func (c *Controller) Restore(ctx context.Context) error {
	if _, ok := c.tokens.Read(c.serverAddr); !ok {
		c.mu.Lock()
		c.setState(StateAnonymous, nil)
		c.mu.Unlock()
		return nil
	}

	user, err := c.client.Me()

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			// Token is stale, drop it
			_ = c.tokens.Clear(c.serverAddr)
			c.setState(StateAnonymous, nil)
			return nil
		}
		c.setState(StateAnonymous, nil)
		return fmt.Errorf("failed to restore session: %w", err)
	}

	if !user.Role.Privileged() {
		// The account lost admin access since the token was issued.
		// Same treatment as a stale token.
		_ = c.tokens.Clear(c.serverAddr)
		c.setState(StateAnonymous, nil)
		return nil
	}

	c.setState(StateAuthenticated, &Identity{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
	return nil
}

// Login authenticates with the server. Valid credentials on an account
// without admin access fail: the returned token is discarded, never stored.
func (c *Controller) Login(ctx context.Context, email, password string) (*Identity, error) {
	resp, err := c.client.Login(email, password)
	if err != nil {
		c.mu.Lock()
		if c.state == StateLoading {
			c.setState(StateAnonymous, nil)
		}
		c.mu.Unlock()
		return nil, err
	}

	if !resp.Role.Privileged() {
		c.mu.Lock()
		if c.state == StateLoading {
			c.setState(StateAnonymous, nil)
		}
		c.mu.Unlock()
		return nil, ErrNotPrivileged
	}

	// A 200 without a token is a broken response, not a session
	if resp.Token == "" {
		c.mu.Lock()
		if c.state == StateLoading {
			c.setState(StateAnonymous, nil)
		}
		c.mu.Unlock()
		return nil, errors.New("login response carried no token")
	}

	if err := c.tokens.Save(c.serverAddr, resp.Token); err != nil {
		return nil, fmt.Errorf("failed to save authentication token: %w", err)
	}

	identity := &Identity{
		ID:    resp.ID,
		Name:  resp.Name,
		Email: resp.Email,
		Role:  resp.Role,
	}

	c.mu.Lock()
	c.setState(StateAuthenticated, identity)
	c.mu.Unlock()

	return identity, nil
}

// Logout clears the token and moves to anonymous. Logging out of an
// anonymous session is a no-op, not an error.
func (c *Controller) Logout() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.tokens.Clear(c.serverAddr); err != nil {
		return err
	}
	c.setState(StateAnonymous, nil)
	return nil
}

// HandleUnauthorized is fired by the client when any authenticated request
// returns 401. Only the first 401 of a session flips the state; concurrent
// requests failing together produce a single transition.
func (c *Controller) HandleUnauthorized() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateAuthenticated {
		return
	}
	_ = c.tokens.Clear(c.serverAddr)
	c.setState(StateAnonymous, nil)
}

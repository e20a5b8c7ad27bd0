package session

import "context"

// Guard gates commands that require an active session
type Guard struct {
	ctrl *Controller
}

// NewGuard wraps a controller
func NewGuard(ctrl *Controller) *Guard {
	return &Guard{ctrl: ctrl}
}

// Ensure blocks until the session state has resolved, then returns the
// identity or ErrNotAuthenticated. A command behind Ensure can never observe
// the loading state.
func (g *Guard) Ensure(ctx context.Context) (*Identity, error) {
	select {
	case <-g.ctrl.resolved:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	state, identity := g.ctrl.Current()
	if state != StateAuthenticated {
		return nil, ErrNotAuthenticated
	}
	return identity, nil
}

// Watch exposes session transitions, e.g. to print a message the moment a
// long-running command's session expires
func (g *Guard) Watch() <-chan State {
	return g.ctrl.Watch()
}

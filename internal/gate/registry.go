package gate

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"docvault-backend/internal/identity"
	"docvault-backend/internal/shared/telemetry"
)

// State is a session's position in the unlock flow.
type State string

const (
	StateInitializing             State = "Initializing"
	StateUnauthenticated          State = "Unauthenticated"
	StateAuthenticatedRedirecting State = "AuthenticatedRedirecting"
	StatePinRequired              State = "PinRequired"
	StateUnlocked                 State = "Unlocked"
)

// LockPolicy is the user's PIN configuration. The PIN is stored only as a
// bcrypt hash; Hash empty means no PIN is configured.
type LockPolicy struct {
	Hash string
}

func (p LockPolicy) HasPIN() bool {
	return p.Hash != ""
}

// PolicyReader loads a user's lock policy.
type PolicyReader interface {
	ReadLockPolicy(ctx context.Context, userID string) (LockPolicy, error)
}

// Public routes reachable without authentication.
var publicRoutes = map[string]bool{
	"/":                true,
	"/signup":          true,
	"/forgot-password": true,
}

const dashboardRoute = "/dashboard"

type sessionGate struct {
	userID string
	state  State
}

// Registry tracks the gate state of every live session. A session enters
// through Initializing on each sign-in; a configured PIN re-locks every new
// session, there is no remembered device.
type Registry struct {
	policies PolicyReader
	// failOpen downgrades a failed policy read to Unlocked. Off by default:
	// a storage blip must not silently disable the PIN gate.
	failOpen bool

	mu       sync.RWMutex
	sessions map[string]sessionGate
}

func NewRegistry(policies PolicyReader, failOpen bool) *Registry {
	return &Registry{
		policies: policies,
		failOpen: failOpen,
		sessions: make(map[string]sessionGate),
	}
}

// Run consumes auth events until the channel closes. Intended to run in its
// own goroutine alongside the HTTP server.
func (r *Registry) Run(events <-chan identity.Event) {
	for ev := range events {
		switch ev.Type {
		case identity.EventSignedIn:
			r.OnSignedIn(context.Background(), ev.Identity)
		case identity.EventSignedOut:
			r.OnSignedOut(ev.Identity.SessionID)
		}
	}
}

// OnSignedIn re-enters the gate for the session, re-reading the lock policy.
func (r *Registry) OnSignedIn(ctx context.Context, ident identity.Identity) {
	r.mu.Lock()
	r.sessions[ident.SessionID] = sessionGate{userID: ident.UserID, state: StateInitializing}
	r.mu.Unlock()

	state := r.resolve(ctx, ident.UserID)

	r.mu.Lock()
	if g, ok := r.sessions[ident.SessionID]; ok && g.state == StateInitializing {
		g.state = state
		r.sessions[ident.SessionID] = g
	}
	r.mu.Unlock()
}

func (r *Registry) OnSignedOut(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}

// EnsureSession resolves the session's gate state, initializing it if the
// sign-in event has not landed yet. Idempotent; returns the state name.
func (r *Registry) EnsureSession(ctx context.Context, sessionID, userID string) string {
	r.mu.RLock()
	g, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if ok && g.state != StateInitializing {
		return string(g.state)
	}

	state := r.resolve(ctx, userID)

	r.mu.Lock()
	g, ok = r.sessions[sessionID]
	if !ok || g.state == StateInitializing {
		g = sessionGate{userID: userID, state: state}
		r.sessions[sessionID] = g
	}
	state = g.state
	r.mu.Unlock()
	return string(state)
}

// resolve decides the post-initialization state from the lock policy.
func (r *Registry) resolve(ctx context.Context, userID string) State {
	policy, err := r.policies.ReadLockPolicy(ctx, userID)
	if err != nil {
		telemetry.Warn("gate.policy_read_failed", map[string]any{
			"user_id":   userID,
			"fail_open": r.failOpen,
			"error":     err.Error(),
		})
		if r.failOpen {
			return StateUnlocked
		}
		return StatePinRequired
	}
	if policy.HasPIN() {
		return StatePinRequired
	}
	return StateUnlocked
}

// State returns the session's current gate state. Unknown sessions are
// Unauthenticated.
func (r *Registry) State(sessionID string) State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.sessions[sessionID]
	if !ok {
		return StateUnauthenticated
	}
	return g.state
}

// SubmitPin checks a PIN candidate against the stored hash. The policy is
// re-read on every attempt so a policy change or a recovered store takes
// effect immediately. A mismatch leaves the state untouched.
func (r *Registry) SubmitPin(ctx context.Context, sessionID, candidate string) (bool, error) {
	r.mu.RLock()
	g, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return false, ErrNoSession
	}
	if g.state == StateUnlocked {
		return true, nil
	}
	if !validPin(candidate) {
		return false, nil
	}

	policy, err := r.policies.ReadLockPolicy(ctx, g.userID)
	if err != nil {
		if r.failOpen {
			r.setState(sessionID, StateUnlocked)
			return true, nil
		}
		return false, err
	}
	if !policy.HasPIN() {
		// PIN removed since lock; nothing left to guard.
		r.setState(sessionID, StateUnlocked)
		return true, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(policy.Hash), []byte(candidate)) != nil {
		return false, nil
	}
	r.setState(sessionID, StateUnlocked)
	return true, nil
}

func (r *Registry) setState(sessionID string, state State) {
	r.mu.Lock()
	if g, ok := r.sessions[sessionID]; ok {
		g.state = state
		r.sessions[sessionID] = g
	}
	r.mu.Unlock()
}

// Decision tells the client what to do with a requested route.
type Decision struct {
	State    State  `json:"state"`
	Redirect string `json:"redirect,omitempty"`
}

// RouteDecision applies the route guard: unauthenticated sessions bounce off
// protected routes, authenticated ones bounce off public routes.
func (r *Registry) RouteDecision(sessionID, route string) Decision {
	state := r.State(sessionID)
	public := publicRoutes[normalizeRoute(route)]

	switch state {
	case StateUnauthenticated:
		if public {
			return Decision{State: StateUnauthenticated}
		}
		return Decision{State: StateUnauthenticated, Redirect: "/"}
	case StatePinRequired, StateUnlocked:
		if public {
			return Decision{State: StateAuthenticatedRedirecting, Redirect: dashboardRoute}
		}
		return Decision{State: state}
	default:
		return Decision{State: state}
	}
}

func normalizeRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return "/"
	}
	if len(route) > 1 {
		route = strings.TrimRight(route, "/")
	}
	return route
}

func validPin(candidate string) bool {
	if len(candidate) != 4 {
		return false
	}
	for _, ch := range candidate {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

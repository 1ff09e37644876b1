// Package session tracks whether a user is signed in. State changes come only from the
// identity provider's observer callbacks.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/stylinx-storefront/internal/authstore"
	"github.com/angelmondragon/stylinx-storefront/internal/identity"
	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/angelmondragon/stylinx-storefront/pkg/logger"
	"github.com/angelmondragon/stylinx-storefront/pkg/metrics"
)

// State is the session lifecycle position.
type State string

const (
	StateLoading         State = "loading"
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
)

// Snapshot is a copy of the session for rendering.
type Snapshot struct {
	State State          `json:"state"`
	User  *identity.User `json:"user"`
}

// Authenticated reports whether a user is signed in.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated && s.User != nil
}

// Params wires a Session.
type Params struct {
	Provider identity.Provider
	Store    authstore.Store
	Logger   *logger.Logger
	Metrics  *metrics.StoreMetrics
}

// Session owns the authentication state.
type Session struct {
	provider identity.Provider
	store    authstore.Store
	logg     *logger.Logger
	metrics  *metrics.StoreMetrics

	mu          sync.Mutex
	state       State
	user        *identity.User
	unsubscribe func()
	persistCtx  context.Context
	nextID      int
	listeners   map[int]func(Snapshot)
}

// New returns a session in the loading state.
func New(p Params) (*Session, error) {
	if p.Provider == nil {
		return nil, fmt.Errorf("identity provider is required")
	}
	store := p.Store
	if store == nil {
		store = authstore.None{}
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Session{
		provider:   p.Provider,
		store:      store,
		logg:       logg,
		metrics:    p.Metrics,
		state:      StateLoading,
		persistCtx: context.Background(),
		listeners:  make(map[int]func(Snapshot)),
	}, nil
}

// Start subscribes to the provider. The provider answers right away, so the session has
// left the loading state when Start returns. Calling Start again is a no-op.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.mu.Unlock()
		return
	}
	s.persistCtx = context.WithoutCancel(ctx)
	s.unsubscribe = func() {}
	s.mu.Unlock()

	unsubscribe := s.provider.ObserveSession(s.onChange)

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
}

// Stop detaches from the provider.
func (s *Session) Stop() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Login validates the form and signs in. Failures leave the session unchanged.
func (s *Session) Login(ctx context.Context, form LoginForm) (*identity.User, error) {
	form = form.Normalize()
	if err := form.Validate(); err != nil {
		return nil, err
	}
	user, err := s.provider.Login(ctx, form.Email, form.Password)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "login failed")
		return nil, authError(err, "Invalid email or password")
	}
	return user, nil
}

// Signup validates the form and creates the account. Failures leave the session unchanged.
func (s *Session) Signup(ctx context.Context, form SignupForm) (*identity.User, error) {
	form = form.Normalize()
	if err := form.Validate(); err != nil {
		return nil, err
	}
	user, err := s.provider.Signup(ctx, form.FullName, form.Email, form.Password)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "signup failed")
		return nil, authError(err, "Registration failed. Please try again.")
	}
	return user, nil
}

// Logout signs out through the provider.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.provider.Logout(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "logout failed")
	}
	return nil
}

// State returns the lifecycle position.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the signed-in user or nil.
func (s *Session) User() *identity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.Clone()
}

// Snapshot returns state and user together.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe calls fn after every state change until the returned func is called.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) onChange(user *identity.User) {
	s.mu.Lock()
	if user != nil {
		s.state = StateAuthenticated
	} else {
		s.state = StateUnauthenticated
	}
	s.user = user.Clone()
	snap := s.snapshotLocked()
	ctx := s.persistCtx
	listeners := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	s.metrics.IncSession(string(snap.State))
	if user != nil {
		ctx = s.logg.WithUserID(ctx, user.ID)
	}
	s.logg.Info(s.logg.WithField(ctx, "state", string(snap.State)), "session changed")
	s.persist(ctx, user)

	for _, fn := range listeners {
		fn(snap)
	}
}

// persist mirrors the session into the auth record. Failures are logged only.
func (s *Session) persist(ctx context.Context, user *identity.User) {
	var err error
	if user != nil {
		err = s.store.Save(ctx, *user)
	} else {
		err = s.store.Clear(ctx)
	}
	if err != nil {
		s.logg.Error(ctx, "failed to persist auth record", err)
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{State: s.state, User: s.user.Clone()}
}

// authError keeps network failures as they are and reports everything else as an
// authentication failure with the screen's message.
func authError(err error, message string) error {
	typed := pkgerrors.As(err)
	if typed != nil && (typed.Code() == pkgerrors.CodeNetwork || typed.Code() == pkgerrors.CodeUnauthorized) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, message)
}

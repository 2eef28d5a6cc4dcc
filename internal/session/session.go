// Package session holds the authenticated-user state machine: profile, role,
// access token and the status of the most recently started operation.
package session

import (
	"context"
	"sync"
	"time"

	"trovka.org/internal/api"
	"trovka.org/internal/audit"
	"trovka.org/internal/tokenstore"
)

// Status reflects the most recently initiated operation, not per-op history.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// State is a point-in-time snapshot of the session. Concurrent operations
// race with last-write-wins semantics; callers needing exactly-once ordering
// must serialize themselves.
type State struct {
	User        *api.User
	Role        string
	AccessToken string
	Status      Status
	Err         error
}

// Backend is the slice of the API client the session depends on.
type Backend interface {
	Register(ctx context.Context, req api.RegisterRequest) (api.User, error)
	VerifyOTP(ctx context.Context, req api.VerifyOTPRequest) (api.User, error)
	Login(ctx context.Context, email, password string) (api.LoginPayload, error)
	Profile(ctx context.Context, token string) (api.User, error)
	UpdateProfile(ctx context.Context, token string, user api.User) (api.User, error)
}

// Store is the injectable session container. All transitions go through it.
type Store struct {
	backend Backend
	tokens  tokenstore.Store
	now     func() time.Time

	mu      sync.Mutex
	state   State
	subs    map[int]func(State)
	nextSub int
}

// Option configures Store behavior.
type Option func(*Store)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.now = fn
		}
	}
}

// New constructs a session store around a backend and a token store.
func New(backend Backend, tokens tokenstore.Store, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		tokens:  tokens,
		now:     time.Now,
		state:   State{Status: StatusIdle},
		subs:    make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the current session.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a listener invoked after every transition. The returned
// function cancels the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// begin marks an operation in flight: status=loading, prior error discarded.
func (s *Store) begin() {
	s.transition(func(st *State) {
		st.Status = StatusLoading
		st.Err = nil
	})
}

func (s *Store) transition(mutate func(*State)) {
	s.mu.Lock()
	mutate(&s.state)
	snapshot := s.state
	listeners := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(snapshot)
	}
}

func (s *Store) reject(err error) error {
	s.transition(func(st *State) {
		st.Status = StatusFailed
		st.Err = err
	})
	return err
}

// Register creates an account. On success the response body becomes the user.
func (s *Store) Register(ctx context.Context, req api.RegisterRequest) (api.User, error) {
	s.begin()
	user, err := s.backend.Register(ctx, req)
	if err != nil {
		return api.User{}, s.reject(err)
	}
	s.transition(func(st *State) {
		st.Status = StatusSuccess
		st.User = &user
	})
	_ = audit.LogEvent(ctx, "session.register", map[string]any{"user": user.Username})
	return user, nil
}

// VerifyEmail confirms the OTP mailed during registration.
func (s *Store) VerifyEmail(ctx context.Context, email, otpCode string) (api.User, error) {
	s.begin()
	user, err := s.backend.VerifyOTP(ctx, api.VerifyOTPRequest{Email: email, OTPCode: otpCode})
	if err != nil {
		return api.User{}, s.reject(err)
	}
	s.transition(func(st *State) {
		st.Status = StatusSuccess
		st.User = &user
	})
	return user, nil
}

// Login authenticates and mirrors the access token into the token store. The
// token is persisted before the state commits so a successful login always
// matches what a later Restore would read back.
func (s *Store) Login(ctx context.Context, email, password string) (State, error) {
	s.begin()
	payload, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return s.State(), s.reject(err)
	}
	if err := s.tokens.Set(ctx, payload.Access); err != nil {
		return s.State(), s.reject(err)
	}
	s.transition(func(st *State) {
		st.Status = StatusSuccess
		st.User = &payload.User
		st.Role = payload.Role.RoleName
		st.AccessToken = payload.Access
	})
	_ = audit.LogEvent(ctx, "session.login", map[string]any{
		"user": payload.User.Username,
		"role": payload.Role.RoleName,
	})
	return s.State(), nil
}

// FetchProfile refreshes the profile using the session's bearer token. An
// unauthenticated session returns ErrNotAuthenticated before begin(), so the
// status and any prior error are left untouched.
func (s *Store) FetchProfile(ctx context.Context) (api.User, error) {
	token := s.State().AccessToken
	if token == "" {
		return api.User{}, ErrNotAuthenticated
	}
	s.begin()
	user, err := s.backend.Profile(ctx, token)
	if err != nil {
		return api.User{}, s.reject(err)
	}
	s.transition(func(st *State) {
		st.Status = StatusSuccess
		st.User = &user
	})
	return user, nil
}

// UpdateProfile replaces profile fields on the backend and in the session.
// Like FetchProfile, a missing token rejects before any status transition.
func (s *Store) UpdateProfile(ctx context.Context, user api.User) (api.User, error) {
	token := s.State().AccessToken
	if token == "" {
		return api.User{}, ErrNotAuthenticated
	}
	s.begin()
	updated, err := s.backend.UpdateProfile(ctx, token, user)
	if err != nil {
		return api.User{}, s.reject(err)
	}
	s.transition(func(st *State) {
		st.Status = StatusSuccess
		st.User = &updated
	})
	return updated, nil
}

// Logout clears the token store and resets the session to its initial state.
// The in-memory state is reset even when the store refuses to clear.
func (s *Store) Logout(ctx context.Context) error {
	err := s.tokens.Clear(ctx)
	s.transition(func(st *State) {
		*st = State{Status: StatusIdle}
	})
	_ = audit.LogEvent(ctx, "session.logout", nil)
	return err
}

// Restore loads a previously persisted token at startup. A token whose exp
// claim has already passed is discarded together with its stored copy;
// opaque tokens are kept since only the backend can judge them.
func (s *Store) Restore(ctx context.Context) error {
	token, err := s.tokens.Get(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}
	if expired, known := tokenExpired(token, s.now()); known && expired {
		return s.tokens.Clear(ctx)
	}
	s.transition(func(st *State) {
		st.AccessToken = token
	})
	return nil
}

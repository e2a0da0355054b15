// Package session holds one browser's authentication state: the signed-in
// user, their profile row and whether the state has been resolved yet.
//
// A Store is created per request (or per browser connection), initialised
// once, injected into the views that need it and closed when done.
package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"ecofinds/internal/gateway"
	"ecofinds/internal/models"
	"ecofinds/internal/repositories"
)

// State is a snapshot of the store.
type State struct {
	User    *gateway.User
	Profile *models.Profile
	Loading bool
}

// ProfileCompletion creates the profile of a user that has none, returning
// nil when it cannot.
type ProfileCompletion func(ctx context.Context, user *gateway.User) (*models.Profile, error)

// Option configures a Store.
type Option func(*Store)

// WithProfileCompletion sets the hook run when the user's profile row is missing.
func WithProfileCompletion(fn ProfileCompletion) Option {
	return func(s *Store) { s.complete = fn }
}

// Store tracks the session of one AuthClient.
type Store struct {
	client   *gateway.AuthClient
	profiles repositories.ProfileRepository
	complete ProfileCompletion

	mu          sync.Mutex
	state       State
	epoch       uint64
	subscribers map[int]func(State)
	nextID      int
	unsubscribe func()
	closed      bool
}

// NewStore creates a store in the loading state.
func NewStore(client *gateway.AuthClient, profiles repositories.ProfileRepository, opts ...Option) *Store {
	s := &Store{
		client:      client,
		profiles:    profiles,
		state:       State{Loading: true},
		subscribers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init subscribes to auth state changes and resolves the current session.
// If ctx ends before the session is known the store stays loading.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.unsubscribe == nil && !s.closed {
		s.unsubscribe = s.client.OnAuthStateChange(s.onAuthStateChange)
	}
	s.mu.Unlock()

	session, err := s.client.GetSession(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return err
		}
		// Unusable token: resolve as signed out.
		log.Printf("Session restore failed: %v", err)
		session = nil
	}
	var user *gateway.User
	if session != nil {
		user = &session.User
	}
	s.resolve(ctx, user)
	return nil
}

func (s *Store) onAuthStateChange(ctx context.Context, event gateway.AuthEvent, session *gateway.Session) {
	if session == nil {
		s.resolve(ctx, nil)
		return
	}
	user := session.User
	s.resolve(ctx, &user)
}

// resolve sets the user and fetches the profile. A fetch that finishes after
// the identity changed again is dropped.
func (s *Store) resolve(ctx context.Context, user *gateway.User) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.epoch++
	epoch := s.epoch
	s.state.User = user
	s.state.Profile = nil
	s.mu.Unlock()

	var profile *models.Profile
	if user != nil {
		profile = s.fetchProfile(ctx, user)
	}

	s.mu.Lock()
	if s.closed || epoch != s.epoch {
		s.mu.Unlock()
		return
	}
	s.state.Profile = profile
	s.state.Loading = false
	s.mu.Unlock()
	s.notify()
}

func (s *Store) fetchProfile(ctx context.Context, user *gateway.User) *models.Profile {
	profile, err := s.profiles.GetByID(s.client.Context(ctx), user.ID)
	if err == nil {
		return profile
	}
	if !errors.Is(err, repositories.ErrNotFound) || s.complete == nil {
		log.Printf("Failed to fetch profile for user %s: %v", user.ID, err)
		return nil
	}
	profile, err = s.complete(s.client.Context(ctx), user)
	if err != nil {
		log.Printf("Failed to complete profile for user %s: %v", user.ID, err)
		return nil
	}
	return profile
}

// RefreshProfile fetches the profile of the current user again.
func (s *Store) RefreshProfile(ctx context.Context) {
	s.mu.Lock()
	user := s.state.User
	s.mu.Unlock()
	s.resolve(ctx, user)
}

// SignIn authenticates; the state follows through the auth event.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	_, err := s.client.SignIn(ctx, email, password)
	return err
}

// SignUp creates an identity only. metadata is stored with the identity.
func (s *Store) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*gateway.Session, error) {
	return s.client.SignUp(ctx, gateway.Credentials{Email: email, Password: password, Data: metadata})
}

// SignOut ends the session and clears the state.
func (s *Store) SignOut(ctx context.Context) error {
	return s.client.SignOut(ctx)
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the signed-in user, or nil.
func (s *Store) User() *gateway.User {
	return s.State().User
}

// DisplayName is the username, falling back to the email when the profile is missing.
func (s *Store) DisplayName() string {
	st := s.State()
	if st.Profile != nil && st.Profile.Username != "" {
		return st.Profile.Username
	}
	if st.User != nil {
		return st.User.Email
	}
	return ""
}

// AccessToken returns the current access token, or "".
func (s *Store) AccessToken() string {
	return s.client.AccessToken()
}

// Context attaches the current access token for table calls.
func (s *Store) Context(ctx context.Context) context.Context {
	return s.client.Context(ctx)
}

// Subscribe calls fn with every resolved state until unsubscribed.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	st := s.state
	subs := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

// Close detaches the store from its client. In-flight fetches are dropped.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.epoch++
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.subscribers = make(map[int]func(State))
}

package gateway

import (
	"context"
	"sync"
)

// AuthEvent names an authentication state change.
type AuthEvent string

const (
	EventSignedIn    AuthEvent = "SIGNED_IN"
	EventSignedOut   AuthEvent = "SIGNED_OUT"
	EventUserUpdated AuthEvent = "USER_UPDATED"
)

// AuthListener receives auth state changes. session is nil after sign-out.
type AuthListener func(ctx context.Context, event AuthEvent, session *Session)

// AuthClient is one browser's handle on the auth provider. It remembers the
// current session and tells subscribers when it changes.
type AuthClient struct {
	auth Auth

	mu        sync.Mutex
	token     string
	session   *Session
	restored  bool
	listeners map[int]AuthListener
	nextID    int
}

// NewAuthClient creates a client. token is a previously persisted access
// token, or "" for an anonymous visitor.
func NewAuthClient(auth Auth, token string) *AuthClient {
	return &AuthClient{
		auth:      auth,
		token:     token,
		listeners: make(map[int]AuthListener),
	}
}

// GetSession returns the current session, restoring it from the persisted
// token on first use. It returns nil, nil when nobody is signed in. A token
// the backend no longer accepts is forgotten.
func (c *AuthClient) GetSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	if c.restored || c.token == "" {
		s := c.session
		c.mu.Unlock()
		return s, nil
	}
	token := c.token
	c.mu.Unlock()

	user, err := c.auth.GetUser(ctx, token)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != token {
		// Signed in or out while we were restoring.
		return c.session, nil
	}
	if err != nil {
		if CodeOf(err) == CodeBadJWT {
			c.token = ""
			c.restored = true
		}
		return nil, err
	}
	c.session = &Session{AccessToken: token, User: *user}
	c.restored = true
	return c.session, nil
}

// AccessToken returns the current access token, or "".
func (c *AuthClient) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Context attaches the current access token for table calls.
func (c *AuthClient) Context(ctx context.Context) context.Context {
	return WithAccessToken(ctx, c.AccessToken())
}

// SignUp creates an identity. When the backend returns a usable session the
// client is signed in and subscribers see EventSignedIn.
func (c *AuthClient) SignUp(ctx context.Context, creds Credentials) (*Session, error) {
	session, err := c.auth.SignUp(ctx, creds)
	if err != nil {
		return nil, err
	}
	if session.AccessToken != "" {
		c.setSession(ctx, EventSignedIn, session)
	}
	return session, nil
}

// SignIn authenticates with email and password.
func (c *AuthClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	session, err := c.auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.setSession(ctx, EventSignedIn, session)
	return session, nil
}

// SignOut revokes the token and clears the session. The local session is
// cleared even when the backend call fails.
func (c *AuthClient) SignOut(ctx context.Context) error {
	token := c.AccessToken()
	var err error
	if token != "" {
		err = c.auth.SignOut(ctx, token)
	}
	c.setSession(ctx, EventSignedOut, nil)
	return err
}

// OnAuthStateChange registers fn for future state changes.
func (c *AuthClient) OnAuthStateChange(fn AuthListener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *AuthClient) setSession(ctx context.Context, event AuthEvent, session *Session) {
	c.mu.Lock()
	c.session = session
	c.restored = true
	if session == nil {
		c.token = ""
	} else {
		c.token = session.AccessToken
	}
	listeners := make([]AuthListener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(ctx, event, session)
	}
}

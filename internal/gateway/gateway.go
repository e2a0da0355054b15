// Package gateway is the single handle to the backend-as-a-service: identity
// plus row-level table queries. Two backends implement it, a hosted one
// reached over HTTP (package rest) and a self-hosted one on GORM
// (package embedded).
//
// Authorization is the backend's job. Ownership checks made by callers of this
// package only decide which controls to show.
package gateway

import "context"

// User is the identity record held by the auth provider.
type User struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata,omitempty"`
}

// MetadataString returns a string metadata value, or "".
func (u User) MetadataString(key string) string {
	if u.Metadata == nil {
		return ""
	}
	s, _ := u.Metadata[key].(string)
	return s
}

// Session is an authenticated identity with its tokens.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	User         User   `json:"user"`
}

// Credentials are used for sign-up. Data is stored as user metadata.
type Credentials struct {
	Email    string
	Password string
	Data     map[string]any
}

// Auth is the identity half of the backend contract.
type Auth interface {
	// SignUp creates an identity. It never creates a profile row. When the
	// backend requires confirmation the returned session has no access token.
	SignUp(ctx context.Context, creds Credentials) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*User, error)
}

// Tables is the data half of the backend contract. The caller's access token
// is read from ctx (see WithAccessToken); calls without one run as anonymous.
type Tables interface {
	// Select decodes the rows into dest, a pointer to a slice, or a pointer to
	// a struct when the query is in single-row mode.
	Select(ctx context.Context, q *Query, dest any) error
	// Insert writes rows (a slice of models) and decodes the stored rows into
	// dest when it is not nil.
	Insert(ctx context.Context, table string, rows any, dest any) error
	Update(ctx context.Context, table string, values map[string]any, filters ...Filter) error
	Delete(ctx context.Context, table string, filters ...Filter) error
}

// Gateway is the full backend contract.
type Gateway interface {
	Auth
	Tables
}

type tokenKey struct{}

// WithAccessToken returns a context whose table calls run as the token's user.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// AccessToken returns the token attached by WithAccessToken.
func AccessToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

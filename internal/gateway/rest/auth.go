package rest

import (
	"context"
	"errors"

	"ecofinds/internal/gateway"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
)

func userOf(u types.User) gateway.User {
	user := gateway.User{Email: u.Email, Metadata: u.UserMetadata}
	if u.ID != uuid.Nil {
		user.ID = u.ID.String()
	}
	return user
}

func sessionOf(s types.Session, u types.User) *gateway.Session {
	return &gateway.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		User:         userOf(u),
	}
}

// SignUp creates an identity. Data becomes the user's metadata. When
// confirmation is pending the session has no access token.
func (c *Client) SignUp(ctx context.Context, creds gateway.Credentials) (*gateway.Session, error) {
	ctx, cancel, t := c.call(ctx)
	defer cancel()

	resp, err := c.authAs(t, "").Signup(types.SignupRequest{
		Email:    creds.Email,
		Password: creds.Password,
		Data:     creds.Data,
	})
	if err != nil {
		return nil, translate(ctx, t, err)
	}
	return sessionOf(resp.Session, resp.User), nil
}

// SignIn uses the password grant.
func (c *Client) SignIn(ctx context.Context, email, password string) (*gateway.Session, error) {
	ctx, cancel, t := c.call(ctx)
	defer cancel()

	resp, err := c.authAs(t, "").SignInWithEmailPassword(email, password)
	if errors.Is(err, types.ErrInvalidTokenRequest) {
		return nil, gateway.Errorf(gateway.CodeInvalidCredentials, "email and password are required")
	}
	if err != nil {
		return nil, translate(ctx, t, err)
	}
	return sessionOf(resp.Session, resp.Session.User), nil
}

// SignOut revokes the access token's session.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	ctx, cancel, t := c.call(ctx)
	defer cancel()

	return translate(ctx, t, c.authAs(t, accessToken).Logout())
}

// GetUser returns the identity behind accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*gateway.User, error) {
	if accessToken == "" {
		return nil, gateway.Errorf(gateway.CodeBadJWT, "missing access token")
	}
	ctx, cancel, t := c.call(ctx)
	defer cancel()

	resp, err := c.authAs(t, accessToken).GetUser()
	if err != nil {
		return nil, translate(ctx, t, err)
	}
	user := userOf(resp.User)
	return &user, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"ecofinds/internal/gateway"
	"ecofinds/internal/models"
	"ecofinds/internal/repositories"
	"ecofinds/internal/session"

	"github.com/go-playground/validator/v10"
)

// metadataUsername is the identity metadata key holding the chosen username
// until the profile row exists.
const metadataUsername = "username"

// SignUpInput is the sign-up form.
type SignUpInput struct {
	Username string `form:"username" validate:"required,min=2,max=50"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
}

// SignInInput is the sign-in form.
type SignInInput struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

var authLabels = map[string]string{"Username": "Username", "Email": "Email", "Password": "Password"}

// SignUpResult tells the caller how far sign-up got.
type SignUpResult struct {
	Session *gateway.Session
	// ConfirmationRequired is set when the backend issued no token yet.
	ConfirmationRequired bool
	// ProfilePending is set when the profile row could not be written; it is
	// completed from the identity metadata on a later session resolution.
	ProfilePending bool
}

// AuthService handles sign-up, sign-in and sign-out against a session store.
type AuthService struct {
	profiles repositories.ProfileRepository
	events   EventPublisher
	validate *validator.Validate
}

// NewAuthService creates a new AuthService.
func NewAuthService(profiles repositories.ProfileRepository, events EventPublisher) *AuthService {
	return &AuthService{
		profiles: profiles,
		events:   events,
		validate: newValidator(),
	}
}

// SignUp creates the identity, then the profile. A failed profile insert is
// retried once; after that the identity is left for deferred completion.
func (s *AuthService) SignUp(ctx context.Context, store *session.Store, in SignUpInput) (*SignUpResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(s.validate, in, authLabels); err != nil {
		return nil, err
	}

	sess, err := store.SignUp(ctx, in.Email, in.Password, map[string]any{metadataUsername: in.Username})
	if err != nil {
		return nil, err
	}
	result := &SignUpResult{Session: sess}
	if sess.AccessToken == "" {
		// Without a token the profile insert would be rejected by policy.
		result.ConfirmationRequired = true
		result.ProfilePending = true
		return result, nil
	}

	if store.State().Profile == nil {
		profile := &models.Profile{ID: sess.User.ID, Username: in.Username}
		if err := s.createProfile(store.Context(ctx), profile); err != nil {
			log.Printf("Profile for user %s left pending: %v", sess.User.ID, err)
			result.ProfilePending = true
		} else {
			store.RefreshProfile(ctx)
		}
	}

	publish(ctx, s.events, EventUserSignedUp, map[string]interface{}{
		"user_id":  sess.User.ID,
		"username": in.Username,
	})
	return result, nil
}

// createProfile inserts the profile, retrying once. A row that already exists
// counts as done.
func (s *AuthService) createProfile(ctx context.Context, profile *models.Profile) error {
	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		err = s.profiles.Create(ctx, profile)
		if err == nil || gateway.IsUniqueViolation(err) {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		log.Printf("Profile insert attempt %d for user %s failed: %v", attempt, profile.ID, err)
	}
	return fmt.Errorf("failed to create profile: %w", err)
}

// CompleteProfile creates the missing profile of user from the username kept
// in its metadata. It is used as the session store's completion hook.
func (s *AuthService) CompleteProfile(ctx context.Context, user *gateway.User) (*models.Profile, error) {
	username := user.MetadataString(metadataUsername)
	if username == "" {
		return nil, errors.New("identity carries no username to complete the profile with")
	}
	profile := &models.Profile{ID: user.ID, Username: username}
	if err := s.createProfile(ctx, profile); err != nil {
		return nil, err
	}
	log.Printf("Completed pending profile for user %s", user.ID)
	return profile, nil
}

// SignIn authenticates with email and password.
func (s *AuthService) SignIn(ctx context.Context, store *session.Store, in SignInInput) error {
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(s.validate, in, authLabels); err != nil {
		return err
	}
	return store.SignIn(ctx, in.Email, in.Password)
}

// SignOut ends the session. The local state is cleared even on error.
func (s *AuthService) SignOut(ctx context.Context, store *session.Store) error {
	if err := store.SignOut(ctx); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

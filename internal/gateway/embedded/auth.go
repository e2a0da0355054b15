package embedded

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecofinds/internal/gateway"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const minPasswordLen = 6

type authUser struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)"`
	Email        string         `gorm:"uniqueIndex;type:varchar(255);not null"`
	PasswordHash string         `gorm:"type:varchar(255);not null"`
	Metadata     map[string]any `gorm:"serializer:json;type:text"`
	CreatedAt    time.Time
}

func (authUser) TableName() string { return "auth_users" }

func (u authUser) toGateway() *gateway.User {
	return &gateway.User{ID: u.ID, Email: u.Email, Metadata: u.Metadata}
}

// revocation records a signed-out token until it would have expired anyway.
type revocation struct {
	TokenID   string `gorm:"primaryKey;type:varchar(36)"`
	ExpiresAt time.Time
}

func (revocation) TableName() string { return "auth_revocations" }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an identity and signs it in. Identities are confirmed
// immediately.
func (b *Backend) SignUp(ctx context.Context, creds gateway.Credentials) (*gateway.Session, error) {
	email := normalizeEmail(creds.Email)
	if email == "" {
		return nil, gateway.Errorf(gateway.CodeInvalidRequest, "Email is required")
	}
	if len(creds.Password) < minPasswordLen {
		return nil, gateway.Errorf(gateway.CodeInvalidRequest, "Password should be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := authUser{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Metadata:     creds.Data,
	}
	if err := b.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, gateway.Errorf(gateway.CodeUserExists, "User already registered")
		}
		return nil, translate(err)
	}
	return b.issue(user)
}

// SignIn checks the password and issues an access token.
func (b *Backend) SignIn(ctx context.Context, email, password string) (*gateway.Session, error) {
	var user authUser
	err := b.db.WithContext(ctx).First(&user, "email = ?", normalizeEmail(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same answer as a wrong password.
			return nil, gateway.Errorf(gateway.CodeInvalidCredentials, "Invalid login credentials")
		}
		return nil, translate(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, gateway.Errorf(gateway.CodeInvalidCredentials, "Invalid login credentials")
	}
	return b.issue(user)
}

// SignOut revokes the access token.
func (b *Backend) SignOut(ctx context.Context, accessToken string) error {
	claims, err := b.parse(ctx, accessToken)
	if err != nil {
		return err
	}
	rev := revocation{TokenID: claims.id, ExpiresAt: claims.expiresAt}
	err = b.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rev).Error
	return translate(err)
}

// GetUser returns the identity behind a valid access token.
func (b *Backend) GetUser(ctx context.Context, accessToken string) (*gateway.User, error) {
	claims, err := b.parse(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	var user authUser
	if err := b.db.WithContext(ctx).First(&user, "id = ?", claims.subject).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gateway.Errorf(gateway.CodeBadJWT, "User from token no longer exists")
		}
		return nil, translate(err)
	}
	return user.toGateway(), nil
}

func (b *Backend) issue(user authUser) (*gateway.Session, error) {
	now := b.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"jti":   uuid.New().String(),
		"iat":   now.Unix(),
		"exp":   now.Add(b.ttl).Unix(),
	})
	signed, err := token.SignedString(b.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &gateway.Session{
		AccessToken: signed,
		ExpiresIn:   int(b.ttl.Seconds()),
		User:        *user.toGateway(),
	}, nil
}

type tokenClaims struct {
	subject   string
	id        string
	expiresAt time.Time
}

// parse validates signature, expiry and revocation of an access token.
func (b *Backend) parse(ctx context.Context, tokenString string) (*tokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return b.secret, nil
	})
	if err != nil {
		return nil, gateway.Errorf(gateway.CodeBadJWT, "invalid token: %v", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, gateway.Errorf(gateway.CodeBadJWT, "invalid token")
	}
	sub, _ := claims["sub"].(string)
	jti, _ := claims["jti"].(string)
	exp, _ := claims["exp"].(float64)
	if sub == "" || jti == "" {
		return nil, gateway.Errorf(gateway.CodeBadJWT, "token is missing claims")
	}

	var count int64
	if err := b.db.WithContext(ctx).Model(&revocation{}).Where("token_id = ?", jti).Count(&count).Error; err != nil {
		return nil, translate(err)
	}
	if count > 0 {
		return nil, gateway.Errorf(gateway.CodeBadJWT, "token has been revoked")
	}
	return &tokenClaims{subject: sub, id: jti, expiresAt: time.Unix(int64(exp), 0)}, nil
}

// caller returns the user id of the request's access token, or "" for
// anonymous calls.
func (b *Backend) caller(ctx context.Context) (string, error) {
	token := gateway.AccessToken(ctx)
	if token == "" {
		return "", nil
	}
	claims, err := b.parse(ctx, token)
	if err != nil {
		return "", err
	}
	return claims.subject, nil
}

package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/weekledger/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid user name or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrUserNotFound       = errors.New("user not found")
)

// UserSource looks up operator accounts.
type UserSource interface {
	GetUser(ctx context.Context, name string) (*models.User, error)
}

// StaticUsers is a UserSource over a fixed list, typically AUTH_USERS.
type StaticUsers map[string]models.User

// NewStaticUsers indexes users by name.
func NewStaticUsers(users []models.User) StaticUsers {
	s := make(StaticUsers, len(users))
	for _, u := range users {
		s[u.Name] = u
	}
	return s
}

func (s StaticUsers) GetUser(_ context.Context, name string) (*models.User, error) {
	u, ok := s[name]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	users UserSource
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(users UserSource) *PasswordAuthenticator {
	return &PasswordAuthenticator{users: users}
}

// Authenticate verifies the name and password, returning the user if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, name, credential string) (*models.User, error) {
	user, err := a.users.GetUser(ctx, name)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// ValidateCredential checks if the password meets minimum requirements.
func ValidateCredential(credential string) error {
	if len(credential) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// HashPassword returns the bcrypt hash of password for use in AUTH_USERS.
func HashPassword(password string) (string, error) {
	if err := ValidateCredential(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

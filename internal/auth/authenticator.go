package auth

import (
	"context"

	"github.com/mmynk/weekledger/internal/models"
)

// Authenticator verifies operator credentials.
// This abstraction keeps the service layer independent of where accounts
// live and how credentials are checked.
type Authenticator interface {
	// Authenticate verifies the credential for name and returns the user if
	// successful.
	Authenticate(ctx context.Context, name, credential string) (*models.User, error)
}

package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"os"
	"strings"

	authservice "feedhistd/internal/service/auth"
)

// AdminAuthProvider authenticates the single operator account that manages
// the source catalog, credentials taken from ADMIN_USER/ADMIN_USER_PASSWORD.
type AdminAuthProvider struct {
	minPasswordLength int
	weakPasswords     []string
}

// NewAdminAuthProvider creates a new admin auth provider.
func NewAdminAuthProvider(minPasswordLength int, weakPasswords []string) *AdminAuthProvider {
	return &AdminAuthProvider{
		minPasswordLength: minPasswordLength,
		weakPasswords:     weakPasswords,
	}
}

// ValidateCredentials validates credentials against the configured admin
// account, using constant-time comparisons to avoid leaking which field
// mismatched.
func (p *AdminAuthProvider) ValidateCredentials(ctx context.Context, creds authservice.Credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return fmt.Errorf("credentials must not be empty")
	}

	if len(creds.Password) < p.minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", p.minPasswordLength)
	}

	for _, weak := range p.weakPasswords {
		if creds.Password == weak || strings.HasPrefix(creds.Password, weak) {
			return fmt.Errorf("weak password detected")
		}
	}

	adminUser := os.Getenv("ADMIN_USER")
	adminPass := os.Getenv("ADMIN_USER_PASSWORD")

	userMatch := subtle.ConstantTimeCompare([]byte(creds.Username), []byte(adminUser)) == 1
	passMatch := subtle.ConstantTimeCompare([]byte(creds.Password), []byte(adminPass)) == 1

	if userMatch && passMatch {
		return nil
	}

	return fmt.Errorf("invalid credentials")
}

// GetRequirements returns the password requirements.
func (p *AdminAuthProvider) GetRequirements() authservice.CredentialRequirements {
	return authservice.CredentialRequirements{
		MinPasswordLength: p.minPasswordLength,
		WeakPasswords:     p.weakPasswords,
	}
}

// Name returns the provider name.
func (p *AdminAuthProvider) Name() string {
	return "admin"
}

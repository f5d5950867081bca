// file: internal/credhelper/api.go

package credhelper

import (
	"context"
	"errors"
	"fmt"

	"obot-cred/internal/obot"
)

// API is the subset of the Obot server the helper needs
type API interface {
	ListAuthProviders(ctx context.Context) ([]obot.AuthProvider, error)
	CreateTokenRequest(ctx context.Context, req obot.TokenRequest) (string, error)
	GetTokenRequest(ctx context.Context, id string) (obot.TokenStatus, error)
	RefreshToken(ctx context.Context, refreshToken string) (obot.TokenStatus, error)
}

var (
	// ErrNoAuthProviders means the server has no configured auth provider
	ErrNoAuthProviders = errors.New("no auth providers found")

	// ErrInvalidSelection means the user's provider choice was not a listed number
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrCancelled means the run was interrupted while waiting on the user or server
	ErrCancelled = errors.New("user cancelled")
)

// Prompt metadata shared by every request this helper shows
const (
	toolDisplayName = "Obot Cred"
	toolContext     = "credential"
)

func cancelled(err error) error {
	if errors.Is(err, ErrCancelled) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}

// file: internal/credhelper/acquire.go

package credhelper

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"obot-cred/internal/credential"
	"obot-cred/internal/logger"
	"obot-cred/internal/metrics"
	"obot-cred/internal/obot"
	"obot-cred/internal/prompt"
)

// DefaultPollInterval is the wait between token-request status checks
const DefaultPollInterval = time.Second

// Acquirer creates a brand new token through the browser login flow
type Acquirer struct {
	api      API
	prompter prompt.Prompter
	opener   prompt.Opener
	clock    clockwork.Clock
	interval time.Duration
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewAcquirer(api API, prompter prompt.Prompter, opener prompt.Opener, clock clockwork.Clock, interval time.Duration, log *logger.Logger, m *metrics.Metrics) *Acquirer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Acquirer{
		api:      api,
		prompter: prompter,
		opener:   opener,
		clock:    clock,
		interval: interval,
		logger:   log,
		metrics:  m,
	}
}

// Acquire registers a token request for the provider, sends the user to
// the login URL and blocks until the server issues the token. Only ctx
// ends the wait early.
func (a *Acquirer) Acquire(ctx context.Context, providerNamespace, providerName string) (credential.Credential, error) {
	req := obot.TokenRequest{
		ID:                uuid.New().String(),
		ProviderNamespace: providerNamespace,
		ProviderName:      providerName,
	}
	log := a.logger.With("requestID", req.ID, "provider", providerName)

	authURL, err := a.api.CreateTokenRequest(ctx, req)
	if err != nil {
		return credential.Credential{}, err
	}
	log.Debug("token request created", "url", authURL)

	if err := a.sendToLogin(ctx, authURL, log); err != nil {
		return credential.Credential{}, err
	}

	status, err := a.poll(ctx, req.ID, log)
	if err != nil {
		return credential.Credential{}, err
	}

	expiresAt, err := credential.ExpiresAt(a.clock.Now(), status.ExpiresAt)
	if err != nil {
		return credential.Credential{}, fmt.Errorf("token request %s: %w", req.ID, err)
	}
	return credential.Credential{Token: status.AccessToken(), ExpiresAt: expiresAt}, nil
}

// sendToLogin tells the user about the URL. If the prompt host did not open
// it itself, the opener does, so the user always has a way to log in.
func (a *Acquirer) sendToLogin(ctx context.Context, authURL string, log *logger.Logger) error {
	resp, err := a.prompter.Prompt(ctx, prompt.Request{
		Message: fmt.Sprintf("Opening browser to %s. If there is an issue paste this link into a browser manually.", authURL),
		Metadata: map[string]string{
			prompt.MetaToolDisplayName: toolDisplayName,
			prompt.MetaAuthURL:         authURL,
			prompt.MetaAuthType:        "oauth",
			prompt.MetaToolContext:     toolContext,
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return cancelled(ctx.Err())
		}
		return fmt.Errorf("failed to prompt for login: %w", err)
	}
	if a.metrics != nil {
		a.metrics.IncPrompts("auth-url", resp.Handled)
	}

	if resp.Handled {
		return nil
	}
	if err := a.opener.Open(ctx, authURL); err != nil {
		log.Warn("failed to open browser", "error", err)
	}
	return nil
}

// poll checks the token request until a token shows up. Any non-200
// response ends the wait with the server's error.
func (a *Acquirer) poll(ctx context.Context, id string, log *logger.Logger) (obot.TokenStatus, error) {
	for attempt := 1; ; attempt++ {
		status, err := a.api.GetTokenRequest(ctx, id)
		if a.metrics != nil {
			a.metrics.IncTokenPolls()
		}
		if err != nil {
			if ctx.Err() != nil {
				return obot.TokenStatus{}, cancelled(ctx.Err())
			}
			return obot.TokenStatus{}, err
		}
		if status.Ready() {
			log.Debug("token issued", "attempts", attempt)
			return status, nil
		}

		select {
		case <-ctx.Done():
			return obot.TokenStatus{}, cancelled(ctx.Err())
		case <-a.clock.After(a.interval):
		}
	}
}

// file: internal/credhelper/select.go

package credhelper

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"obot-cred/internal/logger"
	"obot-cred/internal/metrics"
	"obot-cred/internal/obot"
	"obot-cred/internal/prompt"
)

const providerField = "Auth Provider"

// Selector picks the auth provider the user will log in with
type Selector struct {
	api      API
	prompter prompt.Prompter
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewSelector(api API, prompter prompt.Prompter, log *logger.Logger, m *metrics.Metrics) *Selector {
	return &Selector{api: api, prompter: prompter, logger: log, metrics: m}
}

// Select returns the only configured provider, or asks the user to choose
// when there are several. A wrong answer is not retried.
func (s *Selector) Select(ctx context.Context) (obot.AuthProvider, error) {
	all, err := s.api.ListAuthProviders(ctx)
	if err != nil {
		return obot.AuthProvider{}, err
	}

	var candidates []obot.AuthProvider
	for _, p := range all {
		if p.Configured {
			candidates = append(candidates, p)
		}
	}

	switch len(candidates) {
	case 0:
		return obot.AuthProvider{}, ErrNoAuthProviders
	case 1:
		s.logger.Debug("using only configured auth provider", "provider", candidates[0].ID)
		return candidates[0], nil
	}

	resp, err := s.prompter.Prompt(ctx, providerPrompt(candidates))
	if err != nil {
		if ctx.Err() != nil {
			return obot.AuthProvider{}, cancelled(ctx.Err())
		}
		return obot.AuthProvider{}, fmt.Errorf("failed to prompt for auth provider: %w", err)
	}
	if s.metrics != nil {
		s.metrics.IncPrompts("auth-provider", resp.Handled)
	}

	choice, err := strconv.Atoi(strings.TrimSpace(resp.Field(providerField)))
	if err != nil || choice < 1 || choice > len(candidates) {
		return obot.AuthProvider{}, ErrInvalidSelection
	}

	selected := candidates[choice-1]
	s.logger.Debug("auth provider selected", "provider", selected.ID, "choice", choice)
	return selected, nil
}

func providerPrompt(candidates []obot.AuthProvider) prompt.Request {
	var b strings.Builder
	b.WriteString("Please choose an auth provider:\n\n")
	for i, p := range candidates {
		fmt.Fprintf(&b, "%d: %s\n", i+1, p.Name)
	}

	return prompt.Request{
		Message: b.String(),
		Fields:  []prompt.Field{{Name: providerField, Description: "Auth provider to use"}},
		Metadata: map[string]string{
			prompt.MetaToolDisplayName: toolDisplayName,
			prompt.MetaToolContext:     toolContext,
		},
	}
}

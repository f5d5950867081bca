// file: internal/credhelper/helper.go

package credhelper

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"obot-cred/internal/credential"
	"obot-cred/internal/logger"
	"obot-cred/internal/metrics"
	"obot-cred/internal/prompt"
)

// Options tunes a Helper. Zero values get defaults.
type Options struct {
	// ExistingCredential is the blob the host stored after the last run
	ExistingCredential string
	PollInterval       time.Duration
	Clock              clockwork.Clock
}

// Helper runs the whole credential flow: refresh if possible, otherwise
// select a provider and create a token.
type Helper struct {
	refresher *Refresher
	selector  *Selector
	acquirer  *Acquirer
	existing  string
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewHelper(api API, prompter prompt.Prompter, opener prompt.Opener, opts Options, log *logger.Logger, m *metrics.Metrics) *Helper {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Helper{
		refresher: NewRefresher(api, clock, log, m),
		selector:  NewSelector(api, prompter, log, m),
		acquirer:  NewAcquirer(api, prompter, opener, clock, opts.PollInterval, log, m),
		existing:  opts.ExistingCredential,
		logger:    log,
		metrics:   m,
	}
}

// Run returns a credential with a token, or the error that stopped the
// flow. Only refresh failures are absorbed.
func (h *Helper) Run(ctx context.Context) (credential.Credential, error) {
	switch result := h.refresher.Refresh(ctx, h.existing).(type) {
	case Refreshed:
		h.logger.Info("refreshed stored credential")
		h.recordFlow("refresh", nil)
		return result.Credential, nil
	case NotRefreshable:
		if ctx.Err() != nil {
			return credential.Credential{}, cancelled(ctx.Err())
		}
		h.logger.Debug("creating new credential", "refreshReason", result.Reason)
	}

	cred, err := h.create(ctx)
	h.recordFlow("create", err)
	return cred, err
}

func (h *Helper) create(ctx context.Context) (credential.Credential, error) {
	provider, err := h.selector.Select(ctx)
	if err != nil {
		return credential.Credential{}, h.checkCancelled(ctx, err)
	}

	h.logger.Info("starting login", "provider", provider.ID, "namespace", provider.Namespace)
	cred, err := h.acquirer.Acquire(ctx, provider.Namespace, provider.ID)
	if err != nil {
		return credential.Credential{}, h.checkCancelled(ctx, err)
	}
	return cred, nil
}

func (h *Helper) checkCancelled(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return cancelled(ctx.Err())
	}
	return err
}

func (h *Helper) recordFlow(path string, err error) {
	if h.metrics == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	h.metrics.IncFlow(path, result)
}

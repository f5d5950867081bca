// file: internal/credhelper/refresh.go

package credhelper

import (
	"context"
	"errors"

	json "github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"

	"obot-cred/internal/credential"
	"obot-cred/internal/logger"
	"obot-cred/internal/metrics"
	"obot-cred/internal/obot"
)

// RefreshReason says why a stored credential could not be refreshed
type RefreshReason string

const (
	ReasonNoCredential        RefreshReason = "no-credential"
	ReasonMalformed           RefreshReason = "malformed"
	ReasonMissingRefreshToken RefreshReason = "missing-refresh-token"
	ReasonRejected            RefreshReason = "rejected"
	ReasonTransport           RefreshReason = "transport"
	ReasonInvalidResponse     RefreshReason = "invalid-response"
)

// RefreshResult is either Refreshed or NotRefreshable
type RefreshResult interface {
	refreshResult()
}

// Refreshed carries the credential issued in exchange for the stored one
type Refreshed struct {
	Credential credential.Credential
}

// NotRefreshable means a new credential has to be created. Err holds the
// underlying failure when there was one.
type NotRefreshable struct {
	Reason RefreshReason
	Err    error
}

func (Refreshed) refreshResult()      {}
func (NotRefreshable) refreshResult() {}

// Refresher exchanges a stored credential for a fresh one
type Refresher struct {
	api     API
	clock   clockwork.Clock
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewRefresher(api API, clock clockwork.Clock, log *logger.Logger, m *metrics.Metrics) *Refresher {
	return &Refresher{api: api, clock: clock, logger: log, metrics: m}
}

// Refresh never fails outright: every problem is reported as NotRefreshable
// because an expired or missing refresh token is the normal case.
func (r *Refresher) Refresh(ctx context.Context, blob string) RefreshResult {
	if blob == "" {
		return r.notRefreshable(ReasonNoCredential, nil)
	}

	var stored credential.Stored
	if err := json.Unmarshal([]byte(blob), &stored); err != nil {
		return r.notRefreshable(ReasonMalformed, err)
	}
	if stored.RefreshToken == nil || *stored.RefreshToken == "" {
		return r.notRefreshable(ReasonMissingRefreshToken, nil)
	}

	status, err := r.api.RefreshToken(ctx, *stored.RefreshToken)
	if err != nil {
		var statusErr *obot.StatusError
		if errors.As(err, &statusErr) {
			return r.notRefreshable(ReasonRejected, err)
		}
		return r.notRefreshable(ReasonTransport, err)
	}
	if !status.Ready() {
		return r.notRefreshable(ReasonInvalidResponse, errors.New("refresh response has no token"))
	}

	expiresAt, err := credential.ExpiresAt(r.clock.Now(), status.ExpiresAt)
	if err != nil {
		return r.notRefreshable(ReasonInvalidResponse, err)
	}

	if r.metrics != nil {
		r.metrics.IncRefresh("refreshed")
	}
	return Refreshed{Credential: credential.Credential{Token: status.AccessToken(), ExpiresAt: expiresAt}}
}

func (r *Refresher) notRefreshable(reason RefreshReason, err error) NotRefreshable {
	if r.metrics != nil {
		r.metrics.IncRefresh(string(reason))
	}
	r.logger.Debug("stored credential not refreshable", "reason", reason, "error", err)
	return NotRefreshable{Reason: reason, Err: err}
}

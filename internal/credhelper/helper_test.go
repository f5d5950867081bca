// file: internal/credhelper/helper_test.go

package credhelper

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obot-cred/internal/credential"
	"obot-cred/internal/logger"
	"obot-cred/internal/metrics"
	"obot-cred/internal/obot"
	"obot-cred/internal/prompt"
)

// fakeServer is an Obot API stand-in that records which endpoints were hit
type fakeServer struct {
	t *testing.T

	mu    sync.Mutex
	calls []string

	refreshStatus int
	refreshBody   string
	listStatus    int
	listBody      string
	pollBodies    []string
}

func (s *fakeServer) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.calls = append(s.calls, r.Method+" "+r.URL.Path)
	s.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/tokens":
		assert.Equal(s.t, "Bearer abc", r.Header.Get("Authorization"))
		w.WriteHeader(s.refreshStatus)
		_, _ = io.WriteString(w, s.refreshBody)
	case r.Method == http.MethodGet && r.URL.Path == "/api/auth-providers":
		w.WriteHeader(s.listStatus)
		_, _ = io.WriteString(w, s.listBody)
	case r.Method == http.MethodPost && r.URL.Path == "/api/token-request":
		_, _ = io.WriteString(w, `{"token-path":"http://obot.test/login"}`)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/token-request/"):
		s.mu.Lock()
		body := s.pollBodies[0]
		if len(s.pollBodies) > 1 {
			s.pollBodies = s.pollBodies[1:]
		}
		s.mu.Unlock()
		_, _ = io.WriteString(w, body)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *fakeServer) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func newHelper(t *testing.T, srv *fakeServer, existing string, clock clockwork.Clock, p prompt.Prompter, o prompt.Opener, m *metrics.Metrics) *Helper {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(srv.handler))
	t.Cleanup(server.Close)

	client := obot.NewClient(server.URL, server.Client(), logger.NewNopLogger(), m)
	return NewHelper(client, p, o, Options{
		ExistingCredential: existing,
		PollInterval:       time.Second,
		Clock:              clock,
	}, logger.NewNopLogger(), m)
}

func TestHelper_RefreshesStoredCredential(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	srv := &fakeServer{
		t:             t,
		refreshStatus: http.StatusOK,
		refreshBody:   `{"token":"tok1","expiresAt":"2025-01-01T02:00:00+00:00"}`,
	}
	p := &fakePrompter{}
	h := newHelper(t, srv, `{"refreshToken":"abc"}`, clockwork.NewFakeClockAt(now), p, &fakeOpener{}, nil)

	cred, err := h.Run(context.Background())
	require.NoError(t, err)

	out, err := credential.NewOutput(cred).Marshal()
	require.NoError(t, err)
	assert.Equal(t, `{"env":{"OBOT_API_KEY":"tok1"},"expiresAt":"2025-01-01T01:00:00+00:00","refreshToken":"tok1"}`, string(out))
	assert.Equal(t, []string{"POST /api/tokens"}, srv.recorded(), "no provider selection or creation calls")
	assert.Empty(t, p.requests)
}

func TestHelper_CreatesTokenWhenNothingStored(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	srv := &fakeServer{
		t:          t,
		listStatus: http.StatusOK,
		listBody: `{"items":[
			{"id":"github-auth-provider","namespace":"default","name":"GitHub","configured":true},
			{"id":"google-auth-provider","namespace":"default","name":"Google","configured":false}
		]}`,
		pollBodies: []string{`{}`, `{"token":null}`, `{"token":"tok2"}`},
	}
	o := &fakeOpener{}
	h := newHelper(t, srv, "", clock, &fakePrompter{}, o, nil)

	type result struct {
		cred credential.Credential
		err  error
	}
	done := make(chan result, 1)
	go func() {
		cred, err := h.Run(context.Background())
		done <- result{cred, err}
	}()

	advancePolls(t, clock, 2, time.Second)

	var res result
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	require.NoError(t, res.err)
	assert.Equal(t, "tok2", res.cred.Token)
	assert.Equal(t, "2025-01-01T01:00:02+00:00", credential.FormatTime(res.cred.ExpiresAt))
	assert.Equal(t, []string{"http://obot.test/login"}, o.opened)

	calls := srv.recorded()
	require.Len(t, calls, 5)
	assert.Equal(t, "GET /api/auth-providers", calls[0])
	assert.Equal(t, "POST /api/token-request", calls[1])
	for _, c := range calls[2:] {
		assert.True(t, strings.HasPrefix(c, "GET /api/token-request/"), c)
	}
}

func TestHelper_RefreshRejectedFallsThrough(t *testing.T) {
	srv := &fakeServer{
		t:             t,
		refreshStatus: http.StatusUnauthorized,
		refreshBody:   "token expired",
		listStatus:    http.StatusOK,
		listBody:      `{"items":[{"id":"github-auth-provider","namespace":"default","name":"GitHub","configured":true}]}`,
		pollBodies:    []string{`{"token":"tok3"}`},
	}
	h := newHelper(t, srv, `{"refreshToken":"abc"}`, clockwork.NewFakeClock(), &fakePrompter{response: prompt.Response{Handled: true}}, &fakeOpener{}, nil)

	cred, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok3", cred.Token)

	calls := srv.recorded()
	require.GreaterOrEqual(t, len(calls), 2)
	assert.Equal(t, "POST /api/tokens", calls[0])
	assert.Equal(t, "GET /api/auth-providers", calls[1])
}

func TestHelper_ProviderListingFails(t *testing.T) {
	srv := &fakeServer{
		t:          t,
		listStatus: http.StatusInternalServerError,
		listBody:   "database unavailable",
	}
	h := newHelper(t, srv, "", clockwork.NewFakeClock(), &fakePrompter{}, &fakeOpener{}, nil)

	cred, err := h.Run(context.Background())
	assert.False(t, cred.Valid())

	var statusErr *obot.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "database unavailable", statusErr.Body)
	assert.Equal(t, []string{"GET /api/auth-providers"}, srv.recorded())
}

func TestHelper_NoConfiguredProviders(t *testing.T) {
	srv := &fakeServer{
		t:          t,
		listStatus: http.StatusOK,
		listBody:   `{"items":[{"id":"google-auth-provider","namespace":"default","name":"Google","configured":false}]}`,
	}
	h := newHelper(t, srv, "not json", clockwork.NewFakeClock(), &fakePrompter{}, &fakeOpener{}, nil)

	_, err := h.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoAuthProviders)
	assert.Equal(t, []string{"GET /api/auth-providers"}, srv.recorded())
}

func TestHelper_Cancelled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	srv := &fakeServer{
		t:          t,
		listStatus: http.StatusOK,
		listBody:   `{"items":[{"id":"github-auth-provider","namespace":"default","name":"GitHub","configured":true}]}`,
		pollBodies: []string{`{}`},
	}
	h := newHelper(t, srv, "", clock, &fakePrompter{}, &fakeOpener{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := h.Run(ctx)
		done <- err
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrCancelled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestHelper_RecordsFlowMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewMetrics(reg)
	require.NoError(t, err)

	srv := &fakeServer{
		t:             t,
		refreshStatus: http.StatusOK,
		refreshBody:   `{"token":"tok1"}`,
	}
	h := newHelper(t, srv, `{"refreshToken":"abc"}`, clockwork.NewFakeClock(), &fakePrompter{}, &fakeOpener{}, m)

	_, err = h.Run(context.Background())
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["obot_cred_flow_total"])
	assert.True(t, names["obot_cred_refresh_total"])
	assert.True(t, names["obot_cred_http_outbound_requests_total"])
}

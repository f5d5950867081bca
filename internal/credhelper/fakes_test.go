// file: internal/credhelper/fakes_test.go

package credhelper

import (
	"context"
	"sync"

	"obot-cred/internal/obot"
	"obot-cred/internal/prompt"
)

type fakeAPI struct {
	mu sync.Mutex

	providers []obot.AuthProvider
	listErr   error
	listCalls int

	tokenPath string
	createErr error
	created   []obot.TokenRequest

	statuses  []obot.TokenStatus
	statusErr error
	polls     int

	refreshStatus obot.TokenStatus
	refreshErr    error
	refreshCalls  []string
}

func (f *fakeAPI) ListAuthProviders(ctx context.Context) ([]obot.AuthProvider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.providers, f.listErr
}

func (f *fakeAPI) CreateTokenRequest(ctx context.Context, req obot.TokenRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.tokenPath, nil
}

// GetTokenRequest returns statuses in order, repeating the last one
func (f *fakeAPI) GetTokenRequest(ctx context.Context, id string) (obot.TokenStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.statusErr != nil {
		return obot.TokenStatus{}, f.statusErr
	}
	if len(f.statuses) == 0 {
		return obot.TokenStatus{}, nil
	}
	status := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return status, nil
}

func (f *fakeAPI) RefreshToken(ctx context.Context, refreshToken string) (obot.TokenStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls = append(f.refreshCalls, refreshToken)
	return f.refreshStatus, f.refreshErr
}

func (f *fakeAPI) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

type fakePrompter struct {
	mu       sync.Mutex
	requests []prompt.Request
	response prompt.Response
	err      error
	block    bool
}

func (p *fakePrompter) Prompt(ctx context.Context, req prompt.Request) (prompt.Response, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	if p.block {
		<-ctx.Done()
		return prompt.Response{}, ctx.Err()
	}
	return p.response, p.err
}

type fakeOpener struct {
	mu     sync.Mutex
	opened []string
	err    error
}

func (o *fakeOpener) Open(ctx context.Context, url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, url)
	return o.err
}

func strPtr(s string) *string {
	return &s
}

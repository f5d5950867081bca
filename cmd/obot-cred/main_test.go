// file: cmd/obot-cred/main_test.go

package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obot-cred/internal/credential"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_RefreshesStoredCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tokens", r.URL.Path)
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"token":"tok1"}`)
	}))
	defer server.Close()

	t.Setenv("GPTSCRIPT_EXISTING_CREDENTIAL", `{"refreshToken":"abc"}`)

	start := time.Now().UTC()
	out, err := execute(t, "--url", server.URL+"/", "--no-browser")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(out, "\n"))
	assert.Equal(t, 1, strings.Count(out, "\n"), "exactly one output line")

	var payload credential.Output
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "tok1", payload.Env.APIKey)
	assert.Equal(t, "tok1", payload.RefreshToken)

	expiresAt, err := credential.ParseTime(payload.ExpiresAt)
	require.NoError(t, err)
	assert.WithinDuration(t, start.Add(time.Hour), expiresAt, time.Minute)
}

func TestRootCmd_ServerErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "database unavailable")
	}))
	defer server.Close()

	t.Setenv("GPTSCRIPT_EXISTING_CREDENTIAL", "")

	out, err := execute(t, "--url", server.URL, "--no-browser")
	require.Error(t, err)
	assert.Equal(t, "database unavailable\n", out)
}

func TestRootCmd_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "bad url scheme", args: []string{"--url", "ftp://obot.example.com"}, want: "must use http or https"},
		{name: "bad log level", args: []string{"--log-level", "loud"}, want: "log level"},
		{name: "missing config file", args: []string{"--config", "/nonexistent/obot-cred.yaml"}, want: "failed to load config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestRootCmd_RejectsArguments(t *testing.T) {
	_, err := execute(t, "extra")
	assert.Error(t, err)
}

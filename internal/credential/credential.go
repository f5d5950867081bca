// file: internal/credential/credential.go

// Package credential holds the bearer credential handed back to the host
// and the policy deciding when the host should consider it expired.
package credential

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// DefaultLifetime is reported when the server does not say when a token expires
const DefaultLifetime = time.Hour

const (
	isoLayout      = "2006-01-02T15:04:05-07:00"
	isoMicroLayout = "2006-01-02T15:04:05.000000-07:00"
)

// Credential is an issued token together with the time the host should
// stop trusting it. It is never mutated after being returned.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether the credential carries a token
func (c Credential) Valid() bool {
	return c.Token != ""
}

// Stored is the credential blob the host persisted from a previous run.
// Only the refresh token matters here.
type Stored struct {
	RefreshToken *string `json:"refreshToken"`
}

// ExpiresAt computes the expiry reported to the host. Without a server
// expiry the credential lives for DefaultLifetime from now. Otherwise it
// expires halfway between now and the server expiry, measured in the
// server's own offset, so the host refreshes long before the token dies.
func ExpiresAt(now time.Time, serverExpiry string) (time.Time, error) {
	if serverExpiry == "" {
		return now.UTC().Add(DefaultLifetime), nil
	}

	expiry, err := ParseTime(serverExpiry)
	if err != nil {
		return time.Time{}, err
	}

	local := now.In(expiry.Location())
	return local.Add(expiry.Sub(local) / 2), nil
}

// ParseTime parses an ISO-8601 timestamp. Values without an offset are UTC.
func ParseTime(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05.999999999",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 timestamp %q", value)
}

// FormatTime renders t with a numeric offset, adding microseconds only
// when they are non-zero.
func FormatTime(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(isoLayout)
	}
	return t.Format(isoMicroLayout)
}

// Output is the single line written to stdout for the host
type Output struct {
	Env          OutputEnv `json:"env"`
	ExpiresAt    string    `json:"expiresAt"`
	RefreshToken string    `json:"refreshToken"`
}

type OutputEnv struct {
	APIKey string `json:"OBOT_API_KEY"`
}

// NewOutput builds the host payload. The issued token doubles as the
// refresh token for the next run.
func NewOutput(c Credential) Output {
	return Output{
		Env:          OutputEnv{APIKey: c.Token},
		ExpiresAt:    FormatTime(c.ExpiresAt),
		RefreshToken: c.Token,
	}
}

// Marshal encodes the payload as one line of JSON
func (o Output) Marshal() ([]byte, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credential output: %w", err)
	}
	return data, nil
}

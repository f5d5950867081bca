// file: internal/prompt/prompt.go

// Package prompt asks a human for input through whatever interactive
// mechanism the host provides, and opens authorization URLs in a browser.
package prompt

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
)

// Metadata keys understood by prompt hosts
const (
	MetaToolDisplayName = "toolDisplayName"
	MetaToolContext     = "toolContext"
	MetaAuthURL         = "authURL"
	MetaAuthType        = "authType"
)

// Field is a single free-text input the user is asked to fill in
type Field struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Request is what gets shown to the user
type Request struct {
	Message  string            `json:"message"`
	Fields   []Field           `json:"fields,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Response is the user's answer. Handled is set when the prompt host took
// care of the request itself, e.g. it already opened the auth URL.
type Response struct {
	Handled bool
	Fields  map[string]string
}

// Field returns the answer for name, or "" when it was not filled in
func (r Response) Field(name string) string {
	return r.Fields[name]
}

// Prompter defines the interface for user interaction, allowing for mock implementations in tests.
type Prompter interface {
	Prompt(ctx context.Context, req Request) (Response, error)
}

// ParseResponse decodes the raw output of a prompt host. Empty output and
// a JSON null both mean the host had nothing to say. The "handled" flag is
// accepted as a bool or as the string "true"; every other key is a field.
func ParseResponse(raw []byte) (Response, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return Response{Fields: map[string]string{}}, nil
	}

	var values map[string]interface{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return Response{}, fmt.Errorf("failed to parse prompt response: %w", err)
	}

	resp := Response{Fields: make(map[string]string, len(values))}
	for key, value := range values {
		if key == "handled" {
			switch v := value.(type) {
			case bool:
				resp.Handled = v
			case string:
				resp.Handled = v == "true"
			}
			continue
		}

		switch v := value.(type) {
		case string:
			resp.Fields[key] = v
		case float64:
			resp.Fields[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			resp.Fields[key] = strconv.FormatBool(v)
		}
	}
	return resp, nil
}

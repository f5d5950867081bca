// file: internal/prompt/command.go

package prompt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	json "github.com/goccy/go-json"

	"obot-cred/internal/logger"
)

// CommandPrompter hands the request to an external program as JSON on
// stdin and reads the answer as JSON from its stdout.
type CommandPrompter struct {
	command []string
	stderr  io.Writer
	logger  *logger.Logger
}

// NewCommandPrompter creates a prompter running command. The program's
// stderr is passed through to ours.
func NewCommandPrompter(command []string, log *logger.Logger) (*CommandPrompter, error) {
	if len(command) == 0 {
		return nil, errors.New("prompt command is empty")
	}
	return &CommandPrompter{
		command: command,
		stderr:  os.Stderr,
		logger:  log,
	}, nil
}

// Prompt runs the command once per request
func (p *CommandPrompter) Prompt(ctx context.Context, req Request) (Response, error) {
	input, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode prompt: %w", err)
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, p.command[0], p.command[1:]...)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = p.stderr

	p.logger.Debug("running prompt command", "command", p.command[0])

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Response{}, ctxErr
		}
		return Response{}, fmt.Errorf("prompt command failed: %w", err)
	}

	return ParseResponse(stdout.Bytes())
}

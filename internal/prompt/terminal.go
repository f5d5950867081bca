// file: internal/prompt/terminal.go

package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// ANSI Color Codes for better output
const (
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorReset  = "\033[0m"
)

// TerminalPrompter asks on stderr and reads answers from stdin. It never
// opens anything itself, so responses are never Handled.
type TerminalPrompter struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewTerminalPrompter creates a prompter on the process's stdin and stderr
func NewTerminalPrompter() *TerminalPrompter {
	return NewTerminalPrompterWith(os.Stdin, os.Stderr)
}

// NewTerminalPrompterWith creates a prompter on arbitrary streams
func NewTerminalPrompterWith(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Prompt prints the message and asks for each field in order
func (p *TerminalPrompter) Prompt(ctx context.Context, req Request) (Response, error) {
	fmt.Fprintf(p.out, "%s%s%s\n", ColorBlue, req.Message, ColorReset)

	resp := Response{Fields: make(map[string]string, len(req.Fields))}
	for _, field := range req.Fields {
		question := field.Name + ":"
		if field.Description != "" {
			question = fmt.Sprintf("%s (%s):", field.Name, field.Description)
		}
		answer, err := p.ask(ctx, question)
		if err != nil {
			return Response{}, err
		}
		resp.Fields[field.Name] = answer
	}
	return resp, nil
}

type readResult struct {
	line string
	err  error
}

// ask reads one line. The read happens on its own goroutine so that a
// cancelled context is not stuck behind a blocking stdin read.
func (p *TerminalPrompter) ask(ctx context.Context, question string) (string, error) {
	fmt.Fprintf(p.out, "%s%s%s ", ColorYellow, question, ColorReset)

	ch := make(chan readResult, 1)
	go func() {
		line, err := p.reader.ReadString('\n')
		ch <- readResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil && (r.err != io.EOF || r.line == "") {
			return "", fmt.Errorf("failed to read answer: %w", r.err)
		}
		return strings.TrimSpace(r.line), nil
	}
}

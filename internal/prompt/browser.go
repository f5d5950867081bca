// file: internal/prompt/browser.go

package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// Opener shows a URL to the user, usually by launching a browser
type Opener interface {
	Open(ctx context.Context, url string) error
}

// SystemOpener launches the platform's default browser
type SystemOpener struct {
	goos string
}

// NewSystemOpener creates an opener for the running platform
func NewSystemOpener() *SystemOpener {
	return &SystemOpener{goos: runtime.GOOS}
}

// Open starts the browser without waiting for it to exit
func (o *SystemOpener) Open(ctx context.Context, url string) error {
	cmd := browserCommand(o.goos, url)
	if cmd == nil {
		return errors.New("no browser command available")
	}
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func browserCommand(goos, url string) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.Command("open", url)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", url)
	default:
		return nil
	}
}

// ManualOpener only prints the URL, for hosts without a browser
type ManualOpener struct {
	out io.Writer
}

// NewManualOpener creates an opener writing to stderr
func NewManualOpener() *ManualOpener {
	return &ManualOpener{out: os.Stderr}
}

func (o *ManualOpener) Open(_ context.Context, url string) error {
	_, err := fmt.Fprintf(o.out, "Open the following URL in your browser:\n%s\n", url)
	return err
}

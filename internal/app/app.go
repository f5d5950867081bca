//file: internal/app/app.go

package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jonboulle/clockwork"

	"obot-cred/config"
	"obot-cred/internal/credential"
	"obot-cred/internal/credhelper"
	"obot-cred/internal/logger"
	"obot-cred/internal/metrics"
	"obot-cred/internal/obot"
	"obot-cred/internal/prompt"
)

// App is one invocation of the credential helper with all its components
type App struct {
	config   *config.Config
	out      io.Writer
	logger   *logger.Logger
	metrics  *metrics.Metrics
	client   *obot.Client
	prompter prompt.Prompter
	opener   prompt.Opener
	clock    clockwork.Clock
	helper   *credhelper.Helper
}

// Option replaces a component NewApp would otherwise build from config
type Option func(*App)

func WithLogger(log *logger.Logger) Option {
	return func(a *App) { a.logger = log }
}

func WithPrompter(p prompt.Prompter) Option {
	return func(a *App) { a.prompter = p }
}

func WithOpener(o prompt.Opener) Option {
	return func(a *App) { a.opener = o }
}

func WithClock(c clockwork.Clock) Option {
	return func(a *App) { a.clock = c }
}

// NewApp creates a new application instance writing its result to out
func NewApp(cfg *config.Config, out io.Writer, opts ...Option) (*App, error) {
	app := &App{
		config: cfg,
		out:    out,
	}
	for _, opt := range opts {
		opt(app)
	}

	// Initialize components in dependency order
	if err := app.setupLogger(); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	if err := app.setupMetrics(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics: %w", err)
	}

	app.setupClient()

	if err := app.setupPrompter(); err != nil {
		return nil, fmt.Errorf("failed to setup prompter: %w", err)
	}

	app.setupHelper()

	return app, nil
}

// Logger returns the application logger
func (a *App) Logger() *logger.Logger {
	return a.logger
}

// Run obtains a credential and writes exactly one line to the output: the
// credential payload on success or a diagnostic on failure.
func (a *App) Run(ctx context.Context) error {
	a.logger.Debug("starting credential helper",
		"server", a.client.BaseURL(),
		"storedCredential", a.config.Credential.Existing != "")

	cred, err := a.helper.Run(ctx)
	if err != nil {
		a.logger.Debug("credential helper failed", "error", err)
		fmt.Fprintln(a.out, Diagnostic(err))
		return err
	}

	line, err := credential.NewOutput(cred).Marshal()
	if err != nil {
		fmt.Fprintln(a.out, Diagnostic(err))
		return err
	}
	if _, err := fmt.Fprintln(a.out, string(line)); err != nil {
		return fmt.Errorf("failed to write credential: %w", err)
	}
	return nil
}

// Close flushes metrics and logs
func (a *App) Close() error {
	var errs []error

	if a.metrics != nil && a.config.Metrics.Textfile != "" {
		if err := a.metrics.WriteTextfile(a.config.Metrics.Textfile); err != nil {
			errs = append(errs, err)
		}
	}

	if a.logger != nil {
		if err := a.logger.Sync(); err != nil {
			// Syncing stderr fails on some platforms and is benign
			a.logger.Debug("logger sync completed", "error", err)
		}
	}

	return errors.Join(errs...)
}

// Diagnostic renders err the way the host expects to read it on stdout.
// Server rejections print the server's own body verbatim.
func Diagnostic(err error) string {
	var statusErr *obot.StatusError
	switch {
	case errors.As(err, &statusErr):
		return statusErr.Body
	case errors.Is(err, credhelper.ErrCancelled):
		return "User cancelled"
	case errors.Is(err, credhelper.ErrNoAuthProviders):
		return "No auth providers found"
	case errors.Is(err, credhelper.ErrInvalidSelection):
		return "Invalid selection"
	default:
		return err.Error()
	}
}

//file: internal/app/setup.go

package app

import (
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"obot-cred/internal/credhelper"
	"obot-cred/internal/logger"
	"obot-cred/internal/metrics"
	"obot-cred/internal/obot"
	"obot-cred/internal/prompt"
)

// setupLogger initializes the application logger
func (a *App) setupLogger() error {
	if a.logger != nil {
		return nil
	}
	var err error
	a.logger, err = logger.NewLogger(&a.config.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// setupMetrics creates the registry when a textfile is configured. Without
// one nothing would ever read the collectors.
func (a *App) setupMetrics() error {
	if a.config.Metrics.Textfile == "" {
		a.logger.Debug("metrics disabled")
		return nil
	}

	var err error
	a.metrics, err = metrics.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("failed to create metrics service: %w", err)
	}

	a.logger.Debug("metrics initialized", "textfile", a.config.Metrics.Textfile)
	return nil
}

// setupClient creates the Obot API client
func (a *App) setupClient() {
	httpClient := &http.Client{Timeout: a.config.Server.RequestTimeout}
	a.client = obot.NewClient(a.config.Server.URL, httpClient, a.logger, a.metrics)
}

// setupPrompter picks the prompt and browser implementations from config
// unless they were supplied as options.
func (a *App) setupPrompter() error {
	if a.prompter == nil {
		if len(a.config.Prompt.Command) > 0 {
			p, err := prompt.NewCommandPrompter(a.config.Prompt.Command, a.logger)
			if err != nil {
				return err
			}
			a.prompter = p
			a.logger.Debug("using prompt command", "command", a.config.Prompt.Command[0])
		} else {
			a.prompter = prompt.NewTerminalPrompter()
		}
	}

	if a.opener == nil {
		if a.config.Browser.Disabled {
			a.opener = prompt.NewManualOpener()
		} else {
			a.opener = prompt.NewSystemOpener()
		}
	}
	return nil
}

// setupHelper wires the credential flow
func (a *App) setupHelper() {
	if a.clock == nil {
		a.clock = clockwork.NewRealClock()
	}
	a.helper = credhelper.NewHelper(a.client, a.prompter, a.opener, credhelper.Options{
		ExistingCredential: a.config.Credential.Existing,
		PollInterval:       a.config.Poll.Interval,
		Clock:              a.clock,
	}, a.logger, a.metrics)
}

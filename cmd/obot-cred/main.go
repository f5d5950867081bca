// file: cmd/obot-cred/main.go

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"obot-cred/config"
	"obot-cred/internal/app"
	"obot-cred/internal/lifecycle"
)

// flags holds command line overrides. Zero values leave config untouched.
type flags struct {
	configPath      string
	serverURL       string
	requestTimeout  time.Duration
	pollInterval    time.Duration
	promptCommand   []string
	noBrowser       bool
	logLevel        string
	metricsTextfile string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		// The diagnostic is already on stdout for the host to read
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:   "obot-cred",
		Short: "Credential helper that obtains an Obot API key.",
		Long: `obot-cred returns a short-lived Obot API key on stdout as one line of JSON.
It refreshes the credential stored in GPTSCRIPT_EXISTING_CREDENTIAL when it can,
and otherwise asks the user to pick an auth provider and log in through the browser.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f, out)
		},
	}

	bindFlags(rootCmd.Flags(), f)

	return rootCmd
}

func bindFlags(fs *pflag.FlagSet, f *flags) {
	fs.StringVar(&f.configPath, "config", "", "path to config file (YAML or JSON)")
	fs.StringVar(&f.serverURL, "url", "", "override Obot server URL (empty = use OBOT_URL or config)")
	fs.DurationVar(&f.requestTimeout, "request-timeout", 0, "override per-request timeout (0 = use config)")
	fs.DurationVar(&f.pollInterval, "poll-interval", 0, "override token poll interval (0 = use config)")
	fs.StringSliceVar(&f.promptCommand, "prompt-command", nil, "program answering prompts as JSON (comma separated argv)")
	fs.BoolVar(&f.noBrowser, "no-browser", false, "print the login URL instead of opening a browser")
	fs.StringVar(&f.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	fs.StringVar(&f.metricsTextfile, "metrics-textfile", "", "write prometheus metrics to this file on exit")
}

func run(ctx context.Context, f *flags, out io.Writer) error {
	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Fprintln(out, err)
		return err
	}

	application, err := app.NewApp(cfg, out)
	if err != nil {
		fmt.Fprintln(out, err)
		return err
	}

	return lifecycle.Run(ctx, application, application.Logger())
}

// loadConfig loads the config file and environment, then applies flags
func loadConfig(f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ApplyOverrides(
		f.serverURL,
		f.requestTimeout,
		f.pollInterval,
		f.promptCommand,
		f.noBrowser,
		f.logLevel,
		f.metricsTextfile,
	); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

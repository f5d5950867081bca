// file: internal/lifecycle/lifecycle.go

package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"obot-cred/internal/logger"
)

// Run runs application until it returns, cancelling its context on
// SIGINT or SIGTERM. The application is always closed afterwards and
// the error from Run is returned unchanged.
//
// Example usage:
//
//	application, err := app.NewApp(cfg, os.Stdout)
//	if err != nil {
//	    return err
//	}
//	err = lifecycle.Run(context.Background(), application, log)
func Run(parent context.Context, application Application, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Run(ctx)
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
		log.Info("shutdown signal received - waiting for application to stop")
		runErr = <-errCh
	}

	if runErr != nil {
		log.Debug("application stopped with error",
			"error", runErr,
			"duration", time.Since(start))
	} else {
		log.Debug("application finished", "duration", time.Since(start))
	}

	closeStart := time.Now()
	if closeErr := application.Close(); closeErr != nil {
		log.Error("error during application close",
			"error", closeErr,
			"duration", time.Since(closeStart))
	}

	return runErr
}

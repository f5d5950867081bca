// file: internal/lifecycle/application.go

// Package lifecycle runs an application until it finishes or the process
// is interrupted, then releases its resources.
package lifecycle

import "context"

// Application is a single run of the credential helper
type Application interface {
	// Run does the work and returns when it is finished or ctx is
	// cancelled. An interrupted run reports the cancellation as its error.
	Run(ctx context.Context) error

	// Close releases resources and flushes logs and metrics. It is called
	// exactly once after Run returns.
	Close() error
}

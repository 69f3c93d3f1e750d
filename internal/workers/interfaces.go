// Package workers runs the background jobs of the server next to its
// transports. Every worker blocks in Run until its context is cancelled.
package workers

import "context"

// Worker is a long-running background job. Run returns nil once ctx is
// cancelled and an error only when the worker cannot keep going.
type Worker interface {
	Run(ctx context.Context) error
}

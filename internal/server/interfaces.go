package server

import "context"

// Server defines the lifecycle contract of the application server.
//
// RunServer blocks until a termination signal arrives or the listener
// fails, then shuts everything down. Shutdown may also be called directly.
type Server interface {
	RunServer()
	Shutdown()
}

// backgroundRunner is satisfied by the worker set.
type backgroundRunner interface {
	Run(ctx context.Context) error
}

// sessionsTeardown is satisfied by the lifecycle manager.
type sessionsTeardown interface {
	Shutdown(ctx context.Context) error
}

// waiter is satisfied by the transport handlers.
type waiter interface {
	Wait()
}

// Package server wires and runs the application's HTTP server and
// background workers.
//
// It owns startup, signal handling and the graceful shutdown order. Intake
// stops first (listener, then workers), in-flight restores are awaited,
// client sessions are torn down and the storages are closed last.
package server

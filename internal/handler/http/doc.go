// Package http implements the HTTP transport layer of the application.
//
// It exposes route wiring, request handlers, and middleware used by the REST
// API: session restores from uploads and links, the send-message command,
// status and history reads, and the server-sent event stream that carries
// log lines and session reports to the observer of a slot. Cross-cutting
// concerns such as request tracing, access logging, gzip and slot resolution are
// handled in this package before requests are delegated to the service layer.
package http

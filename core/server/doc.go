// Package server holds the HTTP server configuration.
//
// The serve command exposes the record store of one volume over HTTP. This
// package defines the listen port, the API key protecting every route and the
// graceful shutdown timeout.
package server

// Package luigisbox is a client for the Luigi's Box content synchronisation
// API. A Client signs each request with the HMAC scheme from package signing,
// enforces the per-operation batch limits before anything leaves the process
// and turns the JSON responses into OperationResult and JobStatus values.
//
// Per-item rejections are data: they are reported in OperationResult.Errors
// and JobStatus.Errors, never as a Go error. Go errors are reserved for
// oversized or invalid batches (TooManyItemsError, ValidationError), failed
// round trips (TransportError) and unusable responses (ProtocolError).
//
// NewFromEnv mirrors LUIGISBOX_RUNTIME_MODE: when no endpoint is configured
// the client talks to an in-process mock (see package mock).
package luigisbox

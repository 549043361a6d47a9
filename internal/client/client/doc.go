// Package client talks to the remote store.
//
// # Overview
//
// Client is the transport-agnostic contract used by the sync engine and the
// session services. GRPCClient implements it over the syncrpc service:
//  1. an interceptor attaches the access token and refreshes it, either when
//     the cached token has already expired or when the server answers with
//     "token expired";
//  2. every call runs under its own timeout and is retried with exponential
//     backoff while the server is unavailable;
//  3. gRPC status codes are mapped to sentinel errors.
//
// # Error Handling
//
// Callers match ErrUnavailable, ErrUnauthorized and ErrLocalDataNotAvailable
// with errors.Is. NotFound, AlreadyExists and InvalidArgument map to the
// corresponding common sentinels.
package client

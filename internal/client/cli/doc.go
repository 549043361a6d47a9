// Package cli provides the interactive POS client.
//
// It wires configuration, the local store, the server connection and the
// sync engine behind a small REPL. The cashier signs in (online, or offline
// from the cached verifier), a background watcher tracks connectivity and
// runs a full sync when the device comes back online with pending changes.
//
// Commands:
//   - register / login / logout (logout pushes pending changes first)
//   - status / pending
//   - backup / restore / sync [--initial]
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli

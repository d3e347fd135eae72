// Package session provides conversation session persistence.
//
// A Session carries the per-conversation state the agents read and
// write: authentication flag, message counter, last account checked,
// and transfer history. Sessions are keyed by (app, user, session) and
// survive across turns; how long they survive depends on the backend.
//
// Three backends implement the Service interface:
//
//   - Memory: process-local map with a TTL janitor. Default backend,
//     sessions are lost on restart.
//   - SQLite: single-file database, sessions survive restarts.
//   - Redis: shared store with server-side TTL, for multi-instance
//     deployments.
//
// Backend selection happens in the app package from configuration.
// All backends serialize state as JSON, so values read back from a
// persistent backend follow JSON typing (numbers are float64). The
// typed accessors on Session normalize this for callers.
package session

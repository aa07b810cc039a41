// Package history provides HistoryStore implementations: a volatile
// in-memory store suited for tests and ephemeral flows, and a durable
// SQLite-backed store for conversations that must survive restarts.
package history

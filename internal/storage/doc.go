// Package storage provides the local key-value persistence the client
// survives restarts with: the pending write queue, cached reads, the
// auth session, settings, and the last-used player combo all live
// behind the KV interface. Production uses SQLite; tests inject an
// in-memory fake.
package storage

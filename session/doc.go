// Package session captures and restores conversation state: the channel
// transcript plus each participant's identity and memory. The Store
// interface abstracts persistence; InMemoryStore serves tests and ephemeral
// runs, FileStore writes JSON snapshots to a directory.
//
// Add additional backends (Redis, Postgres, object storage) as new Store
// implementations without changing calling code.
package session

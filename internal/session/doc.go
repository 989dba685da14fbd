// Package session persists the client's session between runs.
//
// A Store is a small string key-value store. MemoryStore keeps values for the
// life of the process; SQLiteStore keeps them in a local SQLite file.
// Tokens layers the auth token keys on top of any Store and implements both
// api.Credentials and connection.TokenSource.
package session

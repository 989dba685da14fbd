// Package database builds the PostgreSQL connection pool used by the realtime
// feed. The feed holds one pooled connection for LISTEN; the rest of the pool
// is free for ad-hoc queries.
package database

// Package realtime follows row changes for the signed-in user through
// PostgreSQL LISTEN/NOTIFY and turns them into the same events the socket
// delivers.
//
// The database publishes one notification per changed row on the channels
// users_<id>, transactions_<id> and achievements_<id>, with a JSON payload:
//
//	{"type":"UPDATE","table":"users","record":{...}}
//
// Feed keeps one pooled connection listening on those channels. Notifications
// are queued, translated and delivered on a separate goroutine so slow
// listeners never stall the database connection. After every (re)subscribe
// the optional Hydrator reloads whatever may have changed while unsubscribed.
package realtime

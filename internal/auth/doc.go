// Package auth manages the user's session: it turns host init-data into a
// server session, persists the tokens, and keeps the store.Auth container in
// step with both.
package auth

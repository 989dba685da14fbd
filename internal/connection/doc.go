// Package connection implements the event socket.
//
// The Socket:
//   - Owns at most one live WebSocket connection at a time
//   - Reconnects with capped exponential backoff and gives up after a
//     configured number of attempts, dispatching connection:failed
//   - Logs the session out when the server rejects its credentials
//   - Decodes inbound frames and fans them out to registered listeners
package connection

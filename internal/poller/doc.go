// Package poller reconciles the client containers with the REST API.
//
// Socket and realtime events keep the containers current while they flow;
// the poller is the backstop for anything missed while disconnected:
//   - polls balance, recent transactions, withdrawals and referral stats
//   - fans the requests of one cycle out concurrently
//   - unlocks referral achievements the new stats qualify for and reports
//     them to the server
//   - skips cycles while signed out
package poller

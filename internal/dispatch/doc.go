// Package dispatch binds socket events to the client state containers.
//
// A Dispatcher subscribes one handler per known event tag on Setup and removes
// exactly those subscriptions on Teardown. Every handler translates one event
// into setter calls on one or more containers in internal/store.
package dispatch

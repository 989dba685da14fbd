// Package events defines the server event vocabulary and the listener registry.
//
// Inbound frames are decoded into one concrete type per tag (UserUpdate,
// CoinsUpdate, ...) and validated before any listener sees them. The Registry
// fans an event out to every handler subscribed to its tag.
package events

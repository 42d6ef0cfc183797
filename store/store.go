// Package store provides the identity to payload association layer: a
// bidirectional mapping from entry identifier to a lightweight record
// bundling identifier, cached geometry and optional payload.
//
// The geometry kept here is a copy, not the engine's copy; it lets delete and
// update paths avoid a query round-trip. Payloads are opaque to the index
// engine. The reverse lookup is keyed by Go equality on the payload type:
// with pointer payload types this is reference identity, so two distinct
// equal-valued payloads inserted separately remain distinguishable.
package store

import "iter"

// Item is an association record: identifier, cached geometry and optional
// payload.
type Item[G any, T comparable] struct {
	ID     uint64
	Geom   G
	Obj    T
	HasObj bool
}

// Store maps identifiers to association records with a reverse lookup from
// payload to identifiers. Multiple identifiers may share one payload
// reference. Implementations are not safe for concurrent mutation.
type Store[G any, T comparable] interface {
	// Add inserts or replaces the record for its identifier, keeping the
	// reverse index consistent.
	Add(item Item[G, T])

	// Pop removes and returns the record for id.
	Pop(id uint64) (Item[G, T], bool)

	// ByID returns the record for id.
	ByID(id uint64) (Item[G, T], bool)

	// ByObject returns the record with the lowest identifier holding this
	// exact payload reference.
	ByObject(obj T) (Item[G, T], bool)

	// IDsForObject returns all identifiers holding this payload reference,
	// sorted ascending.
	IDsForObject(obj T) []uint64

	// Len returns the number of live records.
	Len() int

	// Clear empties both directions of the mapping.
	Clear()

	// Items yields all live records. Order is unspecified but stable for the
	// lifetime of a single call.
	Items() iter.Seq[Item[G, T]]
}

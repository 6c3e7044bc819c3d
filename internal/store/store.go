// Package store defines the session persistence contract the engine
// relies on: read a full snapshot, apply a mutation atomically under
// optimistic concurrency, and subscribe to change notifications. Any
// backend offering those three primitives can hold a game; the in-memory
// implementation in this package is the reference.
package store

import (
	"context"
	"errors"

	"github.com/Seednode/killchain/internal/game"
)

// Common store failures. ErrConflict means an optimistic commit lost a
// race even after retrying and the caller should re-read and re-apply.
// ErrUnavailable is a transport-level failure and is never conflated
// with a business error like an unknown session.
var (
	ErrNotFound    = errors.New("session not found")
	ErrExists      = errors.New("session already exists")
	ErrConflict    = errors.New("session was modified concurrently")
	ErrUnavailable = errors.New("session store unavailable")
)

// Snapshot pairs a session state with the store version that produced
// it. Receivers must treat the session as read-only: the same snapshot
// may be shared between subscribers and delivered more than once.
type Snapshot struct {
	Session *game.Session
	Version uint64
}

// Store is the realtime session backend.
//
// Update is the concurrency discipline from the design: the store hands
// fn a private clone of the current session, and commits the clone only
// if no other writer got there first, retrying a bounded number of
// times before giving up with ErrConflict. An error from fn aborts the
// update with no visible state change.
type Store interface {
	Create(ctx context.Context, session *game.Session) error
	Load(ctx context.Context, code string) (Snapshot, error)
	Update(ctx context.Context, code string, fn func(*game.Session) error) (Snapshot, error)
	Watch(ctx context.Context, code string) (<-chan Snapshot, func(), error)
	Delete(ctx context.Context, code string) error
}

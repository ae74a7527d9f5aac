// Package common defines shared sentinel errors used across the gateway
// layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Sync-level errors (flow control, never sent over the air).
	ErrPeerUnknown  = errors.New("peer unknown")
	ErrPeerDisabled = errors.New("peer sync disabled")

	// Transport-level errors.
	ErrNotConnected = errors.New("transport not connected")
)

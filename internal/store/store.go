// Package store provides read-only access to the realtime database the stick
// reports into. Every driver exposes the same slash-separated tree paths
// (`system/status`, `events/rf`, ...) and returns the raw JSON found there.
package store

import (
	"context"
	"errors"
	"strings"
)

// Store reads one JSON subtree. A path that does not exist yields nil (or the
// literal `null`), never an error; errors mean the store itself could not be
// reached.
type Store interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// ErrNotConnected is returned by drivers that hold a live connection when the
// connection is currently down.
var ErrNotConnected = errors.New("store: not connected")

// IsEmpty reports whether raw encodes "nothing here".
func IsEmpty(raw []byte) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

func normalizePath(p string) string {
	return strings.Trim(strings.TrimSpace(p), "/")
}

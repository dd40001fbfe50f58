// Package sessions keeps edit-session state between requests. Sessions are
// stored as opaque JSON documents keyed by kind and id, with a sliding TTL.
package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// Store persists serialized sessions. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, kind, id string) ([]byte, error)
	Put(ctx context.Context, kind, id string, data []byte) error
	Delete(ctx context.Context, kind, id string) error
}

// Record is the stored form of a builder session: the session itself plus
// the coach that owns it and the client the plan is written for.
type Record[S any] struct {
	Owner    string     `json:"owner"`
	ClientID *uuid.UUID `json:"client_id,omitempty"`
	Session  *S         `json:"session"`
}

func key(kind, id string) string {
	return kind + "::" + id
}

// Load reads and decodes a session document.
func Load[T any](ctx context.Context, store Store, kind, id string) (*T, error) {
	raw, err := store.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s session: %w", kind, err)
	}
	return &v, nil
}

// Save encodes and stores a session document, refreshing its TTL.
func Save[T any](ctx context.Context, store Store, kind, id string, v *T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s session: %w", kind, err)
	}
	return store.Put(ctx, kind, id, raw)
}

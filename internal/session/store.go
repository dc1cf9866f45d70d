package session

import (
	"context"
	"encoding/json"
	"errors"
)

// Store persists session value bags keyed by session id.
type Store interface {
	Load(ctx context.Context, id string) (map[string]json.RawMessage, error)
	Save(ctx context.Context, id string, values map[string]json.RawMessage) error
	Delete(ctx context.Context, id string) error
}

// ErrSessionNotFound covers absent and unreadable session records alike;
// the caller starts over with an empty session in both cases.
var ErrSessionNotFound = errors.New("session not found")

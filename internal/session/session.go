package session

import (
	"encoding/json"
)

// Session is the per-visitor value bag loaded by the middleware. Values are
// kept as raw JSON so unrelated keys survive a round trip untouched. The
// dirty flag decides whether the middleware writes the session back.
type Session struct {
	ID       string
	values   map[string]json.RawMessage
	modified bool
}

func New(id string, values map[string]json.RawMessage) *Session {
	if values == nil {
		values = make(map[string]json.RawMessage)
	}
	return &Session{ID: id, values: values}
}

// Get unmarshals the value under key into dest. Returns false when the key
// is absent or holds data that does not unmarshal; callers treat both as
// "not set".
func (s *Session) Get(key string, dest any) bool {
	raw, ok := s.values[key]
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	return true
}

func (s *Session) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.values[key] = raw
	s.modified = true
	return nil
}

func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.modified = true
	}
}

func (s *Session) MarkModified() {
	s.modified = true
}

func (s *Session) Modified() bool {
	return s.modified
}

func (s *Session) Values() map[string]json.RawMessage {
	return s.values
}

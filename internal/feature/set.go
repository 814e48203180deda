package feature

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// #region set

// Set is an ordered mapping from feature name to a scalar or short vector
// value. Insertion order is the canonical per-domain key order and is
// preserved through cloning and JSON round-trips.
type Set struct {
	keys    []string
	scalars map[string]float64
	vectors map[string][]float64
	errMsg  string
}

// NewSet returns an empty feature set.
func NewSet() *Set {
	return &Set{
		scalars: make(map[string]float64),
		vectors: make(map[string][]float64),
	}
}

// ErrorSet returns the single-key error set produced when extraction fails.
// Callers substitute a fixed-length zero vector when assembling model input.
func ErrorSet(err error) *Set {
	s := NewSet()
	s.keys = append(s.keys, "error")
	s.scalars["error"] = 1
	s.errMsg = err.Error()
	return s
}

// #endregion set

// #region accessors

// Put sets a scalar value, appending the key on first insert.
func (s *Set) Put(name string, v float64) {
	if _, okS := s.scalars[name]; !okS {
		if _, okV := s.vectors[name]; !okV {
			s.keys = append(s.keys, name)
		}
	}
	delete(s.vectors, name)
	s.scalars[name] = v
}

// PutVec sets a vector value, appending the key on first insert.
// The slice is copied.
func (s *Set) PutVec(name string, v []float64) {
	if _, okS := s.scalars[name]; !okS {
		if _, okV := s.vectors[name]; !okV {
			s.keys = append(s.keys, name)
		}
	}
	delete(s.scalars, name)
	s.vectors[name] = append([]float64(nil), v...)
}

// Get returns a scalar value and whether it was present.
func (s *Set) Get(name string) (float64, bool) {
	v, ok := s.scalars[name]
	return v, ok
}

// GetOr returns a scalar value, or def when the key is absent.
// Every downstream lookup goes through this so missing keys never fault.
func (s *Set) GetOr(name string, def float64) float64 {
	if v, ok := s.scalars[name]; ok {
		return v
	}
	return def
}

// Vec returns a vector value, or nil when absent. The returned slice is
// a copy.
func (s *Set) Vec(name string) []float64 {
	v, ok := s.vectors[name]
	if !ok {
		return nil
	}
	return append([]float64(nil), v...)
}

// Has reports whether the key is present as either a scalar or a vector.
func (s *Set) Has(name string) bool {
	if _, ok := s.scalars[name]; ok {
		return true
	}
	_, ok := s.vectors[name]
	return ok
}

// Keys returns the feature names in insertion order.
func (s *Set) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Len returns the number of keys.
func (s *Set) Len() int {
	return len(s.keys)
}

// IsError reports whether this is an error-tagged set.
func (s *Set) IsError() bool {
	_, ok := s.scalars["error"]
	return ok && len(s.keys) == 1
}

// ErrorMessage returns the extraction failure message for error-tagged sets.
func (s *Set) ErrorMessage() string {
	return s.errMsg
}

// #endregion accessors

// #region clone

// Clone returns a deep copy. Classification and feedback augment copies;
// the extracted set itself is never mutated downstream.
func (s *Set) Clone() *Set {
	c := NewSet()
	c.keys = append(c.keys, s.keys...)
	for k, v := range s.scalars {
		c.scalars[k] = v
	}
	for k, v := range s.vectors {
		c.vectors[k] = append([]float64(nil), v...)
	}
	c.errMsg = s.errMsg
	return c
}

// #endregion clone

// #region json

// MarshalJSON encodes the set as a JSON object with keys in insertion order.
func (s *Set) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		var vb []byte
		if v, ok := s.scalars[k]; ok {
			vb, err = json.Marshal(v)
		} else {
			vb, err = json.Marshal(s.vectors[k])
		}
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving key order from the stream.
func (s *Set) UnmarshalJSON(data []byte) error {
	*s = *NewSet()
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("feature set: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("feature set: expected object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("feature set key: %w", err)
		}
		key := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("feature set value %q: %w", key, err)
		}
		var scalar float64
		if err := json.Unmarshal(raw, &scalar); err == nil {
			s.Put(key, scalar)
			continue
		}
		var vec []float64
		if err := json.Unmarshal(raw, &vec); err == nil {
			s.PutVec(key, vec)
			continue
		}
		return fmt.Errorf("feature set value %q: not numeric", key)
	}
	return nil
}

// #endregion json

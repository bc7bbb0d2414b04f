package state

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Snapshot is the serializable form of an ObjectState. Slot arrays keep their
// trimmed length so a decoded state reproduces the same block layout.
type Snapshot struct {
	Ints     []int       `yaml:"ints,omitempty"`
	Bools    []bool      `yaml:"bools,omitempty"`
	Floats   []float64   `yaml:"floats,omitempty"`
	Strings  []string    `yaml:"strings,omitempty"`
	Bytes    [][]byte    `yaml:"bytes,omitempty"`
	Children []*Snapshot `yaml:"children,omitempty"`
}

// Snapshot copies the state tree. Nested children are copied recursively.
func (s *ObjectState) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := &Snapshot{
		Ints:    append([]int(nil), s.ints...),
		Bools:   append([]bool(nil), s.bools...),
		Floats:  append([]float64(nil), s.floats...),
		Strings: append([]string(nil), s.strs...),
	}
	if s.blobs != nil {
		snap.Bytes = make([][]byte, len(s.blobs))
		for i, b := range s.blobs {
			snap.Bytes[i] = append([]byte(nil), b...)
		}
	}
	if s.children != nil {
		snap.Children = make([]*Snapshot, len(s.children))
		for i, c := range s.children {
			if c != nil {
				snap.Children[i] = c.Snapshot()
			}
		}
	}
	return snap
}

// FromSnapshot rebuilds a state tree. A nil snapshot yields an empty state.
func FromSnapshot(snap *Snapshot) *ObjectState {
	s := New()
	if snap == nil {
		return s
	}
	s.ints = nilIfEmpty(append([]int(nil), snap.Ints...))
	s.bools = nilIfEmpty(append([]bool(nil), snap.Bools...))
	s.floats = nilIfEmpty(append([]float64(nil), snap.Floats...))
	s.strs = nilIfEmpty(append([]string(nil), snap.Strings...))
	if len(snap.Bytes) > 0 {
		s.blobs = make([][]byte, len(snap.Bytes))
		for i, b := range snap.Bytes {
			if len(b) > 0 {
				s.blobs[i] = append([]byte(nil), b...)
			}
		}
	}
	if len(snap.Children) > 0 {
		s.children = make([]*ObjectState, len(snap.Children))
		for i, c := range snap.Children {
			if c != nil {
				s.children[i] = FromSnapshot(c)
			}
		}
	}
	return s
}

func nilIfEmpty[T any](a []T) []T {
	if len(a) == 0 {
		return nil
	}
	return a
}

// States maps entity ids to their persisted state.
type States map[int]*ObjectState

// Marshal encodes the states as YAML keyed by entity id.
func Marshal(states States) ([]byte, error) {
	out := make(map[int]*Snapshot, len(states))
	for id, st := range states {
		if st == nil {
			continue
		}
		out[id] = st.Snapshot()
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal states: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a payload written by Marshal. Empty input yields an empty map.
func Unmarshal(data []byte) (States, error) {
	raw := make(map[int]*Snapshot)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal states: %w", err)
	}
	states := make(States, len(raw))
	for id, snap := range raw {
		states[id] = FromSnapshot(snap)
	}
	return states, nil
}

// MarshalSnapshot encodes a single state.
func MarshalSnapshot(s *ObjectState) ([]byte, error) {
	data, err := yaml.Marshal(s.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes a single state written by MarshalSnapshot.
func UnmarshalSnapshot(data []byte) (*ObjectState, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return FromSnapshot(&snap), nil
}

package state

import (
	"bytes"
	"sync"
)

// blockShift sizes every slot array in blocks of 8.
const blockShift = 3

// ObjectState is a sparse, typed slot container used to persist arbitrary
// per-entity state. Each value type has its own slot array indexed by small
// integers. Arrays grow to the smallest multiple of 8 that fits the written
// index and shrink again when trailing slots return to their default value.
//
// All methods lock a single mutex. CompareAndSwap is a convenience built on
// that lock, not a lock-free primitive.
type ObjectState struct {
	mu sync.Mutex

	ints     []int
	bools    []bool
	floats   []float64
	strs     []string
	blobs    [][]byte
	children []*ObjectState

	changeCount int
}

func New() *ObjectState { return &ObjectState{} }

// blockLen returns the smallest multiple of 8 holding n slots.
func blockLen(n int) int {
	return ((n + (1 << blockShift) - 1) >> blockShift) << blockShift
}

// put writes v at index i following the grow/trim policy and returns the
// (possibly reallocated) array. The second result is false when the write
// was dropped because the array is nil and v is a default value.
func put[T any](arr []T, i int, v T, isZero func(T) bool) ([]T, bool) {
	zero := isZero(v)
	if arr == nil {
		if zero {
			return nil, false
		}
		arr = make([]T, blockLen(i+1))
	}
	n := len(arr)
	if i < n {
		arr[i] = v
		if zero && i >= n-(1<<blockShift) {
			used := n
			for used > 0 && isZero(arr[used-1]) {
				used--
			}
			if newLen := blockLen(used); newLen < n {
				if newLen == 0 {
					return nil, true
				}
				shrunk := make([]T, newLen)
				copy(shrunk, arr)
				return shrunk, true
			}
		}
		return arr, true
	}
	if !zero {
		grown := make([]T, blockLen(i+1))
		copy(grown, arr)
		grown[i] = v
		return grown, true
	}
	return arr, true
}

func get[T any](arr []T, i int) T {
	var zero T
	if i < 0 || i >= len(arr) {
		return zero
	}
	return arr[i]
}

func intZero(v int) bool            { return v == 0 }
func boolZero(v bool) bool          { return !v }
func floatZero(v float64) bool      { return v == 0 }
func strZero(v string) bool         { return v == "" }
func blobZero(v []byte) bool        { return len(v) == 0 }
func childZero(v *ObjectState) bool { return v == nil }

// ChangeCount increments on every mutating call. Compare it with a previous
// value to find out whether anything changed since the last save.
func (s *ObjectState) ChangeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changeCount
}

func (s *ObjectState) Int(i int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.ints, i)
}

func (s *ObjectState) SetInt(i int, v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setInt(i, v)
}

func (s *ObjectState) setInt(i int, v int) {
	if i < 0 {
		return
	}
	var ok bool
	if s.ints, ok = put(s.ints, i, v, intZero); ok {
		s.changeCount++
	}
}

// CompareAndSwapInt stores v if the slot holds expected. It returns the value
// the slot held before the call.
func (s *ObjectState) CompareAndSwapInt(i int, expected, v int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := get(s.ints, i)
	if old == expected {
		s.setInt(i, v)
	}
	return old
}

func (s *ObjectState) Bool(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.bools, i)
}

func (s *ObjectState) SetBool(i int, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setBool(i, v)
}

func (s *ObjectState) setBool(i int, v bool) {
	if i < 0 {
		return
	}
	var ok bool
	if s.bools, ok = put(s.bools, i, v, boolZero); ok {
		s.changeCount++
	}
}

func (s *ObjectState) CompareAndSwapBool(i int, expected, v bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := get(s.bools, i)
	if old == expected {
		s.setBool(i, v)
	}
	return old
}

func (s *ObjectState) Float(i int) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.floats, i)
}

func (s *ObjectState) SetFloat(i int, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setFloat(i, v)
}

func (s *ObjectState) setFloat(i int, v float64) {
	if i < 0 {
		return
	}
	var ok bool
	if s.floats, ok = put(s.floats, i, v, floatZero); ok {
		s.changeCount++
	}
}

func (s *ObjectState) CompareAndSwapFloat(i int, expected, v float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := get(s.floats, i)
	if old == expected {
		s.setFloat(i, v)
	}
	return old
}

func (s *ObjectState) String(i int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.strs, i)
}

func (s *ObjectState) SetString(i int, v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setString(i, v)
}

func (s *ObjectState) setString(i int, v string) {
	if i < 0 {
		return
	}
	var ok bool
	if s.strs, ok = put(s.strs, i, v, strZero); ok {
		s.changeCount++
	}
}

func (s *ObjectState) CompareAndSwapString(i int, expected, v string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := get(s.strs, i)
	if old == expected {
		s.setString(i, v)
	}
	return old
}

// Bytes returns the stored blob. The slice is shared with the container.
func (s *ObjectState) Bytes(i int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.blobs, i)
}

func (s *ObjectState) SetBytes(i int, v []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setBytes(i, v)
}

func (s *ObjectState) setBytes(i int, v []byte) {
	if i < 0 {
		return
	}
	var ok bool
	if s.blobs, ok = put(s.blobs, i, v, blobZero); ok {
		s.changeCount++
	}
}

func (s *ObjectState) CompareAndSwapBytes(i int, expected, v []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := get(s.blobs, i)
	if bytes.Equal(old, expected) {
		s.setBytes(i, v)
	}
	return old
}

// Child returns the nested state at index i. A missing child yields a new
// empty state that is not stored; use SetChild to attach it.
func (s *ObjectState) Child(i int) *ObjectState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := get(s.children, i); c != nil {
		return c
	}
	return New()
}

// HasChild reports whether a child is stored at index i.
func (s *ObjectState) HasChild(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.children, i) != nil
}

func (s *ObjectState) SetChild(i int, c *ObjectState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setChild(i, c)
}

func (s *ObjectState) setChild(i int, c *ObjectState) {
	if i < 0 {
		return
	}
	var ok bool
	if s.children, ok = put(s.children, i, c, childZero); ok {
		s.changeCount++
	}
}

func (s *ObjectState) CompareAndSwapChild(i int, expected, c *ObjectState) *ObjectState {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := get(s.children, i)
	if old == expected {
		s.setChild(i, c)
	}
	return old
}

// Cap reports the allocated slot count per value kind. Used by tests and
// diagnostics to observe the block policy.
type Cap struct {
	Ints, Bools, Floats, Strings, Bytes, Children int
}

func (s *ObjectState) Cap() Cap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Cap{
		Ints:     len(s.ints),
		Bools:    len(s.bools),
		Floats:   len(s.floats),
		Strings:  len(s.strs),
		Bytes:    len(s.blobs),
		Children: len(s.children),
	}
}

// Empty reports whether no slot holds a non-default value.
func (s *ObjectState) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ints == nil && s.bools == nil && s.floats == nil &&
		s.strs == nil && s.blobs == nil && s.children == nil
}

package session

import (
	"errors"
	"fmt"
)

// Handle errors.
var (
	// ErrInvalidHandle is returned for handles that were never issued.
	ErrInvalidHandle = errors.New("invalid handle")
	// ErrStaleHandle is returned for handles whose slot has been released.
	ErrStaleHandle = errors.New("stale handle")
)

// Handle is the integer a script sees in place of a native object.
// The high 32 bits hold the slot generation, the low 32 bits the slot
// index plus one, so 0 is never a valid handle.
type Handle int64

func makeHandle(index int, generation uint32) Handle {
	return Handle(int64(generation)<<32 | int64(index+1))
}

func (h Handle) index() int {
	return int(uint32(h)) - 1
}

func (h Handle) generation() uint32 {
	return uint32(uint64(h) >> 32)
}

type slot[T any] struct {
	value      T
	generation uint32
	live       bool
}

// HandleTable maps handles to values owned by the session.
//
// Released slots are reused with a bumped generation, so a handle kept
// across a release can never resolve to the slot's next occupant.
// HandleTable is not safe for concurrent use.
type HandleTable[T any] struct {
	kind  string
	slots []slot[T]
	free  []int
}

// NewHandleTable creates an empty table. kind names the value type in
// error messages.
func NewHandleTable[T any](kind string) *HandleTable[T] {
	return &HandleTable[T]{kind: kind}
}

// Insert stores value and returns its handle.
func (t *HandleTable[T]) Insert(value T) Handle {
	if n := len(t.free); n > 0 {
		index := t.free[n-1]
		t.free = t.free[:n-1]
		s := &t.slots[index]
		s.value = value
		s.live = true
		return makeHandle(index, s.generation)
	}

	t.slots = append(t.slots, slot[T]{value: value, generation: 1, live: true})
	return makeHandle(len(t.slots)-1, 1)
}

// Get resolves a handle.
func (t *HandleTable[T]) Get(h Handle) (T, error) {
	s, err := t.lookup(h)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.value, nil
}

// Release frees the slot behind h and returns the value it held.
func (t *HandleTable[T]) Release(h Handle) (T, error) {
	s, err := t.lookup(h)
	if err != nil {
		var zero T
		return zero, err
	}
	value := s.value
	var zero T
	s.value = zero
	s.live = false
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	t.free = append(t.free, h.index())
	return value, nil
}

// Len returns the number of live handles.
func (t *HandleTable[T]) Len() int {
	return len(t.slots) - len(t.free)
}

// Each calls fn for every live handle in slot order.
func (t *HandleTable[T]) Each(fn func(Handle, T)) {
	for i := range t.slots {
		s := &t.slots[i]
		if s.live {
			fn(makeHandle(i, s.generation), s.value)
		}
	}
}

func (t *HandleTable[T]) lookup(h Handle) (*slot[T], error) {
	index := h.index()
	if h <= 0 || index < 0 || index >= len(t.slots) {
		return nil, fmt.Errorf("%w: %s %d", ErrInvalidHandle, t.kind, int64(h))
	}
	s := &t.slots[index]
	if !s.live || s.generation != h.generation() {
		return nil, fmt.Errorf("%w: %s %d", ErrStaleHandle, t.kind, int64(h))
	}
	return s, nil
}

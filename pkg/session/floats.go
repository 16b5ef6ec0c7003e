package session

import "fmt"

// FloatBuffer is the scratch buffer scripts fill with pushFloats.
//
// Read-back hands out a handle to an immutable snapshot rather than the
// buffer's memory, and Clear invalidates every snapshot issued since the
// previous Clear, so a script cannot observe a reallocated buffer. Reading
// back unchanged contents returns the same snapshot.
type FloatBuffer struct {
	values    []float32
	snapshots *HandleTable[[]float32]
	issued    []Handle
	current   Handle // snapshot of the current contents, 0 after a change
}

// NewFloatBuffer creates an empty buffer.
func NewFloatBuffer() *FloatBuffer {
	return &FloatBuffer{
		snapshots: NewHandleTable[[]float32]("float snapshot"),
	}
}

// Push appends values.
func (b *FloatBuffer) Push(values ...float32) {
	if len(values) == 0 {
		return
	}
	b.values = append(b.values, values...)
	b.current = 0
}

// Clear empties the buffer and releases outstanding snapshots.
func (b *FloatBuffer) Clear() {
	b.values = b.values[:0]
	for _, h := range b.issued {
		_, _ = b.snapshots.Release(h)
	}
	b.issued = b.issued[:0]
	b.current = 0
}

// Len returns the number of buffered values.
func (b *FloatBuffer) Len() int {
	return len(b.values)
}

// Values returns a copy of the current contents.
func (b *FloatBuffer) Values() []float32 {
	return append([]float32(nil), b.values...)
}

// Snapshot freezes the current contents and returns a handle to them.
// Until the next Push or Clear it keeps returning the same handle.
func (b *FloatBuffer) Snapshot() Handle {
	if b.current != 0 {
		return b.current
	}
	h := b.snapshots.Insert(b.Values())
	b.issued = append(b.issued, h)
	b.current = h
	return h
}

// Snapshots returns the number of live snapshots.
func (b *FloatBuffer) Snapshots() int {
	return len(b.issued)
}

// Resolve returns the snapshot behind h.
func (b *FloatBuffer) Resolve(h Handle) ([]float32, error) {
	return b.snapshots.Get(h)
}

// ResolveBytes returns the first size bytes of the snapshot behind h as
// float values. size must be a non-negative multiple of 4 within bounds.
func (b *FloatBuffer) ResolveBytes(h Handle, size int) ([]float32, error) {
	values, err := b.Resolve(h)
	if err != nil {
		return nil, err
	}
	if size < 0 || size%4 != 0 {
		return nil, fmt.Errorf("buffer size %d is not a multiple of 4 bytes", size)
	}
	if size/4 > len(values) {
		return nil, fmt.Errorf("buffer size %d exceeds snapshot of %d bytes", size, len(values)*4)
	}
	return values[:size/4], nil
}

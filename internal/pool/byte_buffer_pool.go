package pool

import (
	"io"
	"sync"
)

const (
	// FileBufferDefaultSize is the default capacity of a buffer obtained
	// from the pool. Sized for a typical small FCS file (HEADER + TEXT +
	// a few thousand float32 events).
	FileBufferDefaultSize = 1024 * 64

	// FileBufferMaxThreshold is the largest buffer the pool retains.
	// Larger buffers are dropped so one huge acquisition file does not
	// pin memory for the rest of the process lifetime.
	FileBufferMaxThreshold = 1024 * 1024 * 8
)

// ByteBuffer is a growable byte slice used by the writer to lay out a
// whole FCS data set before flushing it to the sink in one write.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, retaining allocated memory.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Write appends the contents of data to the buffer, growing it as needed.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// WriteByte appends a single byte.
func (bb *ByteBuffer) WriteByte(c byte) error {
	bb.B = append(bb.B, c)
	return nil
}

// WriteString appends the contents of s.
func (bb *ByteBuffer) WriteString(s string) (int, error) {
	bb.B = append(bb.B, s...)
	return len(s), nil
}

// Overwrite replaces len(data) bytes at offset. The written range must lie
// within the current length; the writer uses this to back-patch offset
// placeholders after the layout pass.
func (bb *ByteBuffer) Overwrite(offset int, data []byte) {
	copy(bb.B[offset:offset+len(data)], data)
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// ByteBufferPool is a pool of ByteBuffers to minimize allocations.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool producing buffers of defaultSize and
// retaining buffers up to maxThreshold bytes of capacity.
func NewByteBufferPool(defaultSize, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get returns an empty buffer from the pool.
func (p *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := p.pool.Get().(*ByteBuffer)
	bb.Reset()

	return bb
}

// Put returns a buffer to the pool unless it grew past the retention
// threshold.
func (p *ByteBufferPool) Put(bb *ByteBuffer) {
	if cap(bb.B) > p.maxThreshold {
		return
	}
	p.pool.Put(bb)
}

// FileBufferPool is the shared pool used by the writer.
var FileBufferPool = NewByteBufferPool(FileBufferDefaultSize, FileBufferMaxThreshold)

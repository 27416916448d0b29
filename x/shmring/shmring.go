// Package shmring is a single-producer, single-consumer byte ring used to
// decouple a UART receive pump from its reader.
package shmring

import "sync/atomic"

// Ring indices grow monotonically; the mask folds them into buf.
type Ring struct {
	buf  []byte
	mask uint32
	rd   atomic.Uint32
	wr   atomic.Uint32

	dropped  atomic.Uint32
	readable chan struct{}
}

// New allocates a ring. size is rounded up to a power of two (min 2).
func New(size int) *Ring {
	n := 2
	for n < size {
		n <<= 1
	}
	return &Ring{
		buf:      make([]byte, n),
		mask:     uint32(n - 1),
		readable: make(chan struct{}, 1),
	}
}

func (r *Ring) Cap() int { return len(r.buf) }

// Len is the number of unread bytes.
func (r *Ring) Len() int { return int(r.wr.Load() - r.rd.Load()) }

// Free is the room left for the producer.
func (r *Ring) Free() int { return len(r.buf) - r.Len() }

// Dropped counts bytes refused because the ring was full.
func (r *Ring) Dropped() uint32 { return r.dropped.Load() }

// Write copies as much of p as fits. The excess is counted as dropped.
// Producer side only.
func (r *Ring) Write(p []byte) int {
	if len(p) == 0 {
		return 0
	}
	wr := r.wr.Load()
	wasEmpty := wr == r.rd.Load()
	n := r.Free()
	if n > len(p) {
		n = len(p)
	}
	if short := len(p) - n; short > 0 {
		r.dropped.Add(uint32(short))
	}
	if n == 0 {
		return 0
	}
	i := wr & r.mask
	k := copy(r.buf[i:], p[:n])
	copy(r.buf, p[k:n])
	r.wr.Store(wr + uint32(n))

	if wasEmpty {
		select {
		case r.readable <- struct{}{}:
		default:
		}
	}
	return n
}

// Read copies up to len(p) unread bytes. Consumer side only.
func (r *Ring) Read(p []byte) int {
	rd := r.rd.Load()
	n := int(r.wr.Load() - rd)
	if n > len(p) {
		n = len(p)
	}
	if n <= 0 {
		return 0
	}
	i := rd & r.mask
	k := copy(p[:n], r.buf[i:])
	copy(p[k:n], r.buf)
	r.rd.Store(rd + uint32(n))
	return n
}

// Readable is signalled when the ring goes from empty to non-empty.
func (r *Ring) Readable() <-chan struct{} { return r.readable }

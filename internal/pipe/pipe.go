// Package pipe provides an in-memory byte pipe backed by a growable ring buffer.
//
// Writes never block: when the ring is full it grows instead. Reads block until
// data arrives or the write end is closed. The read and write ends open and close
// independently, and closing either end never discards buffered bytes.
package pipe

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
)

const (
	// DefaultSize is the initial length of the ring.
	DefaultSize = 1024

	// maxSize mirrors the largest array most runtimes will allocate.
	maxSize = math.MaxInt32 - 8
)

var (
	// ErrClosed is returned when reading from a closed read end or writing to a closed write end.
	ErrClosed = errors.New("pipe: closed")

	// ErrTooLarge is returned when a write would grow the ring beyond its maximum size.
	ErrTooLarge = errors.New("pipe: maximum buffer size exceeded")
)

// Pipe is a thread-safe ring buffer with independent read and write ends.
type Pipe struct {
	mu sync.Mutex

	// wake is closed and replaced whenever readers should re-check state.
	wake chan struct{}

	// empty when read == write, full when (write+1) % len(buf) == read
	buf   []byte
	read  int
	write int

	readOpen  bool
	writeOpen bool

	// window bounds the number of unread bytes kept; zero means unbounded.
	window int

	r *Reader
	w *Writer
}

// Option configures a Pipe.
type Option func(*Pipe)

// WithWindow retains at most n unread bytes, discarding the oldest first.
// A value <= 0 disables the window.
func WithWindow(n int) Option {
	return func(p *Pipe) {
		if n > 0 {
			p.window = n
		}
	}
}

// WithSize sets the initial ring length.
func WithSize(n int) Option {
	return func(p *Pipe) {
		if n > 1 {
			p.buf = make([]byte, n)
		}
	}
}

// New creates an open pipe.
func New(opts ...Option) *Pipe {
	p := &Pipe{
		wake:      make(chan struct{}),
		readOpen:  true,
		writeOpen: true,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.buf == nil {
		p.buf = make([]byte, DefaultSize)
	}

	p.r = &Reader{p: p}
	p.w = &Writer{p: p}

	return p
}

// Reader returns the read end of the pipe.
func (p *Pipe) Reader() *Reader {
	return p.r
}

// Writer returns the write end of the pipe.
func (p *Pipe) Writer() *Writer {
	return p.w
}

// Drain returns and consumes every unread byte without blocking.
func (p *Pipe) Drain() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	data := make([]byte, p.unread())
	p.copyOut(data)
	p.broadcast()

	return data
}

// Close closes both ends of the pipe.
func (p *Pipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.readOpen = false
	p.writeOpen = false
	p.broadcast()

	return nil
}

// Cap returns the number of bytes the ring can hold without growing.
func (p *Pipe) Cap() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.buf) - 1
}

func (p *Pipe) broadcast() {
	close(p.wake)
	p.wake = make(chan struct{})
}

func (p *Pipe) unread() int {
	n := p.write - p.read
	if n < 0 {
		n += len(p.buf)
	}

	return n
}

func (p *Pipe) free() int {
	return len(p.buf) - 1 - p.unread()
}

// copyOut moves len(b) unread bytes into b and advances the read position.
func (p *Pipe) copyOut(b []byte) {
	n := copy(b, p.buf[p.read:])
	if n < len(b) {
		copy(b[n:], p.buf)
	}

	p.read = (p.read + len(b)) % len(p.buf)
}

func (p *Pipe) copyIn(b []byte) {
	n := copy(p.buf[p.write:], b)
	if n < len(b) {
		copy(p.buf, b[n:])
	}

	p.write = (p.write + len(b)) % len(p.buf)
}

func (p *Pipe) discard(n int) {
	p.read = (p.read + n) % len(p.buf)
}

func (p *Pipe) grow(needed int) error {
	length := computeResize(p.free(), needed, len(p.buf))
	if length < 0 {
		return ErrTooLarge
	}

	unread := p.unread()
	buf := make([]byte, length)
	p.copyOut(buf[:unread])

	p.buf = buf
	p.read = 0
	p.write = unread

	return nil
}

// computeResize returns the new ring length needed to fit `needed` more bytes
// when `available` bytes are free in a ring of `length`, or -1 if impossible.
// The ring doubles until the write fits.
func computeResize(available, needed, length int) int {
	var additional int64

	for i := 1; additional+int64(available) < int64(needed); i++ {
		additional = int64(length) * ((int64(1) << i) - 1)
		if int64(length)+additional >= maxSize {
			break
		}
	}

	newLength := min(int64(length)+additional, maxSize)
	if newLength-int64(length-available)-1 < int64(needed) {
		return -1
	}

	return int(newLength)
}

// Reader is the read end of a Pipe. It implements io.ReadCloser.
type Reader struct {
	p *Pipe
}

// Read blocks until data is available or the write end is closed.
func (r *Reader) Read(b []byte) (int, error) {
	return r.ReadContext(context.Background(), b)
}

// ReadContext is Read that gives up with ctx.Err() when ctx ends while waiting.
func (r *Reader) ReadContext(ctx context.Context, b []byte) (int, error) {
	p := r.p

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.readOpen {
		return 0, ErrClosed
	}

	if len(b) == 0 {
		return 0, nil
	}

	for p.unread() == 0 && p.readOpen && p.writeOpen {
		wake := p.wake

		p.mu.Unlock()
		select {
		case <-wake:
		case <-ctx.Done():
			p.mu.Lock()

			return 0, ctx.Err()
		}
		p.mu.Lock()
	}

	if !p.readOpen {
		return 0, ErrClosed
	}

	n := min(len(b), p.unread())
	if n == 0 {
		return 0, io.EOF
	}

	p.copyOut(b[:n])

	return n, nil
}

// Available returns the number of buffered bytes that can be read without blocking.
func (r *Reader) Available() int {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	return r.p.unread()
}

// ReadAvailable consumes whatever is currently buffered without blocking.
// It returns nil when the read end is closed.
func (r *Reader) ReadAvailable() []byte {
	p := r.p

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.readOpen {
		return nil
	}

	data := make([]byte, p.unread())
	p.copyOut(data)

	return data
}

// Close closes the read end. Buffered data is kept.
func (r *Reader) Close() error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	r.p.readOpen = false
	r.p.broadcast()

	return nil
}

// Writer is the write end of a Pipe. It implements io.WriteCloser.
type Writer struct {
	p *Pipe
}

// Write copies b into the pipe, growing the ring if needed. It never blocks.
func (w *Writer) Write(b []byte) (int, error) {
	p := w.p

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.writeOpen {
		return 0, ErrClosed
	}

	if len(b) == 0 {
		return 0, nil
	}

	data := b
	if p.window > 0 && len(data) > p.window {
		data = data[len(data)-p.window:]
	}

	if len(data) > p.free() {
		if p.window > 0 && len(data) < len(p.buf)-1 && len(p.buf)-1 > p.window {
			// dropping bytes outside the window makes room
			p.discard(len(data) - p.free())
		} else if err := p.grow(len(data)); err != nil {
			return 0, err
		}
	}

	p.copyIn(data)

	if p.window > 0 {
		if over := p.unread() - p.window; over > 0 {
			p.discard(over)
		}
	}

	p.broadcast()

	return len(b), nil
}

// Flush is a no-op; bytes are visible to readers as soon as Write returns.
func (w *Writer) Flush() error {
	return nil
}

// Close closes the write end. Readers drain buffered data and then see io.EOF.
func (w *Writer) Close() error {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()

	w.p.writeOpen = false
	w.p.broadcast()

	return nil
}

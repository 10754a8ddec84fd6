// Package pipe implements the bounded in-process byte pipe spec section 9
// describes: "model each stage as a task reading from a bounded byte
// channel and writing to another... back-pressure = bounded channel
// size... avoid materialising intermediate representations."
//
// The ring of pending chunks is backed by github.com/ef-ds/deque (an
// indirect dependency of the teacher's goflow requirement, promoted here
// to direct use) instead of a plain slice, since a deque gives O(1)
// push-back/pop-front without the slice-shuffling a naive queue needs.
package pipe

import (
	"fmt"
	"io"
	"sync"

	"github.com/ef-ds/deque"
)

// Pipe is a single producer / single consumer bounded byte pipe. Writes
// block while the buffered bytes meet or exceed the configured limit;
// reads block while the pipe is empty and not yet closed. Closing either
// end unblocks the other with io.ErrClosedPipe / io.EOF as appropriate,
// matching the "closing the returned stream signals downstream
// cancellation" contract in spec section 5.
type Pipe struct {
	limit int

	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	chunks   deque.Deque
	buffered int

	writeClosed bool
	writeErr    error // non-nil if the producer failed; surfaced to the reader after EOF
	readClosed  bool
}

// New returns a Pipe whose buffered byte total is capped at limit.
func New(limit int) *Pipe {
	if limit <= 0 {
		limit = 64 * 1024
	}
	p := &Pipe{limit: limit}
	p.notEmpty = sync.NewCond(&p.mu)
	p.notFull = sync.NewCond(&p.mu)
	return p
}

// Write implements io.Writer. It blocks until there's room in the pipe (or
// the read side is closed, in which case it returns io.ErrClosedPipe).
func (p *Pipe) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writeClosed {
		return 0, fmt.Errorf("pipe: write after close")
	}
	if p.readClosed {
		return 0, io.ErrClosedPipe
	}

	total := 0
	for len(b) > 0 {
		for p.buffered >= p.limit && !p.readClosed {
			p.notFull.Wait()
		}
		if p.readClosed {
			return total, io.ErrClosedPipe
		}
		// Take as much as fits, chunked, so one big write doesn't
		// starve the consumer until the whole slice is buffered.
		n := len(b)
		if room := p.limit - p.buffered; n > room {
			n = room
		}
		if n == 0 {
			continue
		}
		chunk := make([]byte, n)
		copy(chunk, b[:n])
		p.chunks.PushBack(chunk)
		p.buffered += n
		b = b[n:]
		total += n
		p.notEmpty.Signal()
	}
	return total, nil
}

// CloseWithError marks the write side done, optionally carrying an error
// the reader will see once buffered data is drained. Nothing is written
// into the pipe on failure: the reader gets the bytes produced so far,
// then err.
func (p *Pipe) CloseWithError(err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeClosed {
		return nil
	}
	p.writeClosed = true
	p.writeErr = err
	p.notEmpty.Broadcast()
	return nil
}

// Close closes the write side cleanly.
func (p *Pipe) Close() error {
	return p.CloseWithError(nil)
}

// Read implements io.Reader.
func (p *Pipe) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.chunks.Len() == 0 && !p.writeClosed {
		p.notEmpty.Wait()
	}

	if p.chunks.Len() == 0 {
		if p.writeErr != nil {
			return 0, p.writeErr
		}
		return 0, io.EOF
	}

	front, _ := p.chunks.PopFront()
	chunk := front.([]byte)
	n := copy(b, chunk)
	if n < len(chunk) {
		// Partial read: push the remainder back to the front.
		p.chunks.PushFront(chunk[n:])
	}
	p.buffered -= n
	p.notFull.Signal()
	return n, nil
}

// CloseRead signals the producer that no more data will be consumed,
// unblocking any pending Write (spec 5 cancellation: "the worker observes
// a broken pipe on next write and terminates").
func (p *Pipe) CloseRead() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readClosed = true
	p.notFull.Broadcast()
	return nil
}

package shell

import (
	"io"
	"sync"
)

// PipeBufferSize is the capacity of the buffer between pipeline
// stages. A full buffer blocks the writer, giving backpressure.
const PipeBufferSize = 64 * 1024

// NewPipe creates a bounded in-memory byte pipe. Reads block until
// data arrives or the write side closes, which yields EOF once the
// buffer drains. Closing the read side fails subsequent writes with
// io.ErrClosedPipe. Both halves are safe for concurrent use and may
// be closed more than once.
func NewPipe() (io.ReadCloser, io.WriteCloser) {
	p := &pipe{max: PipeBufferSize}
	p.cond.L = &p.mu
	return (*pipeReader)(p), (*pipeWriter)(p)
}

type pipe struct {
	mu          sync.Mutex
	cond        sync.Cond
	buf         []byte
	max         int
	writeClosed bool
	readClosed  bool
}

func (p *pipe) read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.buf) == 0 {
		if p.readClosed {
			return 0, io.ErrClosedPipe
		}
		if p.writeClosed {
			return 0, io.EOF
		}
		p.cond.Wait()
	}

	n := copy(b, p.buf)
	p.buf = p.buf[n:]
	p.cond.Broadcast()
	return n, nil
}

func (p *pipe) write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var written int
	for len(b) > 0 {
		for len(p.buf) >= p.max && !p.readClosed && !p.writeClosed {
			p.cond.Wait()
		}
		if p.readClosed || p.writeClosed {
			return written, io.ErrClosedPipe
		}

		n := p.max - len(p.buf)
		if n > len(b) {
			n = len(b)
		}
		p.buf = append(p.buf, b[:n]...)
		b = b[n:]
		written += n
		p.cond.Broadcast()
	}
	return written, nil
}

func (p *pipe) closeRead() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readClosed = true
	p.buf = nil
	p.cond.Broadcast()
	return nil
}

func (p *pipe) closeWrite() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeClosed = true
	p.cond.Broadcast()
	return nil
}

type pipeReader pipe

func (r *pipeReader) Read(b []byte) (int, error) { return (*pipe)(r).read(b) }
func (r *pipeReader) Close() error               { return (*pipe)(r).closeRead() }

type pipeWriter pipe

func (w *pipeWriter) Write(b []byte) (int, error) { return (*pipe)(w).write(b) }
func (w *pipeWriter) Close() error                { return (*pipe)(w).closeWrite() }

package vos

import (
	"io"
	"os"
)

// VIO is the set of standard streams attached to a process.
type VIO interface {
	Stdin() io.ReadCloser
	Stdout() io.WriteCloser
	Stderr() io.WriteCloser
}

// VIOAdapter glues arbitrary readers and writers into a VIO.
type VIOAdapter struct {
	IStdin  io.ReadCloser
	IStdout io.WriteCloser
	IStderr io.WriteCloser
}

// NewVIOAdapter builds a VIO from plain readers/writers, nil entries
// behave like /dev/null.
func NewVIOAdapter(stdin io.Reader, stdout, stderr io.Writer) *VIOAdapter {
	return &VIOAdapter{
		IStdin:  toReadCloserOrNull(stdin),
		IStdout: toWriteCloserOrNull(stdout),
		IStderr: toWriteCloserOrNull(stderr),
	}
}

// NewNullIO creates a /dev/null style VIO: reads fail closed and writes
// are discarded.
func NewNullIO() VIO {
	return NewVIOAdapter(nil, nil, nil)
}

var _ VIO = (*VIOAdapter)(nil)

func (a *VIOAdapter) Stdin() io.ReadCloser   { return a.IStdin }
func (a *VIOAdapter) Stdout() io.WriteCloser { return a.IStdout }
func (a *VIOAdapter) Stderr() io.WriteCloser { return a.IStderr }

func toWriteCloserOrNull(w io.Writer) io.WriteCloser {
	if w == nil {
		return &devNull{}
	}
	if wc, ok := w.(io.WriteCloser); ok {
		return wc
	}
	return nopWriteCloser{w}
}

func toReadCloserOrNull(r io.Reader) io.ReadCloser {
	if r == nil {
		return &devNull{}
	}
	if rc, ok := r.(io.ReadCloser); ok {
		return rc
	}
	return io.NopCloser(r)
}

// NopWriteCloser wraps a writer with a no-op Close, used when a stage
// writes to a stream the shell still owns.
func NopWriteCloser(w io.Writer) io.WriteCloser {
	return nopWriteCloser{w}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// devNull fails reads as closed and swallows writes.
type devNull struct{}

var _ io.ReadCloser = (*devNull)(nil)
var _ io.WriteCloser = (*devNull)(nil)

func (*devNull) Read([]byte) (int, error)    { return 0, os.ErrClosed }
func (*devNull) Write(b []byte) (int, error) { return len(b), nil }
func (*devNull) Close() error                { return nil }

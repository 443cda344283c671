package vos

import (
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"time"
)

// Signal is the set of signals the kernel can deliver to a process.
type Signal int

const (
	// SigKill requests immediate termination.
	SigKill Signal = iota
	// SigTerm requests termination, treated like SigKill here.
	SigTerm
	// SigStop suspends the process at its next I/O suspension point.
	SigStop
	// SigCont resumes a stopped process.
	SigCont
)

func (s Signal) String() string {
	switch s {
	case SigKill:
		return "KILL"
	case SigTerm:
		return "TERM"
	case SigStop:
		return "STOP"
	case SigCont:
		return "CONT"
	default:
		return fmt.Sprintf("SIG(%d)", int(s))
	}
}

// ProcState is the lifecycle state of a process handle.
type ProcState int

const (
	StateRunning ProcState = iota
	StateStopped
	StateExited
)

func (s ProcState) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateStopped:
		return "Stopped"
	case StateExited:
		return "Exited"
	default:
		return fmt.Sprintf("ProcState(%d)", int(s))
	}
}

var (
	// ErrProcessDone indicates a signal was sent to an exited process.
	ErrProcessDone = errors.New("process already finished")

	// errKilled unblocks I/O of a process that got a terminal signal.
	errKilled = errors.New("killed")
)

// Proc is a handle on a spawned process. The zero value is not usable,
// handles come from Kernel.Spawn or VOS.StartProcess.
type Proc struct {
	pid  int
	name string
	fn   ProcessFunc
	os   *ProcOS

	mu       sync.Mutex
	cond     sync.Cond
	state    ProcState
	exitCode int
	started  bool
	done     chan struct{}
	killed   chan struct{}
	killOnce sync.Once
}

func (p *Proc) PID() int { return p.pid }

func (p *Proc) Name() string { return p.name }

// OS exposes the process's view of the virtual OS, mainly so tests and
// the shell can prepare a child before starting it.
func (p *Proc) OS() *ProcOS { return p.os }

// Start launches the process body on its own goroutine.
func (p *Proc) Start() {
	p.mu.Lock()
	if p.started || p.state == StateExited {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		p.finish(p.fn(p.os))
	}()
}

// Run starts the process and blocks until it exits.
func (p *Proc) Run() int {
	p.Start()
	return p.Wait()
}

// Wait blocks until the process exits and returns its exit code.
// Waiting on an already exited process returns immediately.
func (p *Proc) Wait() int {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Poll reports the current state without blocking. The exit code is
// only meaningful once the state is StateExited.
func (p *Proc) Poll() (ProcState, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, p.exitCode
}

// Done is closed once a terminal signal has been delivered.
func (p *Proc) Done() <-chan struct{} {
	return p.killed
}

// Signal delivers a signal to the process.
//
// Termination is cooperative: the process observes it at its next I/O
// suspension point (or via Done) and winds down with a non-zero code.
func (p *Proc) Signal(sig Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateExited {
		return ErrProcessDone
	}

	switch sig {
	case SigKill, SigTerm:
		p.killOnce.Do(func() { close(p.killed) })
		p.cond.Broadcast()
	case SigStop:
		if p.state == StateRunning {
			p.state = StateStopped
		}
	case SigCont:
		if p.state == StateStopped {
			p.state = StateRunning
			p.cond.Broadcast()
		}
	default:
		return fmt.Errorf("unsupported signal: %v", sig)
	}
	return nil
}

// checkpoint parks the calling goroutine while the process is stopped
// and reports an error once the process has been killed.
func (p *Proc) checkpoint() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		select {
		case <-p.killed:
			return errKilled
		default:
		}

		if p.state != StateStopped {
			return nil
		}
		p.cond.Wait()
	}
}

func (p *Proc) finish(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateExited {
		return
	}

	select {
	case <-p.killed:
		// A killed process never reports success.
		if code == 0 {
			code = 130
		}
	default:
	}

	p.state = StateExited
	p.exitCode = code
	close(p.done)
	p.cond.Broadcast()
}

// ProcAttr describes how to set up a spawned process.
type ProcAttr struct {
	// Dir is the working directory, inherits the parent's when blank.
	Dir string
	// Env gives the environment in "key=value" form. A nil Env means
	// inherit a copy of the parent's environment.
	Env []string
	// Files are the standard streams for the new process.
	Files VIO
	// UID is the user the process runs as.
	UID int
}

// Spawn creates a process around fn. The handle starts in StateRunning
// but the body doesn't execute until Start or Run is called.
func (k *Kernel) Spawn(fn ProcessFunc, name string, argv []string, attr *ProcAttr) *Proc {
	if attr == nil {
		attr = &ProcAttr{}
	}
	if argv == nil {
		argv = []string{name}
	}

	proc := &Proc{
		pid:    k.NextPID(),
		name:   name,
		fn:     fn,
		state:  StateRunning,
		done:   make(chan struct{}),
		killed: make(chan struct{}),
	}
	proc.cond.L = &proc.mu

	dir := attr.Dir
	if dir == "" {
		dir = "/"
	}

	files := attr.Files
	if files == nil {
		files = NewNullIO()
	}

	os := &ProcOS{
		kernel: k,
		proc:   proc,
		VEnv:   NewMapEnvFromEnviron(attr.Env),
		VIO:    newGatedIO(proc, files),
		args:   argv,
		uid:    attr.UID,
		dir:    dir,
	}
	os.VFS = NewRelativeFs(k.fs, os.Getwd)
	proc.os = os
	return proc
}

// ProcOS is a process's view of the virtual OS.
type ProcOS struct {
	kernel *Kernel
	proc   *Proc

	VEnv
	VFS
	VIO

	args []string
	uid  int
	dir  string
}

var _ VOS = (*ProcOS)(nil)

// Args implements VProc.Args.
func (p *ProcOS) Args() []string { return p.args }

// Getpid implements VProc.Getpid.
func (p *ProcOS) Getpid() int { return p.proc.pid }

// Getuid implements VProc.Getuid.
func (p *ProcOS) Getuid() int { return p.uid }

// Getwd implements VProc.Getwd.
func (p *ProcOS) Getwd() (string, error) { return p.dir, nil }

// Done implements VProc.Done.
func (p *ProcOS) Done() <-chan struct{} { return p.proc.killed }

// Chdir implements VProc.Chdir.
func (p *ProcOS) Chdir(dir string) error {
	if !path.IsAbs(dir) {
		dir = path.Clean(path.Join(p.dir, dir))
	}

	stat, err := p.Stat(dir)
	switch {
	case err != nil:
		return fmt.Errorf("%s: no such file or directory", dir)
	case !stat.IsDir():
		return fmt.Errorf("%s: not a directory", dir)
	default:
		p.dir = dir
		return nil
	}
}

// Hostname implements VOS.Hostname.
func (p *ProcOS) Hostname() (string, error) {
	return p.kernel.Hostname(), nil
}

// Uname implements VOS.Uname.
func (p *ProcOS) Uname() Utsname { return p.kernel.Uname() }

// Now implements VOS.Now.
func (p *ProcOS) Now() time.Time { return p.kernel.Now() }

// Kernel returns the kernel this process runs on.
func (p *ProcOS) Kernel() *Kernel { return p.kernel }

// Proc returns the handle of this process.
func (p *ProcOS) Proc() *Proc { return p.proc }

// StartProcess implements VOS.StartProcess, resolving name through the
// kernel's process table. The child inherits this process's streams,
// directory, uid and a copy of its environment unless overridden.
func (p *ProcOS) StartProcess(name string, argv []string, attr *ProcAttr) (*Proc, error) {
	fn := p.kernel.Resolve(name)
	if fn == nil {
		return nil, ErrNotFound
	}

	if attr == nil {
		attr = &ProcAttr{}
	}
	if attr.Env == nil {
		attr.Env = p.Environ()
	}
	if attr.Files == nil {
		attr.Files = p.VIO
	}
	if attr.Dir == "" {
		attr.Dir = p.dir
	}
	attr.UID = p.uid

	return p.kernel.Spawn(fn, name, argv, attr), nil
}

// newGatedIO wraps streams so reads and writes become suspension
// points: a stopped process parks there and a killed one bails out.
func newGatedIO(proc *Proc, base VIO) VIO {
	return &VIOAdapter{
		IStdin:  &gatedReader{proc, base.Stdin()},
		IStdout: &gatedWriter{proc, base.Stdout()},
		IStderr: &gatedWriter{proc, base.Stderr()},
	}
}

type gatedReader struct {
	proc *Proc
	r    io.ReadCloser
}

func (g *gatedReader) Read(b []byte) (int, error) {
	if err := g.proc.checkpoint(); err != nil {
		return 0, io.ErrClosedPipe
	}
	return g.r.Read(b)
}

func (g *gatedReader) Close() error { return g.r.Close() }

type gatedWriter struct {
	proc *Proc
	w    io.WriteCloser
}

func (g *gatedWriter) Write(b []byte) (int, error) {
	if err := g.proc.checkpoint(); err != nil {
		return 0, io.ErrClosedPipe
	}
	return g.w.Write(b)
}

func (g *gatedWriter) Close() error { return g.w.Close() }

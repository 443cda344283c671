package vos

import (
	"os/exec"
	"sync/atomic"
	"time"
)

// ErrNotFound is returned when a process name can't be resolved to an
// executable unit.
var ErrNotFound = exec.ErrNotFound

// ProcessFunc is a "process" that can be run against a process's view
// of the OS. The return value is the exit code.
type ProcessFunc func(VOS) int

// ProcessResolver looks up a process implementation by name, returning
// nil if no such process exists.
type ProcessResolver func(name string) ProcessFunc

// NewKernel creates the shared kernel every process of a session hangs
// off of. The timeSource is the single clock, fixed in tests.
func NewKernel(fs VFS, utsname Utsname, resolver ProcessResolver, timeSource func() time.Time) *Kernel {
	if timeSource == nil {
		timeSource = time.Now
	}
	return &Kernel{
		fs:         fs,
		utsname:    utsname,
		resolver:   resolver,
		bootTime:   timeSource(),
		timeSource: timeSource,
	}
}

// Kernel is the session wide state shared between processes: the
// filesystem, machine identity, PID counter and clock.
//
// All methods are safe for use by concurrently running processes.
type Kernel struct {
	fs         VFS
	utsname    Utsname
	resolver   ProcessResolver
	nextPID    int32
	bootTime   time.Time
	timeSource func() time.Time
}

func (k *Kernel) Hostname() string {
	return k.utsname.Nodename
}

func (k *Kernel) Uname() Utsname {
	return k.utsname
}

func (k *Kernel) Now() time.Time {
	return k.timeSource()
}

func (k *Kernel) BootTime() time.Time {
	return k.bootTime
}

// NextPID gets a monotonically increasing PID.
func (k *Kernel) NextPID() int {
	return int(atomic.AddInt32(&k.nextPID, 1))
}

// SetPID seeds the PID counter so fresh sessions don't start at 1.
func (k *Kernel) SetPID(pid int32) {
	atomic.StoreInt32(&k.nextPID, pid)
}

// Resolve looks up a process implementation by name.
func (k *Kernel) Resolve(name string) ProcessFunc {
	if k.resolver == nil {
		return nil
	}
	return k.resolver(name)
}

// InitProc creates the first process of the session, conventionally the
// shell itself. It runs as root in / with no I/O attached.
func (k *Kernel) InitProc() *ProcOS {
	proc := &Proc{
		pid:    k.NextPID(),
		name:   "init",
		state:  StateRunning,
		done:   make(chan struct{}),
		killed: make(chan struct{}),
	}
	proc.cond.L = &proc.mu

	os := &ProcOS{
		kernel: k,
		proc:   proc,
		VEnv:   NewMapEnv(),
		VIO:    NewNullIO(),
		args:   []string{"init"},
		uid:    0,
		dir:    "/",
	}
	os.VFS = NewRelativeFs(k.fs, os.Getwd)
	proc.os = os
	return os
}

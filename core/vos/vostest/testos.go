// Package vostest runs commands against a deterministic virtual OS so
// their output is stable across runs and machines.
package vostest

import (
	"bytes"
	"io"
	"time"

	"josephlewis.net/vsh/core/vos"
)

// FixedTime is Go's reference timestamp with a different value in each
// position, the only value the deterministic clock ever reports.
var FixedTime = time.Date(2006, 1, 2, 3, 4, 5, 0, time.UTC)

// TestUtsname is the machine identity the deterministic kernel reports.
var TestUtsname = vos.Utsname{
	Sysname:  "Linux",
	Nodename: "testhost",
	Release:  "5.4.0-81-generic",
	Version:  "#91-Ubuntu SMP",
	Machine:  "x86_64",
}

// SingleProcessResolver resolves every name to the same process, handy
// for testing one command in isolation.
func SingleProcessResolver(process vos.ProcessFunc) vos.ProcessResolver {
	return func(name string) vos.ProcessFunc {
		return process
	}
}

// NewDeterministicKernel creates a kernel with an empty in-memory
// filesystem, a fixed clock and a fixed machine identity.
func NewDeterministicKernel(resolver vos.ProcessResolver) *vos.Kernel {
	timeSource := func() time.Time { return FixedTime }
	return vos.NewKernel(vos.NewMemFS(), TestUtsname, resolver, timeSource)
}

// NewDeterministicOS creates the init process of a deterministic kernel.
func NewDeterministicOS(resolver vos.ProcessResolver) vos.VOS {
	return NewDeterministicKernel(resolver).InitProc()
}

// Cmd is similar to exec.Cmd.
type Cmd struct {
	// Process function
	Process vos.ProcessFunc
	// Process arguments, the first argument should be the process name.
	Argv []string
	// If Dir is non-empty, the child changes into the directory before
	// creating the process.
	Dir string
	// If Env is non-empty, it gives the environment variables for the
	// new process in the form returned by Environ.
	Env []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	ExitStatus int

	// Setup runs against the child's OS view before it starts, e.g. to
	// seed files or environment variables.
	Setup func(vos.VOS) error
}

func Command(process vos.ProcessFunc, name string, arg ...string) *Cmd {
	return &Cmd{
		Process: process,
		Argv:    append([]string{name}, arg...),
	}
}

// Output runs the command and returns its standard output.
func (c *Cmd) Output() ([]byte, error) {
	buf := &bytes.Buffer{}
	c.Stdout = buf

	if err := c.Run(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CombinedOutput runs the command and returns its interleaved standard
// output and standard error.
func (c *Cmd) CombinedOutput() ([]byte, error) {
	buf := &bytes.Buffer{}
	c.Stdout = buf
	c.Stderr = buf

	if err := c.Run(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Run starts the command and waits for it to complete.
func (c *Cmd) Run() error {
	deterministicOS := NewDeterministicOS(SingleProcessResolver(c.Process))
	runner, err := deterministicOS.StartProcess(c.Argv[0], c.Argv, &vos.ProcAttr{
		Dir:   c.Dir,
		Env:   c.Env,
		Files: vos.NewVIOAdapter(c.Stdin, c.Stdout, c.Stderr),
	})
	if err != nil {
		return err
	}

	if c.Setup != nil {
		if err := c.Setup(runner.OS()); err != nil {
			return err
		}
	}

	c.ExitStatus = runner.Run()
	return nil
}

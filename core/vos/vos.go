// Package vos provides the virtual OS the shell runs against: an
// afero backed filesystem, an in-memory environment, swappable
// standard I/O and a cooperative process model with spawn, signal
// and poll semantics.
package vos

import "time"

// Utsname holds the identity the virtual machine reports about itself.
type Utsname struct {
	Sysname  string
	Nodename string
	Release  string
	Version  string
	Machine  string
}

// VOS is the view of the operating system a single process gets.
type VOS interface {
	VEnv
	VFS
	VIO
	VProc

	// Hostname reports the node name of the virtual machine.
	Hostname() (string, error)

	// Uname reports the identity of the virtual machine.
	Uname() Utsname

	// Now is the virtual clock, fixed in tests.
	Now() time.Time

	// StartProcess spawns a child process resolved by name. The returned
	// handle must be started with Start or Run.
	StartProcess(name string, argv []string, attr *ProcAttr) (*Proc, error)
}

// VProc exposes the identity and working directory of a process.
type VProc interface {
	// Args holds the command line, including the command name as Args()[0].
	Args() []string

	// Getpid returns the process ID.
	Getpid() int

	// Getuid returns the user ID the process runs as.
	Getuid() int

	// Getwd returns the working directory of the process.
	Getwd() (string, error)

	// Chdir changes the working directory, relative paths are resolved
	// against the current one.
	Chdir(dir string) error

	// Done is closed once the process has been delivered a terminal
	// signal. Long running commands select on it to honor kill.
	Done() <-chan struct{}
}

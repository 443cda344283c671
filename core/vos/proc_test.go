package vos

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKernel(resolver ProcessResolver) *Kernel {
	uts := Utsname{Sysname: "Linux", Nodename: "testhost", Machine: "x86_64"}
	clock := func() time.Time { return time.Date(2006, 1, 2, 3, 4, 5, 0, time.UTC) }
	return NewKernel(NewMemFS(), uts, resolver, clock)
}

func TestProc_runAndWait(t *testing.T) {
	k := testKernel(nil)

	out := &bytes.Buffer{}
	proc := k.Spawn(func(os VOS) int {
		os.Stdout().Write([]byte("hi\n"))
		return 7
	}, "demo", []string{"demo"}, &ProcAttr{
		Files: NewVIOAdapter(nil, out, nil),
	})

	assert.Equal(t, 7, proc.Run())
	assert.Equal(t, "hi\n", out.String())

	state, code := proc.Poll()
	assert.Equal(t, StateExited, state)
	assert.Equal(t, 7, code)

	// Waiting again returns immediately with the same code.
	assert.Equal(t, 7, proc.Wait())
}

func TestProc_signalStopCont(t *testing.T) {
	k := testKernel(nil)

	out := &bytes.Buffer{}
	started := make(chan struct{})
	release := make(chan struct{})
	proc := k.Spawn(func(os VOS) int {
		close(started)
		<-release
		os.Stdout().Write([]byte("past the gate\n"))
		return 0
	}, "demo", nil, &ProcAttr{Files: NewVIOAdapter(nil, out, nil)})

	proc.Start()
	<-started
	require.NoError(t, proc.Signal(SigStop))

	state, _ := proc.Poll()
	assert.Equal(t, StateStopped, state)

	// The write parks on the suspension point until continued.
	close(release)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, "", out.String())

	require.NoError(t, proc.Signal(SigCont))
	assert.Equal(t, 0, proc.Wait())
	assert.Equal(t, "past the gate\n", out.String())
}

func TestProc_kill(t *testing.T) {
	k := testKernel(nil)

	proc := k.Spawn(func(os VOS) int {
		<-os.Done()
		return 130
	}, "sleeper", nil, nil)
	proc.Start()

	require.NoError(t, proc.Signal(SigKill))
	assert.Equal(t, 130, proc.Wait())

	assert.ErrorIs(t, proc.Signal(SigKill), ErrProcessDone)
}

func TestProc_killUnblocksIO(t *testing.T) {
	k := testKernel(nil)

	// A reader blocked on stopped-state I/O bails out once killed.
	proc := k.Spawn(func(os VOS) int {
		buf := make([]byte, 16)
		if _, err := os.Stdin().Read(buf); err != nil {
			return 1
		}
		return 0
	}, "reader", nil, &ProcAttr{
		Files: NewVIOAdapter(strings.NewReader("data"), nil, nil),
	})

	require.NoError(t, proc.Signal(SigStop))
	proc.Start()
	require.NoError(t, proc.Signal(SigKill))
	assert.Equal(t, 1, proc.Wait())
}

func TestProcOS_chdir(t *testing.T) {
	k := testKernel(nil)
	os := k.InitProc()

	require.NoError(t, os.MkdirAll("/home/user", 0755))

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, "/", wd)

	require.NoError(t, os.Chdir("/home/user"))
	require.NoError(t, os.Chdir(".."))

	wd, _ = os.Getwd()
	assert.Equal(t, "/home", wd)

	assert.Error(t, os.Chdir("missing"))

	_, err = os.Create("/home/file.txt")
	require.NoError(t, err)
	assert.Error(t, os.Chdir("file.txt"))
}

func TestProcOS_startProcess(t *testing.T) {
	resolver := func(name string) ProcessFunc {
		if name != "echo" {
			return nil
		}
		return func(os VOS) int {
			os.Stdout().Write([]byte(strings.Join(os.Args()[1:], " ") + "\n"))
			return 0
		}
	}

	k := testKernel(resolver)
	parent := k.InitProc()
	require.NoError(t, parent.Setenv("LANG", "C"))

	_, err := parent.StartProcess("nope", []string{"nope"}, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	out := &bytes.Buffer{}
	child, err := parent.StartProcess("echo", []string{"echo", "a", "b"}, &ProcAttr{
		Files: NewVIOAdapter(nil, out, nil),
	})
	require.NoError(t, err)

	// The child gets a copy of the parent environment and a fresh PID.
	assert.Equal(t, "C", child.OS().Getenv("LANG"))
	assert.Greater(t, child.PID(), parent.Getpid())

	assert.Equal(t, 0, child.Run())
	assert.Equal(t, "a b\n", out.String())
}

func TestKernel_identity(t *testing.T) {
	k := testKernel(nil)
	os := k.InitProc()

	host, err := os.Hostname()
	require.NoError(t, err)
	assert.Equal(t, "testhost", host)
	assert.Equal(t, "Linux", os.Uname().Sysname)
	assert.Equal(t, 2006, os.Now().Year())
	assert.Equal(t, 0, os.Getuid())
}

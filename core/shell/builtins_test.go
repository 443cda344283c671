package shell

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"josephlewis.net/vsh/core/vos"
)

func TestBuiltinCd(t *testing.T) {
	sh, stdout, _ := newTestShell(t)
	require.NoError(t, sh.OS.MkdirAll("/var/log", 0755))

	assert.Equal(t, 0, sh.Execute("cd /var/log"))
	wd, _ := sh.OS.Getwd()
	assert.Equal(t, "/var/log", wd)
	assert.Equal(t, "/var/log", sh.OS.Getenv(EnvPWD))

	// cd - returns to the previous directory and prints it.
	assert.Equal(t, 0, sh.Execute("cd /var"))
	assert.Equal(t, 0, sh.Execute("cd -"))
	wd, _ = sh.OS.Getwd()
	assert.Equal(t, "/var/log", wd)
	assert.Contains(t, stdout.String(), "/var/log\n")
}

func TestBuiltinCdHome(t *testing.T) {
	sh, _, _ := newTestShell(t)
	require.NoError(t, sh.OS.MkdirAll("/home/admin", 0755))

	assert.Equal(t, 0, sh.Execute("cd"))
	wd, _ := sh.OS.Getwd()
	assert.Equal(t, "/home/admin", wd)
}

func TestBuiltinCdMissingDirectory(t *testing.T) {
	sh, _, stderr := newTestShell(t)

	code := sh.Execute("cd /does/not/exist")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "no such file or directory")

	// Failed cd leaves the working directory alone.
	wd, _ := sh.OS.Getwd()
	assert.Equal(t, "/", wd)
}

func TestBuiltinPwd(t *testing.T) {
	sh, stdout, _ := newTestShell(t)
	require.NoError(t, sh.OS.MkdirAll("/srv", 0755))
	require.NoError(t, sh.OS.Chdir("/srv"))

	assert.Equal(t, 0, sh.Execute("pwd"))
	assert.Equal(t, "/srv\n", stdout.String())
}

func TestBuiltinExportAndUnset(t *testing.T) {
	sh, _, _ := newTestShell(t)

	sh.Execute("export TOKEN=abc123")
	assert.Equal(t, "abc123", sh.OS.Getenv("TOKEN"))

	sh.Execute("unset TOKEN")
	_, ok := sh.OS.LookupEnv("TOKEN")
	assert.False(t, ok)
}

func TestBuiltinExportListsEnvironment(t *testing.T) {
	sh, stdout, _ := newTestShell(t)
	sh.OS.Setenv("AAA", "1")

	sh.Execute("export")
	assert.Contains(t, stdout.String(), "export AAA=1\n")
}

func TestBuiltinUnsetRemovesFunction(t *testing.T) {
	sh, _, stderr := newTestShell(t)

	sh.Execute("fn() { echo x; }")
	sh.Execute("unset fn")
	code := sh.Execute("fn")
	assert.Equal(t, 127, code)
	assert.Contains(t, stderr.String(), "command not found")
}

func TestBuiltinAliasRoundTrip(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	sh.Execute("alias ll='args -la'")
	sh.Execute("alias ll")
	assert.Equal(t, "alias ll='args -la'\n", stdout.String())

	stdout.Reset()
	sh.Execute("ll x")
	assert.Equal(t, "-la\nx\n", stdout.String())

	sh.Execute("unalias ll")
	assert.NotContains(t, sh.Aliases, "ll")
}

func TestBuiltinAliasListSorted(t *testing.T) {
	sh, stdout, _ := newTestShell(t)
	sh.Aliases["zz"] = "args z"
	sh.Aliases["aa"] = "args a"

	sh.Execute("alias")
	out := stdout.String()
	assert.Less(t, strings.Index(out, "aa"), strings.Index(out, "zz"))
}

func TestBuiltinUnaliasMissing(t *testing.T) {
	sh, _, stderr := newTestShell(t)

	code := sh.Execute("unalias nothere")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "not found")
}

func TestBuiltinJobsListing(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	sh.Execute("sleep 60 &")
	stdout.Reset()

	sh.Execute("jobs")
	assert.Contains(t, stdout.String(), "[1]+  Running       sleep 60")

	job, err := sh.Jobs().Find("%1")
	require.NoError(t, err)
	job.Kill()
	job.Wait()
}

func TestBuiltinFgAdoptsExitCode(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	sh.Execute("false &")
	// Give the stage a moment to exit before foregrounding it.
	job, err := sh.Jobs().Find("%1")
	require.NoError(t, err)
	job.Procs[0].Wait()

	code := sh.Execute("fg")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "false")
	assert.Equal(t, 0, sh.Jobs().Count())
}

func TestBuiltinFgNoJobs(t *testing.T) {
	sh, _, stderr := newTestShell(t)

	code := sh.Execute("fg")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "no current job")
}

func TestBuiltinBgResumesStoppedJob(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	sh.Execute("sleep 60 &")
	job, err := sh.Jobs().Find("%1")
	require.NoError(t, err)
	job.Stop()
	stdout.Reset()

	code := sh.Execute("bg %1")
	assert.Equal(t, 0, code)
	assert.Equal(t, JobRunning, job.State)
	assert.Contains(t, stdout.String(), "sleep 60 &")

	job.Kill()
	job.Wait()
}

func TestBuiltinWaitSpecificJob(t *testing.T) {
	sh, _, _ := newTestShell(t)

	sh.Execute("false &")
	code := sh.Execute("wait %1")
	assert.Equal(t, 1, code)
	assert.Equal(t, 0, sh.Jobs().Count())
}

func TestBuiltinWaitAll(t *testing.T) {
	sh, _, _ := newTestShell(t)

	sh.Execute("true &")
	sh.Execute("true &")
	code := sh.Execute("wait")
	assert.Equal(t, 0, code)
	assert.Equal(t, 0, sh.Jobs().Count())
}

func TestBuiltinWaitUnknownJob(t *testing.T) {
	sh, _, stderr := newTestShell(t)

	code := sh.Execute("wait %4")
	assert.Equal(t, 127, code)
	assert.Contains(t, stderr.String(), "no such job")
}

func TestBuiltinKillJob(t *testing.T) {
	sh, _, _ := newTestShell(t)

	sh.Execute("sleep 60 &")
	job, err := sh.Jobs().Find("%1")
	require.NoError(t, err)

	assert.Equal(t, 0, sh.Execute("kill %1"))
	assert.Equal(t, 130, job.Wait())
}

func TestBuiltinKillStopAndCont(t *testing.T) {
	sh, _, _ := newTestShell(t)

	sh.Execute("sleep 60 &")
	job, err := sh.Jobs().Find("%1")
	require.NoError(t, err)

	assert.Equal(t, 0, sh.Execute("kill -STOP %1"))
	assert.Equal(t, JobStopped, job.State)
	assert.Equal(t, 0, sh.Execute("kill -CONT %1"))
	assert.Equal(t, JobRunning, job.State)

	sh.Execute("kill -9 %1")
	job.Wait()
}

func TestBuiltinKillByPID(t *testing.T) {
	sh, _, _ := newTestShell(t)

	sh.Execute("sleep 60 &")
	job, err := sh.Jobs().Find("%1")
	require.NoError(t, err)
	pid := job.Procs[0].PID()

	assert.Equal(t, 0, sh.Execute("kill "+strconv.Itoa(pid)))
	assert.Equal(t, 130, job.Wait())
}

func TestBuiltinKillBadSignal(t *testing.T) {
	sh, _, stderr := newTestShell(t)

	code := sh.Execute("kill -WAT %1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "invalid signal")
}

func TestBuiltinHistoryListing(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	sh.RunLine("echo one")
	sh.RunLine("echo two")
	stdout.Reset()

	sh.Execute("history")
	assert.Contains(t, stdout.String(), "    1  echo one\n")
	assert.Contains(t, stdout.String(), "    2  echo two\n")
}

func TestBuiltinHistoryLastN(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	sh.RunLine("echo one")
	sh.RunLine("echo two")
	sh.RunLine("echo three")
	stdout.Reset()

	sh.Execute("history 1")
	assert.NotContains(t, stdout.String(), "echo two")
	assert.Contains(t, stdout.String(), "    3  echo three\n")
}

func TestBuiltinShift(t *testing.T) {
	sh, stdout, _ := newTestShell(t)
	sh.SetArgs("s", []string{"a", "b", "c"})

	sh.Execute("shift")
	sh.Execute("echo $1 $#")
	assert.Equal(t, "b 2\n", stdout.String())

	code := sh.Execute("shift 5")
	assert.Equal(t, 1, code)
}

func TestBuiltinColonNoop(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	assert.Equal(t, 0, sh.Execute(":"))
	assert.Empty(t, stdout.String())
}

func TestBuiltinType(t *testing.T) {
	sh, stdout, _ := newTestShell(t)
	sh.Execute("mine() { echo x; }")

	sh.Execute("type mine cd echo")
	out := stdout.String()
	assert.Contains(t, out, "mine is a function")
	assert.Contains(t, out, "cd is a shell builtin")
	assert.Contains(t, out, "echo is /usr/bin/echo")
}

func TestBuiltinRead(t *testing.T) {
	sh, _, _ := newTestShell(t)
	sh.OS.VIO = vos.NewVIOAdapter(strings.NewReader("alpha beta gamma\nnext\n"), nil, nil)

	code := sh.Execute("read first rest")
	assert.Equal(t, 0, code)
	assert.Equal(t, "alpha", sh.OS.Getenv("first"))
	// The last variable takes the remainder of the line.
	assert.Equal(t, "beta gamma", sh.OS.Getenv("rest"))

	// The second line is still there for the next read.
	sh.Execute("read REPLY")
	assert.Equal(t, "next", sh.OS.Getenv("REPLY"))
}

func TestBuiltinReadEOF(t *testing.T) {
	sh, _, _ := newTestShell(t)

	code := sh.Execute("read X")
	assert.Equal(t, 1, code)
}

func TestBuiltinHelpListsBuiltins(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	sh.Execute("help")
	assert.Contains(t, stdout.String(), "cd")
	assert.Contains(t, stdout.String(), "jobs")
}

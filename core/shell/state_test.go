package shell

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStateRoundTrip(t *testing.T) {
	sh, _, _ := newTestShell(t)
	sh.OS.Setenv("THEME", "dark")
	sh.Aliases["ll"] = "ls -la"
	sh.AddHistory("echo remembered")

	require.NoError(t, sh.SaveState("/state.yaml"))

	// A fresh session picks the saved state back up.
	fresh, _, _ := newTestShell(t)
	data, err := afero.ReadFile(sh.OS, "/state.yaml")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fresh.OS, "/state.yaml", data, 0600))

	require.NoError(t, fresh.LoadState("/state.yaml"))
	assert.Equal(t, "dark", fresh.OS.Getenv("THEME"))
	assert.Equal(t, "ls -la", fresh.Aliases["ll"])
	assert.Contains(t, fresh.History(), "echo remembered")
}

func TestSessionStateExcludesJobs(t *testing.T) {
	sh, _, _ := newTestShell(t)
	sh.Execute("sleep 60 &")

	state := sh.Snapshot()
	// Only env, aliases and history are captured; jobs die with the
	// session.
	assert.NotNil(t, state.Env)

	job, err := sh.Jobs().Find("%1")
	require.NoError(t, err)
	job.Kill()
	job.Wait()
}

func TestLoadStateRejectsUnknownKeys(t *testing.T) {
	sh, _, _ := newTestShell(t)
	bad := []byte("env:\n  A: \"1\"\nbogus_key: true\n")
	require.NoError(t, afero.WriteFile(sh.OS, "/bad.yaml", bad, 0600))

	assert.Error(t, sh.LoadState("/bad.yaml"))
}

func TestLoadStateMissingFile(t *testing.T) {
	sh, _, _ := newTestShell(t)
	assert.Error(t, sh.LoadState("/nope.yaml"))
}

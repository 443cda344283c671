package commands

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"josephlewis.net/vsh/core/vos"
	"josephlewis.net/vsh/core/vos/vostest"
)

func runTestCmd(t *testing.T, setup func(vos.VOS) error, args ...string) int {
	t.Helper()
	cmd := vostest.Command(Test, args[0], args[1:]...)
	cmd.Setup = setup
	require.NoError(t, cmd.Run())
	return cmd.ExitStatus
}

func TestTestStrings(t *testing.T) {
	assert.Equal(t, 0, runTestCmd(t, nil, "test", "abc", "=", "abc"))
	assert.Equal(t, 1, runTestCmd(t, nil, "test", "abc", "=", "abd"))
	assert.Equal(t, 0, runTestCmd(t, nil, "test", "abc", "!=", "abd"))
	assert.Equal(t, 0, runTestCmd(t, nil, "test", "-n", "x"))
	assert.Equal(t, 1, runTestCmd(t, nil, "test", "-n", ""))
	assert.Equal(t, 0, runTestCmd(t, nil, "test", "-z", ""))
	assert.Equal(t, 0, runTestCmd(t, nil, "test", "nonempty"))
	assert.Equal(t, 1, runTestCmd(t, nil, "test"))
}

func TestTestIntegers(t *testing.T) {
	assert.Equal(t, 0, runTestCmd(t, nil, "test", "3", "-eq", "3"))
	assert.Equal(t, 0, runTestCmd(t, nil, "test", "2", "-lt", "3"))
	assert.Equal(t, 1, runTestCmd(t, nil, "test", "4", "-le", "3"))
	assert.Equal(t, 0, runTestCmd(t, nil, "test", "4", "-ge", "4"))
	assert.Equal(t, 2, runTestCmd(t, nil, "test", "x", "-eq", "3"))
}

func TestTestFiles(t *testing.T) {
	seed := func(os vos.VOS) error {
		if err := os.MkdirAll("/dir", 0755); err != nil {
			return err
		}
		if err := afero.WriteFile(os, "/file", []byte("data"), 0644); err != nil {
			return err
		}
		return afero.WriteFile(os, "/empty", nil, 0644)
	}

	assert.Equal(t, 0, runTestCmd(t, seed, "test", "-e", "/file"))
	assert.Equal(t, 1, runTestCmd(t, seed, "test", "-e", "/missing"))
	assert.Equal(t, 0, runTestCmd(t, seed, "test", "-f", "/file"))
	assert.Equal(t, 1, runTestCmd(t, seed, "test", "-f", "/dir"))
	assert.Equal(t, 0, runTestCmd(t, seed, "test", "-d", "/dir"))
	assert.Equal(t, 0, runTestCmd(t, seed, "test", "-s", "/file"))
	assert.Equal(t, 1, runTestCmd(t, seed, "test", "-s", "/empty"))
}

func TestBracketAlias(t *testing.T) {
	assert.Equal(t, 0, runTestCmd(t, nil, "[", "a", "=", "a", "]"))
	// Missing the closing bracket is a usage error.
	assert.Equal(t, 2, runTestCmd(t, nil, "[", "a", "=", "a"))
}

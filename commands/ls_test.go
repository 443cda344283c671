package commands

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"josephlewis.net/vsh/core/vos"
	"josephlewis.net/vsh/core/vos/vostest"
)

func seedTree(os vos.VOS) error {
	if err := os.MkdirAll("/home/user/docs", 0755); err != nil {
		return err
	}
	if err := afero.WriteFile(os, "/home/user/notes.txt", []byte("hi"), 0644); err != nil {
		return err
	}
	return afero.WriteFile(os, "/home/user/.profile", []byte("x"), 0644)
}

func TestLsSortedNames(t *testing.T) {
	cmd := vostest.Command(Ls, "ls", "-1", "/home/user")
	cmd.Setup = seedTree

	out, err := cmd.Output()
	require.NoError(t, err)
	assert.Equal(t, "docs\nnotes.txt\n", string(out))
}

func TestLsAllIncludesDotfiles(t *testing.T) {
	cmd := vostest.Command(Ls, "ls", "-1", "-a", "/home/user")
	cmd.Setup = seedTree

	out, err := cmd.Output()
	require.NoError(t, err)
	assert.Equal(t, ".profile\ndocs\nnotes.txt\n", string(out))
}

func TestLsClassify(t *testing.T) {
	cmd := vostest.Command(Ls, "ls", "-1", "-F", "/home/user")
	cmd.Setup = seedTree

	out, err := cmd.Output()
	require.NoError(t, err)
	assert.Equal(t, "docs/\nnotes.txt\n", string(out))
}

func TestLsLongListing(t *testing.T) {
	cmd := vostest.Command(Ls, "ls", "-l", "/home/user")
	cmd.Setup = seedTree

	out, err := cmd.Output()
	require.NoError(t, err)
	lines := strings.Split(string(out), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "total "))
	assert.Contains(t, string(out), "notes.txt")
	assert.Contains(t, string(out), "root root")
}

func TestLsMissingTarget(t *testing.T) {
	cmd := vostest.Command(Ls, "ls", "/nope")

	out, err := cmd.CombinedOutput()
	require.NoError(t, err)
	assert.Contains(t, string(out), "no such file or directory")
	assert.Equal(t, 1, cmd.ExitStatus)
}

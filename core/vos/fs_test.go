package vos

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRelativeFs(t *testing.T) {
	base := NewMemFS()
	require.NoError(t, base.MkdirAll("/home/user/docs", 0755))
	require.NoError(t, afero.WriteFile(base, "/home/user/docs/a.txt", []byte("hello"), 0644))

	wd := "/home/user"
	fs := NewRelativeFs(base, func() (string, error) { return wd, nil })

	got, err := afero.ReadFile(fs, "docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	// Absolute paths bypass the working directory.
	got, err = afero.ReadFile(fs, "/home/user/docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	// Dot and dot-dot resolve against the working directory.
	wd = "/home/user/docs"
	_, err = fs.Stat("../docs/./a.txt")
	assert.NoError(t, err)

	require.NoError(t, afero.WriteFile(fs, "b.txt", []byte("world"), 0644))
	_, err = base.Stat("/home/user/docs/b.txt")
	assert.NoError(t, err)
}

func TestRelativeFsChown(t *testing.T) {
	base := NewMemFS()
	require.NoError(t, afero.WriteFile(base, "/home/user/a.txt", nil, 0644))

	fs := NewRelativeFs(base, func() (string, error) { return "/home/user", nil })

	// Relative names resolve against the working directory before the
	// call reaches the base filesystem.
	assert.NoError(t, fs.Chown("a.txt", 1000, 1000))
	assert.Error(t, fs.Chown("missing.txt", 1000, 1000))
}

func TestNewSessionFS(t *testing.T) {
	base := NewMemFS()
	require.NoError(t, afero.WriteFile(base, "/etc/motd", []byte("welcome"), 0644))

	session := NewSessionFS(base)

	// Writes land in the overlay, not the base.
	require.NoError(t, afero.WriteFile(session, "/etc/motd", []byte("changed"), 0644))

	got, err := afero.ReadFile(session, "/etc/motd")
	require.NoError(t, err)
	assert.Equal(t, "changed", string(got))

	got, err = afero.ReadFile(base, "/etc/motd")
	require.NoError(t, err)
	assert.Equal(t, "welcome", string(got))
}

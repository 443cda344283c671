package vos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapEnv(t *testing.T) {
	env := NewMapEnv()

	_, ok := env.LookupEnv("HOME")
	assert.False(t, ok)
	assert.Equal(t, "", env.Getenv("HOME"))

	assert.NoError(t, env.Setenv("HOME", "/root"))
	assert.NoError(t, env.Setenv("SHELL", "/bin/sh"))

	got, ok := env.LookupEnv("HOME")
	assert.True(t, ok)
	assert.Equal(t, "/root", got)

	assert.Equal(t, []string{"HOME=/root", "SHELL=/bin/sh"}, env.Environ())

	assert.NoError(t, env.Unsetenv("HOME"))
	_, ok = env.LookupEnv("HOME")
	assert.False(t, ok)

	env.Clearenv()
	assert.Empty(t, env.Environ())
}

func TestMapEnv_emptyVsUnset(t *testing.T) {
	env := NewMapEnv()
	assert.NoError(t, env.Setenv("BLANK", ""))

	got, ok := env.LookupEnv("BLANK")
	assert.True(t, ok)
	assert.Equal(t, "", got)
}

func TestNewMapEnvFromEnviron(t *testing.T) {
	env := NewMapEnvFromEnviron([]string{"A=1", "B=x=y", "C"})

	assert.Equal(t, "1", env.Getenv("A"))
	assert.Equal(t, "x=y", env.Getenv("B"))

	got, ok := env.LookupEnv("C")
	assert.True(t, ok)
	assert.Equal(t, "", got)
}

package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"josephlewis.net/vsh/core/vos"
	"josephlewis.net/vsh/core/vos/vostest"
)

// These tests wire the real command registry in so xargs can launch
// the commands it builds.

func TestXargsAppendsArguments(t *testing.T) {
	deterministicOS := vostest.NewDeterministicOS(Resolver)
	out := &bytes.Buffer{}
	runner, err := deterministicOS.StartProcess("xargs", []string{"xargs", "echo", "prefix"}, &vos.ProcAttr{
		Files: vos.NewVIOAdapter(strings.NewReader("one two\nthree\n"), out, out),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, runner.Run())
	assert.Equal(t, "prefix one two three\n", out.String())
}

func TestXargsDefaultsToEcho(t *testing.T) {
	deterministicOS := vostest.NewDeterministicOS(Resolver)
	out := &bytes.Buffer{}
	runner, err := deterministicOS.StartProcess("xargs", []string{"xargs"}, &vos.ProcAttr{
		Files: vos.NewVIOAdapter(strings.NewReader("a b\n"), out, out),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, runner.Run())
	assert.Equal(t, "a b\n", out.String())
}

func TestXargsQuoteAwareSplitting(t *testing.T) {
	deterministicOS := vostest.NewDeterministicOS(Resolver)
	out := &bytes.Buffer{}
	runner, err := deterministicOS.StartProcess("xargs", []string{"xargs", "echo"}, &vos.ProcAttr{
		Files: vos.NewVIOAdapter(strings.NewReader("'two words' single\n"), out, out),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, runner.Run())
	assert.Equal(t, "two words single\n", out.String())
}

func TestXargsUnknownCommand(t *testing.T) {
	deterministicOS := vostest.NewDeterministicOS(Resolver)
	out := &bytes.Buffer{}
	runner, err := deterministicOS.StartProcess("xargs", []string{"xargs", "no-such-tool"}, &vos.ProcAttr{
		Files: vos.NewVIOAdapter(strings.NewReader("arg\n"), out, out),
	})
	require.NoError(t, err)
	assert.Equal(t, 127, runner.Run())
	assert.Contains(t, out.String(), "command not found")
}

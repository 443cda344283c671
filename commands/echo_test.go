package commands

import (
	"testing"
)

func TestEcho(t *testing.T) {
	cases := goldenTestSuite{
		"no-args":    {Args: []string{"echo"}},
		"simple":     {Args: []string{"echo", "hello", "world"}},
		"no-newline": {Args: []string{"echo", "-n", "partial"}},
		"escapes":    {Args: []string{"echo", "-e", `a\tb\nc`}},
	}

	cases.Run(t, Echo)
}

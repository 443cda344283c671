package commands

import (
	"testing"
)

func TestSeq(t *testing.T) {
	cases := goldenTestSuite{
		"last-only":   {Args: []string{"seq", "3"}},
		"first-last":  {Args: []string{"seq", "5", "8"}},
		"with-step":  {Args: []string{"seq", "0", "25", "100"}},
		"empty":      {Args: []string{"seq", "5", "1"}},
	}

	cases.Run(t, Seq)
}

package commands

import (
	"fmt"
	"strings"

	"josephlewis.net/vsh/core/vos"
)

// Yes repeats its arguments (default "y") until killed or its output
// closes.
func Yes(virtOS vos.VOS) int {
	line := "y"
	if args := virtOS.Args()[1:]; len(args) > 0 {
		line = strings.Join(args, " ")
	}

	for {
		select {
		case <-virtOS.Done():
			return 130
		default:
		}
		if _, err := fmt.Fprintln(virtOS.Stdout(), line); err != nil {
			return 1
		}
	}
}

var _ vos.ProcessFunc = Yes

func init() {
	registerCommand(Yes, "yes")
}

package commands

import (
	"fmt"
	"strconv"
	"time"

	"josephlewis.net/vsh/core/vos"
)

// Sleep pauses for the given number of seconds, waking early when the
// process is killed.
func Sleep(virtOS vos.VOS) int {
	args := virtOS.Args()[1:]
	if len(args) != 1 {
		fmt.Fprintln(virtOS.Stderr(), "sleep: missing operand")
		return 1
	}

	seconds, err := strconv.ParseFloat(args[0], 64)
	if err != nil || seconds < 0 {
		fmt.Fprintf(virtOS.Stderr(), "sleep: invalid time interval %q\n", args[0])
		return 1
	}

	select {
	case <-virtOS.Done():
		return 130
	case <-time.After(time.Duration(seconds * float64(time.Second))):
		return 0
	}
}

var _ vos.ProcessFunc = Sleep

func init() {
	registerCommand(Sleep, "sleep")
}

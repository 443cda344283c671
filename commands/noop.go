package commands

import (
	"fmt"

	"josephlewis.net/vsh/core/vos"
)

// True succeeds.
func True(virtOS vos.VOS) int {
	return 0
}

// False fails.
func False(virtOS vos.VOS) int {
	return 1
}

// Clear emits the ANSI clear-screen sequence.
func Clear(virtOS vos.VOS) int {
	fmt.Fprint(virtOS.Stdout(), "\033[H\033[2J")
	return 0
}

var _ vos.ProcessFunc = True
var _ vos.ProcessFunc = False
var _ vos.ProcessFunc = Clear

func init() {
	registerCommand(True, "true")
	registerCommand(False, "false")
	registerCommand(Clear, "clear", "reset")
}

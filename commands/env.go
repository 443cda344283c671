package commands

import (
	"fmt"

	"josephlewis.net/vsh/core/vos"
)

// Env prints the environment, one NAME=value pair per line.
func Env(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "env",
		Short: "Print the current environment.",
	}

	return cmd.Run(virtOS, func() int {
		for _, pair := range virtOS.Environ() {
			fmt.Fprintln(virtOS.Stdout(), pair)
		}
		return 0
	})
}

// Whoami prints the effective user name.
func Whoami(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "whoami",
		Short: "Print the current user name.",
	}

	return cmd.Run(virtOS, func() int {
		name := virtOS.Getenv("USER")
		if name == "" && virtOS.Getuid() == 0 {
			name = "root"
		}
		if name == "" {
			fmt.Fprintf(virtOS.Stderr(), "whoami: cannot find name for user ID %d\n", virtOS.Getuid())
			return 1
		}
		fmt.Fprintln(virtOS.Stdout(), name)
		return 0
	})
}

// Date prints the virtual clock.
func Date(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "date",
		Short: "Print the current date and time.",
	}

	return cmd.Run(virtOS, func() int {
		fmt.Fprintln(virtOS.Stdout(), virtOS.Now().Format("Mon Jan  2 15:04:05 MST 2006"))
		return 0
	})
}

var _ vos.ProcessFunc = Env
var _ vos.ProcessFunc = Whoami
var _ vos.ProcessFunc = Date

func init() {
	registerCommand(Env, "env")
	registerCommand(Whoami, "whoami")
	registerCommand(Date, "date")
}

package commands

import (
	"fmt"
	"io"

	shlex "github.com/anmitsu/go-shlex"
	"josephlewis.net/vsh/core/vos"
)

// Xargs splits stdin into arguments, quote-aware, and runs the given
// command once with them appended.
func Xargs(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "xargs [COMMAND [ARG]...]",
		Short: "Build and execute a command line from standard input.",
	}
	opt := cmd.Flags()

	return cmd.Run(virtOS, func() int {
		input, err := io.ReadAll(virtOS.Stdin())
		if err != nil {
			fmt.Fprintf(virtOS.Stderr(), "xargs: %v\n", err)
			return 1
		}

		extra, err := shlex.Split(string(input), true)
		if err != nil {
			fmt.Fprintf(virtOS.Stderr(), "xargs: unmatched quote: %v\n", err)
			return 1
		}

		argv := opt.Args()
		if len(argv) == 0 {
			argv = []string{"echo"}
		}
		argv = append(argv, extra...)

		proc, err := virtOS.StartProcess(argv[0], argv, nil)
		if err != nil {
			fmt.Fprintf(virtOS.Stderr(), "xargs: %s: command not found\n", argv[0])
			return 127
		}
		return proc.Run()
	})
}

var _ vos.ProcessFunc = Xargs

func init() {
	registerCommand(Xargs, "xargs")
}

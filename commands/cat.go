package commands

import (
	"fmt"
	"io"

	"josephlewis.net/vsh/core/vos"
)

// Cat implements the UNIX cat command.
func Cat(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "cat [FILE]...",
		Short: "Concatenate FILE(s) to standard output.",
	}
	opt := cmd.Flags()

	return cmd.Run(virtOS, func() int {
		if len(opt.Args()) == 0 {
			io.Copy(virtOS.Stdout(), virtOS.Stdin())
			return 0
		}

		exitCode := 0
		for _, arg := range opt.Args() {
			fd, err := virtOS.Open(arg)
			if err != nil {
				fmt.Fprintf(virtOS.Stderr(), "cat: %s: no such file or directory\n", arg)
				exitCode = 1
				continue
			}
			io.Copy(virtOS.Stdout(), fd)
			fd.Close()
		}
		return exitCode
	})
}

var _ vos.ProcessFunc = Cat

func init() {
	registerCommand(Cat, "cat")
}

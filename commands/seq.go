package commands

import (
	"fmt"
	"strconv"

	"josephlewis.net/vsh/core/vos"
)

// Seq prints a sequence of numbers, one per line.
func Seq(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "seq [FIRST [INCREMENT]] LAST",
		Short: "Print numbers from FIRST to LAST, in steps of INCREMENT.",
	}
	opt := cmd.Flags()

	return cmd.Run(virtOS, func() int {
		args := opt.Args()
		first, incr, last := int64(1), int64(1), int64(0)

		parse := func(s string) (int64, bool) {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				fmt.Fprintf(virtOS.Stderr(), "seq: invalid argument: %q\n", s)
			}
			return n, err == nil
		}

		var ok bool
		switch len(args) {
		case 1:
			if last, ok = parse(args[0]); !ok {
				return 1
			}
		case 2:
			if first, ok = parse(args[0]); !ok {
				return 1
			}
			if last, ok = parse(args[1]); !ok {
				return 1
			}
		case 3:
			if first, ok = parse(args[0]); !ok {
				return 1
			}
			if incr, ok = parse(args[1]); !ok {
				return 1
			}
			if last, ok = parse(args[2]); !ok {
				return 1
			}
		default:
			fmt.Fprintln(virtOS.Stderr(), "seq: missing operand")
			return 1
		}

		if incr == 0 {
			fmt.Fprintln(virtOS.Stderr(), "seq: increment must not be 0")
			return 1
		}

		for i := first; (incr > 0 && i <= last) || (incr < 0 && i >= last); i += incr {
			fmt.Fprintln(virtOS.Stdout(), i)
		}
		return 0
	})
}

var _ vos.ProcessFunc = Seq

func init() {
	registerCommand(Seq, "seq")
}

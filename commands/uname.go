package commands

import (
	"fmt"
	"strings"

	"josephlewis.net/vsh/core/vos"
)

// Uname prints machine identity fields.
func Uname(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "uname [-asnrm]",
		Short: "Print system information.",
	}

	opt := cmd.Flags()
	all := opt.Bool('a', "print all information")
	kernelName := opt.Bool('s', "print the kernel name")
	nodeName := opt.Bool('n', "print the network node hostname")
	release := opt.Bool('r', "print the kernel release")
	machine := opt.Bool('m', "print the machine hardware name")

	return cmd.Run(virtOS, func() int {
		uts := virtOS.Uname()

		var fields []string
		switch {
		case *all:
			fields = []string{uts.Sysname, uts.Nodename, uts.Release, uts.Version, uts.Machine}
		default:
			if *kernelName {
				fields = append(fields, uts.Sysname)
			}
			if *nodeName {
				fields = append(fields, uts.Nodename)
			}
			if *release {
				fields = append(fields, uts.Release)
			}
			if *machine {
				fields = append(fields, uts.Machine)
			}
			if len(fields) == 0 {
				fields = []string{uts.Sysname}
			}
		}

		fmt.Fprintln(virtOS.Stdout(), strings.Join(fields, " "))
		return 0
	})
}

// Hostname prints the machine's node name.
func Hostname(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "hostname",
		Short: "Show the system's host name.",
	}

	return cmd.Run(virtOS, func() int {
		hostname, err := virtOS.Hostname()
		if err != nil {
			fmt.Fprintf(virtOS.Stderr(), "hostname: %v\n", err)
			return 1
		}
		fmt.Fprintln(virtOS.Stdout(), hostname)
		return 0
	})
}

var _ vos.ProcessFunc = Uname
var _ vos.ProcessFunc = Hostname

func init() {
	registerCommand(Uname, "uname")
	registerCommand(Hostname, "hostname")
}

package commands

import (
	"bufio"
	"fmt"
	"io"

	"josephlewis.net/vsh/core/vos"
)

// Head prints the first lines of files or stdin.
func Head(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "head [-n LINES] [FILE]...",
		Short: "Output the first part of files.",
	}
	opt := cmd.Flags()
	lines := opt.Int('n', 10, "print the first LINES lines")

	return cmd.Run(virtOS, func() int {
		return eachLineSource(virtOS, "head", opt.Args(), func(r io.Reader) {
			scanner := bufio.NewScanner(r)
			for i := 0; i < *lines && scanner.Scan(); i++ {
				fmt.Fprintln(virtOS.Stdout(), scanner.Text())
			}
		})
	})
}

// Tail prints the last lines of files or stdin.
func Tail(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "tail [-n LINES] [FILE]...",
		Short: "Output the last part of files.",
	}
	opt := cmd.Flags()
	lines := opt.Int('n', 10, "print the last LINES lines")

	return cmd.Run(virtOS, func() int {
		return eachLineSource(virtOS, "tail", opt.Args(), func(r io.Reader) {
			var kept []string
			scanner := bufio.NewScanner(r)
			for scanner.Scan() {
				kept = append(kept, scanner.Text())
				if len(kept) > *lines {
					kept = kept[1:]
				}
			}
			for _, line := range kept {
				fmt.Fprintln(virtOS.Stdout(), line)
			}
		})
	})
}

// eachLineSource runs body over stdin or each named file in order.
func eachLineSource(virtOS vos.VOS, tool string, files []string, body func(io.Reader)) int {
	if len(files) == 0 {
		body(virtOS.Stdin())
		return 0
	}

	exitCode := 0
	for _, name := range files {
		fd, err := virtOS.Open(name)
		if err != nil {
			fmt.Fprintf(virtOS.Stderr(), "%s: %s: no such file or directory\n", tool, name)
			exitCode = 1
			continue
		}
		body(fd)
		fd.Close()
	}
	return exitCode
}

var _ vos.ProcessFunc = Head
var _ vos.ProcessFunc = Tail

func init() {
	registerCommand(Head, "head")
	registerCommand(Tail, "tail")
}

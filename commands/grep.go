package commands

import (
	"bufio"
	"fmt"
	"io"
	"regexp"

	"josephlewis.net/vsh/core/vos"
)

// Grep implements a regular-expression grep over files or stdin.
func Grep(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "grep [-inv] PATTERN [FILE]...",
		Short: "Print lines matching a pattern.",
	}

	opt := cmd.Flags()
	ignoreCase := opt.Bool('i', "ignore case distinctions")
	invert := opt.Bool('v', "select non-matching lines")
	lineNumbers := opt.Bool('n', "prefix output with line numbers")

	var color ColorPrinter
	color.Init(opt, virtOS)

	return cmd.Run(virtOS, func() int {
		args := opt.Args()
		if len(args) == 0 {
			fmt.Fprintln(virtOS.Stderr(), "grep: missing pattern")
			return 2
		}

		pattern := args[0]
		if *ignoreCase {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			fmt.Fprintf(virtOS.Stderr(), "grep: %v\n", err)
			return 2
		}

		files := args[1:]
		showNames := len(files) > 1
		matched := false
		exitCode := 0

		scan := func(name string, r io.Reader) {
			scanner := bufio.NewScanner(r)
			for lineNo := 1; scanner.Scan(); lineNo++ {
				line := scanner.Text()
				hit := re.MatchString(line)
				if hit == *invert {
					continue
				}
				matched = true

				out := line
				if !*invert {
					out = re.ReplaceAllStringFunc(line, func(m string) string {
						return color.Sprintf(ColorBoldRed, "%s", m)
					})
				}
				switch {
				case showNames && *lineNumbers:
					fmt.Fprintf(virtOS.Stdout(), "%s:%d:%s\n", name, lineNo, out)
				case showNames:
					fmt.Fprintf(virtOS.Stdout(), "%s:%s\n", name, out)
				case *lineNumbers:
					fmt.Fprintf(virtOS.Stdout(), "%d:%s\n", lineNo, out)
				default:
					fmt.Fprintln(virtOS.Stdout(), out)
				}
			}
		}

		if len(files) == 0 {
			scan("(standard input)", virtOS.Stdin())
		}
		for _, name := range files {
			fd, err := virtOS.Open(name)
			if err != nil {
				fmt.Fprintf(virtOS.Stderr(), "grep: %s: no such file or directory\n", name)
				exitCode = 2
				continue
			}
			scan(name, fd)
			fd.Close()
		}

		if exitCode != 0 {
			return exitCode
		}
		if matched {
			return 0
		}
		return 1
	})
}

var _ vos.ProcessFunc = Grep

func init() {
	registerCommand(Grep, "grep")
}

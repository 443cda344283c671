package commands

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"

	"josephlewis.net/vsh/core/vos"
)

// Sort implements the UNIX sort command over files or stdin.
func Sort(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "sort [-rnu] [FILE]...",
		Short: "Sort lines of text files.",
	}

	opt := cmd.Flags()
	reverse := opt.Bool('r', "reverse the result of comparisons")
	numeric := opt.Bool('n', "compare according to numerical value")
	unique := opt.Bool('u', "output only the first of equal lines")

	return cmd.Run(virtOS, func() int {
		var lines []string
		code := eachLineSource(virtOS, "sort", opt.Args(), func(r io.Reader) {
			scanner := bufio.NewScanner(r)
			for scanner.Scan() {
				lines = append(lines, scanner.Text())
			}
		})

		less := func(i, j int) bool { return lines[i] < lines[j] }
		if *numeric {
			less = func(i, j int) bool {
				a, _ := strconv.ParseFloat(lines[i], 64)
				b, _ := strconv.ParseFloat(lines[j], 64)
				if a != b {
					return a < b
				}
				return lines[i] < lines[j]
			}
		}
		sort.SliceStable(lines, less)

		if *reverse {
			for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
				lines[i], lines[j] = lines[j], lines[i]
			}
		}

		var last string
		for i, line := range lines {
			if *unique && i > 0 && line == last {
				continue
			}
			fmt.Fprintln(virtOS.Stdout(), line)
			last = line
		}
		return code
	})
}

var _ vos.ProcessFunc = Sort

func init() {
	registerCommand(Sort, "sort")
}

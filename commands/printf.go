package commands

import (
	"fmt"
	"strconv"
	"strings"

	"josephlewis.net/vsh/core/vos"
)

// Printf implements the %s/%d/%x/%o/%c/%% subset of printf plus the
// usual backslash escapes.
func Printf(virtOS vos.VOS) int {
	args := virtOS.Args()[1:]
	if len(args) == 0 {
		fmt.Fprintln(virtOS.Stderr(), "printf: usage: printf FORMAT [ARGUMENT]...")
		return 2
	}

	format := unescape(args[0])
	values := args[1:]
	next := func() string {
		if len(values) == 0 {
			return ""
		}
		v := values[0]
		values = values[1:]
		return v
	}

	var out strings.Builder
	runes := []rune(format)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '%' || i+1 >= len(runes) {
			out.WriteRune(runes[i])
			continue
		}
		i++
		switch runes[i] {
		case '%':
			out.WriteRune('%')
		case 's':
			out.WriteString(next())
		case 'c':
			if v := next(); v != "" {
				out.WriteString(v[:1])
			}
		case 'd', 'i':
			n, _ := strconv.ParseInt(next(), 10, 64)
			out.WriteString(strconv.FormatInt(n, 10))
		case 'x':
			n, _ := strconv.ParseInt(next(), 10, 64)
			out.WriteString(strconv.FormatInt(n, 16))
		case 'o':
			n, _ := strconv.ParseInt(next(), 10, 64)
			out.WriteString(strconv.FormatInt(n, 8))
		default:
			fmt.Fprintf(virtOS.Stderr(), "printf: %%%c: invalid directive\n", runes[i])
			return 1
		}
	}

	fmt.Fprint(virtOS.Stdout(), out.String())
	return 0
}

var _ vos.ProcessFunc = Printf

func init() {
	registerCommand(Printf, "printf")
}

package commands

import (
	"fmt"
	"strconv"

	"josephlewis.net/vsh/core/vos"
)

// Expr implements the arithmetic and length forms of expr. Following
// the original, an expression evaluating to 0 or empty exits 1.
func Expr(virtOS vos.VOS) int {
	args := virtOS.Args()[1:]

	fail := func(msg string) int {
		fmt.Fprintf(virtOS.Stderr(), "expr: %s\n", msg)
		return 2
	}

	switch {
	case len(args) == 2 && args[0] == "length":
		n := len(args[1])
		fmt.Fprintln(virtOS.Stdout(), n)
		if n == 0 {
			return 1
		}
		return 0

	case len(args) == 3:
		a, errA := strconv.ParseInt(args[0], 10, 64)
		b, errB := strconv.ParseInt(args[2], 10, 64)

		switch args[1] {
		case "=", "!=", "<", "<=", ">", ">=":
			var truth bool
			if errA == nil && errB == nil {
				truth = compareInts(a, b, args[1])
			} else {
				truth = compareStrings(args[0], args[2], args[1])
			}
			if truth {
				fmt.Fprintln(virtOS.Stdout(), 1)
				return 0
			}
			fmt.Fprintln(virtOS.Stdout(), 0)
			return 1
		}

		if errA != nil || errB != nil {
			return fail("non-integer argument")
		}
		var result int64
		switch args[1] {
		case "+":
			result = a + b
		case "-":
			result = a - b
		case "*":
			result = a * b
		case "/":
			if b == 0 {
				return fail("division by zero")
			}
			result = a / b
		case "%":
			if b == 0 {
				return fail("division by zero")
			}
			result = a % b
		default:
			return fail(fmt.Sprintf("unknown operator %q", args[1]))
		}
		fmt.Fprintln(virtOS.Stdout(), result)
		if result == 0 {
			return 1
		}
		return 0

	case len(args) == 1:
		fmt.Fprintln(virtOS.Stdout(), args[0])
		if args[0] == "" || args[0] == "0" {
			return 1
		}
		return 0
	}

	return fail("syntax error")
}

func compareInts(a, b int64, op string) bool {
	switch op {
	case "=":
		return a == b
	case "!=":
		return a != b
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	default:
		return a >= b
	}
}

func compareStrings(a, b, op string) bool {
	switch op {
	case "=":
		return a == b
	case "!=":
		return a != b
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	default:
		return a >= b
	}
}

var _ vos.ProcessFunc = Expr

func init() {
	registerCommand(Expr, "expr")
}

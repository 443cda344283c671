package commands

import (
	"strconv"

	"josephlewis.net/vsh/core/vos"
)

// Test implements test and its [ alias: file checks, string checks and
// integer comparisons. Exit 0 is true, 1 false, 2 a usage error.
func Test(virtOS vos.VOS) int {
	args := virtOS.Args()[1:]

	// [ requires a closing bracket.
	if virtOS.Args()[0] == "[" {
		if len(args) == 0 || args[len(args)-1] != "]" {
			return 2
		}
		args = args[:len(args)-1]
	}

	switch len(args) {
	case 0:
		return 1

	case 1:
		return boolExit(args[0] != "")

	case 2:
		value := args[1]
		switch args[0] {
		case "-z":
			return boolExit(value == "")
		case "-n":
			return boolExit(value != "")
		case "-e":
			_, err := virtOS.Stat(value)
			return boolExit(err == nil)
		case "-f":
			info, err := virtOS.Stat(value)
			return boolExit(err == nil && !info.IsDir())
		case "-d":
			info, err := virtOS.Stat(value)
			return boolExit(err == nil && info.IsDir())
		case "-s":
			info, err := virtOS.Stat(value)
			return boolExit(err == nil && info.Size() > 0)
		case "!":
			return boolExit(value == "")
		}
		return 2

	case 3:
		a, op, b := args[0], args[1], args[2]
		switch op {
		case "=":
			return boolExit(a == b)
		case "!=":
			return boolExit(a != b)
		}

		an, errA := strconv.ParseInt(a, 10, 64)
		bn, errB := strconv.ParseInt(b, 10, 64)
		if errA != nil || errB != nil {
			return 2
		}
		switch op {
		case "-eq":
			return boolExit(an == bn)
		case "-ne":
			return boolExit(an != bn)
		case "-lt":
			return boolExit(an < bn)
		case "-le":
			return boolExit(an <= bn)
		case "-gt":
			return boolExit(an > bn)
		case "-ge":
			return boolExit(an >= bn)
		}
		return 2
	}

	return 2
}

func boolExit(ok bool) int {
	if ok {
		return 0
	}
	return 1
}

var _ vos.ProcessFunc = Test

func init() {
	registerCommand(Test, "test", "[")
}

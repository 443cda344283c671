package shell

import (
	"fmt"
	"log"
	"sort"

	"josephlewis.net/vsh/core/vos"
)

// BuiltinFunc is a shell builtin: it runs on the interpreter's
// goroutine when invoked alone in the foreground (so it can mutate
// session state) and against a subshell clone inside pipelines.
type BuiltinFunc func(sh *Shell, stdio vos.VIO, args []string) int

var builtinRegistry = map[string]BuiltinFunc{}

// RegisterBuiltin enters a builtin into the dispatch table. A name
// collision is a programming error: it is logged and the first
// registration wins.
func RegisterBuiltin(name string, fn BuiltinFunc) {
	if _, exists := builtinRegistry[name]; exists {
		log.Printf("duplicate builtin registration for %q ignored", name)
		return
	}
	builtinRegistry[name] = fn
}

// BuiltinNames lists the registered builtins, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinRegistry))
	for name := range builtinRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type resolutionKind int

const (
	resolveNotFound resolutionKind = iota
	resolveFunction
	resolveBuiltin
	resolveCommand
)

// resolution is the result of a dispatch lookup.
type resolution struct {
	kind     resolutionKind
	function *functionDef
	builtin  BuiltinFunc
	command  vos.ProcessFunc
}

// Resolve looks a command name up in dispatch order: user-defined
// functions shadow builtins, builtins shadow leaf commands.
func (sh *Shell) Resolve(name string) resolution {
	if def, ok := sh.funcs[name]; ok {
		return resolution{kind: resolveFunction, function: def}
	}
	if fn, ok := builtinRegistry[name]; ok {
		return resolution{kind: resolveBuiltin, builtin: fn}
	}
	if fn := sh.kernel.Resolve(name); fn != nil {
		return resolution{kind: resolveCommand, command: fn}
	}
	return resolution{kind: resolveNotFound}
}

// notFoundProcess is the stage run for an unresolvable name: the
// standard diagnostic and exit 127.
func notFoundProcess(name string) vos.ProcessFunc {
	return func(os vos.VOS) int {
		fmt.Fprintf(os.Stderr(), "vsh: %s: command not found\n", name)
		return ExitNotFound
	}
}

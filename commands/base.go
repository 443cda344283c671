// Package commands holds the leaf command implementations the shell
// dispatches to. Each command is a vos.ProcessFunc registered under its
// name; the shell resolves them through Resolver.
package commands

import (
	"fmt"
	"io"
	"log"
	"path"
	"sort"

	"github.com/fatih/color"
	getopt "github.com/pborman/getopt/v2"
	"josephlewis.net/vsh/core/vos"
)

// AllCommands holds every registered command by name.
var AllCommands = make(map[string]vos.ProcessFunc)

// registerCommand enters a command under one or more names. A name
// collision is a programming error: it is logged and the first
// registration wins.
func registerCommand(fn vos.ProcessFunc, names ...string) {
	for _, name := range names {
		if _, exists := AllCommands[name]; exists {
			log.Printf("duplicate command registration for %q ignored", name)
			continue
		}
		AllCommands[name] = fn
	}
}

// Names lists the registered command names, sorted.
func Names() []string {
	names := make([]string, 0, len(AllCommands))
	for name := range AllCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolver adapts the registry to the kernel's process table. Bare
// names and absolute paths resolve to the same command.
func Resolver(name string) vos.ProcessFunc {
	if fn, ok := AllCommands[name]; ok {
		return fn
	}
	return AllCommands[path.Base(name)]
}

// SimpleCommand wires getopt flag parsing and --help handling around a
// command body.
type SimpleCommand struct {
	// Use holds a one line usage string.
	Use string
	// Short holds a one line description of the command.
	Short string

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}
	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run parses flags and, when parsing succeeded, calls the callback.
func (s *SimpleCommand) Run(virtOS vos.VOS, callback func() int) int {
	opts := s.Flags()
	showHelp := opts.BoolLong("help", 'h', "show this help and exit")

	if err := opts.Getopt(virtOS.Args(), nil); err != nil {
		fmt.Fprintf(virtOS.Stderr(), "error: %s\n\n", err)
		s.PrintHelp(virtOS.Stdout())
		return 1
	}

	if *showHelp {
		s.PrintHelp(virtOS.Stdout())
		return 0
	}

	return callback()
}

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

var (
	ColorBoldBlue  = color.New(color.FgBlue, color.Bold)
	ColorBoldGreen = color.New(color.FgGreen, color.Bold)
	ColorBoldRed   = color.New(color.FgRed, color.Bold)
)

// ColorPrinter decides whether a command colorizes its output based on
// a --color flag and the session's TERM.
type ColorPrinter struct {
	value  *string
	virtOS vos.VOS
}

// Init registers the --color flag on the command's flag set.
func (c *ColorPrinter) Init(flags *getopt.Set, virtOS vos.VOS) {
	c.virtOS = virtOS
	c.value = flags.EnumLong(
		"color",
		rune(0), // No short flag.
		[]string{colorAlways, colorAuto, colorNever},
		colorAuto,
		"colorize the output (always|auto|never)")
}

func (c *ColorPrinter) ShouldColor() bool {
	switch *c.value {
	case colorNever:
		return false
	case colorAlways:
		return true
	default:
		term := c.virtOS.Getenv("TERM")
		return term != "" && term != "dumb"
	}
}

func (c *ColorPrinter) Sprintf(col *color.Color, format string, a ...interface{}) string {
	if c.ShouldColor() {
		return col.Sprintf(format, a...)
	}
	return fmt.Sprintf(format, a...)
}

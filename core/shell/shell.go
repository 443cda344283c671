// Package shell implements a POSIX-like command interpreter over the
// virtual OS: lexing, expansion, pipelines with redirection, job
// control, and a scripting layer with control flow and functions.
package shell

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"josephlewis.net/vsh/core/logger"
	"josephlewis.net/vsh/core/vos"
)

// Well known environment variables.
const (
	EnvHome    = "HOME"
	EnvPath    = "PATH"
	EnvPWD     = "PWD"
	EnvUser    = "USER"
	EnvShell   = "SHELL"
	EnvPrompt  = "PS1"
	EnvPrompt2 = "PS2"
)

const (
	// DefaultPrompt mimics Debian's bash prompt.
	DefaultPrompt = `\u@\h:\w\$ `
	// DefaultPrompt2 is shown while a block or quoted string continues.
	DefaultPrompt2 = "> "

	// DefaultHistoryLimit bounds the in-memory history list.
	DefaultHistoryLimit = 1000

	// maxSubstitutionDepth bounds recursive $(...) nesting.
	maxSubstitutionDepth = 16
)

// Shell is one interpreter session. All shell-level state (environment,
// aliases, functions, jobs, history) hangs off this struct and is only
// mutated by the goroutine driving Execute or Run.
type Shell struct {
	// OS is the shell's own process view: environment, filesystem,
	// standard streams and working directory.
	OS *vos.ProcOS

	// Aliases maps alias names to replacement text.
	Aliases map[string]string

	kernel       *vos.Kernel
	funcs        map[string]*functionDef
	history      []string
	historyLimit int
	jobs         *JobManager
	recorder     logger.EventRecorder
	sessionID    string

	lastExit   int
	arg0       string
	positional []string
	frames     []*frame

	substDepth int
	quit       bool
	exitCode   int
	returning  bool
}

// frame is one function call's scope: args[0] is the function name and
// the rest are the positional parameters.
type frame struct {
	args []string
}

// NewShell creates a session around an existing process view,
// conventionally the kernel's init process.
func NewShell(os *vos.ProcOS) *Shell {
	return &Shell{
		OS:           os,
		kernel:       os.Kernel(),
		Aliases:      make(map[string]string),
		funcs:        make(map[string]*functionDef),
		historyLimit: DefaultHistoryLimit,
		jobs:         NewJobManager(),
		recorder:     logger.NopRecorder{},
		arg0:         "vsh",
	}
}

// Init fills in the environment defaults a fresh login expects and
// moves into the user's home directory when it exists.
func (sh *Shell) Init(username string) {
	env := sh.OS
	if _, ok := env.LookupEnv(EnvUser); !ok {
		env.Setenv(EnvUser, username)
	}
	if _, ok := env.LookupEnv(EnvHome); !ok {
		home := "/root"
		if username != "root" {
			home = "/home/" + username
		}
		env.Setenv(EnvHome, home)
	}
	if _, ok := env.LookupEnv(EnvPath); !ok {
		env.Setenv(EnvPath, "/usr/local/bin:/usr/bin:/bin")
	}
	if _, ok := env.LookupEnv(EnvShell); !ok {
		env.Setenv(EnvShell, "/bin/vsh")
	}
	if _, ok := env.LookupEnv(EnvPrompt); !ok {
		env.Setenv(EnvPrompt, DefaultPrompt)
	}

	home := env.Getenv(EnvHome)
	if err := sh.OS.Chdir(home); err == nil {
		env.Setenv(EnvPWD, home)
	} else {
		env.Setenv(EnvPWD, "/")
	}
}

// SetRecorder wires an event sink; nil restores the no-op recorder.
func (sh *Shell) SetRecorder(recorder logger.EventRecorder, sessionID string) {
	if recorder == nil {
		recorder = logger.NopRecorder{}
	}
	sh.recorder = recorder
	sh.sessionID = sessionID
}

// SetArgs binds $0 and the script-level positional parameters.
func (sh *Shell) SetArgs(arg0 string, positional []string) {
	sh.arg0 = arg0
	sh.positional = positional
}

// LastExit is the exit code of the most recent command, i.e. $?.
func (sh *Shell) LastExit() int { return sh.lastExit }

// Jobs exposes the session's job table.
func (sh *Shell) Jobs() *JobManager { return sh.jobs }

// Quit reports whether exit has been requested, and the code to exit
// with. The interpreter itself never terminates the hosting process.
func (sh *Shell) Quit() (bool, int) { return sh.quit, sh.exitCode }

// Execute runs one logical line (or several separated by ;) and
// returns its exit code. This is the external entry point; blocks that
// are left open at end of input are a syntax error.
func (sh *Shell) Execute(line string) int {
	return sh.executeWith(NewStringSource(line), nil)
}

// Run drives an interactive session: prompt, read, execute, repeat,
// reporting finished background jobs before each prompt. It returns
// the session's exit code once the source is exhausted or exit runs.
func (sh *Shell) Run(src LineSource) int {
	for !sh.quit {
		sh.jobs.Reap(sh.OS.Stdout())

		line, err := readLogicalLine(src, sh.Prompt(), sh.ContinuationPrompt())
		if err != nil {
			break
		}
		sh.runLineWith(line, src)
	}
	sh.jobs.Reap(sh.OS.Stdout())
	return sh.exitCode
}

// RunLine executes one interactive line: history expansion first, then
// the line is recorded and interpreted.
func (sh *Shell) RunLine(line string) int {
	return sh.runLineWith(line, nil)
}

// runLineWith is RunLine with a continuation source for blocks that
// span lines: "if true" at the prompt keeps reading under PS2.
func (sh *Shell) runLineWith(line string, cont LineSource) int {
	if strings.TrimSpace(line) == "" {
		return sh.lastExit
	}

	expanded, wasHistory, err := sh.expandHistory(line)
	if err != nil {
		fmt.Fprintf(sh.OS.Stderr(), "vsh: %v\n", err)
		sh.lastExit = ExitFailure
		return sh.lastExit
	}
	if wasHistory {
		// Echo what will actually run, the way history recall does.
		fmt.Fprintln(sh.OS.Stdout(), expanded)
	} else {
		sh.AddHistory(line)
	}

	return sh.executeWith(NewStringSource(expanded), cont)
}

// RunScript interprets lines from r until EOF, stopping early when
// exit is called. Blank lines and comments fall out naturally.
func (sh *Shell) RunScript(r io.Reader) int {
	sh.executeWith(NewReaderSource(r), nil)
	sh.jobs.Reap(sh.OS.Stdout())
	if sh.quit {
		return sh.exitCode
	}
	return sh.lastExit
}

// History returns a copy of the recorded command lines, oldest first.
func (sh *Shell) History() []string {
	return append([]string(nil), sh.history...)
}

// AddHistory appends a line to the history, dropping the oldest entry
// past the limit.
func (sh *Shell) AddHistory(line string) {
	sh.history = append(sh.history, line)
	if sh.historyLimit > 0 && len(sh.history) > sh.historyLimit {
		sh.history = sh.history[len(sh.history)-sh.historyLimit:]
	}
}

// SetHistoryLimit bounds the history list; zero or negative means
// unbounded.
func (sh *Shell) SetHistoryLimit(limit int) { sh.historyLimit = limit }

// expandHistory resolves !! and !n references against the history
// list. The second result reports whether a reference was present.
func (sh *Shell) expandHistory(line string) (string, bool, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "!") || trimmed == "!" {
		return line, false, nil
	}

	ref := trimmed[1:]
	if ref == "!" {
		if len(sh.history) == 0 {
			return "", false, fmt.Errorf("!!: event not found")
		}
		return sh.history[len(sh.history)-1], true, nil
	}

	n, err := strconv.Atoi(ref)
	if err != nil {
		return "", false, fmt.Errorf("!%s: event not found", ref)
	}
	if n < 1 || n > len(sh.history) {
		return "", false, fmt.Errorf("!%d: event not found", n)
	}
	return sh.history[n-1], true, nil
}

// currentArgs is the positional parameter view: the innermost function
// frame, or the script-level parameters outside any call.
func (sh *Shell) currentArgs() []string {
	if len(sh.frames) > 0 {
		return sh.frames[len(sh.frames)-1].args
	}
	return append([]string{sh.arg0}, sh.positional...)
}

func (sh *Shell) pushFrame(args []string) {
	sh.frames = append(sh.frames, &frame{args: args})
}

func (sh *Shell) popFrame() {
	if len(sh.frames) > 0 {
		sh.frames = sh.frames[:len(sh.frames)-1]
	}
}

// subshellFor clones the session state onto another process view for
// command substitution and pipeline stages. Mutations made by the
// clone never reach the parent.
func (sh *Shell) subshellFor(os *vos.ProcOS) *Shell {
	clone := &Shell{
		OS:           os,
		kernel:       os.Kernel(),
		Aliases:      copyStringMap(sh.Aliases),
		funcs:        make(map[string]*functionDef, len(sh.funcs)),
		historyLimit: sh.historyLimit,
		jobs:         NewJobManager(),
		recorder:     sh.recorder,
		sessionID:    sh.sessionID,
		lastExit:     sh.lastExit,
		arg0:         sh.arg0,
		positional:   append([]string(nil), sh.positional...),
		substDepth:   sh.substDepth,
	}
	for name, def := range sh.funcs {
		clone.funcs[name] = def
	}
	for _, fr := range sh.frames {
		clone.frames = append(clone.frames, &frame{args: append([]string(nil), fr.args...)})
	}
	return clone
}

func copyStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (sh *Shell) reportError(class string, err error) {
	fmt.Fprintf(sh.OS.Stderr(), "vsh: %v\n", err)
	sh.recorder.Record(logger.Event{
		Kind:      logger.KindError,
		SessionID: sh.sessionID,
		Error:     &logger.ErrorEvent{Class: class, Message: err.Error()},
	})
}

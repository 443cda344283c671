package shell

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"josephlewis.net/vsh/core/vos"
)

func init() {
	for name, fn := range map[string]BuiltinFunc{
		":":       builtinColon,
		".":       builtinSource,
		"alias":   builtinAlias,
		"bg":      builtinBg,
		"cd":      builtinCd,
		"exit":    builtinExit,
		"export":  builtinExport,
		"fg":      builtinFg,
		"help":    builtinHelp,
		"history": builtinHistory,
		"jobs":    builtinJobs,
		"kill":    builtinKill,
		"logout":  builtinExit,
		"pwd":     builtinPwd,
		"read":    builtinRead,
		"return":  builtinReturn,
		"shift":   builtinShift,
		"source":  builtinSource,
		"type":    builtinType,
		"unalias": builtinUnalias,
		"unset":   builtinUnset,
		"wait":    builtinWait,
	} {
		RegisterBuiltin(name, fn)
	}
}

func builtinColon(sh *Shell, stdio vos.VIO, args []string) int {
	return 0
}

func builtinCd(sh *Shell, stdio vos.VIO, args []string) int {
	var target string
	printAfter := false
	switch {
	case len(args) < 2:
		target = sh.OS.Getenv(EnvHome)
		if target == "" {
			target = "/"
		}
	case args[1] == "-":
		target = sh.OS.Getenv("OLDPWD")
		if target == "" {
			fmt.Fprintln(stdio.Stderr(), "cd: OLDPWD not set")
			return 1
		}
		printAfter = true
	default:
		target = args[1]
	}

	old, _ := sh.OS.Getwd()
	if err := sh.OS.Chdir(target); err != nil {
		fmt.Fprintf(stdio.Stderr(), "cd: %v\n", err)
		return 1
	}
	wd, _ := sh.OS.Getwd()
	sh.OS.Setenv("OLDPWD", old)
	sh.OS.Setenv(EnvPWD, wd)
	if printAfter {
		fmt.Fprintln(stdio.Stdout(), wd)
	}
	return 0
}

func builtinPwd(sh *Shell, stdio vos.VIO, args []string) int {
	wd, err := sh.OS.Getwd()
	if err != nil {
		fmt.Fprintf(stdio.Stderr(), "pwd: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdio.Stdout(), wd)
	return 0
}

func builtinExit(sh *Shell, stdio vos.VIO, args []string) int {
	code := sh.lastExit
	if len(args) > 1 {
		parsed, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(stdio.Stderr(), "exit: %s: numeric argument required\n", args[1])
			parsed = ExitSyntax
		}
		code = parsed & 0xff
	}
	sh.quit = true
	sh.exitCode = code
	return code
}

func builtinExport(sh *Shell, stdio vos.VIO, args []string) int {
	if len(args) < 2 {
		for _, pair := range sh.OS.Environ() {
			fmt.Fprintf(stdio.Stdout(), "export %s\n", pair)
		}
		return 0
	}
	for _, arg := range args[1:] {
		if kv := strings.SplitN(arg, "=", 2); len(kv) == 2 {
			sh.OS.Setenv(kv[0], kv[1])
		}
		// A bare name is a no-op: every variable is already exported.
	}
	return 0
}

func builtinUnset(sh *Shell, stdio vos.VIO, args []string) int {
	for _, name := range args[1:] {
		sh.OS.Unsetenv(name)
		delete(sh.funcs, name)
	}
	return 0
}

func builtinAlias(sh *Shell, stdio vos.VIO, args []string) int {
	if len(args) < 2 {
		names := make([]string, 0, len(sh.Aliases))
		for name := range sh.Aliases {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(stdio.Stdout(), "alias %s='%s'\n", name, sh.Aliases[name])
		}
		return 0
	}

	code := 0
	for _, arg := range args[1:] {
		if kv := strings.SplitN(arg, "=", 2); len(kv) == 2 {
			sh.Aliases[kv[0]] = kv[1]
			continue
		}
		if value, ok := sh.Aliases[arg]; ok {
			fmt.Fprintf(stdio.Stdout(), "alias %s='%s'\n", arg, value)
		} else {
			fmt.Fprintf(stdio.Stderr(), "alias: %s: not found\n", arg)
			code = 1
		}
	}
	return code
}

func builtinUnalias(sh *Shell, stdio vos.VIO, args []string) int {
	if len(args) > 1 && args[1] == "-a" {
		sh.Aliases = make(map[string]string)
		return 0
	}
	code := 0
	for _, name := range args[1:] {
		if _, ok := sh.Aliases[name]; !ok {
			fmt.Fprintf(stdio.Stderr(), "unalias: %s: not found\n", name)
			code = 1
			continue
		}
		delete(sh.Aliases, name)
	}
	return code
}

func builtinJobs(sh *Shell, stdio vos.VIO, args []string) int {
	for _, job := range sh.jobs.Jobs() {
		job.Poll()
		fmt.Fprintln(stdio.Stdout(), sh.jobs.Format(job))
	}
	return 0
}

func builtinFg(sh *Shell, stdio vos.VIO, args []string) int {
	spec := "%+"
	if len(args) > 1 {
		spec = args[1]
	}
	job, err := sh.jobs.Find(spec)
	if err != nil {
		fmt.Fprintf(stdio.Stderr(), "fg: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdio.Stdout(), job.Text)
	job.Continue()
	code := job.Wait()
	job.closeStreams()
	sh.jobs.Remove(job.ID)
	return code
}

func builtinBg(sh *Shell, stdio vos.VIO, args []string) int {
	spec := "%+"
	if len(args) > 1 {
		spec = args[1]
	}
	job, err := sh.jobs.Find(spec)
	if err != nil {
		fmt.Fprintf(stdio.Stderr(), "bg: %v\n", err)
		return 1
	}
	if job.State != JobStopped {
		fmt.Fprintf(stdio.Stderr(), "bg: job %d already in background\n", job.ID)
		return 0
	}

	job.Continue()
	fmt.Fprintf(stdio.Stdout(), "[%d]%s %s &\n", job.ID, sh.jobs.marker(job.ID), job.Text)
	return 0
}

func builtinWait(sh *Shell, stdio vos.VIO, args []string) int {
	if len(args) < 2 {
		return sh.jobs.WaitAll()
	}

	code := 0
	for _, spec := range args[1:] {
		job, err := sh.jobs.Find(spec)
		if err != nil {
			fmt.Fprintf(stdio.Stderr(), "wait: %v\n", err)
			return 127
		}
		code = job.Wait()
		job.closeStreams()
		sh.jobs.Remove(job.ID)
	}
	return code
}

var killSignals = map[string]vos.Signal{
	"9": vos.SigKill, "KILL": vos.SigKill,
	"15": vos.SigTerm, "TERM": vos.SigTerm,
	"19": vos.SigStop, "STOP": vos.SigStop,
	"18": vos.SigCont, "CONT": vos.SigCont,
}

func builtinKill(sh *Shell, stdio vos.VIO, args []string) int {
	sig := vos.SigTerm
	targets := args[1:]
	if len(targets) > 0 && strings.HasPrefix(targets[0], "-") {
		name := strings.TrimPrefix(strings.TrimPrefix(targets[0], "-"), "SIG")
		parsed, ok := killSignals[strings.ToUpper(name)]
		if !ok {
			fmt.Fprintf(stdio.Stderr(), "kill: %s: invalid signal specification\n", targets[0])
			return 1
		}
		sig = parsed
		targets = targets[1:]
	}
	if len(targets) == 0 {
		fmt.Fprintln(stdio.Stderr(), "kill: usage: kill [-signal] pid | %job ...")
		return 2
	}

	code := 0
	for _, target := range targets {
		job, err := sh.findKillTarget(target)
		if err != nil {
			fmt.Fprintf(stdio.Stderr(), "kill: %v\n", err)
			code = 1
			continue
		}
		switch sig {
		case vos.SigStop:
			job.Stop()
		case vos.SigCont:
			job.Continue()
		default:
			job.Kill()
		}
	}
	return code
}

func (sh *Shell) findKillTarget(target string) (*Job, error) {
	if strings.HasPrefix(target, "%") {
		return sh.jobs.Find(target)
	}
	pid, err := strconv.Atoi(target)
	if err != nil {
		return nil, &JobError{Spec: target, Msg: "arguments must be process or job IDs"}
	}
	for _, job := range sh.jobs.Jobs() {
		for _, proc := range job.Procs {
			if proc.PID() == pid {
				return job, nil
			}
		}
	}
	return nil, &JobError{Spec: target, Msg: "no such process"}
}

func builtinHistory(sh *Shell, stdio vos.VIO, args []string) int {
	if len(args) > 1 && args[1] == "-c" {
		sh.history = nil
		return 0
	}

	entries := sh.history
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			fmt.Fprintf(stdio.Stderr(), "history: %s: numeric argument required\n", args[1])
			return 1
		}
		if n < len(entries) {
			entries = entries[len(entries)-n:]
		}
	}

	offset := len(sh.history) - len(entries)
	for i, line := range entries {
		fmt.Fprintf(stdio.Stdout(), " %4d  %s\n", offset+i+1, line)
	}
	return 0
}

func builtinReturn(sh *Shell, stdio vos.VIO, args []string) int {
	if len(sh.frames) == 0 {
		fmt.Fprintln(stdio.Stderr(), "return: can only `return' from a function")
		return 1
	}
	code := sh.lastExit
	if len(args) > 1 {
		parsed, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(stdio.Stderr(), "return: %s: numeric argument required\n", args[1])
			parsed = ExitSyntax
		}
		code = ((parsed % 256) + 256) % 256
	}
	sh.returning = true
	return code
}

func builtinShift(sh *Shell, stdio vos.VIO, args []string) int {
	n := 1
	if len(args) > 1 {
		parsed, err := strconv.Atoi(args[1])
		if err != nil || parsed < 0 {
			fmt.Fprintf(stdio.Stderr(), "shift: %s: numeric argument required\n", args[1])
			return 1
		}
		n = parsed
	}

	if len(sh.frames) > 0 {
		fr := sh.frames[len(sh.frames)-1]
		if n > len(fr.args)-1 {
			return 1
		}
		fr.args = append(fr.args[:1], fr.args[1+n:]...)
		return 0
	}
	if n > len(sh.positional) {
		return 1
	}
	sh.positional = sh.positional[n:]
	return 0
}

func builtinSource(sh *Shell, stdio vos.VIO, args []string) int {
	if len(args) < 2 {
		fmt.Fprintf(stdio.Stderr(), "%s: filename argument required\n", args[0])
		return 2
	}
	data, err := afero.ReadFile(sh.OS, args[1])
	if err != nil {
		fmt.Fprintf(stdio.Stderr(), "%s: %s: no such file or directory\n", args[0], args[1])
		return 1
	}
	return sh.RunScript(strings.NewReader(string(data)))
}

func builtinHelp(sh *Shell, stdio vos.VIO, args []string) int {
	fmt.Fprintln(stdio.Stdout(), "Shell builtins:")
	for _, name := range BuiltinNames() {
		fmt.Fprintf(stdio.Stdout(), "  %s\n", name)
	}
	return 0
}

func builtinType(sh *Shell, stdio vos.VIO, args []string) int {
	code := 0
	for _, name := range args[1:] {
		switch sh.Resolve(name).kind {
		case resolveFunction:
			fmt.Fprintf(stdio.Stdout(), "%s is a function\n", name)
		case resolveBuiltin:
			fmt.Fprintf(stdio.Stdout(), "%s is a shell builtin\n", name)
		case resolveCommand:
			fmt.Fprintf(stdio.Stdout(), "%s is /usr/bin/%s\n", name, name)
		default:
			fmt.Fprintf(stdio.Stderr(), "type: %s: not found\n", name)
			code = 1
		}
	}
	return code
}

// builtinRead reads one line from stdin into the named variables,
// byte by byte so it never consumes past the newline.
func builtinRead(sh *Shell, stdio vos.VIO, args []string) int {
	var line strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := stdio.Stdin().Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			line.WriteByte(buf[0])
		}
		if err != nil {
			if line.Len() == 0 {
				return 1
			}
			break
		}
	}

	names := args[1:]
	if len(names) == 0 {
		names = []string{"REPLY"}
	}
	fields := strings.Fields(line.String())
	for i, name := range names {
		switch {
		case i == len(names)-1 && i < len(fields):
			sh.OS.Setenv(name, strings.Join(fields[i:], " "))
		case i < len(fields):
			sh.OS.Setenv(name, fields[i])
		default:
			sh.OS.Setenv(name, "")
		}
	}
	return 0
}

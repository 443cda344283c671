package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"strings"

	"josephlewis.net/vsh/core/logger"
	"josephlewis.net/vsh/core/vos"
)

var assignmentPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=`)

// runStatementText tokenizes and runs one statement string. src feeds
// here-document bodies and is nil in contexts without further lines.
func (sh *Shell) runStatementText(text string, src LineSource) int {
	tokens, err := Tokenize(text)
	if err != nil {
		sh.reportError("syntax", err)
		sh.lastExit = ExitSyntax
		return sh.lastExit
	}
	tokens = sh.expandAlias(tokens)

	statements, err := ParseStatements(tokens, src)
	if err != nil {
		sh.reportError("syntax", err)
		sh.lastExit = ExitSyntax
		return sh.lastExit
	}
	for _, stmt := range statements {
		sh.runStatement(stmt, src)
		if sh.quit || sh.returning {
			break
		}
	}
	return sh.lastExit
}

// runStatement executes one statement: a short-circuiting boolean
// chain of pipelines, backgrounded as a whole when & trailed it.
func (sh *Shell) runStatement(stmt *Statement, src LineSource) int {
	if stmt.Background {
		return sh.runBackground(stmt)
	}

	code := 0
	for _, link := range stmt.Chain {
		switch link.Op {
		case "&&":
			if code != 0 {
				continue
			}
		case "||":
			if code == 0 {
				continue
			}
		}
		code = sh.runPipeline(link.Pipe, stmt.Text, src)
		if sh.quit || sh.returning {
			break
		}
	}
	sh.lastExit = code
	return code
}

// runBackground launches the statement without waiting. A single
// pipeline backgrounds its stages directly; a boolean chain wraps in
// one subshell process so the chain logic itself runs detached.
func (sh *Shell) runBackground(stmt *Statement) int {
	if len(stmt.Chain) == 1 {
		return sh.launchPipeline(stmt.Chain[0].Pipe, true, stmt.Text, nil, nil)
	}

	wd, _ := sh.OS.Getwd()
	foreground := *stmt
	foreground.Background = false
	proc := sh.kernel.Spawn(func(os vos.VOS) int {
		sub := sh.subshellFor(os.(*vos.ProcOS))
		return sub.runStatement(&foreground, nil)
	}, "subshell", []string{"subshell"}, &vos.ProcAttr{
		Dir: wd,
		Env: sh.OS.Environ(),
		Files: &vos.VIOAdapter{
			IStdin:  io.NopCloser(strings.NewReader("")),
			IStdout: vos.NopWriteCloser(sh.OS.Stdout()),
			IStderr: vos.NopWriteCloser(sh.OS.Stderr()),
		},
		UID: sh.OS.Getuid(),
	})

	job := &Job{Procs: []*vos.Proc{proc}, State: JobRunning, Background: true, Text: stmt.Text}
	id := sh.jobs.Add(job)
	fmt.Fprintf(sh.OS.Stdout(), "[%d] %d\n", id, proc.PID())
	sh.recordJob(id, JobRunning, stmt.Text)
	proc.Start()
	sh.lastExit = 0
	return 0
}

// runPipeline executes one pipeline in the foreground. A lone builtin,
// function or assignment runs inline on the interpreter goroutine so
// it can mutate session state.
func (sh *Shell) runPipeline(p *Pipeline, text string, src LineSource) int {
	if len(p.Commands) == 1 {
		argv, assigns, code, handled := sh.runSimple(p.Commands[0], p.HereDoc)
		if handled {
			return code
		}
		// Words are expanded exactly once; the spawned stage reuses
		// this argv so substitution side effects don't repeat.
		return sh.launchPipeline(p, false, text, [][]string{argv}, assigns)
	}
	return sh.launchPipeline(p, false, text, nil, nil)
}

// runSimple handles the inline cases of a single-command pipeline.
// The last result is false when the command needs a spawned process,
// in which case the expanded argv and its NAME=value prefixes are
// handed back for it.
func (sh *Shell) runSimple(cmd *ParsedCommand, heredoc *HereDoc) ([]string, []string, int, bool) {
	argv, err := sh.expandWords(cmd.Words)
	if err != nil {
		sh.expansionFailed(err)
		return nil, nil, sh.lastExit, true
	}

	rest := argv
	var assigns []string
	for len(rest) > 0 && assignmentPattern.MatchString(rest[0]) {
		assigns = append(assigns, rest[0])
		rest = rest[1:]
	}

	if len(rest) == 0 {
		// Assignments with no command bind in the session itself;
		// redirections still run for their side effects (> file
		// truncates).
		for _, assign := range assigns {
			kv := strings.SplitN(assign, "=", 2)
			sh.OS.Setenv(kv[0], kv[1])
		}
		if len(cmd.Redirs) > 0 || heredoc != nil {
			_, closers, err := sh.applyRedirs(sh.shellVIO(), cmd.Redirs, heredoc)
			if err != nil {
				sh.redirectionFailed(err)
				return nil, nil, sh.lastExit, true
			}
			closeAll(closers)
		}
		sh.lastExit = 0
		return nil, nil, 0, true
	}

	res := sh.Resolve(rest[0])
	if res.kind != resolveBuiltin && res.kind != resolveFunction {
		return rest, assigns, 0, false
	}

	stdio, closers, err := sh.applyRedirs(sh.shellVIO(), cmd.Redirs, heredoc)
	if err != nil {
		sh.redirectionFailed(err)
		return nil, nil, sh.lastExit, true
	}
	defer closeAll(closers)

	// Assignment prefixes bind only for the duration of the call.
	defer sh.scopedSetenv(assigns)()

	var code int
	if res.kind == resolveBuiltin {
		code = res.builtin(sh, stdio, rest)
	} else {
		code = sh.callFunction(res.function, rest)
	}
	sh.lastExit = code
	sh.recordCommand(rest, code)
	return nil, nil, code, true
}

// scopedSetenv applies NAME=value assignments to the session and
// returns a func that restores the previous bindings.
func (sh *Shell) scopedSetenv(assigns []string) func() {
	type binding struct {
		name  string
		value string
		found bool
	}
	var saved []binding
	for _, assign := range assigns {
		kv := strings.SplitN(assign, "=", 2)
		value, found := sh.OS.LookupEnv(kv[0])
		saved = append(saved, binding{name: kv[0], value: value, found: found})
		sh.OS.Setenv(kv[0], kv[1])
	}
	return func() {
		for i := len(saved) - 1; i >= 0; i-- {
			if saved[i].found {
				sh.OS.Setenv(saved[i].name, saved[i].value)
			} else {
				sh.OS.Unsetenv(saved[i].name)
			}
		}
	}
}

// launchPipeline expands, resolves and spawns every stage, connects
// them with bounded pipes, and either waits (foreground) or registers
// a background job. preArgv carries stage argvs that were already
// expanded, with preAssigns holding their stripped NAME=value
// prefixes; nil means expand here.
func (sh *Shell) launchPipeline(p *Pipeline, background bool, text string, preArgv [][]string, preAssigns []string) int {
	wd, _ := sh.OS.Getwd()
	environ := sh.OS.Environ()
	uid := sh.OS.Getuid()

	job := &Job{State: JobRunning, Background: background, Text: text}
	var stageArgvs [][]string
	var prevReader io.ReadCloser

	fail := func() {
		job.Kill()
		job.closeStreams()
		if prevReader != nil {
			prevReader.Close()
		}
	}

	for i, cmd := range p.Commands {
		var argv []string
		stageEnv := environ
		if preArgv != nil {
			argv = preArgv[i]
			if len(preAssigns) > 0 {
				stageEnv = append(append([]string(nil), environ...), preAssigns...)
			}
		} else {
			expanded, err := sh.expandWords(cmd.Words)
			if err != nil {
				fail()
				sh.expansionFailed(err)
				return sh.lastExit
			}
			argv = expanded
			for len(argv) > 0 && assignmentPattern.MatchString(argv[0]) {
				stageEnv = append(append([]string(nil), stageEnv...), argv[0])
				argv = argv[1:]
			}
		}

		var stdin io.ReadCloser
		switch {
		case i > 0:
			stdin = prevReader
		case p.HereDoc != nil:
			body := p.HereDoc.Body
			if p.HereDoc.Expand {
				expanded, err := sh.expandHereDoc(body)
				if err != nil {
					fail()
					sh.expansionFailed(err)
					return sh.lastExit
				}
				body = expanded
			}
			stdin = io.NopCloser(strings.NewReader(body))
		case background:
			stdin = io.NopCloser(strings.NewReader(""))
		default:
			stdin = io.NopCloser(sh.OS.Stdin())
		}

		var stdout io.WriteCloser
		var stageClosers []io.Closer
		if i < len(p.Commands)-1 {
			r, w := NewPipe()
			stdout = w
			prevReader = r
			job.AddCloser(r)
			job.AddCloser(w)
			stageClosers = append(stageClosers, w)
		} else {
			stdout = vos.NopWriteCloser(sh.OS.Stdout())
		}
		if i > 0 {
			// Closing a finished stage's stdin fails the upstream
			// writer like SIGPIPE would.
			stageClosers = append(stageClosers, stdin)
		}

		base := &vos.VIOAdapter{
			IStdin:  stdin,
			IStdout: stdout,
			IStderr: vos.NopWriteCloser(sh.OS.Stderr()),
		}
		vio, closers, err := sh.applyRedirs(base, cmd.Redirs, nil)
		if err != nil {
			fail()
			sh.redirectionFailed(err)
			return sh.lastExit
		}
		stageClosers = append(stageClosers, closers...)

		name := ""
		var fn vos.ProcessFunc
		if len(argv) == 0 {
			name = "subshell"
			fn = func(vos.VOS) int { return 0 }
		} else {
			name = argv[0]
			res := sh.Resolve(name)
			switch res.kind {
			case resolveCommand:
				fn = res.command
			case resolveBuiltin:
				builtin, stageArgv := res.builtin, argv
				fn = func(os vos.VOS) int {
					sub := sh.subshellFor(os.(*vos.ProcOS))
					return builtin(sub, os, stageArgv)
				}
			case resolveFunction:
				def, stageArgv := res.function, argv
				fn = func(os vos.VOS) int {
					sub := sh.subshellFor(os.(*vos.ProcOS))
					return sub.callFunction(def, stageArgv)
				}
			default:
				fn = notFoundProcess(name)
			}
		}

		proc := sh.kernel.Spawn(fn, name, argv, &vos.ProcAttr{
			Dir:   wd,
			Env:   stageEnv,
			Files: vio,
			UID:   uid,
		})
		job.Procs = append(job.Procs, proc)
		stageArgvs = append(stageArgvs, argv)

		go func(pr *vos.Proc, toClose []io.Closer) {
			pr.Wait()
			closeAll(toClose)
		}(proc, stageClosers)
	}

	for _, proc := range job.Procs {
		proc.Start()
	}

	if background {
		id := sh.jobs.Add(job)
		fmt.Fprintf(sh.OS.Stdout(), "[%d] %d\n", id, job.Procs[len(job.Procs)-1].PID())
		sh.recordJob(id, JobRunning, text)
		sh.lastExit = 0
		return 0
	}

	code := job.Wait()
	job.closeStreams()
	for i, proc := range job.Procs {
		_, stageCode := proc.Poll()
		if len(stageArgvs[i]) > 0 {
			sh.recordCommand(stageArgvs[i], stageCode)
		}
	}
	sh.lastExit = code
	return code
}

// shellVIO is the shell's own streams behind close-proof wrappers, the
// base for inline builtins and redirections.
func (sh *Shell) shellVIO() vos.VIO {
	return &vos.VIOAdapter{
		IStdin:  io.NopCloser(sh.OS.Stdin()),
		IStdout: vos.NopWriteCloser(sh.OS.Stdout()),
		IStderr: vos.NopWriteCloser(sh.OS.Stderr()),
	}
}

// applyRedirs overlays a command's redirections onto base streams.
// Targets expand at this point; every opened file is returned for the
// caller to close once the command finishes.
func (sh *Shell) applyRedirs(base vos.VIO, redirs []Redirection, heredoc *HereDoc) (vos.VIO, []io.Closer, error) {
	stdin, stdout, stderr := base.Stdin(), base.Stdout(), base.Stderr()
	var closers []io.Closer

	if heredoc != nil {
		body := heredoc.Body
		if heredoc.Expand {
			expanded, err := sh.expandHereDoc(body)
			if err != nil {
				return nil, nil, err
			}
			body = expanded
		}
		stdin = io.NopCloser(strings.NewReader(body))
	}

	for _, redir := range redirs {
		fields, err := sh.ExpandWord(redir.Target)
		if err != nil {
			closeAll(closers)
			return nil, nil, err
		}
		if len(fields) != 1 {
			closeAll(closers)
			return nil, nil, &RedirectionError{Target: Unescape(redir.Target.Text), Msg: "ambiguous redirect"}
		}
		target := fields[0]

		switch redir.Kind {
		case RedirIn:
			f, err := sh.OS.Open(target)
			if err != nil {
				closeAll(closers)
				return nil, nil, &RedirectionError{Target: target, Msg: "no such file or directory"}
			}
			stdin = f
			closers = append(closers, f)

		default:
			f, err := sh.openOutputTarget(target, redir.Kind)
			if err != nil {
				closeAll(closers)
				return nil, nil, err
			}
			closers = append(closers, f)
			switch redir.Kind {
			case RedirOut, RedirOutAppend:
				stdout = f
			case RedirErr, RedirErrAppend:
				stderr = f
			case RedirBoth, RedirBothAppend:
				stdout = f
				stderr = f
			}
		}
	}
	return &vos.VIOAdapter{IStdin: stdin, IStdout: stdout, IStderr: stderr}, closers, nil
}

// openOutputTarget opens an output redirection target. The parent
// directory must already exist; redirection never creates directories.
func (sh *Shell) openOutputTarget(target string, kind RedirKind) (io.WriteCloser, error) {
	parent := path.Dir(target)
	info, err := sh.OS.Stat(parent)
	if err != nil {
		return nil, &RedirectionError{Target: target, Msg: "no such file or directory"}
	}
	if !info.IsDir() {
		return nil, &RedirectionError{Target: target, Msg: "not a directory"}
	}

	flags := os.O_WRONLY | os.O_CREATE
	switch kind {
	case RedirOutAppend, RedirErrAppend, RedirBothAppend:
		flags |= os.O_APPEND
	default:
		flags |= os.O_TRUNC
	}
	f, err := sh.OS.OpenFile(target, flags, 0644)
	if err != nil {
		return nil, &RedirectionError{Target: target, Msg: err.Error()}
	}
	return f, nil
}

// expandHereDoc applies parameter expansion to a here-document body.
func (sh *Shell) expandHereDoc(body string) (string, error) {
	expanded, err := sh.expandText(body)
	if err != nil {
		return "", err
	}
	return Unescape(expanded), nil
}

func (sh *Shell) expansionFailed(err error) {
	var syntaxErr *SyntaxError
	if errors.As(err, &syntaxErr) {
		sh.reportError("syntax", err)
		sh.lastExit = ExitSyntax
		return
	}
	sh.reportError("expansion", err)
	sh.lastExit = ExitFailure
}

func (sh *Shell) redirectionFailed(err error) {
	sh.reportError("redirection", err)
	sh.lastExit = ExitFailure
}

func (sh *Shell) recordCommand(argv []string, code int) {
	sh.recorder.Record(logger.Event{
		Kind:      logger.KindCommand,
		SessionID: sh.sessionID,
		Command:   &logger.CommandEvent{Name: argv[0], Argv: argv, ExitCode: code},
	})
}

func (sh *Shell) recordJob(id int, state JobState, text string) {
	sh.recorder.Record(logger.Event{
		Kind:      logger.KindJob,
		SessionID: sh.sessionID,
		Job:       &logger.JobEvent{ID: id, State: state.String(), Text: text},
	})
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		c.Close()
	}
}

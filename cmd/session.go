package cmd

import (
	"fmt"
	"path"
	"time"

	"github.com/abiosoft/readline"
	"github.com/spf13/afero"
	"josephlewis.net/vsh/commands"
	"josephlewis.net/vsh/core/config"
	"josephlewis.net/vsh/core/logger"
	"josephlewis.net/vsh/core/shell"
	"josephlewis.net/vsh/core/vos"
)

// stateFileName is where a session keeps its saved environment,
// aliases and history inside the virtual filesystem.
const stateFileName = ".vsh_state.yaml"

// seedBaseFs builds the filesystem every session starts from: the
// usual directory skeleton plus a home for each configured user.
func seedBaseFs(cfg *config.Configuration) afero.Fs {
	base := afero.NewMemMapFs()
	for _, dir := range []string{"/bin", "/etc", "/tmp", "/usr/bin", "/usr/local/bin", "/var/log"} {
		base.MkdirAll(dir, 0755)
	}
	for _, user := range cfg.Users {
		base.MkdirAll(user.Home, 0755)
	}
	afero.WriteFile(base, "/etc/hostname", []byte(cfg.Uname.Nodename+"\n"), 0644)
	afero.WriteFile(base, "/etc/motd", []byte(cfg.Motd), 0644)
	return base
}

// newSessionKernel gives one session a copy-on-write view over the
// base filesystem, so sessions never see each other's writes.
func newSessionKernel(cfg *config.Configuration, base afero.Fs) *vos.Kernel {
	sessionFs := afero.NewCopyOnWriteFs(base, afero.NewMemMapFs())
	uts := vos.Utsname{
		Sysname:  cfg.Uname.KernelName,
		Nodename: cfg.Uname.Nodename,
		Release:  cfg.Uname.KernelRelease,
		Version:  cfg.Uname.KernelVersion,
		Machine:  cfg.Uname.HardwarePlatform,
	}
	return vos.NewKernel(sessionFs, uts, commands.Resolver, time.Now)
}

// runShellSession spawns a shell process for username on the kernel
// and hands the prepared session to drive. The exit code is the
// session's.
func runShellSession(kernel *vos.Kernel, cfg *config.Configuration, username string, files vos.VIO, recorder logger.EventRecorder, sessionID string, drive func(sh *shell.Shell) int) int {
	uid := 0
	home := "/root"
	shellPath := cfg.OS.DefaultShell
	if user := cfg.FindUser(username); user != nil {
		uid = user.UID
		home = user.Home
		shellPath = user.Shell
	} else if username != "root" {
		uid = 1000
		home = "/home/" + username
	}

	env := []string{
		shell.EnvUser + "=" + username,
		shell.EnvHome + "=" + home,
		shell.EnvShell + "=" + shellPath,
		shell.EnvPath + "=" + cfg.OS.DefaultPath,
	}

	var sh *shell.Shell
	proc := kernel.Spawn(func(vos.VOS) int {
		return drive(sh)
	}, shellPath, []string{shellPath}, &vos.ProcAttr{
		Dir:   home,
		Env:   env,
		Files: files,
		UID:   uid,
	})

	sh = shell.NewShell(proc.OS())
	sh.SetRecorder(recorder, sessionID)
	sh.SetHistoryLimit(cfg.Shell.HistoryLimit)
	for name, value := range cfg.Shell.Aliases {
		sh.Aliases[name] = value
	}

	proc.OS().MkdirAll(home, 0755)
	sh.Init(username)

	recorder.Record(logger.Event{Kind: logger.KindSessionStart, SessionID: sessionID})
	restoreState(cfg, sh, username)

	code := proc.Run()

	persistState(cfg, sh, username)
	recorder.Record(logger.Event{Kind: logger.KindSessionEnd, SessionID: sessionID})
	return code
}

// restoreState copies the user's saved state from the config directory
// into the session filesystem and merges it into the shell.
func restoreState(cfg *config.Configuration, sh *shell.Shell, username string) {
	data, err := afero.ReadFile(cfg.StateFs(), username+".yaml")
	if err != nil {
		return
	}
	statePath := path.Join(sh.OS.Getenv(shell.EnvHome), stateFileName)
	if err := afero.WriteFile(sh.OS, statePath, data, 0600); err != nil {
		return
	}
	sh.LoadState(statePath)
}

// persistState snapshots the session back out to the config directory.
func persistState(cfg *config.Configuration, sh *shell.Shell, username string) {
	statePath := path.Join(sh.OS.Getenv(shell.EnvHome), stateFileName)
	if err := sh.SaveState(statePath); err != nil {
		return
	}
	data, err := afero.ReadFile(sh.OS, statePath)
	if err != nil {
		return
	}
	afero.WriteFile(cfg.StateFs(), username+".yaml", data, 0600)
}

// readlineSource adapts a readline instance to the interpreter's line
// source. Interrupt clears the line, like the login shells it mimics.
type readlineSource struct {
	rl *readline.Instance
}

func (s *readlineSource) ReadLine(prompt string) (string, error) {
	s.rl.SetPrompt(prompt)
	for {
		line, err := s.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		return line, err
	}
}

// newSessionReadline builds a readline instance over the session's
// virtual streams.
func newSessionReadline(files vos.VIO, width func() int, isTerminal bool) (*readline.Instance, error) {
	cfg := &readline.Config{
		Stdin:  readline.NewCancelableStdin(files.Stdin()),
		Stdout: files.Stdout(),
		Stderr: files.Stderr(),
		FuncGetWidth: func() int {
			return width()
		},
		FuncIsTerminal: func() bool {
			return isTerminal
		},
	}
	if err := cfg.Init(); err != nil {
		return nil, err
	}
	return readline.NewEx(cfg)
}

// printMotd shows the configured message of the day on login.
func printMotd(sh *shell.Shell, cfg *config.Configuration) {
	if cfg.Motd != "" {
		fmt.Fprint(sh.OS.Stdout(), cfg.Motd)
	}
}

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"josephlewis.net/vsh/core/config"
	"josephlewis.net/vsh/core/logger"
	"josephlewis.net/vsh/core/shell"
	"josephlewis.net/vsh/core/vos"
)

var (
	runCommandString string
	runUser          string
)

// runCmd drives the shell locally without an SSH server in front.
var runCmd = &cobra.Command{
	Use:   "run [script [arg]...]",
	Short: "Run the shell locally: a script file, a -c string, or an interactive session.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		var tempDir string
		cfg, err := loadConfig()
		if errors.Is(err, fs.ErrNotExist) {
			// No config directory: run against a throwaway scaffold.
			tempDir, err = os.MkdirTemp("", "vsh")
			if err != nil {
				return err
			}
			defer os.RemoveAll(tempDir)
			cfg, err = config.Initialize(tempDir, log.New(cmd.ErrOrStderr(), "", 0))
		}
		if err != nil {
			return err
		}

		logFd, err := cfg.OpenAppLog()
		if err != nil {
			return err
		}
		defer logFd.Close()
		recorder := logger.NewJSONRecorder(logFd, nil)

		kernel := newSessionKernel(cfg, seedBaseFs(cfg))
		files := vos.NewVIOAdapter(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		sessionID := fmt.Sprintf("local-%d", time.Now().Unix())

		var script *os.File
		if runCommandString == "" && len(args) > 0 {
			script, err = os.Open(args[0])
			if err != nil {
				return err
			}
			defer script.Close()
		}

		code := runShellSession(kernel, cfg, runUser, files, recorder, sessionID, func(sh *shell.Shell) int {
			switch {
			case runCommandString != "":
				sh.SetArgs("vsh", args)
				code := sh.Execute(runCommandString)
				if quit, exitCode := sh.Quit(); quit {
					return exitCode
				}
				return code

			case script != nil:
				sh.SetArgs(args[0], args[1:])
				return sh.RunScript(script)

			default:
				printMotd(sh, cfg)
				rl, err := newSessionReadline(files, func() int { return 80 }, true)
				if err != nil {
					return sh.Run(shell.NewReaderSource(files.Stdin()))
				}
				defer rl.Close()
				return sh.Run(&readlineSource{rl: rl})
			}
		})

		if code != 0 {
			// os.Exit skips deferred cleanup, so drop the scaffold here.
			logFd.Close()
			if tempDir != "" {
				os.RemoveAll(tempDir)
			}
			os.Exit(code)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runCommandString, "command", "c", "", "run this command string and exit")
	runCmd.Flags().StringVar(&runUser, "user", "root", "run the session as this configured user")
	rootCmd.AddCommand(runCmd)
}

package cmd

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gliderlabs/ssh"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	gossh "golang.org/x/crypto/ssh"
	"josephlewis.net/vsh/core/config"
	"josephlewis.net/vsh/core/logger"
	"josephlewis.net/vsh/core/shell"
	"josephlewis.net/vsh/core/vos"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the shell over SSH on the configured port.",
	RunE: func(cmd *cobra.Command, args []string) error {
		os.Stdin.Close()
		cmd.SilenceUsage = true
		log.Println("Initializing server...")

		configuration, err := loadConfig()
		if err != nil {
			return err
		}

		logFd, err := configuration.OpenAppLog()
		if err != nil {
			return err
		}
		defer logFd.Close()
		recorder := logger.NewJSONRecorder(logFd, nil)

		base := seedBaseFs(configuration)

		server := &ssh.Server{
			Addr: fmt.Sprintf(":%d", configuration.SSHPort),
			Handler: func(s ssh.Session) {
				s.Exit(handleSession(configuration, base, recorder, s))
			},
			PasswordHandler: func(ctx ssh.Context, password string) bool {
				if configuration.AllowAnyPassword {
					return true
				}
				for _, allowed := range configuration.GetPasswords(ctx.User()) {
					if subtle.ConstantTimeCompare([]byte(password), []byte(allowed)) == 1 {
						return true
					}
				}
				return false
			},
		}
		if configuration.SSHBanner != "" {
			server.Version = configuration.SSHBanner
		}

		keyPem, err := configuration.HostKeyPem()
		if err != nil {
			return err
		}
		signer, err := gossh.ParsePrivateKey(keyPem)
		if err != nil {
			return err
		}
		server.AddHostKey(signer)

		go func() {
			log.Printf("- Starting SSH server on %s\n", server.Addr)
			if err := server.ListenAndServe(); err != nil && err != ssh.ErrServerClosed {
				log.Fatal(err)
			}
		}()

		sigs := make(chan os.Signal, 1)

		log.Println("- Starting interrupt handler")
		signal.Notify(sigs, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigs
		log.Printf("Got signal %q, terminating...", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server shutdown failed: %s", err)
		}
		log.Print("Server exited")
		return nil
	},
}

// handleSession runs one SSH connection as a shell session against its
// own copy-on-write filesystem view.
func handleSession(cfg *config.Configuration, base afero.Fs, recorder logger.EventRecorder, s ssh.Session) int {
	kernel := newSessionKernel(cfg, base)
	files := vos.NewVIOAdapter(s, s, s.Stderr())
	sessionID := fmt.Sprintf("%s@%s", s.User(), s.RemoteAddr())

	ptyInfo, _, isPty := s.Pty()

	return runShellSession(kernel, cfg, s.User(), files, recorder, sessionID, func(sh *shell.Shell) int {
		if raw := s.RawCommand(); raw != "" {
			code := sh.Execute(raw)
			if quit, exitCode := sh.Quit(); quit {
				return exitCode
			}
			return code
		}

		printMotd(sh, cfg)
		if isPty {
			rl, err := newSessionReadline(files, func() int { return ptyInfo.Window.Width }, true)
			if err == nil {
				defer rl.Close()
				return sh.Run(&readlineSource{rl: rl})
			}
		}
		return sh.Run(shell.NewReaderSource(s))
	})
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

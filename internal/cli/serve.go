package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"taskboard/internal/logging"
	"taskboard/internal/store"
	"taskboard/internal/web"
)

func newServeCmd(app *App) *cobra.Command {
	var addr, dbDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the taskboard HTTP API for logged-in clients",
		Long: strings.TrimSpace(`
Run the taskboard server. Clients authenticate with a bearer token signed by the server
secret (TASKBOARD_JWT_SECRET, or a secret.key generated in --db-dir on first start).
`),
		Example: strings.TrimSpace(`
taskboard serve --addr 127.0.0.1:8080
taskboard token --user alice
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.Init(logging.Config{Writer: cmd.ErrOrStderr()})

			dir, err := serverDir(dbDir)
			if err != nil {
				return writeErr(cmd, err)
			}
			secret, err := serverSecret(dir)
			if err != nil {
				return writeErr(cmd, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			repo, err := store.OpenRepo(ctx, dir)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer repo.Close()

			srv, err := web.NewServer(web.ServerConfig{Addr: addr, Repo: repo, Secret: secret, Logger: log})
			if err != nil {
				return writeErr(cmd, err)
			}
			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return writeErr(cmd, err)
			}

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      ln.Addr().String(),
					"url":       "http://" + ln.Addr().String() + "/api",
					"dir":       dir,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": []string{"taskboard token --user <id>", "taskboard login --server http://" + ln.Addr().String() + " --token <token>"},
			})

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Serve(ln) }()

			select {
			case err := <-errCh:
				if err != nil {
					return writeErr(cmd, err)
				}
				return nil
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return writeErr(cmd, err)
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOr("TASKBOARD_ADDR", "127.0.0.1:8080"), "Bind address (host:port or :port)")
	cmd.Flags().StringVar(&dbDir, "db-dir", envOr("TASKBOARD_DB_DIR", ""), "Server data directory (default ~/.taskboard/server)")
	return cmd
}

func serverDir(dbDir string) (string, error) {
	if d := strings.TrimSpace(dbDir); d != "" {
		return filepath.Clean(d), nil
	}
	cfgDir, err := store.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, "server"), nil
}

func serverSecret(dir string) ([]byte, error) {
	if v := strings.TrimSpace(os.Getenv("TASKBOARD_JWT_SECRET")); v != "" {
		return []byte(v), nil
	}
	secret, err := web.LoadOrInitSecret(dir)
	if err != nil {
		return nil, fmt.Errorf("load server secret: %w", err)
	}
	if len(secret) == 0 {
		return nil, errors.New("server secret is empty")
	}
	return secret, nil
}

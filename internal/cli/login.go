package cli

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"taskboard/internal/auth"
	"taskboard/internal/remote"
	"taskboard/internal/store"
)

func newTokenCmd(app *App) *cobra.Command {
	var user, dbDir string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token --user <id>",
		Short: "Mint a session token with the server secret (development helper)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user = strings.TrimSpace(user)
			if user == "" {
				return writeErr(cmd, errors.New("missing --user"))
			}
			dir, err := serverDir(dbDir)
			if err != nil {
				return writeErr(cmd, err)
			}
			secret, err := serverSecret(dir)
			if err != nil {
				return writeErr(cmd, err)
			}
			tok, err := auth.NewToken(user, ttl, secret)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, envelope(map[string]any{
				"user":      user,
				"token":     tok,
				"expiresAt": time.Now().Add(ttl).UTC().Format(time.RFC3339),
			}))
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User id (token subject)")
	cmd.Flags().StringVar(&dbDir, "db-dir", envOr("TASKBOARD_DB_DIR", ""), "Server data directory holding secret.key")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "Token lifetime")
	return cmd
}

func newLoginCmd(app *App) *cobra.Command {
	var skipCheck bool
	cmd := &cobra.Command{
		Use:   "login --server <url> --token <token>",
		Short: "Save a server session; later commands use the remote board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := strings.TrimSpace(app.Server)
			token := strings.TrimSpace(app.Token)
			if server == "" || token == "" {
				return writeErr(cmd, errors.New("login needs --server and --token"))
			}
			if !skipCheck {
				rc, err := remote.New(remote.Config{BaseURL: server, Token: token, Logger: logger(app)})
				if err != nil {
					return writeErr(cmd, err)
				}
				_, err = rc.Fetch(cmd.Context())
				_ = rc.Close()
				if err != nil {
					return writeErr(cmd, err)
				}
			}

			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg.Server = server
			cfg.Token = token
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, envelope(map[string]any{"server": server, "mode": "remote"}))
		},
	}
	cmd.Flags().BoolVar(&skipCheck, "no-check", false, "Save without contacting the server")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved server session and return to the guest board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg.Server = ""
			cfg.Token = ""
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, envelope(map[string]any{"mode": "guest"}))
		},
	}
}

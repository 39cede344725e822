package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"taskboard/internal/coordinator"
	"taskboard/internal/format"
	"taskboard/internal/logging"
	"taskboard/internal/tui"
)

type App struct {
	Guest      bool
	Server     string
	Token      string
	Dir        string
	PrettyJSON bool
	Format     string

	log *slog.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "taskboard",
		Short:        "Kanban boards in the terminal, local or synced to a taskboard server",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Open the interactive board
  taskboard

  # Scriptable commands
  taskboard workspaces create Home
  taskboard groups create Todo
  taskboard tasks create <group-id> "Write report"
  taskboard tasks move <task-id> --group <group-id> --index 0

  # Sync with a server
  taskboard login --server http://localhost:8080 --token <jwt>
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app.log = logging.Init(logging.Config{Level: slog.LevelWarn, Writer: cmd.ErrOrStderr()})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			return withSession(cmd, app, func(ctx context.Context, c *coordinator.Coordinator) error {
				return tui.Run(ctx, c)
			})
		},
	}

	f := cmd.PersistentFlags()
	f.BoolVar(&app.Guest, "guest", envOr("TASKBOARD_GUEST", "") != "", "Use the local guest board even when logged in")
	f.StringVar(&app.Server, "server", envOr("TASKBOARD_SERVER", ""), "Server URL (overrides the saved login)")
	f.StringVar(&app.Token, "token", envOr("TASKBOARD_TOKEN", ""), "Session token (overrides the saved login)")
	f.StringVar(&app.Dir, "dir", envOr("TASKBOARD_DIR", ""), "Guest data directory (default ~/.taskboard/guest)")
	f.BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON/EDN output")
	f.StringVar(&app.Format, "format", envOr("TASKBOARD_FORMAT", format.JSON), "Output format (json|edn|text)")

	cmd.AddCommand(newWorkspacesCmd(app))
	cmd.AddCommand(newBoardCmd(app))
	cmd.AddCommand(newGroupsCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newTokenCmd(app))
	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newBackupCmd(app))

	return cmd
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), describe(err))
	return err
}

func logger(app *App) *slog.Logger {
	if app.log != nil {
		return app.log
	}
	return slog.Default()
}

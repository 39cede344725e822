package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"taskboard/internal/coordinator"
	"taskboard/internal/format"
	"taskboard/internal/model"
	"taskboard/internal/view"
)

type workspaceSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
	Groups   int    `json:"groups"`
}

type workspaceList []workspaceSummary

func (l workspaceList) Text() string {
	if len(l) == 0 {
		return "no workspaces"
	}
	var b strings.Builder
	for _, ws := range l {
		mark := " "
		if ws.Selected {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %s  %s (%d groups)\n", mark, ws.ID, ws.Name, ws.Groups)
	}
	return b.String()
}

// boardView is the current workspace as printed by `taskboard board`.
type boardView struct {
	view.Current
}

func (v boardView) Text() string {
	if v.Empty {
		return "no workspaces; create one with `taskboard workspaces create <name>`"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s  [%s]\n", v.Workspace.Name, v.Workspace.ID)
	for _, g := range v.Workspace.OrderedGroups {
		fmt.Fprintf(&b, "\n%s (%d)  [%s]\n", g.Name, len(g.OrderedTasks), g.ID)
		for i, t := range g.OrderedTasks {
			fmt.Fprintf(&b, "  %d. %s  [%s]\n", i, t.Name, t.ID)
		}
	}
	return b.String()
}

func newWorkspacesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspaces",
		Aliases: []string{"workspace", "ws"},
		Short:   "Workspace management",
	}
	cmd.AddCommand(newWorkspacesListCmd(app))
	cmd.AddCommand(newWorkspacesCreateCmd(app))
	cmd.AddCommand(newWorkspacesRenameCmd(app))
	cmd.AddCommand(newWorkspacesSelectCmd(app))
	cmd.AddCommand(newWorkspacesDeleteCmd(app))
	return cmd
}

func newWorkspacesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspaces (* marks the selected one)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, c *coordinator.Coordinator) error {
				wss := c.Store().State().Workspaces
				out := make(workspaceList, 0, len(wss))
				for _, ws := range wss {
					out = append(out, summarize(ws))
				}
				return writeOut(cmd, app, envelope(out))
			})
		},
	}
}

func newWorkspacesCreateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a workspace and select it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, c *coordinator.Coordinator) error {
				ws, err := c.CreateWorkspace(ctx, args[0])
				if err != nil {
					return err
				}
				return writeOut(cmd, app, envelope(ws))
			})
		},
	}
}

func newWorkspacesRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <workspace-id> <name>",
		Short: "Rename a workspace",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, c *coordinator.Coordinator) error {
				if err := c.RenameWorkspace(ctx, args[0], args[1]); err != nil {
					return err
				}
				return writeWorkspace(cmd, app, c, args[0])
			})
		},
	}
}

func newWorkspacesSelectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "select <workspace-id>",
		Aliases: []string{"use"},
		Short:   "Make a workspace the current one",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, c *coordinator.Coordinator) error {
				if err := c.SelectWorkspace(ctx, args[0]); err != nil {
					return err
				}
				return writeWorkspace(cmd, app, c, args[0])
			})
		},
	}
}

func newWorkspacesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <workspace-id>",
		Short: "Delete a workspace with all its groups and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, c *coordinator.Coordinator) error {
				if err := c.DeleteWorkspace(ctx, args[0]); err != nil {
					return err
				}
				out := map[string]any{"deleted": args[0]}
				if cur := c.Current(); !cur.Empty {
					out["selected"] = cur.Workspace.ID
				}
				return writeOut(cmd, app, envelope(out))
			})
		},
	}
}

func newBoardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "board",
		Aliases: []string{"show"},
		Short:   "Print the selected workspace with its groups and tasks in order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, c *coordinator.Coordinator) error {
				return writeOut(cmd, app, envelope(boardView{c.Current()}))
			})
		},
	}
}

func writeWorkspace(cmd *cobra.Command, app *App, c *coordinator.Coordinator, id string) error {
	ws, _, ok := c.Store().State().FindWorkspace(id)
	if !ok {
		return errNotFound("workspace", id)
	}
	return writeOut(cmd, app, envelope(summarize(ws)))
}

func summarize(ws model.Workspace) workspaceSummary {
	return workspaceSummary{ID: ws.ID, Name: ws.Name, Selected: ws.Selected, Groups: len(ws.Groups)}
}

// envelopeOut wraps command output as {"data": v}. Values with a text form keep it.
type envelopeOut struct {
	Data any `json:"data"`
}

func (e envelopeOut) Text() string {
	if t, ok := e.Data.(format.Texter); ok {
		return t.Text()
	}
	var b strings.Builder
	if err := format.WriteJSON(&b, e.Data, true); err != nil {
		return fmt.Sprint(e.Data)
	}
	return b.String()
}

func envelope(v any) envelopeOut { return envelopeOut{Data: v} }

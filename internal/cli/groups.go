package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"taskboard/internal/coordinator"
)

func newGroupsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"group"},
		Short:   "Group (column) management",
	}
	cmd.AddCommand(newGroupsCreateCmd(app))
	cmd.AddCommand(newGroupsRenameCmd(app))
	cmd.AddCommand(newGroupsMoveCmd(app))
	cmd.AddCommand(newGroupsDeleteCmd(app))
	return cmd
}

func newGroupsCreateCmd(app *App) *cobra.Command {
	var workspaceID string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Append a group to a workspace (default: the selected one)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, c *coordinator.Coordinator) error {
				wsID := workspaceID
				if wsID == "" {
					cur := c.Current()
					if cur.Empty {
						return errors.New("no workspace selected; create one with `taskboard workspaces create <name>`")
					}
					wsID = cur.Workspace.ID
				}
				g, err := c.CreateGroup(ctx, wsID, args[0])
				if err != nil {
					return err
				}
				return writeOut(cmd, app, envelope(g))
			})
		},
	}
	cmd.Flags().StringVar(&workspaceID, "workspace", "", "Workspace id")
	return cmd
}

func newGroupsRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <group-id> <name>",
		Short: "Rename a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, c *coordinator.Coordinator) error {
				if err := c.RenameGroup(ctx, args[0], args[1]); err != nil {
					return err
				}
				return writeGroup(cmd, app, c, args[0])
			})
		},
	}
}

func newGroupsMoveCmd(app *App) *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "move <group-id> --index <n>",
		Short: "Move a group to a new position in its workspace (clamped to the last position)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, c *coordinator.Coordinator) error {
				if index < 0 {
					return errors.New("--index must be >= 0")
				}
				if err := c.MoveGroup(ctx, args[0], index); err != nil {
					return err
				}
				return writeGroup(cmd, app, c, args[0])
			})
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "Destination index")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

func newGroupsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <group-id>",
		Short: "Delete a group and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, c *coordinator.Coordinator) error {
				if err := c.DeleteGroup(ctx, args[0]); err != nil {
					return err
				}
				return writeOut(cmd, app, envelope(map[string]string{"deleted": args[0]}))
			})
		},
	}
}

type groupOut struct {
	ID          string   `json:"id"`
	WorkspaceID string   `json:"workspaceId"`
	Name        string   `json:"name"`
	Index       int      `json:"index"`
	TaskOrder   []string `json:"taskOrder"`
}

func writeGroup(cmd *cobra.Command, app *App, c *coordinator.Coordinator, id string) error {
	st := c.Store().State()
	ref, ok := st.FindGroup(id)
	if !ok {
		return errNotFound("group", id)
	}
	index := -1
	for i, gid := range st.Workspaces[ref.WorkspaceIndex].GroupOrder {
		if gid == id {
			index = i
		}
	}
	return writeOut(cmd, app, envelope(groupOut{
		ID:          ref.Group.ID,
		WorkspaceID: ref.Group.WorkspaceID,
		Name:        ref.Group.Name,
		Index:       index,
		TaskOrder:   ref.Group.TaskOrder,
	}))
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"taskboard/internal/coordinator"
	"taskboard/internal/model"
	"taskboard/internal/mutate"
	"taskboard/internal/state"
	"taskboard/internal/tui"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Task management",
	}
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksEditCmd(app))
	cmd.AddCommand(newTasksMoveCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	return cmd
}

type taskOut struct {
	model.Task
	GroupName string `json:"groupName"`
	Index     int    `json:"index"`
}

func (t taskOut) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  [%s]\n", t.Name, t.ID)
	fmt.Fprintf(&b, "group: %s [%s] #%d\n", t.GroupName, t.GroupID, t.Index)
	if t.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", t.Description)
	}
	if len(t.Activities) > 0 {
		b.WriteString("\nactivity:\n")
		for _, a := range t.Activities {
			fmt.Fprintf(&b, "  %s  %s\n", a.CreatedAt.Local().Format("2006-01-02 15:04"), a.Content)
		}
	}
	return b.String()
}

// lookupTask finds a task anywhere in the session with its position in the group's order.
func lookupTask(st state.State, id string) (taskOut, error) {
	ref, ok := st.FindTask(id)
	if !ok {
		return taskOut{}, errNotFound("task", id)
	}
	g := st.Workspaces[ref.WorkspaceIndex].Groups[ref.GroupIndex]
	return taskOut{Task: ref.Task, GroupName: g.Name, Index: slices.Index(g.TaskOrder, id)}, nil
}

func writeTask(cmd *cobra.Command, app *App, c *coordinator.Coordinator, id string) error {
	t, err := lookupTask(c.Store().State(), id)
	if err != nil {
		return err
	}
	return writeOut(cmd, app, envelope(t))
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <group-id> <name>",
		Short: "Append a task to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, c *coordinator.Coordinator) error {
				t, err := c.CreateTask(ctx, args[0], args[1], description)
				if err != nil {
					return err
				}
				return writeTask(cmd, app, c, t.ID)
			})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Task description (markdown)")
	return cmd
}

func newTasksEditCmd(app *App) *cobra.Command {
	var name, description string
	cmd := &cobra.Command{
		Use:   "edit <task-id> [--name <name>] [--description <text>]",
		Short: "Change a task's name or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("name") && !cmd.Flags().Changed("description") {
				return writeErr(cmd, errors.New("nothing to change: pass --name and/or --description"))
			}
			return withSession(cmd, app, func(ctx context.Context, c *coordinator.Coordinator) error {
				cur, err := lookupTask(c.Store().State(), args[0])
				if err != nil {
					return err
				}
				n, d := cur.Name, cur.Description
				if cmd.Flags().Changed("name") {
					n = name
				}
				if cmd.Flags().Changed("description") {
					d = description
				}
				if err := c.UpdateTask(ctx, args[0], n, d); err != nil {
					return err
				}
				return writeTask(cmd, app, c, args[0])
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&description, "description", "", "New description (markdown)")
	return cmd
}

func newTasksMoveCmd(app *App) *cobra.Command {
	var groupID string
	var index int
	cmd := &cobra.Command{
		Use:   "move <task-id> [--group <group-id>] --index <n>",
		Short: "Move a task within its group or into another group of the same workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, c *coordinator.Coordinator) error {
				if index < 0 {
					return errors.New("--index must be >= 0")
				}
				cur, err := lookupTask(c.Store().State(), args[0])
				if err != nil {
					return err
				}
				dest := groupID
				if dest == "" {
					dest = cur.GroupID
				}
				err = c.MoveTask(ctx, mutate.TaskMove{
					TaskID:        args[0],
					SourceGroupID: cur.GroupID,
					DestGroupID:   dest,
					SourceIndex:   cur.Index,
					DestIndex:     index,
				})
				if err != nil {
					return err
				}
				return writeTask(cmd, app, c, args[0])
			})
		},
	}
	cmd.Flags().StringVar(&groupID, "group", "", "Destination group id (default: the task's group)")
	cmd.Flags().IntVar(&index, "index", 0, "Destination index (clamped to the end of the group)")
	return cmd
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, c *coordinator.Coordinator) error {
				if err := c.DeleteTask(ctx, args[0]); err != nil {
					return err
				}
				return writeOut(cmd, app, envelope(map[string]string{"deleted": args[0]}))
			})
		},
	}
}

func newTasksShowCmd(app *App) *cobra.Command {
	var render bool
	var width int
	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task with its activity log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, c *coordinator.Coordinator) error {
				t, err := lookupTask(c.Store().State(), args[0])
				if err != nil {
					return err
				}
				if !render {
					return writeOut(cmd, app, envelope(t))
				}
				md := "# " + t.Name + "\n\n" + t.Description
				_, err = fmt.Fprintln(cmd.OutOrStdout(), tui.RenderMarkdown(md, width))
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "Render the description as formatted markdown")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --render")
	return cmd
}

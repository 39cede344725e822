package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"taskboard/internal/coordinator"
	"taskboard/internal/state"
	"taskboard/internal/store"
)

func newBackupCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore the local guest board",
	}
	cmd.AddCommand(newBackupExportCmd(app))
	cmd.AddCommand(newBackupImportCmd(app))
	return cmd
}

func newBackupExportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.jsonl>",
		Short: "Write the guest board to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(args[0])
			return withGuestKV(cmd, app, func(ctx context.Context, kv *store.KV) error {
				entries, err := kv.Entries(ctx)
				if err != nil {
					return err
				}
				if err := store.WriteEntriesJSONL(path, entries); err != nil {
					return err
				}
				return writeOut(cmd, app, envelope(map[string]any{"path": path, "entries": len(entries)}))
			})
		},
	}
}

func newBackupImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.jsonl>",
		Short: "Replace the guest board with a JSONL backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(args[0])
			entries, err := store.ReadEntriesJSONL(path)
			if err != nil {
				return writeErr(cmd, err)
			}
			return withGuestKV(cmd, app, func(ctx context.Context, kv *store.KV) error {
				// Reject a backup whose board cannot be loaded before touching the current one.
				probe := coordinator.New(state.NewStore(), coordinator.NewGuest(newEntriesKV(entries)), logger(app))
				if err := probe.Load(ctx); err != nil {
					return err
				}
				if err := kv.Replace(ctx, entries); err != nil {
					return err
				}
				wss := probe.Store().State().Workspaces
				out := make(workspaceList, 0, len(wss))
				for _, ws := range wss {
					out = append(out, summarize(ws))
				}
				return writeOut(cmd, app, envelope(out))
			})
		},
	}
}

func withGuestKV(cmd *cobra.Command, app *App, fn func(ctx context.Context, kv *store.KV) error) error {
	if strings.TrimSpace(app.Server) != "" && !app.Guest {
		return writeErr(cmd, errors.New("backup works on the local guest board; drop --server or pass --guest"))
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := store.LoadConfig()
	if err != nil {
		return writeErr(cmd, err)
	}
	kv, err := openGuestKV(ctx, app, cfg)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer kv.Close()
	if err := fn(ctx, kv); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

// entriesKV serves a backup in memory so it can be loaded without writing it anywhere.
type entriesKV map[string]string

func newEntriesKV(entries []store.Entry) entriesKV {
	kv := make(entriesKV, len(entries))
	for _, e := range entries {
		kv[e.Key] = e.Value
	}
	return kv
}

func (e entriesKV) Get(key string) (string, bool, error) {
	v, ok := e[key]
	return v, ok, nil
}

func (e entriesKV) Set(key, value string) error {
	e[key] = value
	return nil
}

package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"taskboard/internal/coordinator"
	"taskboard/internal/remote"
	"taskboard/internal/state"
	"taskboard/internal/store"
)

// withSession picks the backend once for the command, loads the board and calls fn.
//
// A server URL plus token (flags, env, then the saved login) selects the remote backend;
// anything else, or --guest, uses the local guest board.
func withSession(cmd *cobra.Command, app *App, fn func(ctx context.Context, c *coordinator.Coordinator) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	backend, closeFn, err := openBackend(ctx, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer closeFn()

	c := coordinator.New(state.NewStore(), backend, logger(app))
	if err := c.Load(ctx); err != nil {
		return writeErr(cmd, err)
	}
	if err := fn(ctx, c); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

func openBackend(ctx context.Context, app *App) (coordinator.Backend, func(), error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	server := firstNonEmpty(app.Server, cfg.Server)
	token := firstNonEmpty(app.Token, cfg.Token)
	if !app.Guest && server != "" && token != "" {
		rc, err := remote.New(remote.Config{BaseURL: server, Token: token, Logger: logger(app)})
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { _ = rc.Close() }, nil
	}

	kv, err := openGuestKV(ctx, app, cfg)
	if err != nil {
		return nil, nil, err
	}
	return coordinator.NewGuest(kv), func() { _ = kv.Close() }, nil
}

func openGuestKV(ctx context.Context, app *App, cfg *store.GlobalConfig) (*store.KV, error) {
	dir := strings.TrimSpace(app.Dir)
	if dir == "" {
		var err error
		if dir, err = cfg.GuestDirOrDefault(); err != nil {
			return nil, err
		}
	}
	return store.OpenKV(ctx, dir)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

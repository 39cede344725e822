// Package remote is the authenticated persistence backend: it sends board operations to the
// taskboard HTTP API.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bufbuild/httplb"
	"github.com/goccy/go-json"

	"taskboard/internal/auth"
	"taskboard/internal/coordinator"
	"taskboard/internal/model"
	"taskboard/internal/state"
	"taskboard/internal/wire"
)

const defaultTimeout = 30 * time.Second

// StatusError is a non-2xx response from the server.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, msg)
}

// NotFound reports whether the server no longer knows the addressed entity.
func (e *StatusError) NotFound() bool { return e.Status == http.StatusNotFound }

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Logger  *slog.Logger
}

type Client struct {
	base  string
	token string
	http  *httplb.Client
	log   *slog.Logger
}

var _ coordinator.Backend = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("remote: server url is empty")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("remote: server url must be http(s): %q", base)
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, auth.ErrNoToken
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		base:  base,
		token: strings.TrimSpace(cfg.Token),
		http:  httplb.NewClient(httplb.WithDefaultTimeout(cfg.Timeout)),
		log:   cfg.Logger,
	}, nil
}

func (c *Client) Close() error { return c.http.Close() }

func (c *Client) Mode() string { return coordinator.ModeRemote }

func (c *Client) Fetch(ctx context.Context) ([]model.Workspace, error) {
	var res wire.Result
	if err := c.send(ctx, http.MethodGet, "/api/workspaces", nil, &res); err != nil {
		return nil, err
	}
	if res.Workspaces == nil {
		res.Workspaces = []model.Workspace{}
	}
	return res.Workspaces, nil
}

// Do sends op to the server. After a task edit or move the task's activity log is fetched as
// well; a failure there is logged and does not fail the operation.
func (c *Client) Do(ctx context.Context, _ state.State, op wire.Op) (wire.Result, error) {
	method, path := wire.Route(op)
	var body []byte
	if method != http.MethodDelete {
		var err error
		if body, err = wire.Encode(op); err != nil {
			return wire.Result{}, err
		}
	}

	var res wire.Result
	if err := c.send(ctx, method, path, body, &res); err != nil {
		return wire.Result{}, err
	}

	switch o := op.(type) {
	case wire.TaskUpdate:
		res.Activities = c.activities(ctx, o.ID)
	case wire.TaskMove:
		res.Activities = c.activities(ctx, o.ID)
	}
	return res, nil
}

func (c *Client) activities(ctx context.Context, taskID string) []model.Activity {
	var res wire.Result
	if err := c.send(ctx, http.MethodGet, wire.ActivitiesPath(taskID), nil, &res); err != nil {
		c.log.Warn("activity refresh failed", "task", taskID, "err", err)
		return nil
	}
	return res.Activities
}

// Description returns the server-rendered HTML of a task description.
func (c *Client) Description(ctx context.Context, taskID string) (string, error) {
	var out struct {
		HTML string `json:"html"`
	}
	if err := c.send(ctx, http.MethodGet, "/api/tasks/"+taskID+"/description", nil, &out); err != nil {
		return "", err
	}
	return out.HTML, nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set(auth.HeaderKey, "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Status: resp.StatusCode}
		var eb wire.ErrorBody
		if json.Unmarshal(b, &eb) == nil {
			se.Code = eb.Code
			se.Message = eb.Error
		}
		return se
	}
	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

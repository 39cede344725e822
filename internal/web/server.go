// Package web serves the board's HTTP API: the remote persistence collaborator used by
// authenticated clients.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/cors"

	"taskboard/internal/logging"
	"taskboard/internal/model"
	"taskboard/internal/mutate"
	"taskboard/internal/store"
	"taskboard/internal/wire"
)

const maxBodyBytes = 1 << 20

type ServerConfig struct {
	Addr   string
	Repo   *store.Repo
	Secret []byte
	Logger *slog.Logger
}

type Server struct {
	addr   string
	repo   *store.Repo
	secret []byte
	log    *slog.Logger

	httpServer *http.Server
}

func NewServer(cfg ServerConfig) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if cfg.Repo == nil {
		return nil, errors.New("web: repo is nil")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("web: secret is empty")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{addr: cfg.Addr, repo: cfg.Repo, secret: cfg.Secret, log: cfg.Logger}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) Addr() string { return s.addr }

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)

	r.Get("/api/health", s.handleHealth)
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/api/workspaces", s.handleWorkspaces)
		r.Post("/api/{resource}", s.handleCreate)
		r.Patch("/api/{resource}/{id}", s.handlePatch)
		r.Delete("/api/{resource}/{id}", s.handleDelete)
		r.Get("/api/tasks/{id}/activities", s.handleActivities)
		r.Get("/api/tasks/{id}/description", s.handleDescription)
	})
	return newCORS().Handler(r)
}

func newCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         600,
	})
}

// Start listens on the configured address and blocks until the server stops.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("taskboard server listening", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type loggerKey struct{}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log, reqID := logging.NewRequestLogger(s.log)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Header().Set("X-Request-Id", reqID)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), loggerKey{}, log)))
		log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"dur", time.Since(start).String(),
		)
	})
}

func requestLogger(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return fallback
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWorkspaces(w http.ResponseWriter, r *http.Request) {
	wss, err := s.repo.Workspaces(r.Context(), userID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.Result{Workspaces: wss})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	op, err := s.decodeOp(r, chi.URLParam(r, "resource"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	switch op.Kind() {
	case wire.KindWorkspaceCreate, wire.KindGroupCreate, wire.KindTaskCreate:
	default:
		s.fail(w, r, badRequest(fmt.Errorf("%s is not a create operation", op.Kind())))
		return
	}
	res, err := s.apply(r.Context(), userID(r.Context()), op)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	op, err := s.decodeOp(r, chi.URLParam(r, "resource"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	switch op.Kind() {
	case wire.KindWorkspaceCreate, wire.KindGroupCreate, wire.KindTaskCreate,
		wire.KindWorkspaceDelete, wire.KindGroupDelete, wire.KindTaskDelete:
		s.fail(w, r, badRequest(fmt.Errorf("%s cannot be sent as PATCH", op.Kind())))
		return
	}
	if id := chi.URLParam(r, "id"); op.Target() != id {
		s.fail(w, r, badRequest(fmt.Errorf("operation targets %q but path names %q", op.Target(), id)))
		return
	}
	res, err := s.apply(r.Context(), userID(r.Context()), op)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var op wire.Op
	switch chi.URLParam(r, "resource") {
	case "workspaces":
		op = wire.WorkspaceDelete{ID: id}
	case "groups":
		op = wire.GroupDelete{ID: id}
	case "tasks":
		op = wire.TaskDelete{ID: id}
	default:
		writeError(w, r, http.StatusNotFound, "not_found", errors.New("unknown resource"))
		return
	}
	res, err := s.apply(r.Context(), userID(r.Context()), op)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	acts, err := s.repo.Activities(r.Context(), userID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.Result{Activities: acts})
}

// handleDescription returns the task description rendered as sanitized HTML.
func (s *Server) handleDescription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	wss, err := s.repo.Workspaces(ctx, userID(ctx))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	t, ok := findTask(wss, id)
	if !ok {
		s.fail(w, r, &store.NotFoundError{Kind: "task", ID: id})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":          t.ID,
		"description": t.Description,
		"html":        renderDescriptionHTML(t.Description),
	})
}

func (s *Server) decodeOp(r *http.Request, resource string) (wire.Op, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, badRequest(err)
	}
	op, err := wire.Decode(body)
	if err != nil {
		return nil, badRequest(err)
	}
	if got := wire.Resource(op.Kind()); got != resource {
		return nil, badRequest(fmt.Errorf("%s does not belong under /api/%s", op.Kind(), resource))
	}
	return wire.Normalize(op)
}

// apply executes one operation for userID against the repository.
func (s *Server) apply(ctx context.Context, userID string, op wire.Op) (wire.Result, error) {
	switch o := op.(type) {
	case wire.WorkspaceCreate:
		ws, err := s.repo.CreateWorkspace(ctx, userID, o.Name)
		return wire.Result{Workspace: &ws}, err
	case wire.WorkspaceRename:
		ws, err := s.repo.RenameWorkspace(ctx, userID, o.ID, o.Name)
		return wire.Result{Workspace: &ws}, err
	case wire.WorkspaceSelect:
		ws, err := s.repo.SelectWorkspace(ctx, userID, o.ID)
		return wire.Result{Workspace: &ws}, err
	case wire.WorkspaceDelete:
		return wire.Result{}, s.repo.DeleteWorkspace(ctx, userID, o.ID)
	case wire.GroupCreate:
		g, err := s.repo.CreateGroup(ctx, userID, o.WorkspaceID, o.Name)
		return wire.Result{Group: &g}, err
	case wire.GroupRename:
		g, err := s.repo.RenameGroup(ctx, userID, o.ID, o.Name)
		return wire.Result{Group: &g}, err
	case wire.GroupMove:
		g, err := s.repo.MoveGroup(ctx, userID, o.ID, o.Index)
		return wire.Result{Group: &g}, err
	case wire.GroupDelete:
		return wire.Result{}, s.repo.DeleteGroup(ctx, userID, o.ID)
	case wire.TaskCreate:
		t, err := s.repo.CreateTask(ctx, userID, o.GroupID, o.Name, o.Description)
		return wire.Result{Task: &t}, err
	case wire.TaskUpdate:
		t, act, err := s.repo.UpdateTask(ctx, userID, o.ID, o.Name, o.Description)
		return wire.Result{Task: &t, Activity: act}, err
	case wire.TaskMove:
		t, act, err := s.repo.MoveTask(ctx, userID, o.ID, o.GroupID, o.Index)
		return wire.Result{Task: &t, Activity: act}, err
	case wire.TaskDelete:
		return wire.Result{}, s.repo.DeleteTask(ctx, userID, o.ID)
	}
	return wire.Result{}, badRequest(&wire.UnknownOpError{Kind: string(op.Kind())})
}

type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &requestError{err: err} }

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		nf  *store.NotFoundError
		ve  *mutate.ValidationError
		req *requestError
	)
	switch {
	case errors.As(err, &ve):
		writeError(w, r, http.StatusBadRequest, "validation", err)
	case errors.As(err, &req):
		writeError(w, r, http.StatusBadRequest, "bad_request", err)
	case errors.As(err, &nf):
		writeError(w, r, http.StatusNotFound, "not_found", err)
	default:
		requestLogger(r.Context(), s.log).Error("request failed", "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal", errors.New("internal error"))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	writeJSON(w, status, wire.ErrorBody{Error: err.Error(), Code: code})
}

func findTask(wss []model.Workspace, id string) (model.Task, bool) {
	for _, ws := range wss {
		for _, g := range ws.Groups {
			for _, t := range g.Tasks {
				if t.ID == id {
					return t, true
				}
			}
		}
	}
	return model.Task{}, false
}

package web

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"taskboard/internal/auth"
)

type ctxKey int

const userIDKey ctxKey = iota

func secretKeyPath(dataDir string) string {
	return filepath.Join(filepath.Clean(strings.TrimSpace(dataDir)), "secret.key")
}

// LoadOrInitSecret returns the signing secret stored in dataDir, creating one on first use.
func LoadOrInitSecret(dataDir string) ([]byte, error) {
	path := secretKeyPath(dataDir)
	if b, err := os.ReadFile(path); err == nil && len(b) > 0 {
		return []byte(strings.TrimSpace(string(b))), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	enc := base64.RawURLEncoding.EncodeToString(raw)
	if err := os.WriteFile(path, []byte(enc+"\n"), 0o600); err != nil {
		return nil, err
	}
	return []byte(enc), nil
}

// authenticate requires a valid bearer token and stores its subject as the acting user.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, err := auth.FromHeader(r.Header.Get(auth.HeaderKey))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", err)
			return
		}
		userID, err := auth.ValidateToken(tok, s.secret)
		if err != nil {
			requestLogger(r.Context(), s.log).Warn("rejected token", "err", err)
			writeError(w, r, http.StatusUnauthorized, "unauthorized", errors.New("invalid token"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func userID(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

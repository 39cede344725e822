package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var kvSchema = []string{
	`CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`,
}

// KV is the local string key-value store backing guest mode.
type KV struct {
	db *sql.DB
}

func OpenKV(ctx context.Context, dir string) (*KV, error) {
	db, err := Store{Dir: dir}.openSQLite(ctx, kvSchema)
	if err != nil {
		return nil, err
	}
	return &KV{db: db}, nil
}

func (k *KV) Close() error { return k.db.Close() }

func (k *KV) Get(key string) (string, bool, error) {
	var v string
	err := k.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (k *KV) Set(key, value string) error {
	_, err := k.db.Exec(
		`INSERT INTO kv(key, value, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, formatTime(time.Now()),
	)
	return err
}

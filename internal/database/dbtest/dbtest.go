// Package dbtest opens throwaway SQLite databases with the application
// schema applied.
package dbtest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/iliyamo/reading-list/internal/config"
	"github.com/iliyamo/reading-list/internal/database"
	"github.com/iliyamo/reading-list/internal/model"
)

// New returns an in-memory database that is closed when the test ends.
func New(t testing.TB) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, config.DBConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(ctx, db, "sqlite"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// RefreshRecord reads the refresh_tokens row for jti straight from the table
// so tests can inspect stored columns the API never returns.
func RefreshRecord(t testing.TB, db *sql.DB, jti string) model.RefreshRecord {
	t.Helper()
	var (
		rec model.RefreshRecord
		ua  sql.NullString
	)
	err := db.QueryRowContext(context.Background(),
		"SELECT id,user_id,jti,device_id,user_agent,revoked,expires_at,created_at FROM refresh_tokens WHERE jti=?", jti).
		Scan(&rec.ID, &rec.UserID, &rec.JTI, &rec.DeviceID, &ua, &rec.Revoked, &rec.ExpiresAt, &rec.CreatedAt)
	if err != nil {
		t.Fatalf("load refresh record %q: %v", jti, err)
	}
	if ua.Valid {
		rec.UserAgent = &ua.String
	}
	return rec
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/reading-list/internal/model"
)

// TokenRepo persists issued refresh tokens, one row per jti.
type TokenRepo struct{ DB DBTX }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

func (r *TokenRepo) WithTx(tx *sql.Tx) *TokenRepo { return &TokenRepo{DB: tx} }

// Create inserts a live refresh record.
func (r *TokenRepo) Create(ctx context.Context, rec model.RefreshRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	var ua sql.NullString
	if rec.UserAgent != nil {
		ua = sql.NullString{String: *rec.UserAgent, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, jti, device_id, user_agent, revoked, expires_at, created_at) VALUES (?,?,?,?,?,?,?)",
		rec.UserID, rec.JTI, rec.DeviceID, ua, false, utc(rec.ExpiresAt), utc(created))
	return err
}

// RevokeByJTI marks the record revoked. It reports whether this call changed
// the row: false means the jti is unknown or was already revoked, which makes
// the guarded update a single-writer gate for concurrent rotations.
func (r *TokenRepo) RevokeByJTI(ctx context.Context, jti string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=? WHERE jti=? AND revoked=?",
		true, jti, false)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RevokeForDevice revokes every unrevoked record of (userID, deviceID) and
// returns how many rows changed.
func (r *TokenRepo) RevokeForDevice(ctx context.Context, userID uint64, deviceID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=? WHERE user_id=? AND device_id=? AND revoked=?",
		true, userID, deviceID, false)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// IsRevoked reports true when jti is unknown or its record is revoked.
func (r *TokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := r.DB.QueryRowContext(ctx,
		"SELECT revoked FROM refresh_tokens WHERE jti=? LIMIT 1", jti).Scan(&revoked)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return revoked, nil
}

// ListActive returns the live records of a user, newest first.
func (r *TokenRepo) ListActive(ctx context.Context, userID uint64, now time.Time) ([]model.RefreshRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,jti,device_id,user_agent,revoked,expires_at,created_at FROM refresh_tokens WHERE user_id=? AND revoked=? ORDER BY id DESC",
		userID, false)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RefreshRecord
	for rows.Next() {
		rec, err := scanRefresh(rows)
		if err != nil {
			return nil, err
		}
		if rec.Live(now) {
			out = append(out, rec)
		}
	}
	return out, rows.Err()
}

func scanRefresh(s scanner) (model.RefreshRecord, error) {
	var (
		rec model.RefreshRecord
		ua  sql.NullString
	)
	err := s.Scan(&rec.ID, &rec.UserID, &rec.JTI, &rec.DeviceID, &ua, &rec.Revoked, &rec.ExpiresAt, &rec.CreatedAt)
	if err != nil {
		return rec, notFound(err)
	}
	if ua.Valid {
		rec.UserAgent = &ua.String
	}
	return rec, nil
}

// utc normalizes timestamps before they are written so that both drivers
// store the same second-precision UTC value.
func utc(t time.Time) time.Time { return t.UTC().Truncate(time.Second) }

package repository

import (
	"context"
	"database/sql"
	"time"
)

// RevokedRepo is the persisted blacklist of token ids invalidated before
// their expiry.
type RevokedRepo struct{ DB DBTX }

func NewRevokedRepo(db *sql.DB) *RevokedRepo { return &RevokedRepo{DB: db} }

func (r *RevokedRepo) WithTx(tx *sql.Tx) *RevokedRepo { return &RevokedRepo{DB: tx} }

// Add blacklists jti. Adding a jti that is already present is a no-op.
func (r *RevokedRepo) Add(ctx context.Context, tokenType, jti string, userID uint64, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO revoked_tokens (user_id, jti, token_type, expires_at, created_at) VALUES (?,?,?,?,?)",
		userID, jti, tokenType, utc(expiresAt), utc(time.Now()))
	if isDuplicateKey(err) {
		return nil
	}
	return err
}

// IsBlacklisted reports whether jti has been revoked.
func (r *RevokedRepo) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM revoked_tokens WHERE jti=? LIMIT 1", jti).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PurgeExpired deletes rows whose token expired before the given time. Those
// tokens already fail signature-time expiry checks, so the rows are inert.
func (r *RevokedRepo) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM revoked_tokens WHERE expires_at < ?", utc(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

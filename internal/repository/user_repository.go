package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/reading-list/internal/model"
)

type UserRepo struct{ DB DBTX }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// WithTx returns a copy of the repo bound to tx.
func (r *UserRepo) WithTx(tx *sql.Tx) *UserRepo { return &UserRepo{DB: tx} }

const userColumns = "id,email,password_hash,role,is_active,created_at,updated_at"

// Create inserts u and returns its ID. The email is stored as given.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, is_active, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		u.Email, u.PasswordHash, u.Role, u.IsActive, now, now)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by exact email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// UpdatePasswordHash replaces the stored hash of user id.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=? WHERE id=?",
		hash, time.Now().UTC().Truncate(time.Second), id)
	return err
}

// SetRole changes the role of the user with the given email.
func (r *UserRepo) SetRole(ctx context.Context, email, role string) error {
	return r.update(ctx, email, "role", role)
}

// SetActive enables or disables the user with the given email.
func (r *UserRepo) SetActive(ctx context.Context, email string, active bool) error {
	return r.update(ctx, email, "is_active", active)
}

func (r *UserRepo) update(ctx context.Context, email, column string, value any) error {
	if _, err := r.GetByEmail(ctx, email); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+column+"=?, updated_at=? WHERE email=?",
		value, time.Now().UTC().Truncate(time.Second), email)
	return err
}

// Search lists users whose email contains q, case-insensitively, ordered by
// id. An empty q matches everyone.
func (r *UserRepo) Search(ctx context.Context, q string, limit, offset int) ([]model.User, error) {
	query := "SELECT " + userColumns + " FROM users"
	var args []any
	if q != "" {
		query += " WHERE LOWER(email) LIKE ? ESCAPE '!'"
		args = append(args, "%"+escapeLike(strings.ToLower(q))+"%")
	}
	query += " ORDER BY id ASC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanUser(s scanner) (model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, notFound(err)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string { return likeEscaper.Replace(s) }

package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/reading-list/internal/model"
)

type EntryRepo struct{ DB DBTX }

func NewEntryRepo(db *sql.DB) *EntryRepo { return &EntryRepo{DB: db} }

// EntryFilter narrows List. A nil OwnerID lists every owner.
type EntryFilter struct {
	OwnerID *uint64
	Status  string
	Limit   int
	Offset  int
}

const entryColumns = "id,title,kind,link,status,owner_id,created_at,updated_at"

// Create inserts e and fills in its ID and timestamps.
func (r *EntryRepo) Create(ctx context.Context, e *model.Entry) error {
	now := utc(time.Now())
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO entries (title, kind, link, status, owner_id, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		e.Title, e.Kind, nullString(e.Link), e.Status, e.OwnerID, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	e.CreatedAt, e.UpdatedAt = now, now
	return nil
}

func (r *EntryRepo) Get(ctx context.Context, id uint64) (model.Entry, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE id=? LIMIT 1", id)
	return scanEntry(row)
}

// List returns entries matching f, newest id first.
func (r *EntryRepo) List(ctx context.Context, f EntryFilter) ([]model.Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.OwnerID != nil {
		where = append(where, "owner_id=?")
		args = append(args, *f.OwnerID)
	}
	if f.Status != "" {
		where = append(where, "status=?")
		args = append(args, f.Status)
	}
	query := "SELECT " + entryColumns + " FROM entries"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Update writes the mutable fields of e and refreshes UpdatedAt.
func (r *EntryRepo) Update(ctx context.Context, e *model.Entry) error {
	now := utc(time.Now())
	// MySQL reports unchanged rows as unaffected, so callers load the entry
	// first instead of relying on RowsAffected here.
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE entries SET title=?, kind=?, link=?, status=?, updated_at=? WHERE id=?",
		e.Title, e.Kind, nullString(e.Link), e.Status, now, e.ID); err != nil {
		return err
	}
	e.UpdatedAt = now
	return nil
}

func (r *EntryRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM entries WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEntry(s scanner) (model.Entry, error) {
	var (
		e    model.Entry
		link sql.NullString
	)
	if err := s.Scan(&e.ID, &e.Title, &e.Kind, &link, &e.Status, &e.OwnerID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return e, notFound(err)
	}
	if link.Valid {
		e.Link = &link.String
	}
	return e, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

package repository_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/reading-list/internal/database/dbtest"
	"github.com/iliyamo/reading-list/internal/model"
	"github.com/iliyamo/reading-list/internal/repository"
)

func setup(t *testing.T) (*sql.DB, *repository.UserRepo) {
	t.Helper()
	db := dbtest.New(t)
	return db, repository.NewUserRepo(db)
}

func createUser(t *testing.T, users *repository.UserRepo, email string) uint64 {
	t.Helper()
	id, err := users.Create(context.Background(), model.User{
		Email:        email,
		PasswordHash: "hash",
		Role:         model.RoleUser,
		IsActive:     true,
	})
	require.NoError(t, err)
	return id
}

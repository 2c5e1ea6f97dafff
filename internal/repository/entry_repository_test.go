package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/reading-list/internal/model"
	"github.com/iliyamo/reading-list/internal/repository"
)

func addEntry(t *testing.T, entries *repository.EntryRepo, owner uint64, title, status string) model.Entry {
	t.Helper()
	e := model.Entry{Title: title, Kind: model.KindArticle, Status: status, OwnerID: owner}
	require.NoError(t, entries.Create(context.Background(), &e))
	return e
}

func TestEntryCRUD(t *testing.T) {
	db, users := setup(t)
	entries := repository.NewEntryRepo(db)
	ctx := context.Background()
	uid := createUser(t, users, "a@x.com")

	link := "https://example.com/x"
	e := model.Entry{Title: "Algo", Kind: model.KindBook, Link: &link, Status: model.StatusPlanned, OwnerID: uid}
	require.NoError(t, entries.Create(ctx, &e))
	assert.NotZero(t, e.ID)

	got, err := entries.Get(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Link)
	assert.Equal(t, link, *got.Link)

	got.Title = "New"
	got.Status = model.StatusInProgress
	got.Link = nil
	require.NoError(t, entries.Update(ctx, &got))

	got, err = entries.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, model.StatusInProgress, got.Status)
	assert.Nil(t, got.Link)

	require.NoError(t, entries.Delete(ctx, e.ID))
	_, err = entries.Get(ctx, e.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, entries.Delete(ctx, e.ID), repository.ErrNotFound)
}

func TestEntryListFilters(t *testing.T) {
	db, users := setup(t)
	entries := repository.NewEntryRepo(db)
	ctx := context.Background()
	u1 := createUser(t, users, "u1@x.com")
	u2 := createUser(t, users, "u2@x.com")

	addEntry(t, entries, u1, "A1", model.StatusPlanned)
	addEntry(t, entries, u1, "A2", model.StatusInProgress)
	addEntry(t, entries, u2, "B1", model.StatusPlanned)

	own, err := entries.List(ctx, repository.EntryFilter{OwnerID: &u1, Limit: 50})
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, "A2", own[0].Title) // id desc

	planned, err := entries.List(ctx, repository.EntryFilter{Status: model.StatusPlanned, Limit: 50})
	require.NoError(t, err)
	assert.Len(t, planned, 2)

	page, err := entries.List(ctx, repository.EntryFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "A2", page[0].Title)

	none, err := entries.List(ctx, repository.EntryFilter{Status: model.StatusFinished, Limit: 50})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

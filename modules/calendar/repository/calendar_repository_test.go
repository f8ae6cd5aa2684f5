package repository_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-huddle/core/database"
	"go-huddle/modules/calendar/entity"
	"go-huddle/modules/calendar/repository"
)

type fakeDB struct {
	get       func(dest any, query string, args ...any) error
	namedExec func(query string, arg any) error
}

func (f *fakeDB) ExecContext(context.Context, string, ...any) error { return nil }
func (f *fakeDB) GetContext(_ context.Context, dest any, query string, args ...any) error {
	return f.get(dest, query, args...)
}
func (f *fakeDB) SelectContext(context.Context, any, string, ...any) error {
	panic("not used")
}
func (f *fakeDB) QueryRowContext(context.Context, string, ...any) *sql.Row {
	panic("not used")
}
func (f *fakeDB) NamedQueryContext(context.Context, string, any) (*sqlx.Rows, error) {
	panic("not used")
}
func (f *fakeDB) NamedExecContext(_ context.Context, query string, arg any) (sql.Result, error) {
	return nil, f.namedExec(query, arg)
}
func (f *fakeDB) SQLx() *sqlx.DB { return nil }

var _ database.IDatabase = (*fakeDB)(nil)

func TestCalendarRepository_MissingRowsAreNotErrors(t *testing.T) {
	db := &fakeDB{get: func(any, string, ...any) error { return sql.ErrNoRows }}
	repo := repository.NewCalendarRepository(db)

	conn, err := repo.GetConnection(context.Background(), "alice", entity.ProviderGoogle)
	require.NoError(t, err)
	assert.Nil(t, conn)

	deleted, err := repo.DeleteConnection(context.Background(), "alice", entity.ProviderGoogle)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCalendarRepository_UpsertAssignsID(t *testing.T) {
	var got *entity.CalendarConnection
	db := &fakeDB{namedExec: func(query string, arg any) error {
		assert.Contains(t, query, "ON CONFLICT (user_id, provider)")
		got = arg.(*entity.CalendarConnection)
		return nil
	}}
	repo := repository.NewCalendarRepository(db)

	conn := &entity.CalendarConnection{UserID: "alice", Provider: entity.ProviderGoogle, AccessToken: "a"}
	require.NoError(t, repo.UpsertConnection(context.Background(), conn))

	require.NotNil(t, got)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.True(t, got.IsActive)
}

package repository_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-huddle/core/cache"
	"go-huddle/core/database"
	"go-huddle/modules/event/entity"
	"go-huddle/modules/event/repository"
)

// fakeDB implements database.IDatabase with function fields; unused methods panic.
type fakeDB struct {
	exec      func(query string, args ...any) error
	get       func(dest any, query string, args ...any) error
	namedExec func(query string, arg any) (sql.Result, error)
}

func (f *fakeDB) ExecContext(_ context.Context, query string, args ...any) error {
	return f.exec(query, args...)
}
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
	return f.namedExec(query, arg)
}
func (f *fakeDB) SQLx() *sqlx.DB { return nil }

var _ database.IDatabase = (*fakeDB)(nil)

type published struct {
	channel string
	payload []byte
}

type fakeCache struct {
	published  []published
	publishErr error
	handler    func([]byte)
}

func (f *fakeCache) GetJSON(context.Context, string, any) error { return cache.ErrCacheMiss }
func (f *fakeCache) SetJSON(context.Context, string, any, time.Duration) error {
	return nil
}
func (f *fakeCache) Del(context.Context, ...string) error { return nil }
func (f *fakeCache) Publish(_ context.Context, channel string, payload []byte) error {
	f.published = append(f.published, published{channel, payload})
	return f.publishErr
}
func (f *fakeCache) Subscribe(_ context.Context, _ string, handler func([]byte)) (func(), error) {
	f.handler = handler
	return func() {}, nil
}
func (f *fakeCache) Close() error { return nil }

var _ cache.Cache = (*fakeCache)(nil)

func TestEventRepository_Load_NotFound(t *testing.T) {
	db := &fakeDB{get: func(any, string, ...any) error { return sql.ErrNoRows }}
	repo := repository.NewEventRepository(db, &fakeCache{})

	ev, err := repo.Load(context.Background(), "e1")

	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestEventRepository_Create_InsertsAndPublishes(t *testing.T) {
	var gotArgs []any
	db := &fakeDB{exec: func(query string, args ...any) error {
		assert.Contains(t, query, "INSERT INTO events")
		gotArgs = args
		return nil
	}}
	c := &fakeCache{}
	repo := repository.NewEventRepository(db, c)

	require.NoError(t, repo.Create(context.Background(), newEvent(t, "e1", "alice", time.Now())))

	require.Len(t, gotArgs, 5)
	assert.Equal(t, "e1", gotArgs[0])
	assert.Equal(t, "alice", gotArgs[1])
	require.Len(t, c.published, 1)
	assert.Equal(t, "event:changed:e1", c.published[0].channel)
}

func updated(rows int64) func(string, any) (sql.Result, error) {
	return func(string, any) (sql.Result, error) { return driver.RowsAffected(rows), nil }
}

func TestEventRepository_Save_UpdatesAndPublishes(t *testing.T) {
	var gotArg map[string]any
	db := &fakeDB{namedExec: func(query string, arg any) (sql.Result, error) {
		assert.Contains(t, query, "UPDATE events")
		gotArg = arg.(map[string]any)
		return driver.RowsAffected(1), nil
	}}
	c := &fakeCache{}
	repo := repository.NewEventRepository(db, c)
	ev := newEvent(t, "e1", "alice", time.Now())

	require.NoError(t, repo.Save(context.Background(), ev))

	assert.Equal(t, "e1", gotArg["id"])
	assert.Equal(t, ev.UpdatedAt, gotArg["updated_at"])
	require.Len(t, c.published, 1)
	assert.Equal(t, "event:changed:e1", c.published[0].channel)

	var decoded entity.Event
	require.NoError(t, json.Unmarshal(c.published[0].payload, &decoded))
	assert.Equal(t, ev.Slots, decoded.Slots)
}

func TestEventRepository_Save_DeletedRowIsNotRecreated(t *testing.T) {
	c := &fakeCache{}
	repo := repository.NewEventRepository(&fakeDB{namedExec: updated(0)}, c)

	err := repo.Save(context.Background(), newEvent(t, "e1", "alice", time.Now()))

	assert.ErrorIs(t, err, entity.ErrEventNotFound)
	assert.Empty(t, c.published)
}

func TestEventRepository_Save_PublishFailureIsNotFatal(t *testing.T) {
	repo := repository.NewEventRepository(&fakeDB{namedExec: updated(1)}, &fakeCache{publishErr: errors.New("redis down")})

	assert.NoError(t, repo.Save(context.Background(), newEvent(t, "e1", "alice", time.Now())))
}

func TestEventRepository_Save_DBError(t *testing.T) {
	db := &fakeDB{namedExec: func(string, any) (sql.Result, error) { return nil, errors.New("boom") }}
	c := &fakeCache{}
	repo := repository.NewEventRepository(db, c)

	assert.Error(t, repo.Save(context.Background(), newEvent(t, "e1", "alice", time.Now())))
	assert.Empty(t, c.published)
}

func TestEventRepository_Subscribe_DecodesSnapshots(t *testing.T) {
	c := &fakeCache{}
	repo := repository.NewEventRepository(&fakeDB{}, c)
	var got []*entity.Event
	calls := 0

	_, err := repo.Subscribe(context.Background(), "e1", func(ev *entity.Event) {
		calls++
		got = append(got, ev)
	})
	require.NoError(t, err)

	doc, err := json.Marshal(newEvent(t, "e1", "alice", time.Now()))
	require.NoError(t, err)
	c.handler(doc)
	c.handler([]byte("null"))
	c.handler([]byte("{garbage"))

	assert.Equal(t, 2, calls)
	assert.Equal(t, "e1", got[0].ID)
	assert.Nil(t, got[1])
}

package gormwatch

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Alp4ka/watchpager"
)

func newGORMMySQLMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return db, mock
}

// funcQuery is a Query that never touches the database.
type funcQuery struct {
	key string
	run func(ctx context.Context) (int, error)
}

func (q funcQuery) Key() string {
	return q.key
}

func (q funcQuery) Run(ctx context.Context, _ *gorm.DB) (int, error) {
	return q.run(ctx)
}

func constQuery(key string, value int) funcQuery {
	return funcQuery{key: key, run: func(context.Context) (int, error) { return value, nil }}
}

type events chan watchpager.Event[int]

func newEvents() events {
	return make(events, 16)
}

func (e events) handler(ev watchpager.Event[int]) {
	e <- ev
}

func (e events) next(t *testing.T) watchpager.Event[int] {
	t.Helper()

	select {
	case ev := <-e:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return watchpager.Event[int]{}
	}
}

func (e events) none(t *testing.T) {
	t.Helper()

	select {
	case ev := <-e:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

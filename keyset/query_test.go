package keyset

import (
	"database/sql/driver"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Test_Query_WithMethods_And_SortDedup(t *testing.T) {
	q := (*Query)(nil).
		WithLimit(5).
		WithLookahead().
		WithUnlimited().
		WithSubstitutedSort(
			OrderBy{Column: "id", Direction: DirectionASC},
		).
		WithSort(
			OrderBy{Column: "id", Direction: DirectionDESC},
			OrderBy{Column: "created_at", Direction: DirectionASC},
		)

	require.True(t, q.IsLookahead())
	require.True(t, q.IsUnlimited())
	require.Equal(t, NoLimit, q.Limit())
	require.Equal(t, Orderings{
		{Column: "id", Direction: DirectionDESC},
		{Column: "created_at", Direction: DirectionASC},
	}, q.Sort())
}

func Test_Query_NilAccessors(t *testing.T) {
	var q *Query

	require.Nil(t, q.Sort())
	require.Nil(t, q.Cursor())
	require.Nil(t, q.Clone())
	require.Zero(t, q.Limit())
	require.False(t, q.IsLookahead())
	require.False(t, q.IsUnlimited())
	require.Error(t, q.validate())
}

func Test_Query_CloneAndAfter(t *testing.T) {
	q := NewQuery().WithLimit(3).WithSort(OrderBy{Column: "id", Direction: DirectionASC})
	cur := NewCursor(Element{Column: "id", Value: 3, Operator: OperatorGT})

	next := q.After(cur)
	require.Nil(t, q.Cursor())
	require.Same(t, cur, next.Cursor())
	require.Equal(t, q.Sort(), next.Sort())
	require.Equal(t, 3, next.Limit())

	next.WithSort(OrderBy{Column: "name", Direction: DirectionASC})
	require.Len(t, q.Sort(), 1)
	require.Len(t, next.Sort(), 2)
}

func Test_DecodeQuery(t *testing.T) {
	token := NewCursor(Element{Column: "id", Value: 7, Operator: OperatorGT}).String()

	q, err := DecodeQuery(500, token, OrderBy{Column: "id", Direction: DirectionASC})
	require.NoError(t, err)
	require.Equal(t, MaxLimit, q.Limit())
	require.Equal(t, token, q.Cursor().String())
	require.NoError(t, q.validate())

	_, err = DecodeQuery(10, "%%%")
	require.Error(t, err)
}

func Test_Query_validate(t *testing.T) {
	idASC := OrderBy{Column: "id", Direction: DirectionASC}
	gtOne := NewCursor(Element{Column: "id", Value: 1, Operator: OperatorGT})

	tests := []struct {
		name    string
		query   *Query
		wantErr bool
	}{
		{
			name:  "standard case, ok",
			query: NewQuery().WithLimit(10).WithLookahead().WithCursor(gtOne).WithSort(idASC),
		},
		{
			name:    "lookahead with no limit is forbidden",
			query:   NewQuery().WithUnlimited().WithLookahead().WithCursor(gtOne).WithSort(idASC),
			wantErr: true,
		},
		{
			name:    "sort list should contain the same columns as cursor",
			query:   NewQuery().WithCursor(gtOne).WithSort(OrderBy{Column: "name", Direction: DirectionASC}),
			wantErr: true,
		},
		{
			name: "unsuitable sort direction for operator",
			query: NewQuery().
				WithCursor(NewCursor(Element{Column: "id", Value: 1, Operator: OperatorLT})).
				WithSort(idASC),
			wantErr: true,
		},
		{
			name:    "query with no sort is invalid",
			query:   NewQuery().WithCursor(gtOne),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if gotErr := tt.query.validate(); (gotErr != nil) != tt.wantErr {
				t.Errorf("%s: got error = %v, want error = %v", tt.name, gotErr, tt.wantErr)
			}
		})
	}
}

func Test_Query_Apply(t *testing.T) {
	sqlMockFnList := []func() (string, *gorm.DB, sqlmock.Sqlmock, error){
		newGORMMySQLMock,
		newGORMPostgresMock,
	}

	type tUser struct {
		ID   uint
		Name string
	}

	tests := []struct {
		name          string
		limit         int
		cursor        *Cursor
		orderings     Orderings
		lookahead     bool
		expectedQuery string
		expectedArgs  []driver.Value
	}{
		{
			name:          "basic pagination with cursor",
			limit:         3,
			cursor:        NewCursor(Element{Column: "id", Value: 5, Operator: OperatorGT}),
			orderings:     Orderings{{Column: "id", Direction: DirectionASC}},
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] AND id > (?:\\$\\d|\\?) ORDER BY id ASC LIMIT 3$",
			expectedArgs:  []driver.Value{5},
		},
		{
			name:          "pagination with lookahead",
			limit:         3,
			cursor:        NewCursor(Element{Column: "id", Value: 5, Operator: OperatorGT}),
			orderings:     Orderings{{Column: "id", Direction: DirectionASC}},
			lookahead:     true,
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] AND id > (?:\\$\\d|\\?) ORDER BY id ASC LIMIT 4$",
			expectedArgs:  []driver.Value{5},
		},
		{
			name:  "pagination with multiple cursor elements",
			limit: 5,
			cursor: NewCursor(
				Element{Column: "id", Value: 10, Operator: OperatorGT},
				Element{Column: "created_at", Value: "2023-01-01", Operator: OperatorGT},
			),
			orderings: Orderings{
				{Column: "id", Direction: DirectionASC},
				{Column: "created_at", Direction: DirectionASC},
			},
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] AND \\(id > (?:\\$\\d|\\?) OR \\(id = (?:\\$\\d|\\?) AND created_at > (?:\\$\\d|\\?)\\)\\) ORDER BY id ASC, created_at ASC LIMIT 5$",
			expectedArgs:  []driver.Value{10, 10, "2023-01-01"},
		},
		{
			name:          "pagination with nil cursor",
			limit:         10,
			orderings:     Orderings{{Column: "id", Direction: DirectionASC}},
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] ORDER BY id ASC LIMIT 10$",
		},
		{
			name:          "pagination with DESC ordering",
			limit:         3,
			cursor:        NewCursor(Element{Column: "id", Value: 5, Operator: OperatorLT}),
			orderings:     Orderings{{Column: "id", Direction: DirectionDESC}},
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] AND id < (?:\\$\\d|\\?) ORDER BY id DESC LIMIT 3$",
			expectedArgs:  []driver.Value{5},
		},
	}

	for _, sqlMockFn := range sqlMockFnList {
		for _, tt := range tests {
			dialect, db, dbMock, err := sqlMockFn()
			t.Run(fmt.Sprintf("%s %s", dialect, tt.name), func(t *testing.T) {
				require.NoError(t, err)

				expectation := dbMock.ExpectQuery(tt.expectedQuery)
				if len(tt.expectedArgs) > 0 {
					expectation = expectation.WithArgs(tt.expectedArgs...)
				}
				expectation.WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(6, "John Doe"))

				q := NewQuery().
					WithLimit(tt.limit).
					WithCursor(tt.cursor).
					WithSubstitutedSort(tt.orderings...)
				if tt.lookahead {
					q = q.WithLookahead()
				}

				paged, err := q.Apply(db.Select("*").Table("users").Where("name = 'lol'"))
				require.NoError(t, err)
				require.NoError(t, paged.Find(&[]tUser{}).Error)

				assert.NoError(t, dbMock.ExpectationsWereMet())
			})
		}
	}
}

func Test_Query_Apply_Invalid(t *testing.T) {
	_, db, _, err := newGORMMySQLMock()
	require.NoError(t, err)

	_, err = NewQuery().Apply(db)
	require.Error(t, err)
}

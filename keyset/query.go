package keyset

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Query describes one page: size, ordering and the cursor to start after.
// Builder methods are safe on a nil *Query.
type Query struct {
	lookahead bool
	limit     int
	cursor    *Cursor
	sort      Orderings
}

func NewQuery() *Query {
	return &Query{limit: DefaultLimit}
}

// DecodeQuery builds a Query from a page size and a token produced by
// Cursor.String.
func DecodeQuery(limit int, token string, orderBy ...OrderBy) (*Query, error) {
	cursor, err := DecodeCursor(token)
	if err != nil {
		return nil, err
	}

	return (&Query{cursor: cursor}).WithSubstitutedSort(orderBy...).WithLimit(limit), nil
}

// WithLookahead fetches one extra row to tell whether the page is the last.
//
// IMPORTANT:
// Cannot be used together with WithUnlimited() or WithLimit(NoLimit).
func (q *Query) WithLookahead() *Query {
	if q == nil {
		q = new(Query)
	}

	q.lookahead = true

	return q
}

// WithUnlimited returns all rows after the cursor.
func (q *Query) WithUnlimited() *Query {
	if q == nil {
		q = new(Query)
	}

	q.limit = NoLimit

	return q
}

// WithLimit sets the page size. Anything but NoLimit is normalized.
func (q *Query) WithLimit(limit int) *Query {
	if q == nil {
		q = new(Query)
	}

	if limit == NoLimit {
		return q.WithUnlimited()
	}
	q.limit = NormalizeLimit(limit)

	return q
}

func (q *Query) WithCursor(cursor *Cursor) *Query {
	if q == nil {
		q = new(Query)
	}

	q.cursor = cursor

	return q
}

// WithSubstitutedSort drops the current ordering and applies orderBy.
func (q *Query) WithSubstitutedSort(orderBy ...OrderBy) *Query {
	if q == nil {
		q = new(Query)
	}

	q.sort = nil

	return q.WithSort(orderBy...)
}

// WithSort appends orderings. A column that is already present moves to the
// end with its new direction.
func (q *Query) WithSort(orderBy ...OrderBy) *Query {
	if q == nil {
		q = new(Query)
	}

	for _, o := range orderBy {
		q.sort = slices.DeleteFunc(q.sort, func(existing OrderBy) bool {
			return existing.Column == o.Column
		})
		q.sort = append(q.sort, o)
	}

	return q
}

// Clone returns an independent copy. The cursor is shared: cursors are never
// mutated after construction.
func (q *Query) Clone() *Query {
	if q == nil {
		return nil
	}

	c := *q
	c.sort = slices.Clone(q.sort)

	return &c
}

// After returns a copy of q starting after cursor.
func (q *Query) After(cursor *Cursor) *Query {
	return q.Clone().WithCursor(cursor)
}

// Apply adds ordering, cursor filter and limit to db.
func (q *Query) Apply(db *gorm.DB) (*gorm.DB, error) {
	if err := q.validate(); err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	db = q.sort.Apply(db)
	db = q.cursor.Apply(db)

	if q.limit != NoLimit {
		db = db.Limit(q.DatasetLimit())
	}

	return db, nil
}

func (q *Query) Sort() Orderings {
	if q == nil {
		return nil
	}

	return q.sort
}

func (q *Query) IsUnlimited() bool {
	return q != nil && q.limit == NoLimit
}

func (q *Query) IsLookahead() bool {
	return q != nil && q.lookahead
}

// Limit returns the page size. NoLimit means unbounded.
func (q *Query) Limit() int {
	if q == nil {
		return 0
	}

	return q.limit
}

func (q *Query) Cursor() *Cursor {
	if q == nil {
		return nil
	}

	return q.cursor
}

// DatasetLimit is the number of rows to select: Limit()+1 with lookahead.
func (q *Query) DatasetLimit() int {
	return lo.Ternary(q.IsLookahead(), q.Limit()+1, q.Limit())
}

func (q *Query) validate() error {
	if q == nil {
		return fmt.Errorf("query is nil")
	}

	if q.limit == NoLimit && q.lookahead {
		return fmt.Errorf("cannot apply lookahead to unlimited paging")
	}

	if err := q.sort.validate(); err != nil {
		return err
	}

	return q.cursor.validate(q.sort)
}

// IsLastPage reports whether rows, as selected with q, is the last page:
// fewer rows than the limit, or no extra row with lookahead.
func IsLastPage[T any](q *Query, rows []T) bool {
	if q.IsUnlimited() {
		return true
	}

	return len(rows) < q.limit || (q.lookahead && len(rows) <= q.limit)
}

// Trim drops the lookahead row.
func Trim[T any](q *Query, rows []T) []T {
	if q.IsLookahead() && len(rows) > q.limit {
		rows = rows[:q.limit]
	}

	return rows
}

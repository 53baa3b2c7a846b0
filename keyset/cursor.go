package keyset

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

var _encoder = base64.RawURLEncoding

// Element is one cursor condition (c, v, o): column c compared with value v
// using operator o.
type Element struct {
	Column   string   `json:"c"`
	Value    any      `json:"v"`
	Operator Operator `json:"o"`
}

func (e Element) condition() condition {
	return condition(e)
}

func (e Element) equality() condition {
	return condition{Column: e.Column, Value: e.Value, Operator: operatorEq}
}

// Cursor is the position a page starts after. A nil or empty cursor means
// the beginning of the dataset.
//
// IMPORTANT:
// A cursor must always contain a condition on a unique column.
type Cursor struct {
	elements []Element
}

func NewCursor(elements ...Element) *Cursor {
	return &Cursor{elements: elements}
}

// DecodeCursor parses a token produced by Cursor.String. An empty token
// decodes to a nil cursor.
func DecodeCursor(token string) (*Cursor, error) {
	if len(token) == 0 {
		return nil, nil
	}

	raw, err := _encoder.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 encoded cursor: %w", err)
	}

	var elems []Element
	if err = json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json encoded cursor: %w", err)
	}

	return &Cursor{elements: elems}, nil
}

// String - implements fmt.Stringer. Returns the opaque page token, or an
// empty string for an empty cursor.
func (c *Cursor) String() string {
	if c.IsEmpty() {
		return ""
	}

	raw, err := json.Marshal(c.elements)
	if err != nil {
		panic(fmt.Errorf("cannot marshal cursor value: %w", err))
	}

	return _encoder.EncodeToString(raw)
}

func (c *Cursor) IsEmpty() bool {
	return c == nil || len(c.elements) == 0
}

// Elements returns the cursor conditions. They are not a complete filter:
// use Apply to get the expanded one.
func (c *Cursor) Elements() []Element {
	if c == nil {
		return nil
	}

	return c.elements
}

// Apply adds the expanded cursor filter to a gorm query.
func (c *Cursor) Apply(db *gorm.DB) *gorm.DB {
	exp := c.toDNF().expression()
	if exp == nil {
		return db
	}

	return db.Clauses(exp)
}

// toDNF expands
//
//	[(C1, O1, V1), (C2, O2, V2), ... (Cn, On, Vn)]
//
// into
//
//	(C1 O1 V1) OR (C1 = V1 AND C2 O2 V2) OR ... OR (C1 = V1 AND ... AND Cn On Vn)
func (c *Cursor) toDNF() dnf {
	if c.IsEmpty() {
		return nil
	}

	ret := make(dnf, 0, len(c.elements))
	for i, elem := range c.elements {
		conj := make(conjunction, 0, i+1)
		conj = append(conj, lo.Map(c.elements[:i], func(prev Element, _ int) condition {
			return prev.equality()
		})...)
		conj = append(conj, elem.condition())

		ret = append(ret, conj)
	}

	return ret
}

func (c *Cursor) validate(orderings Orderings) error {
	if c.IsEmpty() {
		return nil
	}

	if len(c.elements) != len(orderings) {
		return fmt.Errorf("cursor column number mismatch")
	}

	for i, elem := range c.elements {
		orderBy := orderings[i]

		if elem.Column != orderBy.Column {
			return fmt.Errorf("unexpected cursor column '%s'", elem.Column)
		}

		if !elem.Operator.Valid() {
			return fmt.Errorf("invalid cursor operator '%s'", elem.Operator)
		} else if elem.Operator.Direction() != orderBy.Direction {
			return fmt.Errorf("unexpected cursor operator '%s'", elem.Operator)
		}
	}

	return nil
}

var _ fmt.Stringer = (*Cursor)(nil)

// Getters maps ordering columns to accessors on the row type. Every column of
// the query ordering needs a getter:
//
//	keyset.Getters[User]{
//		"id":         func(u User) any { return u.ID },
//		"created_at": func(u User) any { return u.CreatedAt },
//	}
type Getters[T any] map[string]func(T) any

// NextCursor trims rows to the page size and builds the cursor of the next
// page. The cursor is nil when rows is the last page.
func NextCursor[T any](q *Query, rows []T, getters Getters[T]) ([]T, *Cursor, error) {
	if err := q.validate(); err != nil {
		return nil, nil, fmt.Errorf("cannot build next page cursor: %w", err)
	}

	if IsLastPage(q, rows) {
		return rows, nil, nil
	}
	rows = Trim(q, rows)
	last := lo.LastOrEmpty(rows)

	next := &Cursor{elements: make([]Element, 0, len(q.sort))}
	for _, orderBy := range q.sort {
		getter, ok := getters[orderBy.Column]
		if !ok {
			return nil, nil, fmt.Errorf("cannot find getter for column '%s' met in ordering", orderBy.Column)
		}

		next.elements = append(next.elements, Element{
			Column:   orderBy.Column,
			Value:    getter(last),
			Operator: orderBy.Direction.Operator(),
		})
	}

	return rows, next, nil
}

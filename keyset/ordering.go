package keyset

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Direction is the sort direction of one ordering column.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

var _directionOperators = map[Direction]Operator{
	DirectionASC:  OperatorGT,
	DirectionDESC: OperatorLT,
}

func (d Direction) Valid() bool {
	_, ok := _directionOperators[d]
	return ok
}

// Operator returns the strict comparison that continues after a row in
// direction d.
func (d Direction) Operator() Operator {
	op, ok := _directionOperators[d]
	if !ok {
		panic(fmt.Errorf("cannot map direction '%s' to operator", d))
	}

	return op
}

// Operator is a comparison used in cursor conditions.
type Operator string

const (
	OperatorGT Operator = ">"
	OperatorLT Operator = "<"

	// operatorEq only appears in expanded filters, never in a cursor.
	operatorEq Operator = "="
)

func (o Operator) Valid() bool {
	return o == OperatorLT || o == OperatorGT
}

// Direction returns the sort direction an operator belongs to.
func (o Operator) Direction() Direction {
	for d, op := range _directionOperators {
		if op == o {
			return d
		}
	}

	panic(fmt.Errorf("cannot map operator '%s' to direction", o))
}

type (
	// Orderings is a multi-column ordering, most significant column first.
	Orderings []OrderBy

	OrderBy struct {
		Column    string
		Direction Direction
	}
)

var _columnNameSymbols = append([]rune("_.'`\""), lo.AlphanumericCharset...)

func (o OrderBy) validate() error {
	if !o.Direction.Valid() {
		return fmt.Errorf("invalid ordering direction '%s'", o.Direction)
	}

	// Column names end up in raw SQL.
	if o.Column == "" || !lo.Every(_columnNameSymbols, []rune(o.Column)) {
		return fmt.Errorf("ordering column name contains forbidden symbols '%s'", o.Column)
	}

	return nil
}

// ToSQL returns the ORDER BY body, e.g. "a ASC, b DESC".
func (o Orderings) ToSQL() string {
	return strings.Join(lo.Map(o, func(ordering OrderBy, _ int) string {
		return fmt.Sprintf("%s %s", ordering.Column, ordering.Direction)
	}), ", ")
}

// Apply applies the ordering to a gorm query.
func (o Orderings) Apply(db *gorm.DB) *gorm.DB {
	return db.Order(o.ToSQL())
}

func (o Orderings) validate() error {
	if len(o) == 0 {
		return fmt.Errorf("empty ordering list")
	}

	for _, ordering := range o {
		if err := ordering.validate(); err != nil {
			return err
		}
	}

	return nil
}

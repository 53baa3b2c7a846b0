package keyset

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm/clause"
)

type (
	condition struct {
		Column   string
		Value    any
		Operator Operator
	}

	// conjunction is a list of conditions joined by AND.
	conjunction []condition

	// dnf is a disjunctive normal form: conjunctions joined by OR.
	//
	//	dnf = X1 OR X2 ... OR Xn, where Xi = Ai1 AND Ai2 ... AND Aim.
	dnf []conjunction
)

// expression returns "Column Operator ?" with a single bound value.
func (c condition) expression() clause.Expression {
	return clause.Expr{
		SQL:  fmt.Sprintf("%s %s ?", c.Column, c.Operator),
		Vars: []any{normalizeValue(c.Value)},
	}
}

// normalizeValue turns RFC 3339 strings back into time.Time. Cursor values
// travel through JSON, so timestamps come back as strings.
func normalizeValue(v any) any {
	var raw []byte
	switch vt := v.(type) {
	case string:
		raw = []byte(vt)
	case []byte:
		raw = vt
	default:
		return v
	}

	var ts time.Time
	if err := ts.UnmarshalText(raw); err != nil {
		return v
	}

	return ts
}

func (c conjunction) expression() clause.Expression {
	exprs := lo.Map(c, func(cond condition, _ int) clause.Expression {
		return cond.expression()
	})

	switch len(exprs) {
	case 0:
		return nil
	case 1:
		return exprs[0]
	default:
		return clause.And(exprs...)
	}
}

func (d dnf) expression() clause.Expression {
	exprs := lo.FilterMap(d, func(c conjunction, _ int) (clause.Expression, bool) {
		expr := c.expression()
		return expr, expr != nil
	})

	switch len(exprs) {
	case 0:
		return nil
	case 1:
		return exprs[0]
	default:
		return clause.Or(exprs...)
	}
}

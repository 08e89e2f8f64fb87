package database

import (
	"fmt"
	"strings"
)

type Op string

const (
	OpEq     Op = "eq"
	OpNeq    Op = "neq"
	OpGte    Op = "gte"
	OpLte    Op = "lte"
	OpLike   Op = "like"
	OpIsNull Op = "is"
)

var opSQL = map[Op]string{
	OpEq:   "=",
	OpNeq:  "!=",
	OpGte:  ">=",
	OpLte:  "<=",
	OpLike: "LIKE",
}

// Filter narrows a List. For OpIsNull, Value is a bool: true selects NULL
// rows, false selects non-NULL rows.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Query is the read contract: owner scope is implicit, filters are ANDed,
// rows are ordered by OrderBy (created_at when empty).
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

func (q Query) Where(column string, op Op, value any) Query {
	q.Filters = append(append([]Filter{}, q.Filters...), Filter{Column: column, Op: op, Value: value})
	return q
}

func (q Query) Eq(column string, value any) Query { return q.Where(column, OpEq, value) }

func (q Query) Between(column string, from, to any) Query {
	return q.Where(column, OpGte, from).Where(column, OpLte, to)
}

func (q Query) Order(column string, desc bool) Query {
	q.OrderBy, q.Desc = column, desc
	return q
}

func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

func (q Query) where(known map[string]bool) (string, []any, error) {
	var b strings.Builder
	var args []any
	for _, f := range q.Filters {
		if !known[f.Column] {
			return "", nil, fmt.Errorf("%w: %q", ErrUnknownColumn, f.Column)
		}
		if f.Op == OpIsNull {
			isNull, _ := f.Value.(bool)
			if isNull {
				fmt.Fprintf(&b, " AND %s IS NULL", f.Column)
			} else {
				fmt.Fprintf(&b, " AND %s IS NOT NULL", f.Column)
			}
			continue
		}
		op, ok := opSQL[f.Op]
		if !ok {
			return "", nil, fmt.Errorf("unsupported operator %q", f.Op)
		}
		fmt.Fprintf(&b, " AND %s %s ?", f.Column, op)
		args = append(args, f.Value)
	}
	return b.String(), args, nil
}

// orderBy sorts NULLs last ascending and first descending.
func (q Query) orderBy(known map[string]bool) (string, error) {
	col := q.OrderBy
	if col == "" {
		col = "created_at"
	}
	if !known[col] {
		return "", fmt.Errorf("%w: %q", ErrUnknownColumn, col)
	}
	if q.Desc {
		return fmt.Sprintf("(%s IS NULL) DESC, %s DESC, id", col, col), nil
	}
	return fmt.Sprintf("(%s IS NULL), %s ASC, id", col, col), nil
}

package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Model is a row shape the generic table accessor can scan and write.
// fields returns pointers to the domain columns in schema order.
type Model interface {
	RowMeta() *Meta
	fields() []any
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var metaColumns = []string{"id", "user_id", "version", "created_at", "updated_at"}

// Table is an owner-scoped accessor for one table. Every statement it
// issues is filtered by user_id.
type Table[T Model] struct {
	name    string
	columns []string
	known   map[string]bool
	newRow  func() T

	db  *sql.DB // nil when bound to a transaction
	q   Querier
	now func() time.Time
}

func NewTable[T Model](db *sql.DB, name string, columns []string, newRow func() T) *Table[T] {
	known := make(map[string]bool, len(columns)+len(metaColumns))
	for _, c := range metaColumns {
		known[c] = true
	}
	for _, c := range columns {
		known[c] = true
	}
	return &Table[T]{
		name:    name,
		columns: columns,
		known:   known,
		newRow:  newRow,
		db:      db,
		q:       db,
		now:     time.Now,
	}
}

func (t *Table[T]) Name() string { return t.name }

// In returns a copy of the table bound to q, typically a *sql.Tx.
func (t *Table[T]) In(q Querier) *Table[T] {
	c := *t
	c.q = q
	if _, ok := q.(*sql.DB); !ok {
		c.db = nil
	}
	return &c
}

func (t *Table[T]) New() T { return t.newRow() }

func (t *Table[T]) selectList() string {
	return strings.Join(append(append([]string{}, metaColumns...), t.columns...), ", ")
}

func (t *Table[T]) scanDest(row T) []any {
	m := row.RowMeta()
	return append([]any{&m.ID, &m.UserID, &m.Version, &m.CreatedAt, &m.UpdatedAt}, row.fields()...)
}

func (t *Table[T]) List(ctx context.Context, owner string, q Query) ([]T, error) {
	where, args, err := q.where(t.known)
	if err != nil {
		return nil, fmt.Errorf("%s list: %w", t.name, err)
	}
	order, err := q.orderBy(t.known)
	if err != nil {
		return nil, fmt.Errorf("%s list: %w", t.name, err)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE user_id = ?%s ORDER BY %s", t.selectList(), t.name, where, order)
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := t.q.QueryContext(ctx, query, append([]any{owner}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("%s list: %w", t.name, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		row := t.newRow()
		if err := rows.Scan(t.scanDest(row)...); err != nil {
			return nil, fmt.Errorf("%s scan: %w", t.name, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s list: %w", t.name, err)
	}
	return out, nil
}

func (t *Table[T]) Get(ctx context.Context, owner, id string) (T, error) {
	row := t.newRow()
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND user_id = ?", t.selectList(), t.name)
	err := t.q.QueryRowContext(ctx, query, id, owner).Scan(t.scanDest(row)...)
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, fmt.Errorf("%s %s: %w", t.name, id, ErrNotFound)
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s get: %w", t.name, err)
	}
	return row, nil
}

// Insert assigns the row's id, owner, version and timestamps and writes it.
func (t *Table[T]) Insert(ctx context.Context, owner string, row T) error {
	if v, ok := any(row).(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}

	now := t.now().UTC()
	m := row.RowMeta()
	*m = Meta{
		ID:        uuid.NewString(),
		UserID:    owner,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	args, err := values(t.scanDest(row))
	if err != nil {
		return fmt.Errorf("%s insert: %w", t.name, err)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, t.selectList(), placeholders)
	if _, err := t.q.ExecContext(ctx, query, args...); err != nil {
		return constraintError(t.name, "insert", err)
	}
	return nil
}

// constraintError reports SQLite constraint violations as validation errors.
func constraintError(table, op string, err error) error {
	switch msg := err.Error(); {
	case strings.Contains(msg, "UNIQUE"):
		return invalid(table, "row already exists")
	case strings.Contains(msg, "FOREIGN KEY"):
		return invalid(table, "references a missing row")
	}
	return fmt.Errorf("%s %s: %w", table, op, err)
}

// Update loads the row, applies mutate and writes every column back with a
// bumped version. Meta fields changed by mutate are restored.
func (t *Table[T]) Update(ctx context.Context, owner, id string, mutate func(T) error) (T, error) {
	if t.db == nil {
		return t.update(ctx, t.q, owner, id, mutate)
	}

	var out T
	err := WithTx(ctx, t.db, func(tx *sql.Tx) error {
		var err error
		out, err = t.update(ctx, tx, owner, id, mutate)
		return err
	})
	return out, err
}

func (t *Table[T]) update(ctx context.Context, q Querier, owner, id string, mutate func(T) error) (T, error) {
	var zero T
	row, err := t.In(q).Get(ctx, owner, id)
	if err != nil {
		return zero, err
	}

	meta := *row.RowMeta()
	if err := mutate(row); err != nil {
		return zero, err
	}
	*row.RowMeta() = meta
	if v, ok := any(row).(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return zero, err
		}
	}

	m := row.RowMeta()
	m.Version++
	m.UpdatedAt = t.now().UTC()

	args, err := values(row.fields())
	if err != nil {
		return zero, fmt.Errorf("%s update: %w", t.name, err)
	}
	sets := make([]string, 0, len(t.columns)+2)
	for _, c := range t.columns {
		sets = append(sets, c+" = ?")
	}
	sets = append(sets, "version = ?", "updated_at = ?")
	args = append(args, m.Version, m.UpdatedAt, id, owner)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ? AND user_id = ?", t.name, strings.Join(sets, ", "))
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return zero, constraintError(t.name, "update", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return zero, fmt.Errorf("%s %s: %w", t.name, id, ErrNotFound)
	}
	return row, nil
}

// Delete removes the row. A missing row is not an error; deleted reports
// whether anything was removed.
func (t *Table[T]) Delete(ctx context.Context, owner, id string) (bool, error) {
	res, err := t.q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ? AND user_id = ?", t.name), id, owner)
	if err != nil {
		return false, fmt.Errorf("%s delete: %w", t.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s delete: %w", t.name, err)
	}
	return n > 0, nil
}

// DeleteWhere removes every owned row matching q's filters.
func (t *Table[T]) DeleteWhere(ctx context.Context, owner string, q Query) (int64, error) {
	where, args, err := q.where(t.known)
	if err != nil {
		return 0, fmt.Errorf("%s delete: %w", t.name, err)
	}
	res, err := t.q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE user_id = ?%s", t.name, where), append([]any{owner}, args...)...)
	if err != nil {
		return 0, fmt.Errorf("%s delete: %w", t.name, err)
	}
	return res.RowsAffected()
}

func (t *Table[T]) Count(ctx context.Context, owner string, q Query) (int, error) {
	where, args, err := q.where(t.known)
	if err != nil {
		return 0, fmt.Errorf("%s count: %w", t.name, err)
	}
	var n int
	err = t.q.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE user_id = ?%s", t.name, where), append([]any{owner}, args...)...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s count: %w", t.name, err)
	}
	return n, nil
}

// Owners lists every user id that owns at least one row.
func (t *Table[T]) Owners(ctx context.Context) ([]string, error) {
	rows, err := t.q.QueryContext(ctx, fmt.Sprintf("SELECT DISTINCT user_id FROM %s ORDER BY user_id", t.name))
	if err != nil {
		return nil, fmt.Errorf("%s owners: %w", t.name, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s owners: %w", t.name, err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// values dereferences field pointers into driver values.
func values(ptrs []any) ([]any, error) {
	out := make([]any, len(ptrs))
	for i, p := range ptrs {
		v, err := driver.DefaultParameterConverter.ConvertValue(p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

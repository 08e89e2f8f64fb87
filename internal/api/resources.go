package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"life-os/internal/database"
	"life-os/internal/services"
	"life-os/internal/utils"
)

// resource is one table exposed over the generic CRUD routes.
type resource interface {
	list(ctx context.Context, owner string, q database.Query) (any, error)
	get(ctx context.Context, owner, id string) (any, error)
	create(ctx context.Context, owner string, body []byte) (any, error)
	patch(ctx context.Context, owner, id string, body []byte) (any, error)
	remove(ctx context.Context, owner, id string) (bool, error)
	toggle(ctx context.Context, owner, id string) (any, error)
}

type toggler interface {
	Toggle(now time.Time)
}

type defaulter interface {
	ApplyDefaults(today string)
}

type tableResource[T database.Model] struct {
	table *database.Table[T]
	db    *sql.DB
	clock *services.Clock
	// toggleFn replaces the plain completed-flag flip.
	toggleFn func(ctx context.Context, owner, id string) (T, error)
	// parent is the owned row a child row belongs to.
	parent *parentRef[T]
	// changed runs in the same transaction after a row was created,
	// patched or deleted.
	changed func(ctx context.Context, q database.Querier, owner string, row T) error
}

// parentRef ties a child row to a row of the same owner. The link is fixed
// once the child exists.
type parentRef[T any] struct {
	field string
	id    func(T) string
	owned func(ctx context.Context, q database.Querier, owner, id string) error
}

func (t *tableResource[T]) list(ctx context.Context, owner string, q database.Query) (any, error) {
	return t.table.List(ctx, owner, q)
}

func (t *tableResource[T]) get(ctx context.Context, owner, id string) (any, error) {
	return t.table.Get(ctx, owner, id)
}

func (t *tableResource[T]) create(ctx context.Context, owner string, body []byte) (any, error) {
	row := t.table.New()
	if err := json.Unmarshal(body, row); err != nil {
		return nil, badRequest("decode %s: %v", t.table.Name(), err)
	}
	if d, ok := any(row).(defaulter); ok {
		d.ApplyDefaults(utils.FormatDate(t.clock.Today()))
	}

	err := database.WithTx(ctx, t.db, func(tx *sql.Tx) error {
		if err := t.checkParent(ctx, tx, owner, row); err != nil {
			return err
		}
		if err := t.table.In(tx).Insert(ctx, owner, row); err != nil {
			return err
		}
		return t.notify(ctx, tx, owner, row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (t *tableResource[T]) patch(ctx context.Context, owner, id string, body []byte) (any, error) {
	var out T
	err := database.WithTx(ctx, t.db, func(tx *sql.Tx) error {
		row, err := t.table.In(tx).Update(ctx, owner, id, func(row T) error {
			var before string
			if t.parent != nil {
				before = t.parent.id(row)
			}
			if err := json.Unmarshal(body, row); err != nil {
				return badRequest("decode %s: %v", t.table.Name(), err)
			}
			if t.parent != nil && t.parent.id(row) != before {
				return &database.ValidationError{Field: t.parent.field, Reason: "cannot be changed"}
			}
			return nil
		})
		if err != nil {
			return err
		}
		out = row
		return t.notify(ctx, tx, owner, row)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (t *tableResource[T]) remove(ctx context.Context, owner, id string) (bool, error) {
	if t.changed == nil {
		return t.table.Delete(ctx, owner, id)
	}

	deleted := false
	err := database.WithTx(ctx, t.db, func(tx *sql.Tx) error {
		table := t.table.In(tx)
		row, err := table.Get(ctx, owner, id)
		if errors.Is(err, database.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if deleted, err = table.Delete(ctx, owner, id); err != nil || !deleted {
			return err
		}
		return t.notify(ctx, tx, owner, row)
	})
	return deleted, err
}

func (t *tableResource[T]) toggle(ctx context.Context, owner, id string) (any, error) {
	if t.toggleFn != nil {
		return t.toggleFn(ctx, owner, id)
	}
	if _, ok := any(t.table.New()).(toggler); !ok {
		return nil, badRequest("%s rows cannot be toggled", t.table.Name())
	}
	return t.table.Update(ctx, owner, id, func(row T) error {
		any(row).(toggler).Toggle(t.clock.Now())
		return nil
	})
}

// checkParent rejects a child row whose parent is missing or belongs to
// someone else.
func (t *tableResource[T]) checkParent(ctx context.Context, q database.Querier, owner string, row T) error {
	if t.parent == nil {
		return nil
	}
	err := t.parent.owned(ctx, q, owner, t.parent.id(row))
	if errors.Is(err, database.ErrNotFound) {
		return &database.ValidationError{Field: t.parent.field, Reason: "references a missing row"}
	}
	return err
}

func (t *tableResource[T]) notify(ctx context.Context, q database.Querier, owner string, row T) error {
	if t.changed == nil {
		return nil
	}
	return t.changed(ctx, q, owner, row)
}

func register[T database.Model](tables map[string]resource, sm *services.ServiceManager, table *database.Table[T], configure ...func(*tableResource[T])) {
	r := &tableResource[T]{table: table, db: sm.Repository().Db.GetDB(), clock: sm.Clock}
	for _, c := range configure {
		c(r)
	}
	tables[table.Name()] = r
}

func buildTables(sm *services.ServiceManager) map[string]resource {
	repo := sm.Repository()
	tables := make(map[string]resource)

	register(tables, sm, repo.Categories)
	register(tables, sm, repo.Tasks, func(r *tableResource[*database.Task]) {
		r.toggleFn = sm.Task.Toggle
	})
	register(tables, sm, repo.Habits)
	register(tables, sm, repo.HabitCompletions, func(r *tableResource[*database.HabitCompletion]) {
		r.parent = &parentRef[*database.HabitCompletion]{
			field: "habit_id",
			id:    func(c *database.HabitCompletion) string { return c.HabitID },
			owned: func(ctx context.Context, q database.Querier, owner, id string) error {
				_, err := repo.Habits.In(q).Get(ctx, owner, id)
				return err
			},
		}
		r.changed = func(ctx context.Context, q database.Querier, owner string, c *database.HabitCompletion) error {
			_, err := sm.Habit.RecomputeIn(ctx, q, owner, c.HabitID)
			return err
		}
	})
	register(tables, sm, repo.Journal)
	register(tables, sm, repo.Goals)
	register(tables, sm, repo.Milestones, func(r *tableResource[*database.GoalMilestone]) {
		r.toggleFn = sm.Goal.ToggleMilestone
		r.parent = &parentRef[*database.GoalMilestone]{
			field: "goal_id",
			id:    func(m *database.GoalMilestone) string { return m.GoalID },
			owned: func(ctx context.Context, q database.Querier, owner, id string) error {
				_, err := repo.Goals.In(q).Get(ctx, owner, id)
				return err
			},
		}
		r.changed = func(ctx context.Context, q database.Querier, owner string, m *database.GoalMilestone) error {
			return sm.Goal.SyncProgressIn(ctx, q, owner, m.GoalID)
		}
	})
	register(tables, sm, repo.Meals)
	register(tables, sm, repo.Workouts)
	register(tables, sm, repo.Travel)
	register(tables, sm, repo.Transactions)
	register(tables, sm, repo.Books)
	register(tables, sm, repo.Media)
	register(tables, sm, repo.Vision)
	register(tables, sm, repo.Health)
	register(tables, sm, repo.Activities)
	return tables
}

var filterOps = map[string]database.Op{
	"eq":   database.OpEq,
	"neq":  database.OpNeq,
	"gte":  database.OpGte,
	"lte":  database.OpLte,
	"like": database.OpLike,
	"is":   database.OpIsNull,
}

// parseQuery reads ?order=col&desc=true&limit=n&col=v&col.gte=v&col.is=null.
func parseQuery(values url.Values) (database.Query, error) {
	q := database.Query{}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := values.Get(key)
		switch key {
		case "order":
			q.OrderBy = value
		case "desc":
			q.Desc = value == "true" || value == "1"
		case "limit":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return q, badRequest("limit must be a non-negative integer")
			}
			q.Limit = n
		default:
			col, opName, found := strings.Cut(key, ".")
			op := database.OpEq
			if found {
				var ok bool
				if op, ok = filterOps[opName]; !ok {
					return q, badRequest("unknown filter operator %q", opName)
				}
			}
			if op == database.OpIsNull {
				q = q.Where(col, op, value == "null")
				continue
			}
			q = q.Where(col, op, filterValue(value))
		}
	}
	return q, nil
}

// filterValue turns boolean literals into booleans so they match the
// stored 0/1.
func filterValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

func lookupTable(tables map[string]resource, name string) (resource, error) {
	r, ok := tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", database.ErrUnknownTable, name)
	}
	return r, nil
}

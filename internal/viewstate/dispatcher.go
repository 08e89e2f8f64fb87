package viewstate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrSuperseded reports a response that arrived after a newer write to
	// the same row was issued, or that carries an older version than the
	// local copy. The response is not applied.
	ErrSuperseded = errors.New("viewstate: response superseded")
	// ErrDetached reports a response that arrived after the view went away.
	ErrDetached = errors.New("viewstate: view detached")
)

// Dispatcher runs remote writes for one view and patches its List with the
// server's rows. Local state changes only after the server confirms; a
// failed write leaves it untouched.
type Dispatcher[T Row] struct {
	list   *List[T]
	logger *zap.Logger

	mu     sync.Mutex
	clock  uint64
	latest map[string]uint64 // newest ticket issued per row

	detached atomic.Bool
}

func NewDispatcher[T Row](list *List[T], logger *zap.Logger) *Dispatcher[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher[T]{
		list:   list,
		logger: logger,
		latest: make(map[string]uint64),
	}
}

func (d *Dispatcher[T]) List() *List[T] { return d.list }

// Detach marks the view as gone. In-flight calls still run to completion
// but their results are discarded.
func (d *Dispatcher[T]) Detach() { d.detached.Store(true) }

// Create inserts remotely and appends the returned row.
func (d *Dispatcher[T]) Create(ctx context.Context, write func(context.Context) (T, error)) (T, error) {
	var zero T
	row, err := write(ctx)
	if err != nil {
		return zero, err
	}
	if d.detached.Load() {
		return zero, ErrDetached
	}
	d.list.put(row)
	return row, nil
}

// Update writes row id remotely and applies the returned row if no newer
// write to the same row was issued meanwhile.
func (d *Dispatcher[T]) Update(ctx context.Context, id string, write func(context.Context) (T, error)) (T, error) {
	var zero T
	ticket := d.issue(id)
	row, err := write(ctx)
	if err != nil {
		d.settle(id, ticket)
		return zero, err
	}
	if d.detached.Load() {
		d.settle(id, ticket)
		return zero, ErrDetached
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.latest[id] != ticket {
		d.logger.Debug("dropping stale response", zap.String("id", id), zap.Uint64("ticket", ticket))
		return zero, ErrSuperseded
	}
	delete(d.latest, id)
	if !d.list.put(row) {
		d.logger.Debug("dropping older version", zap.String("id", id), zap.Int64("version", row.RowMeta().Version))
		return zero, ErrSuperseded
	}
	return row, nil
}

// Delete removes row id remotely, then locally. The remote side treats a
// missing row as deleted, so repeating a delete succeeds.
func (d *Dispatcher[T]) Delete(ctx context.Context, id string, write func(context.Context) error) error {
	ticket := d.issue(id)
	if err := write(ctx); err != nil {
		d.settle(id, ticket)
		return err
	}
	if d.detached.Load() {
		d.settle(id, ticket)
		return ErrDetached
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.latest[id] != ticket {
		return ErrSuperseded
	}
	delete(d.latest, id)
	d.list.remove(id)
	return nil
}

func (d *Dispatcher[T]) issue(id string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clock++
	d.latest[id] = d.clock
	return d.clock
}

// settle forgets ticket if it is still the newest for id.
func (d *Dispatcher[T]) settle(id string, ticket uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.latest[id] == ticket {
		delete(d.latest, id)
	}
}

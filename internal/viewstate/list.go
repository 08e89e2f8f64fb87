// Package viewstate keeps a page's in-memory copy of fetched rows and
// reconciles it with the results of remote writes.
package viewstate

import (
	"sync"

	"life-os/internal/database"
)

// Row is any stored row: it exposes its id and version.
type Row interface {
	RowMeta() *database.Meta
}

// List holds rows in display order, keyed by id.
type List[T Row] struct {
	mu    sync.RWMutex
	rows  []T
	index map[string]int
}

func NewList[T Row]() *List[T] {
	return &List[T]{index: make(map[string]int)}
}

// Load replaces the list with a fresh fetch.
func (l *List[T]) Load(rows []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows[:0:0], rows...)
	l.reindex()
}

// Rows returns a snapshot in display order.
func (l *List[T]) Rows() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]T(nil), l.rows...)
}

func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rows)
}

func (l *List[T]) Get(id string) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return l.rows[i], true
}

// Version is 0 for rows the list does not hold.
func (l *List[T]) Version(id string) int64 {
	row, ok := l.Get(id)
	if !ok {
		return 0
	}
	return row.RowMeta().Version
}

// put replaces the row with the same id, or appends a new one. A row older
// than the local copy is rejected.
func (l *List[T]) put(row T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	meta := row.RowMeta()
	if i, ok := l.index[meta.ID]; ok {
		if meta.Version < l.rows[i].RowMeta().Version {
			return false
		}
		l.rows[i] = row
		return true
	}
	l.index[meta.ID] = len(l.rows)
	l.rows = append(l.rows, row)
	return true
}

func (l *List[T]) remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.index[id]
	if !ok {
		return
	}
	l.rows = append(l.rows[:i], l.rows[i+1:]...)
	l.reindex()
}

func (l *List[T]) reindex() {
	clear(l.index)
	for i, r := range l.rows {
		l.index[r.RowMeta().ID] = i
	}
}

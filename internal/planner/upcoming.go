package planner

import (
	"sort"
	"time"

	"life-os/internal/database"
	"life-os/internal/utils"
)

// UpcomingWindow is the number of days after today that still counts as
// upcoming.
const UpcomingWindow = 7

type Bucket string

const (
	BucketToday     Bucket = "today"
	BucketTomorrow  Bucket = "tomorrow"
	BucketNext7Days Bucket = "next7Days"
)

// Buckets is the partition of dated items relative to a reference day.
type Buckets[T any] struct {
	Today     []T `json:"today"`
	Tomorrow  []T `json:"tomorrow"`
	Next7Days []T `json:"next7Days"`
}

func (b Buckets[T]) Len() int {
	return len(b.Today) + len(b.Tomorrow) + len(b.Next7Days)
}

// BucketFor reports which bucket day falls in relative to today, comparing
// calendar days only.
func BucketFor(day, today time.Time) (Bucket, bool) {
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	switch diff := int(d.Sub(t).Hours() / 24); {
	case diff == 0:
		return BucketToday, true
	case diff == 1:
		return BucketTomorrow, true
	case diff >= 2 && diff <= UpcomingWindow:
		return BucketNext7Days, true
	default:
		return "", false
	}
}

// GroupUpcoming partitions items by the day dueOf returns. Items without a
// due date, past items and items beyond the window are dropped. Input order
// is preserved within a bucket.
func GroupUpcoming[T any](items []T, today time.Time, dueOf func(T) (time.Time, bool)) Buckets[T] {
	out := Buckets[T]{Today: []T{}, Tomorrow: []T{}, Next7Days: []T{}}
	for _, it := range items {
		due, ok := dueOf(it)
		if !ok {
			continue
		}
		b, ok := BucketFor(due, today)
		if !ok {
			continue
		}
		switch b {
		case BucketToday:
			out.Today = append(out.Today, it)
		case BucketTomorrow:
			out.Tomorrow = append(out.Tomorrow, it)
		case BucketNext7Days:
			out.Next7Days = append(out.Next7Days, it)
		}
	}
	return out
}

// TaskDue reads a task's due date. Malformed dates count as missing.
func TaskDue(t *database.Task) (time.Time, bool) {
	if t == nil || t.DueDate == nil || *t.DueDate == "" {
		return time.Time{}, false
	}
	d, err := utils.ParseDate(*t.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// UpcomingItem is one row of the Upcoming widget.
type UpcomingItem struct {
	Task     *database.Task `json:"task"`
	Badge    string         `json:"badge,omitempty"`
	DueLabel string         `json:"due_label"`
}

// UpcomingTasks builds the Upcoming widget: open tasks due within the window,
// bucketed and sorted, high priority rows badged.
func UpcomingTasks(tasks []*database.Task, today time.Time) Buckets[UpcomingItem] {
	open := make([]*database.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Completed {
			open = append(open, t)
		}
	}
	SortTasks(open)

	grouped := GroupUpcoming(open, today, TaskDue)
	return Buckets[UpcomingItem]{
		Today:     upcomingItems(grouped.Today),
		Tomorrow:  upcomingItems(grouped.Tomorrow),
		Next7Days: upcomingItems(grouped.Next7Days),
	}
}

func upcomingItems(tasks []*database.Task) []UpcomingItem {
	out := make([]UpcomingItem, 0, len(tasks))
	for _, t := range tasks {
		item := UpcomingItem{Task: t, DueLabel: utils.FormatLongDate(t.DueDate)}
		if t.Priority != nil && *t.Priority == database.PriorityHigh {
			item.Badge = utils.GetPriorityLabel(string(*t.Priority))
		}
		out = append(out, item)
	}
	return out
}

// SortTasks orders tasks in place by due date, due time, priority and title.
// Missing dates and times sort last.
func SortTasks(tasks []*database.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if c := compareOptional(nonEmpty(a.DueDate), nonEmpty(b.DueDate)); c != 0 {
			return c < 0
		}
		if c := compareOptional(dueTime(a), dueTime(b)); c != 0 {
			return c < 0
		}
		if ra, rb := priorityRank(a), priorityRank(b); ra != rb {
			return ra < rb
		}
		return a.Title < b.Title
	})
}

func dueTime(t *database.Task) *string {
	if nonEmpty(t.DueTime) == nil {
		return nil
	}
	s := utils.FormatDueTime(t.DueTime)
	return &s
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func priorityRank(t *database.Task) int {
	if t.Priority == nil {
		return database.Priority("").Rank()
	}
	return t.Priority.Rank()
}

func compareOptional(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

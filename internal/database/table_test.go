package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*Repository, *User) {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewRepository(db)
	u, err := repo.Users.Create(context.Background(), "Owner@Example.com", "Owner", "hash")
	require.NoError(t, err)
	return repo, u
}

func strPtr(s string) *string { return &s }

func TestTableInsertAssignsMeta(t *testing.T) {
	repo, u := newTestRepo(t)
	ctx := context.Background()

	task := &Task{Title: "Edit Website", DueDate: strPtr("2024-02-19")}
	task.ApplyDefaults("2024-02-19")
	require.NoError(t, repo.Tasks.Insert(ctx, u.ID, task))

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, u.ID, task.UserID)
	assert.Equal(t, int64(1), task.Version)
	require.NotNil(t, task.Priority)
	assert.Equal(t, PriorityMedium, *task.Priority)

	got, err := repo.Tasks.Get(ctx, u.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edit Website", got.Title)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2024-02-19", *got.DueDate)
	assert.Nil(t, got.DueTime)
	assert.False(t, got.Completed)
}

func TestTableScopesByOwner(t *testing.T) {
	repo, u := newTestRepo(t)
	ctx := context.Background()
	other, err := repo.Users.Create(ctx, "other@example.com", "", "hash")
	require.NoError(t, err)

	mine := &Book{}
	mine.ApplyDefaults("")
	require.NoError(t, repo.Books.Insert(ctx, u.ID, mine))

	books, err := repo.Books.List(ctx, other.ID, Query{})
	require.NoError(t, err)
	assert.Empty(t, books)

	_, err = repo.Books.Get(ctx, other.ID, mine.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err := repo.Books.Delete(ctx, other.ID, mine.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	books, err = repo.Books.List(ctx, u.ID, Query{})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "New Book", books[0].Title)
	assert.Equal(t, "to-read", books[0].Status)
}

func TestTableUpdateBumpsVersionAndKeepsMeta(t *testing.T) {
	repo, u := newTestRepo(t)
	ctx := context.Background()

	task := &Task{Title: "Write copy"}
	require.NoError(t, repo.Tasks.Insert(ctx, u.ID, task))

	updated, err := repo.Tasks.Update(ctx, u.ID, task.ID, func(row *Task) error {
		row.Title = "Write blog post"
		row.ID = "hijacked"
		row.UserID = "someone-else"
		row.Toggle(time.Date(2024, 2, 19, 9, 0, 0, 0, time.UTC))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, task.ID, updated.ID)
	assert.Equal(t, u.ID, updated.UserID)
	assert.Equal(t, int64(2), updated.Version)
	assert.True(t, updated.Completed)
	require.NotNil(t, updated.CompletedAt)

	got, err := repo.Tasks.Get(ctx, u.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write blog post", got.Title)
	assert.Equal(t, int64(2), got.Version)
	assert.True(t, got.Completed)
}

func TestTableUpdateRejectsInvalidRow(t *testing.T) {
	repo, u := newTestRepo(t)
	ctx := context.Background()

	task := &Task{Title: "Call Repairman"}
	require.NoError(t, repo.Tasks.Insert(ctx, u.ID, task))

	_, err := repo.Tasks.Update(ctx, u.ID, task.ID, func(row *Task) error {
		p := Priority("urgent")
		row.Priority = &p
		return nil
	})
	assert.True(t, IsValidation(err))

	got, err := repo.Tasks.Get(ctx, u.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
}

func TestTableDeleteMissingIsNoop(t *testing.T) {
	repo, u := newTestRepo(t)
	deleted, err := repo.Tasks.Delete(context.Background(), u.ID, "does-not-exist")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestTableListFiltersAndOrder(t *testing.T) {
	repo, u := newTestRepo(t)
	ctx := context.Background()

	for _, due := range []*string{strPtr("2024-02-21"), nil, strPtr("2024-02-19"), strPtr("2024-03-01")} {
		require.NoError(t, repo.Tasks.Insert(ctx, u.ID, &Task{Title: "t", DueDate: due}))
	}

	all, err := repo.Tasks.List(ctx, u.ID, Query{}.Order("due_date", false))
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "2024-02-19", *all[0].DueDate)
	assert.Equal(t, "2024-02-21", *all[1].DueDate)
	assert.Equal(t, "2024-03-01", *all[2].DueDate)
	assert.Nil(t, all[3].DueDate)

	window, err := repo.Tasks.List(ctx, u.ID, Query{}.Between("due_date", "2024-02-19", "2024-02-26").Order("due_date", false))
	require.NoError(t, err)
	assert.Len(t, window, 2)

	undated, err := repo.Tasks.List(ctx, u.ID, Query{}.Where("due_date", OpIsNull, true))
	require.NoError(t, err)
	assert.Len(t, undated, 1)

	limited, err := repo.Tasks.List(ctx, u.ID, Query{}.Order("due_date", true).Take(1))
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Nil(t, limited[0].DueDate)

	_, err = repo.Tasks.List(ctx, u.ID, Query{}.Eq("title; DROP TABLE tasks", 1))
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestDecimalAndDocumentColumns(t *testing.T) {
	repo, u := newTestRepo(t)
	ctx := context.Background()

	tx := &Transaction{TransactionType: Income, Amount: decimal.RequireFromString("500000.25")}
	tx.ApplyDefaults("2024-02-19")
	require.NoError(t, repo.Transactions.Insert(ctx, u.ID, tx))
	assert.Equal(t, "New Income", tx.Title)

	got, err := repo.Transactions.Get(ctx, u.ID, tx.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("500000.25")))
	assert.Equal(t, "2024-02-19", *got.TransactionDate)

	w := &WorkoutPlan{WorkoutType: "cardio", Exercises: Document(`[{"name":"run","minutes":30}]`)}
	w.ApplyDefaults("2024-02-19")
	require.NoError(t, repo.Workouts.Insert(ctx, u.ID, w))
	assert.Equal(t, "Cardio Workout", w.Title)

	gotW, err := repo.Workouts.Get(ctx, u.ID, w.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"run","minutes":30}]`, string(gotW.Exercises))
	assert.Equal(t, 45, *gotW.DurationMinutes)

	j := &JournalEntry{Tags: Tags{"gratitude", "work"}}
	j.ApplyDefaults("2024-02-19")
	require.NoError(t, repo.Journal.Insert(ctx, u.ID, j))
	gotJ, err := repo.Journal.Get(ctx, u.ID, j.ID)
	require.NoError(t, err)
	assert.Equal(t, Tags{"gratitude", "work"}, gotJ.Tags)
	assert.Equal(t, MoodNeutral, *gotJ.Mood)
}

func TestCompletionUniquePerHabitDay(t *testing.T) {
	repo, u := newTestRepo(t)
	ctx := context.Background()

	h := &Habit{}
	h.ApplyDefaults("")
	require.NoError(t, repo.Habits.Insert(ctx, u.ID, h))

	first := &HabitCompletion{HabitID: h.ID, CompletedDate: "2024-02-19"}
	first.ApplyDefaults("")
	require.NoError(t, repo.HabitCompletions.Insert(ctx, u.ID, first))

	dup := &HabitCompletion{HabitID: h.ID, CompletedDate: "2024-02-19"}
	dup.ApplyDefaults("")
	err := repo.HabitCompletions.Insert(ctx, u.ID, dup)
	assert.True(t, IsValidation(err), "duplicate day is a validation error: %v", err)

	deleted, err := repo.Habits.Delete(ctx, u.ID, h.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	n, err := repo.HabitCompletions.Count(ctx, u.ID, Query{})
	require.NoError(t, err)
	assert.Zero(t, n, "completions cascade with their habit")
}

func TestUserRepoLinkTelegram(t *testing.T) {
	repo, u := newTestRepo(t)
	ctx := context.Background()

	got, err := repo.Users.GetByEmail(ctx, "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.Users.Create(ctx, "OWNER@example.com", "", "hash")
	assert.True(t, IsValidation(err))

	require.NoError(t, repo.Users.LinkTelegram(ctx, u.ID, 4242))
	byChat, err := repo.Users.GetByChatID(ctx, 4242)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byChat.ID)

	linked, err := repo.Users.ListLinked(ctx)
	require.NoError(t, err)
	assert.Len(t, linked, 1)

	_, err = repo.Users.GetByChatID(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

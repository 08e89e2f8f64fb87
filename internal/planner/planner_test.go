package planner

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"life-os/internal/database"
	"life-os/internal/utils"
)

func day(s string) time.Time {
	d, err := utils.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptr[T any](v T) *T { return &v }

func task(id, title string, due *string, p database.Priority) *database.Task {
	t := &database.Task{Title: title, DueDate: due, Priority: &p}
	t.ID = id
	return t
}

func TestUpcomingHighPriorityToday(t *testing.T) {
	today := day("2024-02-19")
	a := task("a", "Edit Website", ptr("2024-02-19"), database.PriorityHigh)

	got := UpcomingTasks([]*database.Task{a}, today)
	require.Len(t, got.Today, 1)
	assert.Empty(t, got.Tomorrow)
	assert.Empty(t, got.Next7Days)
	assert.Equal(t, "a", got.Today[0].Task.ID)
	assert.Equal(t, "High", got.Today[0].Badge)
	assert.Equal(t, "February 19, 2024", got.Today[0].DueLabel)

	a.Toggle(today)
	got = UpcomingTasks([]*database.Task{a}, today)
	assert.Zero(t, got.Len())
	assert.True(t, a.Completed)
}

func TestGroupUpcomingBoundaries(t *testing.T) {
	today := day("2024-02-19")
	tasks := []*database.Task{
		task("past", "p", ptr("2024-02-18"), database.PriorityLow),
		task("today", "t", ptr("2024-02-19"), database.PriorityLow),
		task("tomorrow", "tm", ptr("2024-02-20"), database.PriorityLow),
		task("plus2", "n", ptr("2024-02-21"), database.PriorityLow),
		task("plus7", "n7", ptr("2024-02-26"), database.PriorityLow),
		task("plus8", "late", ptr("2024-02-27"), database.PriorityLow),
		task("undated", "u", nil, database.PriorityLow),
	}

	got := GroupUpcoming(tasks, today, TaskDue)
	ids := func(ts []*database.Task) []string {
		out := []string{}
		for _, t := range ts {
			out = append(out, t.ID)
		}
		return out
	}
	assert.Equal(t, []string{"today"}, ids(got.Today))
	assert.Equal(t, []string{"tomorrow"}, ids(got.Tomorrow))
	assert.Equal(t, []string{"plus2", "plus7"}, ids(got.Next7Days))
}

func TestBucketForIgnoresTimeOfDay(t *testing.T) {
	today := time.Date(2024, 2, 19, 23, 59, 0, 0, time.UTC)
	due := time.Date(2024, 2, 19, 0, 1, 0, 0, time.UTC)
	b, ok := BucketFor(due, today)
	require.True(t, ok)
	assert.Equal(t, BucketToday, b)
}

func TestEveryItemDueTodayLandsOnlyInToday(t *testing.T) {
	start := day("2024-01-01")
	for i := 0; i < 400; i++ {
		d := start.AddDate(0, 0, i)
		tk := task("x", "x", ptr(utils.FormatDate(d)), database.PriorityMedium)
		got := GroupUpcoming([]*database.Task{tk}, d, TaskDue)
		require.Len(t, got.Today, 1, d)
		require.Equal(t, 1, got.Len(), d)
	}
}

func TestSortTasksOrder(t *testing.T) {
	withTime := task("b", "B", ptr("2024-02-19"), database.PriorityLow)
	withTime.DueTime = ptr("09:00:00")
	high := task("c", "C", ptr("2024-02-19"), database.PriorityHigh)
	low := task("d", "A", ptr("2024-02-19"), database.PriorityLow)
	earlier := task("a", "Z", ptr("2024-02-18"), database.PriorityLow)

	tasks := []*database.Task{low, high, withTime, earlier}
	SortTasks(tasks)

	var got []string
	for _, tk := range tasks {
		got = append(got, tk.ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestMonthGridAlwaysFortyTwoCells(t *testing.T) {
	today := day("2024-02-19")
	for y := 2023; y <= 2025; y++ {
		for m := time.January; m <= time.December; m++ {
			month := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
			grid := MonthGrid(month, today, nil)
			require.Len(t, grid.Cells, GridCells)

			inMonth := 0
			for _, c := range grid.Cells {
				if c.InMonth {
					inMonth++
				}
			}
			assert.Equal(t, utils.DaysInMonth(month), inMonth, month.Format("2006-01"))
			assert.Equal(t, GridCells-(grid.Leading+inMonth), grid.Trailing)
		}
	}
}

func TestMonthGridMondayStart(t *testing.T) {
	// January 2024 starts on a Monday.
	grid := MonthGrid(day("2024-01-01"), day("2024-01-15"), nil)
	assert.Zero(t, grid.Leading)
	assert.Equal(t, "2024-01-01", grid.Cells[0].Date)
	assert.True(t, grid.Cells[0].InMonth)
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}, grid.WeekDays)

	// September 2024 starts on a Sunday: six padding cells.
	grid = MonthGrid(day("2024-09-01"), day("2024-01-15"), nil)
	assert.Equal(t, 6, grid.Leading)
	assert.Equal(t, "2024-08-26", grid.Cells[0].Date)
	assert.False(t, grid.Cells[0].InMonth)
	assert.Equal(t, "2024-09-01", grid.Cells[6].Date)
}

func TestMonthGridEvents(t *testing.T) {
	cat := &database.Category{Name: "Personal", Color: ptr("pink")}
	cat.ID = "cat-1"

	inFeb := task("a", "Call Repairman", ptr("2024-02-19"), database.PriorityHigh)
	inFeb.CategoryID = ptr("cat-1")
	plain := task("b", "Write copy", ptr("2024-02-20"), database.PriorityLow)
	nextMonth := task("c", "March thing", ptr("2024-03-01"), database.PriorityLow)

	events := TaskEvents([]*database.Task{inFeb, plain, nextMonth}, []*database.Category{cat})
	grid := MonthGrid(day("2024-02-01"), day("2024-02-19"), events)

	byDate := map[string]Cell{}
	for _, c := range grid.Cells {
		byDate[c.Date] = c
	}

	feb19 := byDate["2024-02-19"]
	assert.True(t, feb19.IsToday)
	require.Len(t, feb19.Events, 1)
	assert.Equal(t, "Personal", feb19.Events[0].Category)
	assert.Equal(t, "bg-pink-500", feb19.Events[0].Color)

	feb20 := byDate["2024-02-20"]
	require.Len(t, feb20.Events, 1)
	assert.Equal(t, "Work", feb20.Events[0].Category)
	assert.Equal(t, "bg-purple-500", feb20.Events[0].Color)

	mar1 := byDate["2024-03-01"]
	assert.False(t, mar1.InMonth)
	assert.Empty(t, mar1.Events)
}

func TestStreakFromRecords(t *testing.T) {
	today := day("2024-02-19")
	days := NewDaySet("2024-02-17", "2024-02-18", "2024-02-19")
	assert.Equal(t, 3, CurrentStreak(days, today))

	delete(days, "2024-02-18")
	assert.Equal(t, 1, CurrentStreak(days, today))

	delete(days, "2024-02-19")
	assert.Zero(t, CurrentStreak(days, today))
}

func TestToggleTwiceRestoresSet(t *testing.T) {
	days := NewDaySet("2024-02-17", "2024-02-18")
	before := days.Sorted()

	assert.True(t, days.Toggle(day("2024-02-19")))
	assert.False(t, days.Toggle(day("2024-02-19")))
	assert.Equal(t, before, days.Sorted())

	assert.False(t, days.Toggle(day("2024-02-18")))
	assert.True(t, days.Toggle(day("2024-02-18")))
	assert.Equal(t, before, days.Sorted())
}

func TestLongestRunAndBest(t *testing.T) {
	days := NewDaySet("2024-01-30", "2024-01-31", "2024-02-01", "2024-02-02", "2024-02-10", "2024-02-11")
	assert.Equal(t, 4, LongestRun(days))
	assert.Zero(t, LongestRun(DaySet{}))

	assert.Equal(t, 5, BestStreak(5, 2))
	assert.Equal(t, 6, BestStreak(5, 6))
}

func TestSummarizeHabits(t *testing.T) {
	today := day("2024-02-21") // Wednesday
	read := &database.Habit{Name: "Read", BestStreak: 10}
	read.ID = "read"
	run := &database.Habit{Name: "Run"}
	run.ID = "run"

	completions := []*database.HabitCompletion{
		{HabitID: "read", CompletedDate: "2024-02-19"},
		{HabitID: "read", CompletedDate: "2024-02-20"},
		{HabitID: "read", CompletedDate: "2024-02-21"},
		{HabitID: "run", CompletedDate: "2024-02-20"},
	}

	view := SummarizeHabits([]*database.Habit{read, run}, completions, today)
	require.Len(t, view.Habits, 2)

	r := view.Habits[0]
	assert.True(t, r.CompletedToday)
	assert.Equal(t, 3, r.CurrentStreak)
	assert.Equal(t, 10, r.BestStreak)
	assert.Equal(t, [7]bool{true, true, true, false, false, false, false}, r.Week)

	n := view.Habits[1]
	assert.False(t, n.CompletedToday)
	assert.Zero(t, n.CurrentStreak)

	assert.Equal(t, HabitTotals{TotalStreak: 3, ActiveHabits: 2, TodayDone: 1, BestStreak: 10}, view.Totals)
}

func TestPercentChange(t *testing.T) {
	d := decimal.NewFromInt
	assert.Zero(t, PercentChange(d(500000), d(0)))
	assert.Zero(t, PercentChange(d(0), d(0)))
	assert.Equal(t, 50.0, PercentChange(d(150), d(100)))
	assert.Equal(t, -25.0, PercentChange(d(75), d(100)))
}

func TestSummarizeFinance(t *testing.T) {
	tx := func(date string, kind database.TransactionType, amount string) *database.Transaction {
		return &database.Transaction{TransactionDate: ptr(date), TransactionType: kind, Amount: decimal.RequireFromString(amount)}
	}
	rows := []*database.Transaction{
		tx("2024-02-03", database.Expense, "500000"),
		tx("2024-02-05", database.Income, "1200000"),
		tx("2024-01-10", database.Income, "1000000"),
		tx("2023-12-31", database.Expense, "99"),
		{TransactionType: database.Expense, Amount: decimal.NewFromInt(7)},
	}

	s := SummarizeFinance(rows, day("2024-02-19"))
	assert.Equal(t, "2024-02", s.Month)
	assert.True(t, s.Expense.Equal(decimal.NewFromInt(500000)))
	assert.True(t, s.Income.Equal(decimal.NewFromInt(1200000)))
	assert.True(t, s.Balance.Equal(decimal.NewFromInt(700000)))
	assert.Zero(t, s.ExpenseChange, "no expense last month")
	assert.Equal(t, 20.0, s.IncomeChange)

	from, to := FinanceWindow(day("2024-03-31"))
	assert.Equal(t, "2024-02-01", utils.FormatDate(from))
	assert.Equal(t, "2024-03-31", utils.FormatDate(to))
}

func TestScoreHealth(t *testing.T) {
	targets := DefaultHealthTargets()
	log := &database.HealthLog{WaterGlasses: ptr(12), SleepHours: ptr(4.0), Steps: ptr(5000)}

	hs := ScoreHealth(log, targets, day("2024-02-19"))
	assert.Equal(t, 1.0, hs.Water)
	assert.Equal(t, 0.5, hs.Sleep)
	assert.Equal(t, 0.5, hs.Steps)
	assert.Equal(t, 67, hs.Score)

	assert.Zero(t, ScoreHealth(nil, targets, day("2024-02-19")).Score)
	assert.Equal(t, 33, ScoreHealth(&database.HealthLog{WaterGlasses: ptr(8)}, targets, day("2024-02-19")).Score)
}

func TestGoalProgressOverridesStored(t *testing.T) {
	g := &database.Goal{Progress: 90}
	g.ID = "g"
	ms := []*database.GoalMilestone{
		{GoalID: "g", Completed: true},
		{GoalID: "g"},
		{GoalID: "g"},
		{GoalID: "other", Completed: true},
	}
	assert.Equal(t, 33, GoalProgress(g, ms))

	ms[1].Completed = true
	assert.Equal(t, 67, GoalProgress(g, ms))

	assert.Equal(t, 90, GoalProgress(g, nil))
	assert.Equal(t, 100, GoalProgress(&database.Goal{Progress: 140}, nil))

	statuses := GoalStatuses([]*database.Goal{g}, ms)
	require.Len(t, statuses, 1)
	assert.Len(t, statuses[0].Milestones, 3)
	assert.Equal(t, "Uncategorized", statuses[0].Category)
	assert.Equal(t, "-", statuses[0].TargetDate)
}

func TestCompletionRatio(t *testing.T) {
	assert.Zero(t, CompletionRatio(0, 0))
	assert.Equal(t, 50.0, CompletionRatio(1, 2))
	assert.Equal(t, 33.3, CompletionRatio(1, 3))
}

func TestWeekly(t *testing.T) {
	today := day("2024-02-21")
	work := &database.Category{Name: "Work"}
	work.ID = "w"

	done := task("1", "a", ptr("2024-02-19"), database.PriorityLow)
	done.Completed = true
	done.CategoryID = ptr("w")
	open := task("2", "b", ptr("2024-02-20"), database.PriorityLow)
	open.CategoryID = ptr("w")
	loose := task("3", "c", ptr("2024-02-21"), database.PriorityLow)

	h := &database.Habit{}
	h.ID = "h"
	completions := []*database.HabitCompletion{
		{HabitID: "h", CompletedDate: "2024-02-19"},
		{HabitID: "h", CompletedDate: "2024-02-20"},
		{HabitID: "h", CompletedDate: "2024-02-21"},
	}

	wa := Weekly([]*database.Task{done, open, loose}, []*database.Category{work}, []*database.Habit{h}, completions, today)
	assert.Equal(t, 8, wa.WeekNumber)
	assert.Equal(t, "2024-02-19", wa.Start)
	assert.Equal(t, "2024-02-25", wa.End)
	assert.Equal(t, 3, wa.TotalTasks)
	assert.Equal(t, 1, wa.TotalDone)
	assert.Equal(t, CategoryStats{Total: 2, Completed: 1, Rate: 50}, wa.CategoryStats["Work"])
	assert.Equal(t, CategoryStats{Total: 1, Completed: 0, Rate: 0}, wa.CategoryStats["Uncategorized"])
	assert.Equal(t, 100.0, wa.HabitRate)
	assert.Contains(t, wa.Insights, "💪 More focus needed on finishing tasks")
	assert.Contains(t, wa.Insights, "⚠️ Uncategorized needs attention: 0% done")

	// Records logged ahead for later days of the week are not counted yet.
	monday := Weekly(nil, nil, []*database.Habit{h}, []*database.HabitCompletion{
		{HabitID: "h", CompletedDate: "2024-02-19"},
		{HabitID: "h", CompletedDate: "2024-02-21"},
	}, day("2024-02-19"))
	assert.Equal(t, 100.0, monday.HabitRate)

	empty := Weekly(nil, nil, nil, nil, today)
	assert.Equal(t, []string{"📊 Not enough data yet. Keep tracking!"}, empty.Insights)
}

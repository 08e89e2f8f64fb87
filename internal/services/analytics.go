package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"life-os/internal/database"
	"life-os/internal/planner"
	"life-os/internal/utils"
)

// OverviewTaskLimit is how many tasks the dashboard home shows.
const OverviewTaskLimit = 8

type AnalyticsService struct {
	repository *database.Repository
	tasks      *TaskService
	habits     *HabitService
	finance    *FinanceService
}

func NewAnalyticsService(repo *database.Repository, tasks *TaskService, habits *HabitService, finance *FinanceService) *AnalyticsService {
	return &AnalyticsService{
		repository: repo,
		tasks:      tasks,
		habits:     habits,
		finance:    finance,
	}
}

// Weekly summarizes the ISO week containing today.
func (as *AnalyticsService) Weekly(ctx context.Context, owner string, today time.Time) (*planner.WeeklyAnalytics, error) {
	start, end := planner.WeekRange(today)
	from, to := utils.FormatDate(start), utils.FormatDate(end)

	var (
		tasks       []*database.Task
		categories  []*database.Category
		habits      []*database.Habit
		completions []*database.HabitCompletion
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tasks, err = as.repository.Tasks.List(ctx, owner, database.Query{}.Between("due_date", from, to))
		return err
	})
	g.Go(func() (err error) {
		categories, err = as.repository.Categories.List(ctx, owner, database.Query{})
		return err
	})
	g.Go(func() (err error) {
		habits, err = as.repository.Habits.List(ctx, owner, database.Query{})
		return err
	})
	g.Go(func() (err error) {
		completions, err = as.repository.HabitCompletions.List(ctx, owner, database.Query{}.Between("completed_date", from, to))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return planner.Weekly(tasks, categories, habits, completions, today), nil
}

// Overview is the dashboard home.
type Overview struct {
	Date     string                                 `json:"date"`
	Tasks    []*database.Task                       `json:"tasks"`
	Meals    []*database.MealPlan                   `json:"meals"`
	Habits   planner.HabitsView                     `json:"habits"`
	Finance  planner.FinanceSummary                 `json:"finance"`
	Upcoming planner.Buckets[planner.UpcomingItem] `json:"upcoming"`
}

// Overview fetches every dashboard widget concurrently. Any failed fetch
// fails the whole view.
func (as *AnalyticsService) Overview(ctx context.Context, owner string, today time.Time) (*Overview, error) {
	ov := &Overview{Date: utils.FormatDate(today)}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ov.Tasks, err = as.repository.Tasks.List(ctx, owner, database.Query{}.Order("due_date", false).Take(OverviewTaskLimit))
		return err
	})
	g.Go(func() (err error) {
		ov.Meals, err = as.repository.Meals.List(ctx, owner, database.Query{}.Eq("meal_date", ov.Date))
		return err
	})
	g.Go(func() (err error) {
		ov.Habits, err = as.habits.Summary(ctx, owner, today)
		return err
	})
	g.Go(func() (err error) {
		ov.Finance, err = as.finance.Summary(ctx, owner, today)
		return err
	})
	g.Go(func() (err error) {
		ov.Upcoming, err = as.tasks.Upcoming(ctx, owner, today)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ov, nil
}

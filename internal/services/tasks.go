package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"life-os/internal/database"
	"life-os/internal/planner"
	"life-os/internal/utils"
)

type TaskService struct {
	repository *database.Repository
	clock      *Clock
	logger     *zap.Logger
}

func NewTaskService(repo *database.Repository, clock *Clock, logger *zap.Logger) *TaskService {
	return &TaskService{
		repository: repo,
		clock:      clock,
		logger:     logger,
	}
}

// Create fills the add-button defaults and stores the task.
func (ts *TaskService) Create(ctx context.Context, owner string, task *database.Task) error {
	task.ApplyDefaults(utils.FormatDate(ts.clock.Today()))
	return ts.repository.Tasks.Insert(ctx, owner, task)
}

// Toggle flips completion. The row is kept; completed tasks simply drop out
// of the upcoming views.
func (ts *TaskService) Toggle(ctx context.Context, owner, id string) (*database.Task, error) {
	return ts.repository.Tasks.Update(ctx, owner, id, func(t *database.Task) error {
		t.Toggle(ts.clock.Now())
		return nil
	})
}

// Complete marks a task done; completing a done task leaves it unchanged.
func (ts *TaskService) Complete(ctx context.Context, owner, id string) (*database.Task, error) {
	return ts.repository.Tasks.Update(ctx, owner, id, func(t *database.Task) error {
		if !t.Completed {
			t.SetCompleted(true, ts.clock.Now())
		}
		return nil
	})
}

// Upcoming fetches open tasks due between today and the end of the window.
func (ts *TaskService) Upcoming(ctx context.Context, owner string, today time.Time) (planner.Buckets[planner.UpcomingItem], error) {
	tasks, err := ts.repository.Tasks.List(ctx, owner, database.Query{}.
		Eq("completed", false).
		Between("due_date", utils.FormatDate(today), utils.FormatDate(today.AddDate(0, 0, planner.UpcomingWindow))).
		Order("due_date", false))
	if err != nil {
		return planner.Buckets[planner.UpcomingItem]{}, err
	}
	return planner.UpcomingTasks(tasks, today), nil
}

// Due lists every task due on day, done or not.
func (ts *TaskService) Due(ctx context.Context, owner string, day time.Time) ([]*database.Task, error) {
	tasks, err := ts.repository.Tasks.List(ctx, owner, database.Query{}.Eq("due_date", utils.FormatDate(day)))
	if err != nil {
		return nil, err
	}
	planner.SortTasks(tasks)
	return tasks, nil
}

// Calendar builds the month grid with the month's tasks as events.
func (ts *TaskService) Calendar(ctx context.Context, owner string, month time.Time) (planner.Month, error) {
	first, last := planner.MonthRange(month)
	tasks, err := ts.repository.Tasks.List(ctx, owner, database.Query{}.
		Between("due_date", utils.FormatDate(first), utils.FormatDate(last)).
		Order("due_date", false))
	if err != nil {
		return planner.Month{}, err
	}
	categories, err := ts.repository.Categories.List(ctx, owner, database.Query{})
	if err != nil {
		return planner.Month{}, err
	}
	return planner.MonthGrid(first, ts.clock.Today(), planner.TaskEvents(tasks, categories)), nil
}

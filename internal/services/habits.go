package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"life-os/internal/database"
	"life-os/internal/planner"
	"life-os/internal/utils"
)

type HabitService struct {
	repository *database.Repository
	clock      *Clock
	logger     *zap.Logger
}

func NewHabitService(repo *database.Repository, clock *Clock, logger *zap.Logger) *HabitService {
	return &HabitService{
		repository: repo,
		clock:      clock,
		logger:     logger,
	}
}

// HabitToggle is the outcome of toggling one habit on one day.
type HabitToggle struct {
	Habit     *database.Habit `json:"habit"`
	Date      string          `json:"date"`
	Completed bool            `json:"completed"`
}

// Toggle adds the (habit, day) completion when absent and removes it when
// present. The cached streak and best streak are rewritten from the records
// in the same transaction.
func (hs *HabitService) Toggle(ctx context.Context, owner, habitID string, day time.Time) (*HabitToggle, error) {
	date := utils.FormatDate(day)
	out := &HabitToggle{Date: date}

	err := database.WithTx(ctx, hs.repository.Db.GetDB(), func(tx *sql.Tx) error {
		habits := hs.repository.Habits.In(tx)
		completions := hs.repository.HabitCompletions.In(tx)

		if _, err := habits.Get(ctx, owner, habitID); err != nil {
			return err
		}

		existing, err := completions.List(ctx, owner, database.Query{}.Eq("habit_id", habitID).Eq("completed_date", date))
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			for _, c := range existing {
				if _, err := completions.Delete(ctx, owner, c.ID); err != nil {
					return err
				}
			}
		} else {
			c := &database.HabitCompletion{HabitID: habitID, CompletedDate: date}
			c.ApplyDefaults(date)
			if err := completions.Insert(ctx, owner, c); err != nil {
				return err
			}
			out.Completed = true
		}

		habit, err := hs.recompute(ctx, tx, owner, habitID)
		if err != nil {
			return err
		}
		out.Habit = habit
		return nil
	})
	if err != nil {
		return nil, err
	}

	hs.logger.Debug("habit toggled",
		zap.String("habit", habitID),
		zap.String("date", date),
		zap.Bool("completed", out.Completed),
		zap.Int("streak", out.Habit.Streak),
	)
	return out, nil
}

// RecomputeIn rewrites the streak cache of one habit inside the caller's
// transaction, after its completions were changed directly.
func (hs *HabitService) RecomputeIn(ctx context.Context, q database.Querier, owner, habitID string) (*database.Habit, error) {
	return hs.recompute(ctx, q, owner, habitID)
}

// recompute rewrites the streak cache from the habit's records. The best
// streak never decreases.
func (hs *HabitService) recompute(ctx context.Context, q database.Querier, owner, habitID string) (*database.Habit, error) {
	records, err := hs.repository.HabitCompletions.In(q).List(ctx, owner, database.Query{}.Eq("habit_id", habitID))
	if err != nil {
		return nil, err
	}
	days := planner.CompletionsByHabit(records)[habitID]
	current := planner.CurrentStreak(days, hs.clock.Today())

	return hs.repository.Habits.In(q).Update(ctx, owner, habitID, func(h *database.Habit) error {
		h.Streak = current
		h.BestStreak = planner.BestStreak(h.BestStreak, current)
		return nil
	})
}

// Summary derives the Habits page for day from completion records.
func (hs *HabitService) Summary(ctx context.Context, owner string, day time.Time) (planner.HabitsView, error) {
	habits, err := hs.repository.Habits.List(ctx, owner, database.Query{})
	if err != nil {
		return planner.HabitsView{}, err
	}
	// The longest possible current streak is bounded by the oldest record,
	// so all records up to day are needed.
	completions, err := hs.repository.HabitCompletions.List(ctx, owner, database.Query{}.
		Where("completed_date", database.OpLte, utils.FormatDate(day)))
	if err != nil {
		return planner.HabitsView{}, err
	}
	return planner.SummarizeHabits(habits, completions, day), nil
}

// RefreshStreaks rewrites every habit's streak cache from its records. The
// best streak is also raised to the longest run on record.
func (hs *HabitService) RefreshStreaks(ctx context.Context) (int, error) {
	owners, err := hs.repository.Habits.Owners(ctx)
	if err != nil {
		return 0, err
	}

	today := hs.clock.Today()
	updated := 0
	for _, owner := range owners {
		habits, err := hs.repository.Habits.List(ctx, owner, database.Query{})
		if err != nil {
			return updated, err
		}
		completions, err := hs.repository.HabitCompletions.List(ctx, owner, database.Query{})
		if err != nil {
			return updated, err
		}
		byHabit := planner.CompletionsByHabit(completions)

		for _, h := range habits {
			days := byHabit[h.ID]
			current := planner.CurrentStreak(days, today)
			best := max(planner.BestStreak(h.BestStreak, current), planner.LongestRun(days))
			if current == h.Streak && best == h.BestStreak {
				continue
			}
			_, err := hs.repository.Habits.Update(ctx, owner, h.ID, func(row *database.Habit) error {
				row.Streak = current
				row.BestStreak = max(row.BestStreak, best)
				return nil
			})
			if err != nil {
				return updated, fmt.Errorf("refresh habit %s: %w", h.ID, err)
			}
			updated++
		}
	}

	hs.logger.Info("habit streaks refreshed", zap.Int("owners", len(owners)), zap.Int("updated", updated))
	return updated, nil
}

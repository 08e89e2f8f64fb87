package services

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"life-os/internal/database"
	"life-os/internal/planner"
)

type GoalService struct {
	repository *database.Repository
	clock      *Clock
	logger     *zap.Logger
}

func NewGoalService(repo *database.Repository, clock *Clock, logger *zap.Logger) *GoalService {
	return &GoalService{
		repository: repo,
		clock:      clock,
		logger:     logger,
	}
}

// Progress lists goals with their milestones and derived progress.
func (gs *GoalService) Progress(ctx context.Context, owner string) ([]planner.GoalStatus, error) {
	goals, err := gs.repository.Goals.List(ctx, owner, database.Query{})
	if err != nil {
		return nil, err
	}
	milestones, err := gs.repository.Milestones.List(ctx, owner, database.Query{}.Order("sort_order", false))
	if err != nil {
		return nil, err
	}
	return planner.GoalStatuses(goals, milestones), nil
}

// ToggleMilestone flips a milestone and stores the goal's derived progress
// alongside it.
func (gs *GoalService) ToggleMilestone(ctx context.Context, owner, id string) (*database.GoalMilestone, error) {
	var out *database.GoalMilestone
	err := database.WithTx(ctx, gs.repository.Db.GetDB(), func(tx *sql.Tx) error {
		m, err := gs.repository.Milestones.In(tx).Update(ctx, owner, id, func(m *database.GoalMilestone) error {
			m.Toggle(gs.clock.Now())
			return nil
		})
		if err != nil {
			return err
		}
		out = m
		return gs.syncProgress(ctx, tx, owner, m.GoalID)
	})
	return out, err
}

// SyncProgressIn rewrites a goal's stored progress from its milestones
// inside the caller's transaction. Goals without milestones keep their
// stored value.
func (gs *GoalService) SyncProgressIn(ctx context.Context, q database.Querier, owner, goalID string) error {
	return gs.syncProgress(ctx, q, owner, goalID)
}

func (gs *GoalService) syncProgress(ctx context.Context, q database.Querier, owner, goalID string) error {
	milestones, err := gs.repository.Milestones.In(q).List(ctx, owner, database.Query{}.Eq("goal_id", goalID))
	if err != nil {
		return err
	}
	if len(milestones) == 0 {
		return nil
	}
	_, err = gs.repository.Goals.In(q).Update(ctx, owner, goalID, func(g *database.Goal) error {
		g.Progress = planner.GoalProgress(g, milestones)
		return nil
	})
	return err
}

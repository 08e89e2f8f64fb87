package services

import (
	"context"
	"time"

	"life-os/internal/database"
	"life-os/internal/planner"
	"life-os/internal/utils"
)

type FinanceService struct {
	repository *database.Repository
}

func NewFinanceService(repo *database.Repository) *FinanceService {
	return &FinanceService{repository: repo}
}

// Summary recomputes this month against last month from a fresh fetch.
func (fs *FinanceService) Summary(ctx context.Context, owner string, today time.Time) (planner.FinanceSummary, error) {
	from, to := planner.FinanceWindow(today)
	rows, err := fs.repository.Transactions.List(ctx, owner, database.Query{}.
		Between("transaction_date", utils.FormatDate(from), utils.FormatDate(to)))
	if err != nil {
		return planner.FinanceSummary{}, err
	}
	return planner.SummarizeFinance(rows, today), nil
}

type HealthService struct {
	repository *database.Repository
	targets    planner.HealthTargets
}

func NewHealthService(repo *database.Repository, targets planner.HealthTargets) *HealthService {
	return &HealthService{repository: repo, targets: targets}
}

// Score rates the most recently written log for day.
func (hs *HealthService) Score(ctx context.Context, owner string, day time.Time) (planner.HealthScore, error) {
	logs, err := hs.repository.Health.List(ctx, owner, database.Query{}.
		Eq("log_date", utils.FormatDate(day)).
		Order("updated_at", true).
		Take(1))
	if err != nil {
		return planner.HealthScore{}, err
	}
	var log *database.HealthLog
	if len(logs) > 0 {
		log = logs[0]
	}
	return planner.ScoreHealth(log, hs.targets, day), nil
}

func (hs *HealthService) Targets() planner.HealthTargets { return hs.targets }

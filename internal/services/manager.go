package services

import (
	"time"

	"go.uber.org/zap"

	"life-os/internal/database"
	"life-os/internal/planner"
)

type Options struct {
	Location      *time.Location
	Secret        []byte
	TokenTTL      time.Duration
	HealthTargets planner.HealthTargets
	Clock         *Clock // overrides Location when set
}

type ServiceManager struct {
	Notification *NotificationService
	Analytics    *AnalyticsService
	Task         *TaskService
	Habit        *HabitService
	Goal         *GoalService
	Finance      *FinanceService
	Health       *HealthService
	Auth         *AuthService
	Clock        *Clock
	repository   *database.Repository
	logger       *zap.Logger
}

func NewServiceManager(db *database.Database, opts Options, logger *zap.Logger) *ServiceManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	repo := database.NewRepository(db)

	clock := opts.Clock
	if clock == nil {
		clock = NewClock(opts.Location)
	}
	targets := opts.HealthTargets
	if targets == (planner.HealthTargets{}) {
		targets = planner.DefaultHealthTargets()
	}

	task := NewTaskService(repo, clock, logger.Named("tasks"))
	habit := NewHabitService(repo, clock, logger.Named("habits"))
	finance := NewFinanceService(repo)

	sm := &ServiceManager{
		Analytics:  NewAnalyticsService(repo, task, habit, finance),
		Task:       task,
		Habit:      habit,
		Goal:       NewGoalService(repo, clock, logger.Named("goals")),
		Finance:    finance,
		Health:     NewHealthService(repo, targets),
		Auth:       NewAuthService(repo.Users, opts.Secret, opts.TokenTTL, logger.Named("auth")),
		Clock:      clock,
		repository: repo,
		logger:     logger,
	}
	// Without a sender, digests are logged.
	sm.Notification = NewNotificationService(nil, sm, logger.Named("notify"))
	return sm
}

func (sm *ServiceManager) SetNotificationSender(sender NotificationSender) {
	sm.Notification = NewNotificationService(sender, sm, sm.logger.Named("notify"))
}

func (sm *ServiceManager) Repository() *database.Repository {
	return sm.repository
}

package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"life-os/internal/api"
	"life-os/internal/config"
	"life-os/internal/database"
	"life-os/internal/planner"
	"life-os/internal/services"
	"life-os/internal/telegram"
)

const shutdownTimeout = 10 * time.Second

type Application struct {
	config   *config.Config
	db       *database.Database
	bot      *telegram.Bot // nil when no token is configured
	services *services.ServiceManager
	server   *http.Server
	listener net.Listener
	cron     *cron.Cron
	jobs     map[string]func()
	logger   *zap.Logger

	group      *errgroup.Group
	cancelFunc context.CancelFunc
	ctx        context.Context
}

func New(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := database.New(cfg.Database.Path, logger.Named("db"))
	if err != nil {
		return nil, err
	}

	serviceManager := services.NewServiceManager(db, services.Options{
		Location: cfg.Location(),
		Secret:   []byte(cfg.Auth.Secret),
		TokenTTL: cfg.Auth.TokenTTL,
		HealthTargets: planner.HealthTargets{
			WaterGlasses: cfg.Health.WaterGlasses,
			SleepHours:   cfg.Health.SleepHours,
			Steps:        cfg.Health.Steps,
		},
	}, logger.Named("services"))

	var bot *telegram.Bot
	if cfg.Telegram.Token != "" {
		bot, err = telegram.NewBot(cfg.Telegram.Token, serviceManager, logger.Named("telegram"))
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		serviceManager.SetNotificationSender(bot)
	} else {
		logger.Warn("telegram token not set; notifications will only be logged")
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &Application{
		config:   cfg,
		db:       db,
		bot:      bot,
		services: serviceManager,
		server: &http.Server{
			Handler:           api.NewServer(serviceManager, logger.Named("http")).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		cron: cron.New(
			cron.WithLocation(cfg.Location()),
			cron.WithLogger(cronLogger{logger.Named("cron").Sugar()}),
			cron.WithChain(cron.Recover(cronLogger{logger.Named("cron").Sugar()})),
		),
		jobs:       make(map[string]func()),
		logger:     logger,
		cancelFunc: cancel,
		ctx:        ctx,
	}

	if err := app.setupCronJobs(); err != nil {
		cancel()
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func (a *Application) Start() error {
	a.logger.Info("starting", zap.String("addr", a.config.Server.Addr), zap.String("timezone", a.config.Location().String()))

	ln, err := net.Listen("tcp", a.config.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.config.Server.Addr, err)
	}
	a.listener = ln

	g, ctx := errgroup.WithContext(a.ctx)
	a.group = g
	g.Go(func() error {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if a.bot != nil {
		g.Go(func() error {
			a.bot.Start(ctx)
			return nil
		})
	}

	a.cron.Start()

	if a.bot != nil {
		a.logger.Info("started", zap.String("bot", a.bot.GetUsername()), zap.String("addr", ln.Addr().String()))
	} else {
		a.logger.Info("started", zap.String("addr", ln.Addr().String()))
	}
	return nil
}

// Addr is the bound listen address once started.
func (a *Application) Addr() string {
	if a.listener == nil {
		return a.config.Server.Addr
	}
	return a.listener.Addr().String()
}

func (a *Application) Stop() error {
	a.logger.Info("stopping")

	a.cancelFunc()
	<-a.cron.Stop().Done()

	var errs []error
	if a.group != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http: %w", err))
		}
		if err := a.group.Wait(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}

	a.logger.Info("stopped")
	return errors.Join(errs...)
}

// RunJob runs a scheduled job immediately.
func (a *Application) RunJob(name string) error {
	job, ok := a.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	job()
	return nil
}

func (a *Application) setupCronJobs() error {
	schedule := a.config.Schedule
	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{"digest", schedule.Digest, func() { a.services.Notification.SendMorningDigest(a.ctx) }},
		{"summary", schedule.Summary, func() { a.services.Notification.SendDailySummary(a.ctx) }},
		{"streak_refresh", schedule.StreakRefresh, func() {
			if _, err := a.services.Habit.RefreshStreaks(a.ctx); err != nil {
				a.logger.Error("streak refresh failed", zap.Error(err))
			}
		}},
	}

	for _, j := range jobs {
		a.jobs[j.name] = j.run
		if j.spec == "" {
			a.logger.Info("job disabled", zap.String("job", j.name))
			continue
		}
		if _, err := a.cron.AddFunc(j.spec, j.run); err != nil {
			return fmt.Errorf("schedule %s %q: %w", j.name, j.spec, err)
		}
	}
	return nil
}

// cronLogger routes cron's logging through zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}

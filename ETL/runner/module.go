// Package runner wires the analytics pipeline with fx and executes a single run.
package runner

import (
	"context"
	"io"
	"time"

	"github.com/LilVoxy/order_analytics/ETL/config"
	"github.com/LilVoxy/order_analytics/ETL/metrics"
	"github.com/LilVoxy/order_analytics/ETL/models"
	"github.com/LilVoxy/order_analytics/ETL/store"
	"github.com/LilVoxy/order_analytics/ETL/utils"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

const stopTimeout = 10 * time.Second

// PersistentModule provides the SQL store and the run log.
var PersistentModule = fx.Module("analytics.persistent",
	fx.Provide(
		newSQLStore,
		func(s *store.SQLStore) store.Store { return s },
		newRunLogRepository,
	),
)

// InMemoryModule provides the transient store.
var InMemoryModule = fx.Module("analytics.inmemory",
	fx.Provide(newMemoryStore),
)

func newSQLStore(lc fx.Lifecycle, cfg config.ETLConfig, logger *utils.ETLLogger) (*store.SQLStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := store.NewSQLStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Info("closing %s store", cfg.Database.Driver)
			return s.Close()
		},
	})
	return s, nil
}

func newRunLogRepository(lc fx.Lifecycle, s *store.SQLStore) models.ETLLogRepository {
	repo := models.NewGormETLLogRepository(s.DB())
	lc.Append(fx.Hook{
		OnStart: repo.CreateETLLogTable,
	})
	return repo
}

func newMemoryStore(lc fx.Lifecycle, logger *utils.ETLLogger) store.Store {
	s := store.NewMemoryStore(logger)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return s.Close() },
	})
	return s
}

func fxLogger(verbose bool) func(*utils.ETLLogger) fxevent.Logger {
	return func(l *utils.ETLLogger) fxevent.Logger {
		if !verbose {
			return fxevent.NopLogger
		}
		return &fxevent.ZapLogger{Logger: l.Zap()}
	}
}

// Run validates cfg, builds the application for mode, executes one run writing the
// reports to out, and stops the application on every path.
func Run(ctx context.Context, cfg config.ETLConfig, mode Mode, out io.Writer) error {
	logger, err := utils.NewETLLogger(cfg.Log.Level, cfg.Log.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Report.Validate(); err != nil {
		logger.Error("invalid configuration: %v", err)
		return err
	}

	storeModule := InMemoryModule
	if mode == ModePersistent {
		if err := cfg.Database.Validate(); err != nil {
			logger.Error("invalid database configuration: %v", err)
			return err
		}
		storeModule = PersistentModule
	}

	var runner *Runner
	app := fx.New(
		fx.Supply(cfg, mode, Output{Writer: out}, logger),
		fx.WithLogger(fxLogger(cfg.Log.Verbose)),
		fx.Provide(metrics.NewRegistry, New),
		storeModule,
		fx.Populate(&runner),
	)
	if err := app.Err(); err != nil {
		logger.Error("could not initialize %s run: %v", mode, err)
		return err
	}

	if err := app.Start(ctx); err != nil {
		logger.Error("could not start %s run: %v", mode, err)
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
		defer cancel()
		if err := app.Stop(stopCtx); err != nil {
			logger.Error("shutdown failed: %v", err)
		}
	}()

	_, err = runner.Execute(ctx)
	return err
}

package runner

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/LilVoxy/order_analytics/ETL/analytics"
	"github.com/LilVoxy/order_analytics/ETL/config"
	"github.com/LilVoxy/order_analytics/ETL/extractors"
	"github.com/LilVoxy/order_analytics/ETL/metrics"
	"github.com/LilVoxy/order_analytics/ETL/models"
	"github.com/LilVoxy/order_analytics/ETL/report"
	"github.com/LilVoxy/order_analytics/ETL/store"
	"github.com/LilVoxy/order_analytics/ETL/transform"
	"github.com/LilVoxy/order_analytics/ETL/utils"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Mode selects the store backend of a run.
type Mode string

const (
	ModePersistent Mode = "persistent"
	ModeInMemory   Mode = "inmemory"
)

// Output is where the rendered reports go.
type Output struct {
	io.Writer
}

// Params are the dependencies of a Runner. RunLog is only present in persistent mode.
type Params struct {
	fx.In

	Config  config.ETLConfig
	Mode    Mode
	Store   store.Store
	RunLog  models.ETLLogRepository `optional:"true"`
	Metrics *metrics.Registry
	Logger  *utils.ETLLogger
	Output  Output
}

// Runner executes one extract, join, load, aggregate and render cycle.
type Runner struct {
	config    config.ETLConfig
	mode      Mode
	store     store.Store
	extractor *extractors.Extractor
	runLog    models.ETLLogRepository
	metrics   *metrics.Registry
	logger    *utils.ETLLogger
	out       io.Writer
}

// New creates a Runner.
func New(p Params) (*Runner, error) {
	loc, err := p.Config.Report.Location()
	if err != nil {
		return nil, &models.ValidationError{Source: "config", Field: "report.timezone", Msg: err.Error(), Err: err}
	}
	logger := p.Logger.With(zap.String("mode", string(p.Mode)))
	return &Runner{
		config:    p.Config,
		mode:      p.Mode,
		store:     p.Store,
		extractor: extractors.NewExtractor(logger, loc),
		runLog:    p.RunLog,
		metrics:   p.Metrics,
		logger:    logger,
		out:       p.Output.Writer,
	}, nil
}

// Execute runs the pipeline once. Nothing is written to the output unless every phase
// succeeds. In persistent mode the run is recorded in the run log.
func (r *Runner) Execute(ctx context.Context) (*models.Reports, error) {
	startTime := time.Now()
	r.logger.Info("starting analytics run")

	runID, err := r.beginRun(ctx, startTime)
	if err != nil {
		r.metrics.RecordRun(string(r.mode), models.RunStatusFailed)
		return nil, err
	}
	lastRun := r.lastSuccessfulRun(ctx)

	reports, stats, err := r.run(ctx)
	if err != nil {
		r.logger.Error("analytics run failed: %v", err)
		r.finishFailure(ctx, runID, err)
		r.metrics.RecordRun(string(r.mode), models.RunStatusFailed)
		r.pushMetrics(ctx)
		return nil, err
	}

	r.finishSuccess(ctx, runID, stats, lastRun)
	r.metrics.RecordRun(string(r.mode), models.RunStatusSuccess)
	r.pushMetrics(ctx)

	r.logger.Info("analytics run completed in %v", time.Since(startTime))
	return reports, nil
}

func (r *Runner) run(ctx context.Context) (*models.Reports, models.RunStats, error) {
	var stats models.RunStats

	started := time.Now()
	data, err := r.extractor.Extract(r.config.Input.CustomersPath, r.config.Input.OrdersPath)
	if err != nil {
		return nil, stats, fmt.Errorf("extract phase: %w", err)
	}
	r.metrics.ObservePhase("extract", started)

	started = r.logger.LogPhaseStart("join")
	joined := transform.Join(data.Customers, data.Orders)
	for _, w := range joined.Warnings {
		r.logger.Warn("orphan order: %s", w.String())
	}
	r.logger.LogPhaseComplete("join", started,
		zap.Int("matched", len(joined.Matched)),
		zap.Int("orphans", len(joined.Orphans)))
	r.metrics.ObservePhase("join", started)

	started = r.logger.LogPhaseStart("load")
	if err := r.store.Load(ctx, data.Customers, data.Orders); err != nil {
		return nil, stats, fmt.Errorf("load phase: %w", err)
	}
	r.logger.LogPhaseComplete("load", started)
	r.metrics.ObservePhase("load", started)

	stats.CustomersLoaded = len(data.Customers)
	stats.OrdersLoaded = len(data.Orders)
	stats.OrphanOrders = len(joined.Orphans)
	r.metrics.RecordLoad(stats.CustomersLoaded, stats.OrdersLoaded, stats.OrphanOrders)

	started = time.Now()
	aggregator := analytics.NewAggregator(r.store, analytics.Options{
		RecentWindowDays: r.config.Report.RecentWindowDays,
		RecentTopN:       r.config.Report.RecentTopN,
		LoyaltyMinOrders: r.config.Report.LoyaltyMinOrders,
		OrphanPolicy:     r.config.Report.OrphanPolicy,
	}, r.logger)
	reports, err := aggregator.Build(ctx, joined.Warnings)
	if err != nil {
		return nil, stats, fmt.Errorf("aggregate phase: %w", err)
	}
	r.metrics.ObservePhase("aggregate", started)

	snapshot, err := report.EncodeSnapshot(reports)
	if err != nil {
		return nil, stats, fmt.Errorf("snapshot: %w", err)
	}
	stats.ReportsDigest = snapshot.Digest
	stats.ReportsSnapshot = snapshot.Compressed
	r.logger.Debug("report snapshot %d bytes, %d compressed", snapshot.RawSize, len(snapshot.Compressed))

	started = time.Now()
	if err := report.Write(r.out, reports, r.config.Report.Format); err != nil {
		return nil, stats, fmt.Errorf("render phase: %w", err)
	}
	r.metrics.ObservePhase("render", started)

	return reports, stats, nil
}

func (r *Runner) beginRun(ctx context.Context, startTime time.Time) (string, error) {
	if r.runLog == nil {
		return "", nil
	}
	id, err := r.runLog.CreateLogEntry(ctx, string(r.mode), startTime)
	if err != nil {
		r.logger.Error("could not create run log entry: %v", err)
		return "", fmt.Errorf("run log: %w", err)
	}
	r.logger.Debug("run log entry %s created", id)
	return id, nil
}

func (r *Runner) lastSuccessfulRun(ctx context.Context) *models.ETLRunLog {
	if r.runLog == nil {
		return nil
	}
	last, err := r.runLog.GetLastSuccessfulRun(ctx)
	if err != nil {
		r.logger.Warn("could not read the last successful run: %v", err)
		return nil
	}
	if last == nil {
		r.logger.Info("no previous successful run")
		return nil
	}
	r.logger.Info("last successful run %s finished at %v with %d customers, %d orders",
		last.ID, last.EndTime, last.CustomersLoaded, last.OrdersLoaded)
	return last
}

func (r *Runner) finishSuccess(ctx context.Context, runID string, stats models.RunStats, lastRun *models.ETLRunLog) {
	if r.runLog == nil {
		return
	}
	if err := r.runLog.UpdateLogEntrySuccess(ctx, runID, time.Now(), stats); err != nil {
		r.logger.Error("could not update run log entry %s: %v", runID, err)
	}
	if lastRun == nil {
		return
	}
	if lastRun.ReportsDigest == stats.ReportsDigest {
		r.logger.Info("reports unchanged since run %s", lastRun.ID)
	} else {
		r.logger.Info("reports changed since run %s", lastRun.ID)
	}
}

func (r *Runner) finishFailure(ctx context.Context, runID string, runErr error) {
	if r.runLog == nil {
		return
	}
	// the run context may already be cancelled
	ctx = context.WithoutCancel(ctx)
	if err := r.runLog.UpdateLogEntryFailure(ctx, runID, time.Now(), runErr.Error()); err != nil {
		r.logger.Error("could not update run log entry %s: %v", runID, err)
	}
}

func (r *Runner) pushMetrics(ctx context.Context) {
	url := r.config.Metrics.PushgatewayURL
	if url == "" {
		return
	}
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.metrics.Push(pushCtx, url, r.config.Metrics.Job); err != nil {
		r.logger.Warn("metrics push to %s failed: %v", url, err)
	}
}

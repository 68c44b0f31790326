// Package scheduler runs periodic credit scoring and early warning sweeps
// over every active merchant.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"paybaba/internal/config"
	"paybaba/internal/models"
	"paybaba/internal/services/scoring"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	JobScoring = "scoring"
	JobWarning = "early_warning"
)

type MerchantLister interface {
	ActiveMerchantIDs(ctx context.Context) ([]string, error)
}

type Scorer interface {
	Calculate(ctx context.Context, merchantID string, now time.Time) (*scoring.Calculation, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, merchantID string, now time.Time) ([]models.EarlyWarningAlert, error)
}

type Metrics interface {
	ObserveJobRun(job, outcome string)
}

type NoopMetrics struct{}

func (NoopMetrics) ObserveJobRun(string, string) {}

// Summary counts the per-merchant outcomes of one sweep.
type Summary struct {
	Merchants int
	Succeeded int
	Failed    int
}

type Scheduler struct {
	cron      *cron.Cron
	merchants MerchantLister
	scorer    Scorer
	evaluator Evaluator
	metrics   Metrics
	now       func() time.Time
	timeout   time.Duration
}

func New(merchants MerchantLister, scorer Scorer, evaluator Evaluator, metrics Metrics, loc *time.Location) *Scheduler {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		merchants: merchants,
		scorer:    scorer,
		evaluator: evaluator,
		metrics:   metrics,
		now:       time.Now,
		timeout:   10 * time.Minute,
	}
}

// Register adds the scoring and warning jobs using the cron specs in cfg.
func (s *Scheduler) Register(cfg config.SchedulerConfig) error {
	if _, err := s.cron.AddFunc(cfg.ScoringCron, func() { s.runJob(JobScoring, s.RunScoring) }); err != nil {
		return fmt.Errorf("invalid scoring schedule %q: %w", cfg.ScoringCron, err)
	}
	if _, err := s.cron.AddFunc(cfg.WarningCron, func() { s.runJob(JobWarning, s.RunWarnings) }); err != nil {
		return fmt.Errorf("invalid warning schedule %q: %w", cfg.WarningCron, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logrus.WithField("jobs", len(s.cron.Entries())).Info("Scheduler started")
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logrus.Warn("Scheduler stopped before running jobs finished")
		return
	}
	logrus.Info("Scheduler stopped")
}

func (s *Scheduler) runJob(name string, run func(context.Context) (Summary, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	summary, err := run(ctx)
	fields := logrus.Fields{
		"job":       name,
		"merchants": summary.Merchants,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"duration":  time.Since(start).String(),
	}
	if err != nil {
		logrus.WithFields(fields).WithError(err).Error("Scheduled job failed")
		return
	}
	logrus.WithFields(fields).Info("Scheduled job finished")
}

// RunScoring recalculates the credit score of every active merchant. A failure
// for one merchant does not stop the sweep.
func (s *Scheduler) RunScoring(ctx context.Context) (Summary, error) {
	return s.sweep(ctx, JobScoring, func(ctx context.Context, merchantID string, now time.Time) error {
		calc, err := s.scorer.Calculate(ctx, merchantID, now)
		if err != nil {
			return err
		}
		if !calc.Result.Scored() {
			logrus.WithField("merchant_id", merchantID).Debug("Skipped scoring, insufficient data")
		}
		return nil
	})
}

// RunWarnings evaluates the early warning detectors for every active merchant.
func (s *Scheduler) RunWarnings(ctx context.Context) (Summary, error) {
	return s.sweep(ctx, JobWarning, func(ctx context.Context, merchantID string, now time.Time) error {
		_, err := s.evaluator.Evaluate(ctx, merchantID, now)
		return err
	})
}

func (s *Scheduler) sweep(ctx context.Context, job string, fn func(context.Context, string, time.Time) error) (Summary, error) {
	ids, err := s.merchants.ActiveMerchantIDs(ctx)
	if err != nil {
		s.metrics.ObserveJobRun(job, "error")
		return Summary{}, fmt.Errorf("failed to list merchants: %w", err)
	}

	now := s.now()
	summary := Summary{Merchants: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := fn(ctx, id, now); err != nil {
			summary.Failed++
			s.metrics.ObserveJobRun(job, "error")
			logrus.WithFields(logrus.Fields{
				"job":         job,
				"merchant_id": id,
			}).WithError(err).Warn("Merchant run failed")
			continue
		}
		summary.Succeeded++
		s.metrics.ObserveJobRun(job, "ok")
	}
	return summary, nil
}

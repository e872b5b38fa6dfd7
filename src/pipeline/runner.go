// Package pipeline runs the ETL pipelines as ordered lists of stages.
package pipeline

import (
	"context"
	"errors"
	"time"

	"market-loader/src/helpers"
	"market-loader/src/interfaces"
	"market-loader/src/logger"
	"market-loader/src/models"

	"github.com/google/uuid"
)

// Event types pushed to the publisher.
const (
	EventRunStarted    = "run_started"
	EventStageStarted  = "stage_started"
	EventStageFinished = "stage_finished"
	EventRunFinished   = "run_finished"
)

// -----------------------------------------------------------------------------

// Stage is one step of a pipeline. Setup stages are the resource initializers and
// are the only ones run by an init-only run.
type Stage struct {
	Name  string
	Setup bool
	Run   func(ctx context.Context) (rows int64, err error)
}

// IPipeline builds a fresh stage list for every run, so stages can share state
// through closures without leaking it between runs.
type IPipeline interface {
	Name() string
	Description() string
	Stages(opts RunOptions) []Stage
}

type RunOptions struct {
	Symbol    string
	SetupOnly bool
	RunID     string // assigned by the runner
}

// -----------------------------------------------------------------------------

// SkipRun ends a run early without failing it.
type SkipRun struct{ Reason string }

func (s *SkipRun) Error() string { return "run skipped: " + s.Reason }

// -----------------------------------------------------------------------------

// Runner executes stages strictly in order. A failed stage is terminal and every
// later stage is reported as skipped.
type Runner struct {
	Publisher interfaces.IEventPublisher
	Logger    *logger.Logger
	Errors    *helpers.ErrorHandler
	Now       func() time.Time
	NewID     func() string
}

func NewRunner(publisher interfaces.IEventPublisher) *Runner {
	log := logger.NewLogger("Runner")
	return &Runner{
		Publisher: publisher,
		Logger:    log,
		Errors:    helpers.NewErrorHandler(log),
		Now:       time.Now,
		NewID:     uuid.NewString,
	}
}

// -----------------------------------------------------------------------------

// Run returns the report and, for a failed run, the error of the failing stage.
func (r *Runner) Run(ctx context.Context, p IPipeline, opts RunOptions) (models.MRunReport, error) {
	opts.RunID = r.NewID()
	stages := p.Stages(opts)
	if opts.SetupOnly {
		stages = setupStages(stages)
	}

	report := models.MRunReport{
		RunID:     opts.RunID,
		Pipeline:  p.Name(),
		Status:    models.StatusRunning,
		StartedAt: r.Now().UTC(),
		Stages:    make([]models.MStageResult, len(stages)),
	}
	for i, s := range stages {
		report.Stages[i] = models.MStageResult{Name: s.Name, Status: models.StatusPending}
	}

	log := r.Logger.With("pipeline", report.Pipeline).With("run_id", report.RunID)
	log.Info("Run started with %d stages", len(stages))
	r.publish(report, EventRunStarted, nil)

	var runErr error
	for i, stage := range stages {
		result := &report.Stages[i]

		if runErr == nil {
			if err := ctx.Err(); err != nil {
				runErr = err
				result.Status = models.StatusFailed
				result.Error = err.Error()
				report.Status = models.StatusFailed
				log.Warning("Run cancelled before stage %s: %v", stage.Name, err)
				r.publish(report, EventStageFinished, result)
				continue
			}
		}
		if runErr != nil || report.Status == models.StatusSkipped {
			result.Status = models.StatusSkipped
			continue
		}

		result.Status = models.StatusRunning
		r.publish(report, EventStageStarted, result)

		started := r.Now()
		rows, err := stage.Run(ctx)
		result.DurationMs = r.Now().Sub(started).Milliseconds()
		result.Rows = rows

		var skip *SkipRun
		switch {
		case errors.As(err, &skip):
			result.Status = models.StatusSkipped
			report.Status = models.StatusSkipped
			report.Reason = skip.Reason
			log.Info("Stage %s skipped the run: %s", stage.Name, skip.Reason)
		case err != nil:
			runErr = err
			result.Status = models.StatusFailed
			result.Error = err.Error()
			report.Status = models.StatusFailed
			r.Errors.Handle(err, report.Pipeline+"/"+stage.Name)
		default:
			result.Status = models.StatusSucceeded
			log.Info("Stage %s succeeded (%d rows, %d ms)", stage.Name, rows, result.DurationMs)
		}
		r.publish(report, EventStageFinished, result)
	}

	if report.Status == models.StatusRunning {
		report.Status = models.StatusSucceeded
	}
	if runErr != nil {
		report.Error = runErr.Error()
	}
	report.FinishedAt = r.Now().UTC()

	log.Info("Run finished: %s", report.Status)
	r.publish(report, EventRunFinished, nil)
	return report, runErr
}

func setupStages(stages []Stage) []Stage {
	kept := stages[:0:0]
	for _, s := range stages {
		if s.Setup {
			kept = append(kept, s)
		}
	}
	return kept
}

// -----------------------------------------------------------------------------

func (r *Runner) publish(report models.MRunReport, kind string, stage *models.MStageResult) {
	if r.Publisher == nil {
		return
	}
	event := models.MStageEvent{
		Type:      kind,
		RunID:     report.RunID,
		Pipeline:  report.Pipeline,
		Status:    report.Status,
		Error:     report.Error,
		Timestamp: r.Now().UnixMilli(),
	}
	if stage != nil {
		event.Stage = stage.Name
		event.Status = stage.Status
		event.Rows = stage.Rows
		event.Error = stage.Error
	}
	r.Publisher.Publish(event)
}

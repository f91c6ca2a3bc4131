package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BartekS5/sap-etl/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TaskExtract     = "extract_all_endpoints"
	TaskTransform   = "transform_and_load"
	TaskDimProducts = "load_dim_products"
)

// Task is one step of a run. It returns the phase report, if it has one.
type Task struct {
	ID  string
	Run func(ctx context.Context, log *zap.SugaredLogger) (*Report, error)
}

// Pipeline runs its tasks one after another. A task is retried Retries
// times with RetryDelay between attempts; a task that still fails stops
// the chain.
type Pipeline struct {
	Tasks      []Task
	Retries    int
	RetryDelay time.Duration
	DryRun     bool

	RunID   string
	Reports []Report
}

func NewPipeline(retries int, delay time.Duration, tasks ...Task) *Pipeline {
	return &Pipeline{
		Tasks:      tasks,
		Retries:    retries,
		RetryDelay: delay,
	}
}

// DefaultTasks wires the extract, transform-and-load and dim_products
// tasks. The procedure is skipped in dry-run mode.
func DefaultTasks(ext *Extractor, tl *TransformLoader, proc ProcedureRunner, procedure string, dryRun bool) []Task {
	return []Task{
		{ID: TaskExtract, Run: func(ctx context.Context, log *zap.SugaredLogger) (*Report, error) {
			ext.Log = log.With("task", TaskExtract)
			rep := ext.ExtractAll(ctx)
			return &rep, ctx.Err()
		}},
		{ID: TaskTransform, Run: func(ctx context.Context, log *zap.SugaredLogger) (*Report, error) {
			tl.Log = log.With("task", TaskTransform)
			tl.DryRun = dryRun
			rep := tl.TransformAndLoadAll(ctx)
			return &rep, ctx.Err()
		}},
		{ID: TaskDimProducts, Run: func(ctx context.Context, log *zap.SugaredLogger) (*Report, error) {
			if dryRun {
				log.Infof("[DRY RUN] Would call procedure %s", procedure)
				return nil, nil
			}
			return nil, proc.CallProcedure(ctx, procedure)
		}},
	}
}

func (p *Pipeline) Run(ctx context.Context) error {
	if p.RunID == "" {
		p.RunID = uuid.NewString()
	}
	log := logger.With("run_id", p.RunID)
	log.Infof("Starting pipeline. Tasks: %d, Retries: %d, DryRun: %v", len(p.Tasks), p.Retries, p.DryRun)
	start := time.Now()

	for _, task := range p.Tasks {
		rep, err := p.runTask(ctx, task, log.With("task", task.ID))
		if rep != nil {
			rep.RunID = p.RunID
			p.Reports = append(p.Reports, *rep)
		}
		if err != nil {
			log.Errorf("Task %s failed: %v", task.ID, err)
			return fmt.Errorf("task %s: %w", task.ID, err)
		}
	}

	log.Infof("Pipeline finished successfully in %s.", time.Since(start))
	return nil
}

func (p *Pipeline) runTask(ctx context.Context, task Task, log *zap.SugaredLogger) (*Report, error) {
	var rep *Report
	var err error
	for attempt := 0; attempt <= p.Retries; attempt++ {
		if attempt > 0 {
			log.Warnf("Retrying task %s (attempt %d of %d) in %s: %v", task.ID, attempt+1, p.Retries+1, p.RetryDelay, err)
			if werr := sleep(ctx, p.RetryDelay); werr != nil {
				return rep, errors.Join(err, werr)
			}
		}
		rep, err = task.Run(ctx, log)
		if err == nil {
			if rep != nil {
				log.Infof("Task %s done: %d entities, %d failed", task.ID, len(rep.Outcomes), len(rep.Failed()))
			}
			return rep, nil
		}
	}
	return rep, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

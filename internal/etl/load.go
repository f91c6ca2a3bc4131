package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/BartekS5/sap-etl/internal/staging"
	"github.com/BartekS5/sap-etl/pkg/csvio"
	"github.com/BartekS5/sap-etl/pkg/logger"
	"go.uber.org/zap"
)

// TransformLoader reads the latest staged snapshot of every entity,
// cleans it and replaces the matching warehouse table.
type TransformLoader struct {
	Store       staging.Store
	Transformer *Transformer
	Loader      Loader
	Schema      string
	Entities    []string
	Now         func() time.Time
	DryRun      bool
	Log         *zap.SugaredLogger
}

func NewTransformLoader(store staging.Store, tr *Transformer, loader Loader, schema string) *TransformLoader {
	return &TransformLoader{
		Store:       store,
		Transformer: tr,
		Loader:      loader,
		Schema:      schema,
		Entities:    tr.Registry.Names(),
		Now:         time.Now,
	}
}

func (l *TransformLoader) log() *zap.SugaredLogger {
	if l.Log != nil {
		return l.Log
	}
	return logger.With()
}

// TransformAndLoadAll processes every entity in order. A failure for one
// entity is logged and recorded; the remaining entities still run.
func (l *TransformLoader) TransformAndLoadAll(ctx context.Context) Report {
	rep := Report{Phase: "transform_and_load", Started: l.Now()}
	for _, name := range l.Entities {
		if err := ctx.Err(); err != nil {
			rep.Outcomes = append(rep.Outcomes, Outcome{Entity: name, Err: err})
			continue
		}
		out := l.processOne(ctx, name)
		if out.Err != nil {
			l.log().Errorw("Error processing endpoint", "endpoint", name, "error", out.Err)
		}
		rep.Outcomes = append(rep.Outcomes, out)
	}
	rep.Finished = l.Now()
	return rep
}

func (l *TransformLoader) processOne(ctx context.Context, name string) Outcome {
	l.log().Infof("Processing endpoint: %s", name)
	object, err := staging.Latest(ctx, l.Store, name, l.Now())
	if err != nil {
		return Outcome{Entity: name, Err: err}
	}
	l.log().Infof("Latest object found: %s", object)

	data, err := l.Store.Get(ctx, object)
	if err != nil {
		return Outcome{Entity: name, Object: object, Err: err}
	}
	raw, err := csvio.Parse(data)
	if err != nil {
		return Outcome{Entity: name, Object: object, Err: fmt.Errorf("parse %s: %w", object, err)}
	}

	start := time.Now()
	cleaned, err := l.Transformer.Transform(name, raw)
	if err != nil {
		return Outcome{Entity: name, Object: object, Err: err}
	}
	l.log().Infof("%s transformation complete: %d rows x %d columns (%d raw rows) in %s",
		name, cleaned.Len(), len(cleaned.Columns), raw.Len(), time.Since(start))

	if l.DryRun {
		l.log().Infof("[DRY RUN] Would load %d records into %s.%s", cleaned.Len(), l.Schema, name)
		return Outcome{Entity: name, Object: object, Rows: cleaned.Len()}
	}
	if err := l.Loader.Replace(ctx, l.Schema, name, cleaned); err != nil {
		return Outcome{Entity: name, Object: object, Err: fmt.Errorf("load %s: %w", name, err)}
	}
	l.log().Infof("%s uploaded to warehouse.", name)
	return Outcome{Entity: name, Object: object, Rows: cleaned.Len()}
}

package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/BartekS5/sap-etl/internal/staging"
	"github.com/BartekS5/sap-etl/pkg/csvio"
	"github.com/BartekS5/sap-etl/pkg/logger"
	"github.com/BartekS5/sap-etl/pkg/models"
	"go.uber.org/zap"
)

// DefaultMaxPages stops a source that never returns an empty page.
const DefaultMaxPages = 10000

// Extractor pulls every page of each endpoint and stages it as CSV.
type Extractor struct {
	Source    Source
	Store     staging.Store
	Endpoints []string
	Now       func() time.Time
	MaxPages  int
	Log       *zap.SugaredLogger
}

func NewExtractor(src Source, store staging.Store, endpoints []string) *Extractor {
	return &Extractor{
		Source:    src,
		Store:     store,
		Endpoints: endpoints,
		Now:       time.Now,
		MaxPages:  DefaultMaxPages,
	}
}

func (e *Extractor) log() *zap.SugaredLogger {
	if e.Log != nil {
		return e.Log
	}
	return logger.With()
}

// Extract fetches pages 1, 2, ... of endpoint until one comes back empty
// and returns them as one table.
func (e *Extractor) Extract(ctx context.Context, endpoint string) (*models.Table, error) {
	all := models.NewTable()
	limit := e.MaxPages
	if limit <= 0 {
		limit = DefaultMaxPages
	}
	for page := 1; ; page++ {
		if page > limit {
			return nil, fmt.Errorf("endpoint %s: more than %d pages", endpoint, limit)
		}
		t, err := e.Source.FetchPage(ctx, endpoint, page)
		if err != nil {
			return nil, err
		}
		if t.Len() == 0 {
			e.log().Infof("No more data found for endpoint %q at page %d.", endpoint, page)
			break
		}
		all.Concat(t)
	}
	e.log().Infof("%d records collected from endpoint %q.", all.Len(), endpoint)
	return all, nil
}

// ExtractAll stages a snapshot of every endpoint. A failing endpoint is
// logged and recorded; the remaining endpoints still run.
func (e *Extractor) ExtractAll(ctx context.Context) Report {
	rep := Report{Phase: "extract", Started: e.Now()}
	for _, ep := range e.Endpoints {
		if err := ctx.Err(); err != nil {
			rep.Outcomes = append(rep.Outcomes, Outcome{Entity: ep, Err: err})
			continue
		}
		out := e.extractOne(ctx, ep)
		if out.Err != nil {
			e.log().Errorw("Error processing endpoint", "endpoint", ep, "error", out.Err)
		}
		rep.Outcomes = append(rep.Outcomes, out)
	}
	rep.Finished = e.Now()
	return rep
}

func (e *Extractor) extractOne(ctx context.Context, ep string) Outcome {
	e.log().Infof("Extracting data from endpoint: %s", ep)
	t, err := e.Extract(ctx, ep)
	if err != nil {
		return Outcome{Entity: ep, Err: err}
	}
	if t.Len() == 0 {
		e.log().Warnf("No data extracted for endpoint: %s", ep)
		return Outcome{Entity: ep, Skipped: true}
	}

	data, err := csvio.Encode(t)
	if err != nil {
		return Outcome{Entity: ep, Err: fmt.Errorf("encode csv: %w", err)}
	}
	name := staging.ObjectName(ep, e.Now())
	if err := e.Store.Put(ctx, name, data); err != nil {
		return Outcome{Entity: ep, Err: err}
	}
	e.log().Infof("File uploaded to staging at path: %s", name)
	return Outcome{Entity: ep, Rows: t.Len(), Object: name}
}

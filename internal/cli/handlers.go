package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BartekS5/sap-etl/internal/config"
	"github.com/BartekS5/sap-etl/internal/etl"
	"github.com/BartekS5/sap-etl/internal/staging"
	"github.com/BartekS5/sap-etl/internal/transform"
	"github.com/BartekS5/sap-etl/pkg/csvio"
	"github.com/BartekS5/sap-etl/pkg/database"
	"github.com/BartekS5/sap-etl/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
)

// app holds the connections one command opened.
type app struct {
	cfg    *config.Config
	dryRun bool

	store     staging.Store
	db        *sql.DB
	warehouse *etl.SQLWarehouse
	mongo     *mongo.Client
}

func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if opts.ConfigFile != "" {
		if err := config.LoadFile(cfg, opts.ConfigFile); err != nil {
			return nil, err
		}
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if err := logger.InitLogger(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	}); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, nil
}

// newApp loads the configuration and opens what the command needs. In
// dry-run mode staging is in memory and no warehouse connection is made.
func newApp(ctx context.Context, opts *Options, needStore, needWarehouse bool) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, dryRun: opts.DryRun}
	if a.dryRun {
		logger.Info("Dry run: staging in memory, warehouse writes skipped")
		a.store = staging.NewMemoryStore()
		return a, nil
	}
	validate := cfg.Validate
	if !needStore {
		validate = cfg.ValidateWarehouse
	}
	if err := validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if needStore {
		if err := a.openStore(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	if needWarehouse {
		d, err := database.DialectFor(cfg.Warehouse.Driver)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.db, err = database.ConnectSQL(d, cfg.Warehouse.DSN)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.warehouse = etl.NewSQLWarehouse(a.db, d)
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	s := a.cfg.Staging
	switch s.Backend {
	case config.StagingGridFS:
		client, err := database.ConnectMongo(s.MongoConnString)
		if err != nil {
			return err
		}
		a.mongo = client
		store, err := staging.NewGridFSStore(client, s.MongoDatabase, s.Bucket)
		if err != nil {
			return err
		}
		a.store = store
	default:
		store, err := staging.NewMinIOStore(ctx, staging.MinIOOptions{
			Endpoint:  s.MinIOEndpoint,
			AccessKey: s.MinIOAccessKey,
			SecretKey: s.MinIOSecretKey,
			UseSSL:    s.MinIOUseSSL,
			Bucket:    s.Bucket,
		})
		if err != nil {
			return err
		}
		a.store = store
	}
	return nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.mongo.Disconnect(ctx)
	}
}

func (a *app) extractor() *etl.Extractor {
	src := etl.NewHTTPSource(a.cfg.Source.BaseURL, a.cfg.Source.Timeout)
	return etl.NewExtractor(src, a.store, transform.Default().Names())
}

func (a *app) transformLoader() *etl.TransformLoader {
	var loader etl.Loader
	if a.warehouse != nil {
		loader = a.warehouse
	}
	tl := etl.NewTransformLoader(a.store, etl.NewTransformer(transform.Default()), loader, a.cfg.Warehouse.Schema)
	tl.DryRun = a.dryRun
	return tl
}

func summarize(rep etl.Report) error {
	for _, o := range rep.Outcomes {
		switch {
		case o.Err != nil:
			fmt.Printf("  %-22s FAILED  %v\n", o.Entity, o.Err)
		case o.Skipped:
			fmt.Printf("  %-22s skipped\n", o.Entity)
		default:
			fmt.Printf("  %-22s %6d rows  %s\n", o.Entity, o.Rows, o.Object)
		}
	}
	if failed := rep.Failed(); len(failed) > 0 {
		return fmt.Errorf("%s: %d of %d entities failed", rep.Phase, len(failed), len(rep.Outcomes))
	}
	return nil
}

func runExtract(ctx context.Context, opts *Options) error {
	a, err := newApp(ctx, opts, true, false)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Println("Starting extraction...")
	return summarize(a.extractor().ExtractAll(ctx))
}

func runTransformLoad(ctx context.Context, opts *Options) error {
	a, err := newApp(ctx, opts, true, true)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Println("Starting transform and load...")
	return summarize(a.transformLoader().TransformAndLoadAll(ctx))
}

func runCallProcedure(ctx context.Context, opts *Options, name string) error {
	a, err := newApp(ctx, opts, false, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if name == "" {
		name = a.cfg.Warehouse.Procedure
	}
	if a.dryRun {
		logger.Infof("[DRY RUN] Would call procedure %s", name)
		return nil
	}
	return a.warehouse.CallProcedure(ctx, name)
}

func runPipeline(ctx context.Context, opts *Options) error {
	a, err := newApp(ctx, opts, true, true)
	if err != nil {
		return err
	}
	defer a.Close()

	var proc etl.ProcedureRunner
	if a.warehouse != nil {
		proc = a.warehouse
	}
	tasks := etl.DefaultTasks(a.extractor(), a.transformLoader(), proc, a.cfg.Warehouse.Procedure, a.dryRun)
	p := etl.NewPipeline(a.cfg.Tasks.Retries, a.cfg.Tasks.RetryDelay, tasks...)
	p.DryRun = a.dryRun

	runErr := p.Run(ctx)
	for _, rep := range p.Reports {
		fmt.Printf("%s (run %s):\n", rep.Phase, rep.RunID)
		_ = summarize(rep)
	}
	return runErr
}

func runTransformFile(opts *Options, topts *TransformOptions) error {
	if _, err := loadConfig(opts); err != nil {
		return err
	}
	in, err := os.ReadFile(topts.In)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	raw, err := csvio.Parse(in)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", topts.In, err)
	}

	cleaned, err := etl.NewTransformer(transform.Default()).Transform(topts.Entity, raw)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if topts.Out != "-" && topts.Out != "" {
		f, err := os.Create(topts.Out)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := csvio.Write(w, cleaned); err != nil {
		return err
	}
	logger.Infof("%s: %d raw rows -> %d cleaned rows", topts.Entity, raw.Len(), cleaned.Len())
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/lestrrat-go/strftime"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/tradespace-search/core"
	"github.com/signalsfoundry/tradespace-search/internal/catalog"
	"github.com/signalsfoundry/tradespace-search/internal/config"
	"github.com/signalsfoundry/tradespace-search/internal/form"
	"github.com/signalsfoundry/tradespace-search/internal/logging"
	"github.com/signalsfoundry/tradespace-search/internal/observability"
	"github.com/signalsfoundry/tradespace-search/internal/rawdoc"
	"github.com/signalsfoundry/tradespace-search/internal/submit"
	"github.com/signalsfoundry/tradespace-search/kb"
	"github.com/signalsfoundry/tradespace-search/model"
)

const usage = `usage: tradespace [global flags] <command> [flags]

commands:
  catalog   list the satellite and instrument templates of the knowledge base
  build     assemble a request from a form file and print or save it
  submit    assemble a request from a form file and submit it
  raw       show and submit an already formed request document
  preview   propagate the design points of a form file

global flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "tradespace:", err)
		}
		os.Exit(1)
	}
}

type app struct {
	cfg     *config.Config
	log     logging.Logger
	metrics *observability.ClientCollector
	catalog *catalog.Client
	stdout  io.Writer
	now     func() time.Time
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	global := flag.NewFlagSet("tradespace", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() {
		fmt.Fprint(stderr, usage)
		global.PrintDefaults()
	}
	configPath := global.String("config", os.Getenv("TRADESPACE_CONFIG"), "Path to a YAML configuration file")
	logLevel := global.String("log-level", "", "Override the configured log level")
	pushGateway := global.String("pushgateway", "", "Prometheus push gateway URL; metrics are pushed when the command ends")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return flag.ErrHelp
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *pushGateway != "" {
		cfg.Metrics.PushGateway = *pushGateway
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: stderr})
	ctx = logging.ContextWithLogger(ctx, log)

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	metrics, err := observability.NewClientCollector(prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer func() {
		if pushErr := metrics.Push(ctx, cfg.Metrics.PushGateway, cfg.Metrics.Job); pushErr != nil {
			log.Warn(ctx, "metrics push failed", logging.Err(pushErr))
		}
	}()

	kbClient, err := catalog.NewClient(catalog.Options{
		BaseURL: cfg.Catalog.BaseURL,
		Token:   cfg.Catalog.Token,
		Timeout: cfg.CatalogTimeout(),
		Limit:   cfg.Catalog.Limit,
		Metrics: metrics,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	a := &app{cfg: cfg, log: log, metrics: metrics, catalog: kbClient, stdout: stdout, now: time.Now}

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "catalog":
		return a.runCatalog(ctx, rest, stderr)
	case "build":
		return a.runBuild(ctx, rest, stderr)
	case "submit":
		return a.runSubmit(ctx, rest, stderr)
	case "raw":
		return a.runRaw(ctx, rest, stderr)
	case "preview":
		return a.runPreview(ctx, rest, stderr)
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) runCatalog(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("catalog", flag.ContinueOnError)
	fs.SetOutput(stderr)
	sorted := fs.Bool("sort", false, "Sort options by name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store := kb.NewKnowledgeBase()
	if err := a.catalog.Populate(ctx, store); err != nil {
		a.log.Warn(ctx, "catalog incomplete", logging.Err(err))
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	for _, kind := range []kb.Kind{kb.KindSatellite, kb.KindInstrument} {
		opts := store.Options(kind)
		if *sorted {
			opts = store.Sorted(kind)
		}
		fmt.Fprintf(tw, "%s templates (%d)\n", kind, len(opts))
		fmt.Fprintf(tw, "  \t(default)\n")
		for _, o := range opts {
			fmt.Fprintf(tw, "  %s\t%s\n", o.ID, o.Label())
		}
	}
	return tw.Flush()
}

// loadForm builds the form and replays the values file onto it. Template
// selections are checked against the catalog options when they load.
func (a *app) loadForm(ctx context.Context, path string) (*form.Form, error) {
	if path == "" {
		return form.New(a.now(), nil, a.catalog), nil
	}
	store := kb.NewKnowledgeBase()
	if err := a.catalog.Populate(ctx, store); err != nil {
		a.log.Warn(ctx, "template selections not checked", logging.Err(err))
	}
	f := form.New(a.now(), store, a.catalog)
	values, err := form.LoadValues(path)
	if err != nil {
		return nil, err
	}
	if err := f.Apply(ctx, values); err != nil {
		return nil, err
	}
	return f, nil
}

func (a *app) assemble(ctx context.Context, path string) (*model.TradespaceSearch, error) {
	f, err := a.loadForm(ctx, path)
	if err != nil {
		return nil, err
	}
	doc, err := core.NewAssembler(a.catalog, a.log).Build(ctx, f.Input())
	if err != nil {
		return nil, err
	}
	a.metrics.SetVariants(len(doc.DesignSpace.Satellites))
	return doc, nil
}

func (a *app) runBuild(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(stderr)
	formPath := fs.String("form", "", "YAML file with form values")
	outDir := fs.String("out", "", "Directory to save the document in instead of printing it")
	name := fs.String("name", "tradespace-%y%m%d-%H%M%S%L.json", "strftime pattern for the saved file name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	search, err := a.assemble(ctx, *formPath)
	if err != nil {
		return err
	}
	doc, err := json.MarshalIndent(search, "", "  ")
	if err != nil {
		return err
	}
	if *outDir == "" {
		_, err = fmt.Fprintf(a.stdout, "%s\n", doc)
		return err
	}

	pattern, err := strftime.New(*name, strftime.WithMilliseconds('L'))
	if err != nil {
		return fmt.Errorf("file name pattern %q: %w", *name, err)
	}
	path := filepath.Join(*outDir, pattern.FormatString(a.now()))
	if err := os.WriteFile(path, append(doc, '\n'), 0o644); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	a.log.Info(ctx, "saved tradespace search", logging.String("path", path))
	_, err = fmt.Fprintln(a.stdout, path)
	return err
}

func (a *app) newSubmitter() (*submit.Submitter, error) {
	return submit.New(submit.Options{
		Endpoint:    a.cfg.Submit.Endpoint,
		ResultsPath: a.cfg.Submit.ResultsPath,
		Timeout:     a.cfg.SubmitTimeout(),
		Metrics:     a.metrics,
		Logger:      a.log,
	})
}

func (a *app) runSubmit(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	formPath := fs.String("form", "", "YAML file with form values")
	if err := fs.Parse(args); err != nil {
		return err
	}

	doc, err := a.assemble(ctx, *formPath)
	if err != nil {
		return err
	}
	s, err := a.newSubmitter()
	if err != nil {
		return err
	}
	res, err := s.Submit(ctx, doc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "results: %s\n", res.RedirectURL)
	return err
}

func (a *app) runRaw(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("raw", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "", "JSON request document to upload")
	dump := fs.Bool("dump", false, "Show the decoded document instead of the indented JSON")
	strict := fs.Bool("strict", false, "Refuse documents that fail schema validation")
	dryRun := fs.Bool("dry-run", false, "Show the document without submitting it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("raw: -file is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := rawdoc.Load(f)
	if err != nil {
		return err
	}
	if *dump {
		doc.Dump(a.stdout)
	} else if err := doc.Render(a.stdout); err != nil {
		return err
	}

	if err := doc.Validate(); err != nil {
		if *strict {
			return err
		}
		a.log.Warn(ctx, "document does not match the tradespace schema", logging.Err(err))
	}
	if *dryRun {
		return nil
	}

	s, err := a.newSubmitter()
	if err != nil {
		return err
	}
	res, err := s.SubmitRaw(ctx, doc.Raw)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "results: %s\n", res.RedirectURL)
	return err
}

func (a *app) runPreview(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	formPath := fs.String("form", "", "YAML file with form values")
	step := fs.Duration("step", time.Minute, "Sampling interval")
	window := fs.Duration("window", 24*time.Hour, "Longest propagated span")
	minElevation := fs.Float64("min-elevation", 10, "Ground station contact threshold in degrees")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := a.loadForm(ctx, *formPath)
	if err != nil {
		return err
	}
	results, err := core.Preview(ctx, f.Input(), core.PreviewOptions{
		Step:            *step,
		Window:          *window,
		MinElevationDeg: minElevation,
	}, a.log)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SATS\tPLANES\tALT (km)\tINC (deg)\tPERIOD (min)\tOVER TARGET\tGS CONTACT\tNOTE")
	for _, r := range results {
		if r.Skipped != "" {
			fmt.Fprintf(tw, "%d\t%d\t%.0f\t%.1f\t-\t-\t-\t%s\n",
				r.Point.Satellites, r.Point.Planes, r.Point.AltitudeKm, r.Point.InclinationDeg, r.Skipped)
			continue
		}
		fmt.Fprintf(tw, "%d\t%d\t%.0f\t%.1f\t%.1f\t%.1f%%\t%.1f%%\t\n",
			r.Point.Satellites, r.Point.Planes, r.Point.AltitudeKm, r.Point.InclinationDeg,
			r.Period.Minutes(), 100*r.TargetShare(), 100*r.ContactShare())
	}
	return tw.Flush()
}

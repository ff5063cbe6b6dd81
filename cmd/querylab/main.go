// Package main is the Query Lab CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/querylab/internal/cli"
	"github.com/hyperjump/querylab/internal/config"
	"github.com/hyperjump/querylab/internal/elastic"
	"github.com/hyperjump/querylab/internal/jsonv"
	"github.com/hyperjump/querylab/internal/keyword"
	"github.com/hyperjump/querylab/internal/labs"
	"github.com/hyperjump/querylab/internal/models"
	"github.com/hyperjump/querylab/internal/querydsl"
	"github.com/hyperjump/querylab/internal/search"
	"github.com/hyperjump/querylab/internal/server"
	"github.com/hyperjump/querylab/internal/storage"
	"github.com/hyperjump/querylab/internal/watcher"
	"github.com/hyperjump/querylab/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/querylab/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development), and falls back to the
// built-in defaults when the default file does not exist either.
// Returns the config and the path that was actually loaded; the path is empty
// when the defaults are used.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// command is one subcommand. It reads query text from stdin when no -query or
// -file flag is given, and writes its result to stdout.
type command func(args []string, stdin io.Reader, stdout io.Writer) error

var commands = map[string]command{
	"server":     runServer,
	"introspect": runIntrospect,
	"swap":       runSwap,
	"retarget":   runRetarget,
	"labs":       runLabs,
	"catalog":    runCatalog,
	"run":        runQuery,
	"validate":   runValidate,
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}
	name := os.Args[1]
	switch name {
	case "version", "--version", "-v":
		fmt.Printf("querylab version %s\n", version)
		return
	case "help", "--help", "-h":
		printUsage(os.Stdout)
		return
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Printf("Unknown command: %s\n", name)
		printUsage(os.Stdout)
		os.Exit(1)
	}
	if err := cmd(os.Args[2:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// argsReorder moves any flags (and their values) that appear after positional
// arguments to the front so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "querylab catalog phrase slop -limit 3"
// would otherwise leave -limit unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// queryInput holds the flags shared by commands that take query text.
type queryInput struct {
	query *string
	file  *string
}

func addQueryFlags(fs *flag.FlagSet) queryInput {
	return queryInput{
		query: fs.String("query", "", "query text"),
		file:  fs.String("file", "", `file holding the query text ("-" for stdin)`),
	}
}

// read returns the query text from -query, -file or stdin, in that order.
func (in queryInput) read(stdin io.Reader) (string, error) {
	var text string
	switch {
	case *in.query != "":
		text = *in.query
	case *in.file != "" && *in.file != "-":
		data, err := os.ReadFile(*in.file)
		if err != nil {
			return "", fmt.Errorf("failed to read query file: %w", err)
		}
		text = string(data)
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read query from stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("no query given; use -query, -file or stdin")
	}
	return text, nil
}

func (in queryInput) given() bool { return *in.query != "" || *in.file != "" }

func parseQuery(text string) (jsonv.Value, error) {
	q, err := jsonv.ParseString(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}
	return q, nil
}

// parseValue reads a replacement value: JSON when it parses, a plain string otherwise.
func parseValue(s string) jsonv.Value {
	if v, err := jsonv.ParseString(s); err == nil {
		return v
	}
	return jsonv.String(s)
}

// setup loads the config and a command logger for the one-shot commands.
func setup(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewCommandLogger(cfg.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

// loadRegistry returns the built-in labs overlaid with the labs directory.
func loadRegistry(cfg *config.Config, logger *zap.Logger) (*labs.Registry, error) {
	registry, err := labs.NewRegistry(labs.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to load labs: %w", err)
	}
	if _, err := registry.Load(cfg.Labs.Directory); err != nil {
		return nil, fmt.Errorf("failed to load labs: %w", err)
	}
	return registry, nil
}

// newClient returns the cluster client, or nil when no API key is configured.
func newClient(cfg *config.Config, logger *zap.Logger) (elastic.Client, error) {
	client, err := elastic.NewClient(elastic.Config{
		URL:     cfg.Elasticsearch.URL,
		APIKey:  cfg.Elasticsearch.APIKey,
		Timeout: cfg.Elasticsearch.Timeout,
	}, elastic.WithLogger(logger))
	if errors.Is(err, elastic.ErrNoAPIKey) {
		logger.Warn("no Elasticsearch API key configured; queries cannot be run",
			zap.String("env", config.EnvElasticsearchAPIKey))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

func runIntrospect(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("introspect", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for -lab)")
	in := addQueryFlags(fs)
	queryType := fs.String("type", "", "query type to assume instead of classifying")
	labID := fs.String("lab", "", "lab whose search fields are suggested for an unknown field")
	format := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(args)

	outFormat, err := cli.ParseFormat(*format)
	if err != nil {
		return err
	}
	text, err := in.read(stdin)
	if err != nil {
		return err
	}
	q, err := parseQuery(text)
	if err != nil {
		return err
	}
	report := querydsl.Inspect(q, querydsl.Type(*queryType))

	var suggestions []string
	if *labID != "" && report.HasField() {
		cfg, logger, err := setup(*configPath)
		if err != nil {
			return err
		}
		registry, err := loadRegistry(cfg, logger)
		if err != nil {
			return err
		}
		lab, ok := registry.Get(*labID)
		if !ok {
			return fmt.Errorf("unknown lab: %s", *labID)
		}
		suggestions = labs.SuggestFields(lab, report.Field)
	}
	return cli.WriteIntrospection(stdout, cli.NewIntrospection(report, suggestions), outFormat)
}

func runSwap(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("swap", flag.ExitOnError)
	in := addQueryFlags(fs)
	oldField := fs.String("old", "", "field to replace (default: the extracted field)")
	newField := fs.String("new", "", "field to search instead")
	newValue := fs.String("value", "", "new search value; JSON, or a plain string")
	queryType := fs.String("type", "", "query type to assume instead of classifying")
	format := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(args)

	outFormat, err := cli.ParseFormat(*format)
	if err != nil {
		return err
	}
	if *newField == "" || *newValue == "" {
		return errors.New("swap requires -new and -value")
	}
	text, err := in.read(stdin)
	if err != nil {
		return err
	}
	q, err := parseQuery(text)
	if err != nil {
		return err
	}
	t := querydsl.Type(*queryType)
	report := querydsl.Inspect(q, t)
	old := *oldField
	if old == "" {
		old = report.Field
	}
	out := querydsl.SwapField(q, old, *newField, parseValue(*newValue), t)
	rw := &cli.Rewrite{
		Query:   out,
		Changed: !jsonv.Equal(q, out),
		Type:    report.Type,
	}
	if rw.Changed {
		rw.OldField, rw.NewField = old, *newField
	}
	return cli.WriteRewrite(stdout, rw, outFormat)
}

func runRetarget(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("retarget", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	in := addQueryFlags(fs)
	labID := fs.String("lab", "", "lab id (default: the active lab)")
	dataset := fs.String("dataset", "", "dataset to retarget to: products, product_reviews or product_users")
	format := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(args)

	outFormat, err := cli.ParseFormat(*format)
	if err != nil {
		return err
	}
	to, err := models.ParseDataset(*dataset)
	if err != nil {
		return err
	}
	cfg, logger, err := setup(*configPath)
	if err != nil {
		return err
	}
	registry, err := loadRegistry(cfg, logger)
	if err != nil {
		return err
	}
	id := *labID
	if id == "" {
		id = cfg.Labs.Active
	}
	lab, ok := registry.Get(id)
	if !ok {
		return fmt.Errorf("unknown lab: %s", id)
	}
	text, err := in.read(stdin)
	if err != nil {
		return err
	}
	q, err := parseQuery(text)
	if err != nil {
		return err
	}
	res := labs.Retarget(lab, q, to)
	if !res.Changed {
		logger.Warn("query left unchanged",
			zap.String("lab", lab.ID), zap.String("field", res.OldField), zap.Strings("suggestions", res.Suggestions))
	}
	return cli.WriteRewrite(stdout, &cli.Rewrite{
		Query:       res.Query,
		Changed:     res.Changed,
		Type:        res.Type,
		OldField:    res.OldField,
		NewField:    res.NewField,
		Suggestions: res.Suggestions,
	}, outFormat)
}

func runLabs(args []string, _ io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("labs", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	format := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(args)

	outFormat, err := cli.ParseFormat(*format)
	if err != nil {
		return err
	}
	cfg, logger, err := setup(*configPath)
	if err != nil {
		return err
	}
	registry, err := loadRegistry(cfg, logger)
	if err != nil {
		return err
	}
	list := registry.List()
	summaries := make([]models.LabSummary, len(list))
	for i, lab := range list {
		summaries[i] = lab.Summary()
	}
	return cli.WriteLabs(stdout, summaries, cfg.Labs.Active, outFormat)
}

func runCatalog(args []string, _ io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("catalog", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 10, "number of results")
	labID := fs.String("lab", "", "only search the examples of this lab")
	fuzzy := fs.Bool("fuzzy", false, "enable fuzzy matching for typo tolerance")
	format := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(args))

	outFormat, err := cli.ParseFormat(*format)
	if err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		return errors.New("usage: querylab catalog [flags] <text>")
	}
	cfg, logger, err := setup(*configPath)
	if err != nil {
		return err
	}
	registry, err := loadRegistry(cfg, logger)
	if err != nil {
		return err
	}
	catalog, err := keyword.NewCatalog()
	if err != nil {
		return fmt.Errorf("failed to create catalog: %w", err)
	}
	defer catalog.Close()
	if err := catalog.IndexAll(registry.List()); err != nil {
		return fmt.Errorf("failed to index labs: %w", err)
	}
	hits, err := catalog.Search(context.Background(), text, *limit, &keyword.SearchOptions{
		LabID:      *labID,
		TitleBoost: 2,
		Fuzzy:      *fuzzy,
	})
	if err != nil {
		return fmt.Errorf("catalog search failed: %w", err)
	}
	res := &cli.CatalogResult{Query: text, Hits: hits}
	if len(hits) == 0 {
		if suggestion, ok := catalog.DidYouMean(text); ok {
			res.DidYouMean = suggestion
		}
	}
	return cli.WriteCatalog(stdout, res, outFormat)
}

// newEngine builds an engine for the one-shot commands that talk to the cluster.
func newEngine(configPath string) (*search.Engine, *config.Config, *labs.Registry, error) {
	cfg, logger, err := setup(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	registry, err := loadRegistry(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	client, err := newClient(cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	return search.NewEngine(registry, client, &cfg.Elasticsearch, search.WithLogger(logger)), cfg, registry, nil
}

func runQuery(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	in := addQueryFlags(fs)
	labID := fs.String("lab", "", "lab id (default: the active lab)")
	exampleID := fs.String("example", "", "run this example when no query is given")
	dataset := fs.String("dataset", "", "dataset to search (default: the example's, or the configured default index)")
	retarget := fs.Bool("retarget", false, "rewrite the query for -dataset before running it")
	size := fs.Int("size", 10, "number of hits to return (max 100)")
	format := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(args)

	outFormat, err := cli.ParseFormat(*format)
	if err != nil {
		return err
	}
	engine, cfg, registry, err := newEngine(*configPath)
	if err != nil {
		return err
	}
	req := &models.RunRequest{
		LabID:     *labID,
		ExampleID: *exampleID,
		Dataset:   models.Dataset(*dataset),
		Retarget:  *retarget,
		Size:      *size,
	}
	if req.LabID == "" {
		req.LabID = cfg.Labs.Active
	}
	if *exampleID != "" && !in.given() {
		lab, ok := registry.Get(req.LabID)
		if !ok {
			return fmt.Errorf("unknown lab: %s", req.LabID)
		}
		ex, ok := lab.Example(*exampleID)
		if !ok {
			return fmt.Errorf("unknown example: %s/%s", lab.ID, *exampleID)
		}
		if req.Query, err = labs.ExampleQuery(lab, ex, req.Dataset); err != nil {
			return err
		}
	} else if req.Query, err = in.read(stdin); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	result, err := engine.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return cli.WriteRunResult(stdout, result, outFormat)
}

func runValidate(args []string, _ io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	labID := fs.String("lab", "", "lab to validate (default: every Query DSL and ES|QL lab)")
	format := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(args)

	outFormat, err := cli.ParseFormat(*format)
	if err != nil {
		return err
	}
	engine, _, registry, err := newEngine(*configPath)
	if err != nil {
		return err
	}
	ids := []string{*labID}
	if *labID == "" {
		ids = ids[:0]
		for _, lab := range registry.List() {
			ids = append(ids, lab.ID)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	total := &models.ExampleReport{Results: []models.ExampleCheck{}}
	for _, id := range ids {
		report, err := engine.ValidateExamples(ctx, id)
		if err != nil {
			return fmt.Errorf("validation of %s failed: %w", id, err)
		}
		total.Total += report.Total
		total.Valid += report.Valid
		total.Invalid += report.Invalid
		total.Results = append(total.Results, report.Results...)
	}
	if err := cli.WriteExampleReport(stdout, total, outFormat); err != nil {
		return err
	}
	if total.Invalid > 0 {
		return fmt.Errorf("%d example(s) failed validation", total.Invalid)
	}
	return nil
}

// labReloader keeps the registry and the catalog in step with the labs directory.
type labReloader struct {
	registry *labs.Registry
	catalog  *keyword.Catalog
	logger   *zap.Logger
}

func (r *labReloader) onChange(path string) {
	prev, hadPrev := r.registry.SourceID(path)
	lab, err := r.registry.Reload(path)
	if err != nil {
		r.logger.Warn("lab reload failed", zap.String("path", path), zap.Error(err))
		return
	}
	if hadPrev && prev != lab.ID {
		r.refresh(prev)
	}
	if err := r.catalog.IndexLab(lab); err != nil {
		r.logger.Warn("catalog index failed", zap.String("lab", lab.ID), zap.Error(err))
	}
	r.logger.Info("lab reloaded", zap.String("id", lab.ID), zap.String("path", path))
}

func (r *labReloader) onRemove(path string) {
	id, ok := r.registry.Remove(path)
	if !ok {
		return
	}
	r.refresh(id)
	r.logger.Info("lab removed", zap.String("id", id), zap.String("path", path))
}

// refresh re-indexes id after it was dropped from a file: a restored built-in
// lab is indexed again, anything else leaves the catalog.
func (r *labReloader) refresh(id string) {
	var err error
	if lab, ok := r.registry.Get(id); ok {
		err = r.catalog.IndexLab(lab)
	} else {
		err = r.catalog.RemoveLab(id)
	}
	if err != nil {
		r.logger.Warn("catalog refresh failed", zap.String("lab", id), zap.Error(err))
	}
}

// Components holds initialized services.
type Components struct {
	Registry *labs.Registry
	Catalog  *keyword.Catalog
	Storage  storage.Storage
	Client   elastic.Client
	Engine   *search.Engine
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
}

// initializeComponents builds the server's services. Labs from the labs
// directory are left to the caller, which either loads them or lets the
// watcher sync them.
func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	registry, err := labs.NewRegistry(labs.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to load built-in labs: %w", err)
	}
	catalog, err := keyword.NewCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}
	if err := catalog.IndexAll(registry.List()); err != nil {
		_ = catalog.Close()
		return nil, fmt.Errorf("failed to index labs: %w", err)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		_ = catalog.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	client, err := newClient(cfg, logger)
	if err != nil {
		_ = catalog.Close()
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize elasticsearch client: %w", err)
	}
	engine := search.NewEngine(registry, client, &cfg.Elasticsearch, search.WithLogger(logger))
	return &Components{
		Registry: registry,
		Catalog:  catalog,
		Storage:  store,
		Client:   client,
		Engine:   engine,
	}, nil
}

func runServer(args []string, _ io.Reader, _ io.Writer) error {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (lab reloads, cluster requests, etc.)")
	_ = fs.Parse(args)

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("elasticsearch_url", cfg.Elasticsearch.URL),
		zap.Bool("has_apikey", cfg.Elasticsearch.HasAPIKey()),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	reloader := &labReloader{registry: components.Registry, catalog: components.Catalog, logger: logger}
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Labs.WatchOrDefault() {
		watchOpts := []watcher.WatcherOption{watcher.WithExtensions(labs.Extensions...)}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.NewWatcher(cfg.Labs.Directory, reloader.onChange, reloader.onRemove, watchOpts...)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
		watchSvc.SyncExistingFiles()
	} else {
		n, err := components.Registry.Load(cfg.Labs.Directory)
		if err != nil {
			logger.Fatal("Failed to load labs", zap.Error(err))
		}
		if err := components.Catalog.IndexAll(components.Registry.List()); err != nil {
			logger.Fatal("Failed to index labs", zap.Error(err))
		}
		logger.Info("labs loaded", zap.Int("from_directory", n), zap.Int("total", components.Registry.Len()))
	}

	srv := server.NewServer(
		components.Engine,
		components.Registry,
		components.Catalog,
		components.Storage,
		components.Client,
		cfg,
		logger,
	)
	go func() {
		if err := serveError(srv.Start()); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

// serveError reports what a returned server error means for runServer: a
// server closed by Stop has shut down cleanly.
func serveError(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `querylab - Elasticsearch query lab

Usage:
  querylab server [flags]            Start the HTTP server
  querylab introspect [flags]        Show the type and field of a query
  querylab swap [flags]              Replace the searched field and value of a query
  querylab retarget [flags]          Rewrite a lab query for another dataset
  querylab labs [flags]              List labs
  querylab catalog [flags] <text>    Search the lab examples
  querylab run [flags]               Run a lab query against Elasticsearch
  querylab validate [flags]          Check that lab examples return hits
  querylab version                   Show version
  querylab help                      Show this help

Query text is read from -query, from -file, or from stdin.

Common Flags:
  --config string    Config file path (default: /usr/local/etc/querylab/config.yaml, or ./config.yaml)
  --format string    Output format: text or json (default: text)

Server Flags:
  --debug            Enable debug logging

Introspect Flags:
  --type string      Query type to assume instead of classifying
  --lab string       Suggest the lab's search fields for an unknown field

Swap Flags:
  --old string       Field to replace (default: the extracted field)
  --new string       Field to search instead
  --value string     New search value; JSON, or a plain string
  --type string      Query type to assume instead of classifying

Retarget / Run Flags:
  --lab string       Lab id (default: the active lab)
  --dataset string   products, product_reviews or product_users
  --example string   (run) Run this example when no query is given
  --retarget         (run) Rewrite the query for --dataset before running it
  --size int         (run) Number of hits to return (default: 10)

Catalog Flags:
  --limit int        Number of results (default: 10)
  --lab string       Only search the examples of this lab
  --fuzzy            Enable fuzzy matching for typo tolerance

Environment:
  ELASTICSEARCH_URL      Cluster URL (default: http://localhost:9200)
  ELASTICSEARCH_APIKEY   API key; required to run queries and for the proxy

Examples:
  querylab server
  querylab introspect -query '{"query":{"match":{"review_text":"comfortable"}}}'
  querylab swap -new product_name -value wireless < query.json
  querylab retarget -lab match -dataset products -file query.json
  querylab catalog phrase slop -limit 3
  querylab run -lab match -example example_1 -format json
  querylab validate -lab bool`)
}

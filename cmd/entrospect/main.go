// Command entrospect evaluates candidate timing entropy sources and
// decides which are worth keeping.
//
// Usage:
//
//	entrospect [flags] <command> [args]
//
// Commands:
//
//	audit              evaluate all available probes together (default)
//	eval <source>      evaluate a single probe by name
//	sources            list available probes on this host
//	history <source>   show stored evaluations of a probe
//	show <id>          print a stored report by id
//
// Examples:
//
//	# Full audit with defaults
//	entrospect audit
//
//	# Quick look at one probe
//	entrospect -samples 20000 eval clock_jitter
//
//	# Persist results and inspect them later
//	entrospect -store audit
//	entrospect -store history clock_jitter
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"entrospect/internal/config"
	"entrospect/internal/engine"
	"entrospect/internal/logging"
	"entrospect/internal/metrics"
	"entrospect/internal/report"
	"entrospect/internal/source"
	"entrospect/internal/store"
)

var (
	// Version information (set at build time)
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "config file (toml, yaml, or json)")
	output := flag.String("output", "", "write the JSON report to this file instead of stdout")
	samples := flag.Int("samples", 0, "override full-scale sample count")
	workers := flag.Int("workers", 0, "override worker count for trials and pairs")
	useStore := flag.Bool("store", false, "persist results to the audit database")
	metricsPath := flag.String("metrics", "", "write metrics in Prometheus text format to this file on exit")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "", "log format: text, json")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall run timeout")
	versionFlag := flag.Bool("version", false, "print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "entrospect - entropy source quality auditor\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <command> [args]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  audit              evaluate all available probes together (default)\n")
		fmt.Fprintf(os.Stderr, "  eval <source>      evaluate a single probe by name\n")
		fmt.Fprintf(os.Stderr, "  sources            list available probes on this host\n")
		fmt.Fprintf(os.Stderr, "  history <source>   show stored evaluations of a probe\n")
		fmt.Fprintf(os.Stderr, "  show <id>          print a stored report by id\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("entrospect %s (commit: %s, built: %s)\n", version, commit, buildTime)
		os.Exit(0)
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if *samples > 0 {
		cfg.Engine.FullScaleSamples = *samples
	}
	if *workers > 0 {
		cfg.Engine.Workers = *workers
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}
	if *useStore {
		cfg.Storage.Enabled = true
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer logger.Close()
	logging.SetDefault(logger)

	em := metrics.NewEngineMetrics(metrics.Default())

	opts := engine.FromConfig(cfg)
	opts.Logger = logger
	opts.Metrics = em

	var db *store.Store
	if cfg.Storage.Enabled {
		db, err = store.Open(cfg.Storage.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := "audit"
	args := flag.Args()
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	var runErr error
	switch cmd {
	case "audit":
		runErr = runAudit(ctx, opts, db, *output)
	case "eval":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Error: eval requires a source name\n")
			os.Exit(2)
		}
		runErr = runEval(ctx, args[0], opts, db, *output)
	case "sources":
		runErr = runSources()
	case "history":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Error: history requires a source name\n")
			os.Exit(2)
		}
		runErr = runHistory(db, args[0])
	case "show":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Error: show requires a report id\n")
			os.Exit(2)
		}
		runErr = runShow(db, args[0], *output)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", cmd)
		flag.Usage()
		os.Exit(2)
	}

	if *metricsPath != "" {
		if err := writeMetrics(*metricsPath); err != nil {
			logger.Warn("metrics write failed", "error", err)
		}
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

func buildLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	return logging.New(&logging.Config{
		Level:     level,
		Format:    format,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		Component: "entrospect",
	})
}

func runAudit(ctx context.Context, opts engine.Options, db *store.Store, output string) error {
	sources := source.Standard()
	if len(sources) == 0 {
		return fmt.Errorf("no probes available on this host")
	}

	res := engine.AuditAll(ctx, sources, opts)
	if len(res.Reports) == 0 {
		return fmt.Errorf("every probe failed collection")
	}

	if db != nil {
		id, err := db.SaveAudit(res)
		if err != nil {
			return fmt.Errorf("save audit: %w", err)
		}
		logging.Info("audit stored", "audit_id", id)
	}

	data, err := report.MarshalAudit(&res)
	if err != nil {
		return err
	}
	return emit(data, output)
}

func runEval(ctx context.Context, name string, opts engine.Options, db *store.Store, output string) error {
	src, err := findSource(name)
	if err != nil {
		return err
	}

	rep, err := engine.Evaluate(ctx, src, opts)
	if err != nil {
		return err
	}

	if db != nil {
		id, err := db.SaveReport(&rep)
		if err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		logging.Info("report stored", "report_id", id)
	}

	data, err := report.Marshal(&rep)
	if err != nil {
		return err
	}
	return emit(data, output)
}

func runSources() error {
	for _, src := range source.Standard() {
		fmt.Println(src.Name())
	}
	return nil
}

func runHistory(db *store.Store, name string) error {
	if db == nil {
		return fmt.Errorf("history requires -store")
	}
	rows, err := db.History(name, 20)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Printf("no stored evaluations for %s\n", name)
		return nil
	}
	for _, r := range rows {
		fmt.Printf("%6d  %s  min_entropy=%.3f  %-6s  %s\n",
			r.ID, r.CollectedAt.Format(time.RFC3339), r.MinEntropy, r.Verdict, r.Reason)
	}
	return nil
}

func runShow(db *store.Store, idArg, output string) error {
	if db == nil {
		return fmt.Errorf("show requires -store")
	}
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid report id %q", idArg)
	}
	rep, err := db.GetReport(id)
	if err != nil {
		return err
	}
	data, err := report.Marshal(rep)
	if err != nil {
		return err
	}
	return emit(data, output)
}

func findSource(name string) (source.Source, error) {
	for _, src := range source.Standard() {
		if src.Name() == name {
			return src, nil
		}
	}
	return nil, fmt.Errorf("unknown source %q (run 'entrospect sources' to list)", name)
}

func emit(data []byte, output string) error {
	if output == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(output, append(data, '\n'), 0o644)
}

func writeMetrics(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return metrics.Default().WriteText(f)
}

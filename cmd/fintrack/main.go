package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/state"
)

const usage = `Usage: fintrack <command> [flags]

Commands:
  add          -kind -amount -category -date [-name]
  edit         -kind -id [-amount] [-category] [-date] [-name]
  delete       -kind -id
  list         [-filter all|today|week|month|year] [-from] [-to]
  summary      [-filter ...] [-from] [-to]
  categories   list [-kind] | add -kind -name | delete -kind -name
  export       [-filter ...] [-from] [-to] [-dry-run]
  serve        run the JSON API
  watch        [-export] log change events, optionally re-exporting
`

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fintrack:", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 || isHelp(os.Args[1]) {
		fmt.Fprint(os.Stderr, usage)
		if len(os.Args) < 2 {
			os.Exit(2)
		}
		return
	}

	logger := cli.SetupLogger(cfg, os.Stderr, cli.IsInteractive(os.Args[1]))
	ctx, stop := cli.SignalContext(context.Background())
	err = run(ctx, cfg, logger, os.Args[1], os.Args[2:])
	stop()

	switch {
	case err == nil || cli.IsCancelled(err):
	case errors.Is(err, cli.ErrUsage):
		fmt.Fprintf(os.Stderr, "fintrack: %v\n\n%s", err, usage)
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "fintrack: %v (%s)\n", err, core.ReasonOf(err))
		os.Exit(1)
	}
}

func isHelp(arg string) bool {
	switch arg {
	case "help", "-h", "-help", "--help":
		return true
	}
	return false
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger, command string, args []string) error {
	if command != "serve" && command != "watch" && command != "export" && !isDataCommand(command) {
		return fmt.Errorf("%w: unknown command %q", cli.ErrUsage, command)
	}

	m := metrics.New()
	store, closeStore := cli.InitStorage(ctx, logger, cfg.DBPath)
	defer closeStore()

	publisher, closePublisher := openPublisher(ctx, cfg, logger)
	defer closePublisher()

	svc := services.NewFinanceService(store, publisher, m)
	holder := state.NewHolder(svc)
	if err := holder.Load(ctx); err != nil {
		logger.WarnContext(ctx, "Initial snapshot failed", applog.NewFields().WithError(err).ToSlice()...)
	}

	app := cli.NewApp(holder, os.Stdout, os.Stderr)
	switch command {
	case "serve":
		return serve(ctx, cfg, logger, holder, svc, m)
	case "watch":
		return watch(ctx, cfg, logger, holder, args)
	case "export":
		return app.Export(ctx, openExporter(cfg), args)
	}
	return app.Run(ctx, command, args)
}

func isDataCommand(command string) bool {
	for _, c := range cli.DataCommands {
		if c == command {
			return true
		}
	}
	return false
}

// openPublisher returns nil when AMQP is not configured or unreachable, so
// the facade skips change events.
func openPublisher(ctx context.Context, cfg *config.Config, logger *applog.Logger) (services.EventPublisher, func()) {
	if !cfg.AMQPEnabled() {
		logger.DebugContext(ctx, "AMQP disabled, change events will not be published")
		return nil, func() {}
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change events", applog.FieldError, err)
		return nil, func() {}
	}
	return client, func() { _ = client.Close() }
}

func openExporter(cfg *config.Config) cli.ExporterFactory {
	return func(ctx context.Context) (sheets.SnapshotExporter, error) {
		if !cfg.ExportEnabled() {
			return nil, errors.New("GOOGLE_SPREADSHEET_ID is not set")
		}
		exporter, err := gsheet.NewExporter(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			OperationsSheet: cfg.GoogleOperationsSheet,
			SummarySheet:    cfg.GoogleSummarySheet,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, err
		}
		return exporter, nil
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *applog.Logger, holder *state.Holder, svc *services.FinanceService, m *metrics.Metrics) error {
	srv := apphttp.NewServer(holder, svc, apphttp.Options{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
		Metrics:            m,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "Starting fintrack server", "port", cfg.Port, "db_ready", svc.Ready(gctx) == nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(ctx, "Shutting down server", "timeout", cfg.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.InfoContext(ctx, "Server stopped gracefully")
		return nil
	})
	return g.Wait()
}

func watch(ctx context.Context, cfg *config.Config, logger *applog.Logger, holder *state.Holder, args []string) error {
	var export bool
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.BoolVar(&export, "export", false, "re-export the spreadsheet after every change")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", cli.ErrUsage, err)
	}
	if !cfg.AMQPEnabled() {
		return errors.New("AMQP_URL is not set")
	}

	var exporter sheets.SnapshotExporter
	if export {
		e, err := openExporter(cfg)(ctx)
		if err != nil {
			return fmt.Errorf("open exporter: %w", err)
		}
		exporter = e
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("amqp: %w", err)
	}
	defer client.Close()

	handler := cli.NewChangeHandler(holder, exporter, logger)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "Watching change events",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue,
			"export", export)
		return client.ConsumeChanges(gctx, handler)
	})
	return g.Wait()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/whhaicheng/FFT-BenchMind/internal/app/usecase"
	"github.com/whhaicheng/FFT-BenchMind/internal/backend"
	"github.com/whhaicheng/FFT-BenchMind/internal/backend/algofft"
	"github.com/whhaicheng/FFT-BenchMind/internal/backend/gonum"
	"github.com/whhaicheng/FFT-BenchMind/internal/backend/mock"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/config"
	domainreport "github.com/whhaicheng/FFT-BenchMind/internal/domain/report"
	"github.com/whhaicheng/FFT-BenchMind/internal/infra/database"
	"github.com/whhaicheng/FFT-BenchMind/internal/infra/database/repository"
	"github.com/whhaicheng/FFT-BenchMind/internal/infra/metrics"
	"github.com/whhaicheng/FFT-BenchMind/internal/infra/report"
	"github.com/whhaicheng/FFT-BenchMind/internal/infra/settings"
)

var runCmd = newRunCommand()

// newRunCommand builds the run command with its flag set.
func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark sweep",
		Long: `Runs every configuration of the sweep on the selected backend and
device, writing results to the CSV file after every dump-frequency
configurations and once more, sorted, at the end.`,
		RunE: runBenchmark,
	}

	f := cmd.Flags()
	f.String("backend", "", "backend library (gonum, algofft)")
	f.String("device", "", `device selector: "platform:device" or cpu, gpu, acc`)
	f.Int("sub-device", 0, "partition the CPU device into a sub-device of N cores")
	f.StringSlice("precision", nil, "precisions: float, double, half")
	f.StringSlice("layout", nil, "layouts: complex, real")
	f.StringSlice("placement", nil, "placements: inplace, outplace")
	f.StringArray("extent", nil, `extents, e.g. 1024 or 32x32 (repeatable)`)
	f.Int("warmups", 0, "warmup runs per configuration")
	f.Int("warm-runs", 0, "measured runs per configuration")
	f.Float64("error-bound", 0, "maximum round-trip deviation")
	f.Bool("no-roundtrip", false, "skip the inverse transform and deviation check")
	f.Int("dump-frequency", 0, "configurations between result file rewrites")
	f.Int64("seed", 0, "input data seed")
	f.StringP("output", "o", "", "CSV result file")
	f.String("tag", "", "label written to the result preamble")
	f.String("summary", "", "write a summary report (.md or .json)")
	f.BoolP("verbose", "v", false, "print every finished configuration")
	f.String("db-driver", "", "store results in a database: sqlite, postgres, mysql, sqlserver")
	f.String("db-dsn", "", "database data source name (sqlite: file path)")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")
	f.StringSlice("inject-failure", nil, `fail a backend step, e.g. "execute_forward@3" (testing)`)
	return cmd
}

// applyRunFlags overrides cfg with every flag set on the command line.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error
	set := func(name string, apply func()) {
		if err == nil && f.Changed(name) {
			apply()
		}
	}

	set("backend", func() { cfg.Device.Backend, err = f.GetString("backend") })
	set("device", func() { cfg.Device.Selector, err = f.GetString("device") })
	set("sub-device", func() { cfg.Device.SubDeviceCores, err = f.GetInt("sub-device") })
	set("precision", func() { cfg.Sweep.Precisions, err = f.GetStringSlice("precision") })
	set("layout", func() { cfg.Sweep.Layouts, err = f.GetStringSlice("layout") })
	set("placement", func() { cfg.Sweep.Placements, err = f.GetStringSlice("placement") })
	set("extent", func() { cfg.Sweep.Extents, err = f.GetStringArray("extent") })
	set("warmups", func() { cfg.Benchmark.Warmups, err = f.GetInt("warmups") })
	set("warm-runs", func() { cfg.Benchmark.WarmRuns, err = f.GetInt("warm-runs") })
	set("error-bound", func() { cfg.Benchmark.ErrorBound, err = f.GetFloat64("error-bound") })
	set("no-roundtrip", func() {
		var off bool
		off, err = f.GetBool("no-roundtrip")
		cfg.Benchmark.RoundTrip = !off
	})
	set("dump-frequency", func() { cfg.Benchmark.DumpFrequency, err = f.GetInt("dump-frequency") })
	set("seed", func() { cfg.Benchmark.Seed, err = f.GetInt64("seed") })
	set("output", func() { cfg.Output.Path, err = f.GetString("output") })
	set("tag", func() { cfg.Output.Tag, err = f.GetString("tag") })
	set("summary", func() { cfg.Output.SummaryPath, err = f.GetString("summary") })
	set("verbose", func() { cfg.Output.Verbose, err = f.GetBool("verbose") })
	set("db-driver", func() {
		cfg.Database.Driver, err = f.GetString("db-driver")
		cfg.Database.Enabled = true
	})
	set("db-dsn", func() { cfg.Database.DSN, err = f.GetString("db-dsn") })
	set("metrics-addr", func() { cfg.Advanced.MetricsAddr, err = f.GetString("metrics-addr") })
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	return nil
}

func newRegistry() *backend.Registry {
	return backend.NewRegistry(gonum.New(), algofft.New())
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}

	b, err := newRegistry().Get(cfg.Device.Backend)
	if err != nil {
		return err
	}
	faults, _ := cmd.Flags().GetStringSlice("inject-failure")
	if len(faults) > 0 {
		var opts []mock.Option
		for _, s := range faults {
			fault, err := mock.ParseFault(s)
			if err != nil {
				return err
			}
			opts = append(opts, mock.WithFault(fault))
		}
		b = mock.Wrap(b, opts...)
		slog.Warn("Benchmark: Failure injection enabled", "faults", faults)
	}

	sel, err := backend.ParseSelector(cfg.Device.Selector)
	if err != nil {
		return err
	}
	cfgs, err := cfg.Sweep.Configurations()
	if err != nil {
		return err
	}

	sinks := []usecase.ResultSink{report.NewCSVWriter(cfg.Output.Path)}
	if cfg.Database.Enabled {
		db, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("open result database: %w", err)
		}
		defer db.Close()
		sinks = append(sinks, usecase.NewRepositorySink(repository.NewResultRepository(db)))
	}
	if cfg.Output.SummaryPath != "" {
		rc := domainreport.DefaultConfig(domainreport.FormatForPath(cfg.Output.SummaryPath))
		rc.OutputPath = cfg.Output.SummaryPath
		sinks = append(sinks, usecase.NewSummarySink(newReportUseCase(nil), rc))
	}

	var observers []usecase.Observer
	if cfg.Advanced.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		observers = append(observers, metrics.NewObserver(reg))
		srv := serveMetrics(cfg.Advanced.MetricsAddr, reg)
		defer shutdownServer(srv)
	}
	if cfg.Output.Verbose {
		observers = append(observers, newConsoleObserver(os.Stdout))
	}

	driver, err := usecase.NewBenchmarkDriver(b, usecase.DriverOptions{
		Protocol:      cfg.Benchmark.Protocol(),
		DumpFrequency: cfg.Benchmark.DumpFrequency,
		Seed:          cfg.Benchmark.Seed,
		ContextOptions: backend.ContextOptions{
			Selector:       sel,
			SubDeviceCores: cfg.Device.SubDeviceCores,
		},
		Tag:       cfg.Output.Tag,
		Version:   Version,
		Sinks:     sinks,
		Observers: observers,
	})
	if err != nil {
		return err
	}

	slog.Info("Benchmark: Sweep started",
		"backend", b.Info().Name,
		"device", cfg.Device.Selector,
		"configurations", len(cfgs),
		"output", cfg.Output.Path)

	if err := driver.Open(); err != nil {
		return err
	}
	sweepErr := driver.Sweep(ctx, cfgs)
	closeErr := driver.Close()

	if errors.Is(sweepErr, context.Canceled) {
		slog.Warn("Benchmark: Sweep interrupted", "records", driver.Store().Len())
	}
	if err := errors.Join(sweepErr, closeErr); err != nil {
		return err
	}

	fmt.Printf("Results written to %s (sweep %s)\n", cfg.Output.Path, driver.SweepID())
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics: Server failed", "addr", addr, "error", err)
		}
	}()
	slog.Info("Metrics: Serving", "addr", addr)
	return srv
}

func shutdownServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := settings.NewFileRepository(configPath).GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", configPath, err)
	}
	return cfg, nil
}

func newReportUseCase(repo usecase.ResultRepository) *usecase.ReportUseCase {
	return usecase.NewReportUseCase(repo, report.NewMarkdownGenerator(), report.NewJSONGenerator())
}

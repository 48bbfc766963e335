package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/whhaicheng/FFT-BenchMind/internal/app/usecase"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/config"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/execution"
	domainreport "github.com/whhaicheng/FFT-BenchMind/internal/domain/report"
	"github.com/whhaicheng/FFT-BenchMind/internal/infra/database"
	"github.com/whhaicheng/FFT-BenchMind/internal/infra/database/repository"
	"github.com/whhaicheng/FFT-BenchMind/internal/infra/settings"
)

var (
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("FFT-BenchMind v%s\n", Version)
			reg := newRegistry()
			for _, name := range reg.Names() {
				b, _ := reg.Get(name)
				info := b.Info()
				fmt.Printf("  %-8s %s %s\n", name, info.Title, info.Version)
			}
		},
	}

	devicesCmd = &cobra.Command{
		Use:   "devices",
		Short: "List the devices of every backend",
		RunE:  listDevices,
	}

	reportCmd = &cobra.Command{
		Use:   "report <sweep-id>",
		Short: "Generate a summary report of a stored sweep",
		Args:  cobra.ExactArgs(1),
		RunE:  generateReport,
	}

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List stored sweeps or compare two of them",
		RunE:  listHistory,
	}

	compareCmd = &cobra.Command{
		Use:   "compare <baseline-id> <candidate-id>",
		Short: "Compare the mean FFT time of two stored sweeps",
		Args:  cobra.ExactArgs(2),
		RunE:  compareSweeps,
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := settings.NewFileRepository(configPath)
			if _, err := os.Stat(repo.GetConfigPath()); err == nil {
				force, _ := cmd.Flags().GetBool("force")
				if !force {
					return fmt.Errorf("%s exists, use --force to overwrite", repo.GetConfigPath())
				}
			}
			uc := usecase.NewSettingsUseCase(repo)
			if err := uc.ResetSettings(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", repo.GetConfigPath())
			return nil
		},
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			printConfig(os.Stdout, cfg)
			return nil
		},
	}
)

func init() {
	reportCmd.Flags().StringP("output", "o", "", "report file (.md or .json); stdout when empty")
	reportCmd.Flags().String("format", "", "report format: markdown, json (default from file extension)")
	reportCmd.Flags().String("dir", "", "write the report into this directory under a dated name")
	reportCmd.Flags().Bool("no-charts", false, "omit text charts")

	historyCmd.PersistentFlags().Int("limit", 20, "number of sweeps to list")
	historyCmd.AddCommand(compareCmd)

	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
}

func listDevices(cmd *cobra.Command, args []string) error {
	reg := newRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tSELECTOR\tNAME\tCLASS\tUNITS\tMEMORY")
	for _, name := range reg.Names() {
		b, err := reg.Get(name)
		if err != nil {
			return err
		}
		devices, err := b.Devices()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		for _, d := range devices {
			fmt.Fprintf(w, "%s\t%d:%d\t%s\t%s\t%d\t%d MiB\n",
				name, d.Platform, d.ID, d.Name, d.Class, d.ComputeUnits, d.GlobalMemory>>20)
		}
	}
	return w.Flush()
}

// openResultRepository opens the configured result database.
func openResultRepository(ctx context.Context) (*repository.ResultRepository, func(), error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open result database: %w", err)
	}
	return repository.NewResultRepository(db), func() { db.Close() }, nil
}

func generateReport(cmd *cobra.Command, args []string) error {
	repo, closeDB, err := openResultRepository(cmd.Context())
	if err != nil {
		return err
	}
	defer closeDB()

	output, _ := cmd.Flags().GetString("output")
	formatName, _ := cmd.Flags().GetString("format")
	noCharts, _ := cmd.Flags().GetBool("no-charts")

	format := domainreport.FormatForPath(output)
	if formatName != "" {
		format = domainreport.ReportFormat(strings.ToLower(formatName))
	}
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" && output == "" {
		output = usecase.DefaultReportPath(dir, args[0], format)
	}
	rc := domainreport.DefaultConfig(format)
	rc.IncludeCharts = !noCharts
	rc.OutputPath = output

	rpt, err := newReportUseCase(repo).GenerateReport(cmd.Context(), args[0], rc)
	if err != nil {
		return err
	}
	if output == "" {
		_, err := os.Stdout.Write(rpt.Content)
		return err
	}
	fmt.Printf("Report written to %s\n", rpt.FilePath)
	return nil
}

func listHistory(cmd *cobra.Command, args []string) error {
	repo, closeDB, err := openResultRepository(cmd.Context())
	if err != nil {
		return err
	}
	defer closeDB()

	limit, _ := cmd.Flags().GetInt("limit")
	sweeps, err := usecase.NewHistoryUseCase(repo).ListSweeps(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(sweeps) == 0 {
		fmt.Println("No sweeps found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SWEEP\tSTARTED\tLIBRARY\tHOST\tTAG")
	for _, s := range sweeps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.SweepID, domainreport.GetTimestamp(s.StartedAt), s.Library, s.Hostname, s.Tag)
	}
	return w.Flush()
}

func compareSweeps(cmd *cobra.Command, args []string) error {
	repo, closeDB, err := openResultRepository(cmd.Context())
	if err != nil {
		return err
	}
	defer closeDB()

	rows, err := usecase.NewHistoryUseCase(repo).CompareSweeps(cmd.Context(), args[0], args[1], execution.MetricFFT)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No common configurations.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONFIGURATION\tBASELINE [ms]\tCANDIDATE [ms]\tSPEEDUP")
	for _, r := range rows {
		speedup := "N/A"
		if r.Speedup > 0 {
			speedup = fmt.Sprintf("%.2fx", r.Speedup)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.Config, r.Baseline.FormatMeanStdDev(), r.Candidate.FormatMeanStdDev(), speedup)
	}
	return w.Flush()
}

func printConfig(out io.Writer, cfg *config.Config) {
	fmt.Fprintf(out, "backend:      %s (device %s)\n", cfg.Device.Backend, cfg.Device.Selector)
	fmt.Fprintf(out, "protocol:     %d warmups, %d measured runs, bound %g, round trip %t\n",
		cfg.Benchmark.Warmups, cfg.Benchmark.WarmRuns, cfg.Benchmark.ErrorBound, cfg.Benchmark.RoundTrip)
	fmt.Fprintf(out, "precisions:   %s\n", strings.Join(cfg.Sweep.Precisions, ", "))
	fmt.Fprintf(out, "layouts:      %s\n", strings.Join(cfg.Sweep.Layouts, ", "))
	fmt.Fprintf(out, "placements:   %s\n", strings.Join(cfg.Sweep.Placements, ", "))
	fmt.Fprintf(out, "extents:      %s\n", strings.Join(cfg.Sweep.Extents, ", "))
	fmt.Fprintf(out, "output:       %s\n", cfg.Output.Path)
	if cfg.Database.Enabled {
		fmt.Fprintf(out, "database:     %s\n", cfg.Database.Driver)
	}
}

// consoleObserver prints one line per finished configuration.
type consoleObserver struct {
	mu  sync.Mutex
	out io.Writer
}

func newConsoleObserver(out io.Writer) *consoleObserver {
	return &consoleObserver{out: out}
}

func (o *consoleObserver) RecordDone(rec *execution.ResultRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := domainreport.Summarize(rec)
	switch {
	case s.Failed():
		fmt.Fprintf(o.out, "[%3d] %-32s FAILED run %d: %s\n", rec.ID, s.Config, rec.ErrorRun, rec.Error)
	default:
		fft, _ := s.Stat(execution.MetricFFT)
		total, _ := s.Stat(execution.MetricTotal)
		line := fmt.Sprintf("[%3d] %-32s fft %s ms  total %s ms", rec.ID, s.Config, fft.FormatMeanStdDev(), total.FormatMeanStdDev())
		if s.RoundTrip {
			line += fmt.Sprintf("  dev %.3e", s.Deviation)
		}
		if s.Validation != "" {
			line += "  INVALID"
		}
		fmt.Fprintln(o.out, line)
	}
}

func (o *consoleObserver) SnapshotWritten(records int, final bool, err error) {
	if final {
		o.mu.Lock()
		defer o.mu.Unlock()
		fmt.Fprintf(o.out, "%s: %d configurations written\n", time.Now().Format(time.TimeOnly), records)
	}
}

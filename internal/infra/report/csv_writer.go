package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/whhaicheng/FFT-BenchMind/internal/app/usecase"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/execution"
)

// csvPrecision is the number of significant digits of numeric values.
const csvPrecision = 11

// csvFixedColumns precede the metric columns in every row.
var csvFixedColumns = []string{
	"library", "inplace", "complex", "precision", "dim", "kind",
	"nx", "ny", "nz", "run", "id", "success",
}

// CSVColumns returns the full header of the result table.
func CSVColumns() []string {
	return append(append([]string{}, csvFixedColumns...), execution.MetricNames()...)
}

// CSVWriter is the tabular result sink. Each snapshot rewrites the file
// through a temporary file and rename, so readers never observe a
// partially written table.
type CSVWriter struct {
	mu     sync.Mutex
	path   string
	closed bool
}

// NewCSVWriter creates a sink writing to path. The parent directory is
// created on first write.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Path returns the output file.
func (w *CSVWriter) Path() string {
	return w.path
}

// Write rewrites the result file with every record of snap.
func (w *CSVWriter) Write(_ context.Context, snap usecase.Snapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("csv writer %s: closed", w.path)
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := WriteCSV(bw, snap); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("rename result file: %w", err)
	}
	return nil
}

// Close marks the sink closed. The file is complete after the last Write.
func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// WriteCSV writes the preamble, header and one row per run of every
// record. String fields are always quoted, numbers never.
func WriteCSV(out io.Writer, snap usecase.Snapshot) error {
	ew := &errWriter{w: out}

	ew.line("; " + preamble(snap.Meta))
	ew.line(fmt.Sprintf("; %s,%s", quote("Time_ContextCreate [ms]"), formatNumber(snap.Meta.ContextCreateMs)))
	ew.line(fmt.Sprintf("; %s,%s", quote("Time_ContextDestroy [ms]"), formatNumber(snap.Meta.ContextDestroyMs)))

	header := CSVColumns()
	for i := range header {
		header[i] = quote(header[i])
	}
	ew.line(strings.Join(header, ","))

	for _, rec := range snap.Records {
		for run := range rec.Runs {
			ew.line(row(rec, run))
		}
	}
	return ew.err
}

func preamble(m usecase.RunMetadata) string {
	fields := []string{
		quote(m.DeviceProperties),
		quote("NumberWarmups"), strconv.Itoa(m.Protocol.Warmups),
		quote("NumberWarmRuns"), strconv.Itoa(m.Protocol.WarmRuns),
		quote("NumberTotalRuns"), strconv.Itoa(m.Protocol.Runs()),
		quote("ErrorBound"), formatNumber(m.Protocol.ErrorBound),
		quote("CurrentTime"), strconv.FormatInt(m.StartedAt.Unix(), 10),
		quote("CurrentTimeLocal"), quote(m.StartedAt.Format("Mon Jan _2 15:04:05 2006")),
		quote("Hostname"), quote(m.Hostname),
		quote("fft-benchmind"), quote(m.Version),
		quote("tag"), quote(m.Tag),
	}
	return strings.Join(fields, ",")
}

func row(rec *execution.ResultRecord, run int) string {
	cfg := rec.Config
	ext := cfg.Extent()

	inplace := "Outplace"
	if cfg.Placement.IsInplace() {
		inplace = "Inplace"
	}
	layout := "Real"
	if cfg.Layout.IsComplex() {
		layout = "Complex"
	}

	fields := make([]string, 0, len(csvFixedColumns)+execution.NumMetrics)
	fields = append(fields,
		quote(rec.Library),
		quote(inplace),
		quote(layout),
		quote(cfg.Precision.String()),
		strconv.Itoa(ext.Dims()),
		quote(ext.Kind()),
		strconv.Itoa(ext.At(0)),
		strconv.Itoa(ext.At(1)),
		strconv.Itoa(ext.At(2)),
		strconv.Itoa(run),
		strconv.Itoa(rec.ID),
		quote(rec.StatusLabel(run)),
	)
	for _, v := range rec.Runs[run].Values {
		fields = append(fields, formatNumber(v))
	}
	return strings.Join(fields, ",")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', csvPrecision, 64)
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) line(s string) {
	if e.err != nil {
		return
	}
	if _, err := io.WriteString(e.w, s+"\n"); err != nil {
		e.err = fmt.Errorf("write result table: %w", err)
	}
}

// Ensure CSVWriter implements the sink interface.
var _ usecase.ResultSink = (*CSVWriter)(nil)

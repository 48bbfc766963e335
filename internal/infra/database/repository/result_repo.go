// Package repository provides SQL implementations of the usecase
// repositories.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/whhaicheng/FFT-BenchMind/internal/app/usecase"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/execution"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/fft"
	"github.com/whhaicheng/FFT-BenchMind/internal/infra/database"
)

// ResultRepository implements usecase.ResultRepository on any supported
// SQL dialect.
type ResultRepository struct {
	db *database.DB
}

// NewResultRepository creates a new result repository.
func NewResultRepository(db *database.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) q(query string) string {
	return r.db.Dialect.Rebind(query)
}

// =============================================================================
// Sweeps
// =============================================================================

const sweepColumns = `sweep_id, library, device_properties, warmups, warm_runs, error_bound,
	round_trip, started_at, hostname, version, tag, context_create_ms, context_destroy_ms`

// SaveSweep inserts or updates sweep metadata.
func (r *ResultRepository) SaveSweep(ctx context.Context, meta usecase.RunMetadata) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, r.q(`SELECT COUNT(*) FROM sweeps WHERE sweep_id = ?`), meta.SweepID).Scan(&count); err != nil {
		return fmt.Errorf("check sweep: %w", err)
	}

	p := meta.Protocol
	if count == 0 {
		_, err = tx.ExecContext(ctx, r.q(`
			INSERT INTO sweeps (`+sweepColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			meta.SweepID, meta.Library, meta.DeviceProperties, p.Warmups, p.WarmRuns, p.ErrorBound,
			boolToInt(p.RoundTrip), formatTime(meta.StartedAt), meta.Hostname, meta.Version, meta.Tag,
			meta.ContextCreateMs, meta.ContextDestroyMs,
		)
	} else {
		_, err = tx.ExecContext(ctx, r.q(`
			UPDATE sweeps SET device_properties = ?, context_create_ms = ?, context_destroy_ms = ?
			WHERE sweep_id = ?`),
			meta.DeviceProperties, meta.ContextCreateMs, meta.ContextDestroyMs, meta.SweepID,
		)
	}
	if err != nil {
		return fmt.Errorf("save sweep: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// FindSweep returns sweep metadata.
func (r *ResultRepository) FindSweep(ctx context.Context, sweepID string) (*usecase.RunMetadata, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+sweepColumns+` FROM sweeps WHERE sweep_id = ?`), sweepID)
	meta, err := scanSweep(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, usecase.ErrSweepNotFound
		}
		return nil, err
	}
	return meta, nil
}

// ListSweeps returns sweeps newest first. A non-positive limit returns all.
func (r *ResultRepository) ListSweeps(ctx context.Context, limit int) ([]usecase.RunMetadata, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sweepColumns+` FROM sweeps ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sweeps: %w", err)
	}
	defer rows.Close()

	var out []usecase.RunMetadata
	for rows.Next() {
		if limit > 0 && len(out) == limit {
			break
		}
		meta, err := scanSweep(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweeps: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSweep(s scanner) (*usecase.RunMetadata, error) {
	var meta usecase.RunMetadata
	var roundTrip int
	var startedAt string
	err := s.Scan(
		&meta.SweepID, &meta.Library, &meta.DeviceProperties,
		&meta.Protocol.Warmups, &meta.Protocol.WarmRuns, &meta.Protocol.ErrorBound,
		&roundTrip, &startedAt, &meta.Hostname, &meta.Version, &meta.Tag,
		&meta.ContextCreateMs, &meta.ContextDestroyMs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan sweep: %w", err)
	}
	meta.Protocol.RoundTrip = roundTrip != 0
	if meta.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	return &meta, nil
}

// =============================================================================
// Records
// =============================================================================

const recordColumns = `uuid, record_id, library, float_precision, layout, placement, extent,
	state, error_run, error_message, validation_error, created_at, completed_at`

// Save inserts a record with its runs. A record whose UUID already
// exists is left unchanged.
func (r *ResultRepository) Save(ctx context.Context, sweepID string, rec *execution.ResultRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, r.q(`SELECT COUNT(*) FROM records WHERE uuid = ?`), rec.UUID).Scan(&count); err != nil {
		return fmt.Errorf("check record: %w", err)
	}
	if count > 0 {
		return nil
	}

	cfg := rec.Config
	_, err = tx.ExecContext(ctx, r.q(`
		INSERT INTO records (sweep_id, `+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		sweepID, rec.UUID, rec.ID, rec.Library,
		cfg.Precision.String(), cfg.Layout.String(), cfg.Placement.String(), cfg.Extent().String(),
		string(rec.State), rec.ErrorRun, rec.Error, rec.ValidationError,
		formatTime(rec.CreatedAt), formatTime(rec.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	insertRun := r.q(`
		INSERT INTO runs (record_uuid, run_index, status, error_message, invalid, values_json)
		VALUES (?, ?, ?, ?, ?, ?)`)
	for _, run := range rec.Runs {
		values, err := json.Marshal(run.Values)
		if err != nil {
			return fmt.Errorf("marshal run %d values: %w", run.Index, err)
		}
		if _, err := tx.ExecContext(ctx, insertRun,
			rec.UUID, run.Index, string(run.Status), run.Error, boolToInt(run.Invalid), string(values),
		); err != nil {
			return fmt.Errorf("insert run %d: %w", run.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.Debug("ResultRepository: Saved record", "uuid", rec.UUID, "id", rec.ID, "runs", len(rec.Runs))
	return nil
}

// FindByUUID finds a record by its UUID.
func (r *ResultRepository) FindByUUID(ctx context.Context, uuid string) (*execution.ResultRecord, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+recordColumns+` FROM records WHERE uuid = ?`), uuid)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, usecase.ErrRecordNotFound
		}
		return nil, err
	}
	if err := r.loadRuns(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// FindBySweep returns the records of a sweep ordered by ID.
func (r *ResultRepository) FindBySweep(ctx context.Context, sweepID string) ([]*execution.ResultRecord, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT `+recordColumns+` FROM records
		WHERE sweep_id = ?
		ORDER BY record_id`), sweepID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	var out []*execution.ResultRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, rec)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	// Runs are loaded after the cursor is closed; the SQLite pool holds
	// a single connection.
	for _, rec := range out {
		if err := r.loadRuns(ctx, rec); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scanRecord(s scanner) (*execution.ResultRecord, error) {
	var rec execution.ResultRecord
	var precision, layout, placement, extent, state, createdAt, completedAt string
	err := s.Scan(
		&rec.UUID, &rec.ID, &rec.Library, &precision, &layout, &placement, &extent,
		&state, &rec.ErrorRun, &rec.Error, &rec.ValidationError, &createdAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan record: %w", err)
	}

	rec.Config, err = parseConfiguration(precision, layout, placement, extent)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.UUID, err)
	}
	rec.State = execution.RunState(state)
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.CompletedAt, err = parseTime(completedAt); err != nil {
		return nil, fmt.Errorf("parse completed_at: %w", err)
	}
	return &rec, nil
}

func (r *ResultRepository) loadRuns(ctx context.Context, rec *execution.ResultRecord) error {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT run_index, status, error_message, invalid, values_json
		FROM runs WHERE record_uuid = ?
		ORDER BY run_index`), rec.UUID)
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	rec.Runs = rec.Runs[:0]
	for rows.Next() {
		var run execution.RunRecord
		var status, values string
		var invalid int
		if err := rows.Scan(&run.Index, &status, &run.Error, &invalid, &values); err != nil {
			return fmt.Errorf("scan run: %w", err)
		}
		run.Status = execution.RunStatus(status)
		run.Invalid = invalid != 0
		if err := json.Unmarshal([]byte(values), &run.Values); err != nil {
			return fmt.Errorf("unmarshal run %d values: %w", run.Index, err)
		}
		rec.Runs = append(rec.Runs, run)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate runs: %w", err)
	}
	return nil
}

func parseConfiguration(precision, layout, placement, extent string) (fft.Configuration, error) {
	p, err := fft.ParsePrecision(precision)
	if err != nil {
		return fft.Configuration{}, err
	}
	l, err := fft.ParseLayout(layout)
	if err != nil {
		return fft.Configuration{}, err
	}
	pl, err := fft.ParsePlacement(placement)
	if err != nil {
		return fft.Configuration{}, err
	}
	ext, err := fft.ParseExtent(extent)
	if err != nil {
		return fft.Configuration{}, err
	}
	return fft.NewConfiguration(p, l, pl, ext)
}

// =============================================================================
// Helpers
// =============================================================================

// timeLayout has fixed-width fractions so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure ResultRepository implements the usecase interface.
var _ usecase.ResultRepository = (*ResultRepository)(nil)

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

var ErrRunNotFound = errors.New("report run not found")

// Run is one archived pipeline execution.
type Run struct {
	ID            int64
	GeneratedAt   time.Time
	BudgetPath    string
	ActualsPath   string
	OutputPath    string
	MinBudget     decimal.Decimal
	TopN          int
	BudgetRows    int
	ActualRows    int
	JoinedRows    int
	BudgetTotal   decimal.Decimal
	ActualTotal   decimal.Decimal
	VarianceTotal decimal.Decimal
	InvariantsOK  bool
	FailedRollups []string
}

type SQLiteRepository struct {
	db            *sql.DB
	schemaVersion uint
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, schemaVersion: version}, nil
}

// SchemaVersion is the archive schema version reached when the repository opened.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.schemaVersion
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const insertRun = `
INSERT INTO report_runs (
    generated_at, budget_path, actuals_path, output_path, min_budget, top_n,
    budget_rows, actual_rows, joined_rows,
    budget_total, actual_total, variance_total,
    invariants_ok, failed_rollups
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectRun = `
SELECT id, generated_at, budget_path, actuals_path, output_path, min_budget, top_n,
       budget_rows, actual_rows, joined_rows,
       budget_total, actual_total, variance_total,
       invariants_ok, failed_rollups
FROM report_runs`

// RecordRun stores run and returns its ID. Amounts are kept as exact
// decimal strings.
func (r *SQLiteRepository) RecordRun(ctx context.Context, run Run) (int64, error) {
	if run.GeneratedAt.IsZero() {
		run.GeneratedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx, insertRun,
		run.GeneratedAt.UTC().Format(time.RFC3339Nano),
		run.BudgetPath, run.ActualsPath, run.OutputPath,
		run.MinBudget.String(), run.TopN,
		run.BudgetRows, run.ActualRows, run.JoinedRows,
		run.BudgetTotal.String(), run.ActualTotal.String(), run.VarianceTotal.String(),
		run.InvariantsOK, strings.Join(run.FailedRollups, ","),
	)
	if err != nil {
		return 0, fmt.Errorf("insert report run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("report run id: %w", err)
	}

	slog.DebugContext(ctx, "Report run archived", "id", id, "output_path", run.OutputPath)
	return id, nil
}

// ListRuns returns the most recent runs first. A non-positive limit means all.
func (r *SQLiteRepository) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := selectRun + ` ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list report runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report runs: %w", err)
	}
	return runs, nil
}

func (r *SQLiteRepository) GetRun(ctx context.Context, id int64) (Run, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run                            Run
		generatedAt, minBudget         string
		budgetTotal, actualTotal, vTot string
		failed                         string
	)
	err := s.Scan(
		&run.ID, &generatedAt, &run.BudgetPath, &run.ActualsPath, &run.OutputPath,
		&minBudget, &run.TopN,
		&run.BudgetRows, &run.ActualRows, &run.JoinedRows,
		&budgetTotal, &actualTotal, &vTot,
		&run.InvariantsOK, &failed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan report run: %w", err)
	}

	if run.GeneratedAt, err = time.Parse(time.RFC3339Nano, generatedAt); err != nil {
		return Run{}, fmt.Errorf("parse generated_at %q: %w", generatedAt, err)
	}
	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&run.MinBudget, minBudget},
		{&run.BudgetTotal, budgetTotal},
		{&run.ActualTotal, actualTotal},
		{&run.VarianceTotal, vTot},
	} {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return Run{}, fmt.Errorf("parse amount %q: %w", f.src, err)
		}
	}
	if failed != "" {
		run.FailedRollups = strings.Split(failed, ",")
	}
	return run, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budgetreport/internal/amqp"
	"budgetreport/internal/core"
	"budgetreport/internal/ingest"
	"budgetreport/internal/log"
	"budgetreport/internal/report"
	"budgetreport/internal/sheets"
	"budgetreport/internal/storage"
	"budgetreport/internal/variance"

	"github.com/shopspring/decimal"
)

// Archive records finished runs.
type Archive interface {
	RecordRun(ctx context.Context, run storage.Run) (int64, error)
}

// Publisher announces finished runs.
type Publisher interface {
	PublishReportGenerated(ctx context.Context, msg *amqp.ReportGeneratedMessage) error
}

// ReportService runs the budget vs actuals pipeline and feeds the optional
// side channels. Any of archive, publisher and mirror may be nil.
type ReportService struct {
	archive   Archive
	publisher Publisher
	mirror    sheets.ReportMirror
	logger    *log.Logger
	now       func() time.Time
}

type Option func(*ReportService)

func WithArchive(a Archive) Option { return func(s *ReportService) { s.archive = a } }

func WithPublisher(p Publisher) Option { return func(s *ReportService) { s.publisher = p } }

func WithMirror(m sheets.ReportMirror) Option { return func(s *ReportService) { s.mirror = m } }

func WithLogger(l *log.Logger) Option { return func(s *ReportService) { s.logger = l } }

func WithClock(now func() time.Time) Option { return func(s *ReportService) { s.now = now } }

func NewReportService(opts ...Option) *ReportService {
	s := &ReportService{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger != nil {
		s.logger = s.logger.WithComponent(log.ComponentPipeline)
	}
	return s
}

// loggerFor returns the logger set with WithLogger, or the one carried by ctx.
func (s *ReportService) loggerFor(ctx context.Context) *log.Logger {
	if s.logger != nil {
		return s.logger
	}
	return log.FromContext(ctx).WithComponent(log.ComponentPipeline)
}

// Request describes one report run.
type Request struct {
	BudgetPath     string
	ActualsPath    string
	OutputPath     string
	MinBudget      decimal.Decimal
	TopN           int
	CurrencyFormat string
}

func (r Request) validate() error {
	var errs []error
	if r.BudgetPath == "" {
		errs = append(errs, errors.New("budget path is required"))
	}
	if r.ActualsPath == "" {
		errs = append(errs, errors.New("actuals path is required"))
	}
	if r.OutputPath == "" {
		errs = append(errs, errors.New("output path is required"))
	}
	if r.MinBudget.IsNegative() {
		errs = append(errs, fmt.Errorf("min budget %s must not be negative", r.MinBudget))
	}
	if r.TopN < 0 {
		errs = append(errs, fmt.Errorf("top n %d must not be negative", r.TopN))
	}
	return errors.Join(errs...)
}

// Result is what a successful run produced.
type Result struct {
	OutputPath string
	BudgetRows int
	ActualRows int
	Views      report.Views
	Totals     core.Sum
	Invariants variance.InvariantReport
	// RunID is the archive id, zero when not archived.
	RunID int64
	// SideErrors collects archive, publish and mirror failures. They never
	// fail the run.
	SideErrors []error
}

// InvariantErr returns the invariant mismatch, or nil when totals balance.
func (r *Result) InvariantErr() error {
	return r.Invariants.Err()
}

// Generate loads both CSVs, builds every view, checks invariants and
// writes the workbook. Ingestion and write failures are returned; an
// invariant mismatch is only reported in the result.
func (s *ReportService) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if req.TopN == 0 {
		req.TopN = variance.DefaultTopN
	}
	start := s.now()
	logger := s.loggerFor(ctx)

	budget, err := ingest.LoadFile(req.BudgetPath)
	if err != nil {
		return nil, err
	}
	actuals, err := ingest.LoadFile(req.ActualsPath)
	if err != nil {
		return nil, err
	}
	logger.DebugContext(ctx, "Inputs loaded", log.FieldBudgetRows, len(budget), log.FieldActualRows, len(actuals))

	rows := variance.Build(budget, actuals)
	byCategory := variance.ByCategory(rows)
	byMonth := variance.ByMonth(rows)

	invariants := variance.CheckInvariants(rows, byCategory, byMonth).
		WithInputs(variance.CheckInputs(budget, actuals, rows))
	logInvariants(ctx, logger, invariants)

	views := report.Views{
		Detail:     rows,
		ByCategory: byCategory,
		ByMonth:    byMonth,
		Top:        variance.TopMovers(rows, req.MinBudget, req.TopN),
	}
	tables := views.Tables()

	if err := report.WriteFile(req.OutputPath, tables, report.Options{CurrencyFormat: req.CurrencyFormat}); err != nil {
		return nil, err
	}

	res := &Result{
		OutputPath: req.OutputPath,
		BudgetRows: len(budget),
		ActualRows: len(actuals),
		Views:      views,
		Totals:     variance.Totals(rows),
		Invariants: invariants,
	}

	logger.InfoContext(ctx, "Report written", log.NewFields().
		With(log.FieldPath, req.OutputPath).
		WithCounts(res.BudgetRows, res.ActualRows, len(rows)).
		WithTotals(res.Totals.Budget, res.Totals.Actual, res.Totals.Variance).
		With(log.FieldSuccess, invariants.Passed()).
		With(log.FieldDuration, s.now().Sub(start).Milliseconds()).
		ToSlice()...)

	s.archiveRun(ctx, req, res, start)
	s.publish(ctx, res)
	s.mirrorTables(ctx, tables, res)

	return res, nil
}

func (s *ReportService) archiveRun(ctx context.Context, req Request, res *Result, at time.Time) {
	if s.archive == nil {
		return
	}
	run := storage.Run{
		GeneratedAt:   at,
		BudgetPath:    req.BudgetPath,
		ActualsPath:   req.ActualsPath,
		OutputPath:    req.OutputPath,
		MinBudget:     req.MinBudget,
		TopN:          req.TopN,
		BudgetRows:    res.BudgetRows,
		ActualRows:    res.ActualRows,
		JoinedRows:    len(res.Views.Detail),
		BudgetTotal:   res.Totals.Budget,
		ActualTotal:   res.Totals.Actual,
		VarianceTotal: res.Totals.Variance,
		InvariantsOK:  res.Invariants.Passed(),
		FailedRollups: failedRollups(res.Invariants),
	}
	id, err := s.archive.RecordRun(ctx, run)
	if err != nil {
		s.sideFailure(ctx, res, log.OpArchive, err)
		return
	}
	res.RunID = id
}

func (s *ReportService) publish(ctx context.Context, res *Result) {
	if s.publisher == nil {
		return
	}
	msg := &amqp.ReportGeneratedMessage{
		RunID:         res.RunID,
		OutputPath:    res.OutputPath,
		BudgetTotal:   res.Totals.Budget.String(),
		ActualTotal:   res.Totals.Actual.String(),
		VarianceTotal: res.Totals.Variance.String(),
		Rows:          len(res.Views.Detail),
		InvariantsOK:  res.Invariants.Passed(),
		FailedRollups: failedRollups(res.Invariants),
		Timestamp:     s.now(),
	}
	if err := s.publisher.PublishReportGenerated(ctx, msg); err != nil {
		s.sideFailure(ctx, res, log.OpPublish, err)
	}
}

func (s *ReportService) mirrorTables(ctx context.Context, tables []report.Table, res *Result) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Mirror(ctx, tables); err != nil {
		s.sideFailure(ctx, res, log.OpMirror, err)
	}
}

func (s *ReportService) sideFailure(ctx context.Context, res *Result, op string, err error) {
	res.SideErrors = append(res.SideErrors, fmt.Errorf("%s: %w", op, err))
	s.loggerFor(ctx).ErrorContext(ctx, "Side channel failed, report is still written",
		log.NewFields().WithOperation(op).WithError(err).ToSlice()...)
}

// logInvariants reports a failed invariant check at error level. The run goes on.
func logInvariants(ctx context.Context, logger *log.Logger, r variance.InvariantReport) {
	if err := r.Err(); err != nil {
		logger.ErrorContext(ctx, "Invariant check failed", log.NewFields().
			WithOperation(log.OpCheck).
			With(log.FieldRollup, failedRollups(r)).
			WithError(err).ToSlice()...)
	}
}

func failedRollups(r variance.InvariantReport) []string {
	var mm *variance.InvariantMismatch
	if errors.As(r.Err(), &mm) {
		return mm.Rollups
	}
	return nil
}

package log

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRunID       = "run_id"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldSuccess     = "success"
	FieldDuration    = "duration_ms"
	FieldPath        = "path"
	FieldSource      = "source"
	FieldLine        = "line"
	FieldRows        = "rows"
	FieldBudgetRows  = "budget_rows"
	FieldActualRows  = "actual_rows"
	FieldJoinedRows  = "joined_rows"
	FieldBudgetTotal = "budget_total"
	FieldActualTotal = "actual_total"
	FieldVariance    = "variance_total"
	FieldRollup      = "rollup"
	FieldMinBudget   = "min_budget"
	FieldTopN        = "top_n"
	FieldBackend     = "backend"
	FieldExchange    = "exchange"
	FieldAttempt     = "attempt"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentIngest    = "ingest"
	ComponentVariance  = "variance"
	ComponentReport    = "report"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentSheets    = "sheets"
	ComponentBackend   = "backend"
	ComponentPipeline  = "pipeline"
	ComponentInvariant = "invariant"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpJoin     = "join"
	OpRollup   = "rollup"
	OpCheck    = "check"
	OpRank     = "rank"
	OpWrite    = "write"
	OpArchive  = "archive"
	OpPublish  = "publish"
	OpMirror   = "mirror"
	OpList     = "list"
	OpValidate = "validate"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeFormat        = "format_error"
	ErrorTypeWrite         = "write_error"
	ErrorTypeInvariant     = "invariant_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithRunID adds run ID field
func (f LogFields) WithRunID(id int64) LogFields {
	f[FieldRunID] = id
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTotals adds the three grand totals as exact decimal strings
func (f LogFields) WithTotals(budget, actual, variance decimal.Decimal) LogFields {
	f[FieldBudgetTotal] = budget.String()
	f[FieldActualTotal] = actual.String()
	f[FieldVariance] = variance.String()
	return f
}

// WithCounts adds input and joined row counts
func (f LogFields) WithCounts(budgetRows, actualRows, joinedRows int) LogFields {
	f[FieldBudgetRows] = budgetRows
	f[FieldActualRows] = actualRows
	f[FieldJoinedRows] = joinedRows
	return f
}

// With adds an arbitrary field
func (f LogFields) With(key string, value any) LogFields {
	f[key] = value
	return f
}

// ToSlice converts LogFields to a key-sorted slice for slog
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}

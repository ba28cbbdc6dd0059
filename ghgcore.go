// Package ghgcore ingests a spreadsheet of raw activity data and produces a
// GHG Protocol emissions report. It orchestrates the five-stage pipeline:
//
//	Tabular Reader -> Column Classifier -> Row Mapper -> Emissions Calculator -> Aggregator
//
// The Column Classifier may additionally consult an LLM for columns its
// name-pattern and content-inference rules cannot place; every other stage
// is pure, synchronous, and offline.
package ghgcore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/emitcore/ghgcore/internal/aggregate"
	"github.com/emitcore/ghgcore/internal/classify"
	"github.com/emitcore/ghgcore/internal/emissions"
	"github.com/emitcore/ghgcore/internal/emissions/factors"
	"github.com/emitcore/ghgcore/internal/ingestion"
	"github.com/emitcore/ghgcore/internal/logging"
	"github.com/emitcore/ghgcore/internal/obsmetrics"
	"github.com/emitcore/ghgcore/internal/rowmap"
)

// Options configures one Ingest call.
type Options struct {
	// SheetHint names the preferred worksheet for XLSX input. Ignored for
	// CSV input and for XLSX input that lacks a matching sheet.
	SheetHint string

	// Catalog supplies emission factors. A nil Catalog uses
	// factors.NewDefaultCatalog.
	Catalog emissions.Catalog

	// LLM, if non-nil, is consulted by the Column Classifier for columns
	// that name-pattern and content-inference rules could not place. A nil
	// LLM simply skips that step; classification never fails either way.
	LLM classify.LLMFallback

	// Metrics, if non-nil, receives row/column instrumentation for this
	// run. Share one Collector across calls to aggregate metrics across
	// an application's lifetime; pass nil to skip instrumentation.
	Metrics *obsmetrics.Collector

	// Logger receives structured diagnostic output. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Report is the full result of one Ingest call.
type Report struct {
	// RunID uniquely identifies this ingestion, for correlating logs.
	RunID string

	aggregate.Report

	// UnrecognizedColumns lists every column the classifier placed in
	// role=unknown or role=ignore, for surfacing to a human reviewer.
	UnrecognizedColumns []string
}

// Ingest runs the full pipeline over buf and returns the resulting Report.
// It fails only when the input itself cannot be read (empty buffer,
// unparseable CSV header or XLSX container, or no sheet with a header row);
// any buffer without the XLSX signature is read as CSV. A table with a header
// row but zero data rows is not an error, it produces an empty Report.
// Every row-level ambiguity downstream is resolved by falling back to a
// default or dropping the single row, never by aborting the run.
func Ingest(ctx context.Context, buf []byte, opts Options) (Report, error) {
	runID := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", runID)
	ctx = logging.WithRunID(ctx, runID)

	table, err := ingestion.Read(buf, ingestion.ReadOptions{SheetHint: opts.SheetHint})
	if err != nil {
		return Report{}, fmt.Errorf("ghgcore: reading input: %w", err)
	}

	mappings := classify.Classify(ctx, table, classify.Options{LLM: opts.LLM, Logger: logger})
	if opts.Metrics != nil {
		for _, col := range table.Columns {
			if m, ok := mappings[col]; ok {
				opts.Metrics.RecordColumnClassification(m.Role.String())
			}
		}
	}

	records, rowsDroppedInMapping := rowmap.Map(table, mappings)

	catalog := opts.Catalog
	if catalog == nil {
		catalog = factors.NewDefaultCatalog(logger)
	}
	calc := emissions.NewCalculator(catalog, logger)
	lines, rowsDroppedInCalc := calc.Calculate(records)

	diag := aggregate.Diagnostics{
		RowsRead:    table.RowCount(),
		RowsDropped: rowsDroppedInMapping + rowsDroppedInCalc,
	}
	aggregated := aggregate.Aggregate(lines, diag)

	if opts.Metrics != nil {
		opts.Metrics.RowsIngested.Add(float64(len(lines)))
		opts.Metrics.RowsDropped.Add(float64(diag.RowsDropped))
	}

	logger.Info("ingestion complete",
		"rows_read", diag.RowsRead,
		"rows_dropped", diag.RowsDropped,
		"lines", len(lines),
		"grand_total", aggregated.GrandTotal,
	)

	return Report{
		RunID:               runID,
		Report:              aggregated,
		UnrecognizedColumns: mappings.UnrecognizedColumns(table.Columns),
	}, nil
}

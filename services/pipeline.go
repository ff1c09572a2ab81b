package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hawker-closures/metrics"
	"hawker-closures/models"
	"hawker-closures/utils"
)

// Source returns the raw dataset rows. It is the only blocking step of a run.
type Source interface {
	Fetch(ctx context.Context) ([]models.RawRecord, error)
}

// Pipeline fetches the dataset and runs normalisation, reshaping and classification once per call.
type Pipeline struct {
	source  Source
	logger  *utils.Logger
	metrics *metrics.Metrics
}

// NewPipeline wires a Pipeline. m may be nil when metrics are not collected.
func NewPipeline(source Source, logger *utils.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{source: source, logger: logger, metrics: m}
}

// Run fetches the raw records and processes them against the Singapore date of now.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (result *models.PipelineResult, err error) {
	started := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)

	defer func() {
		if p.metrics != nil {
			p.metrics.ObserveRun(started, err)
		}
	}()

	logger.Info("[pipeline] Fetching hawker closure dataset")
	records, err := p.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: fetch: %w", err)
	}
	if p.metrics != nil {
		p.metrics.RecordsFetched.Set(float64(len(records)))
	}

	result, err = Process(records, now, logger)
	if err != nil {
		return nil, err
	}
	result.RunID = runID

	if p.metrics != nil {
		p.metrics.ObserveClassification(result.Classification)
	}
	logger.Info("[pipeline] Run finished in %v", time.Since(started).Round(time.Millisecond))
	return result, nil
}

// Process runs the pure part of the pipeline over already fetched records.
func Process(records []models.RawRecord, now time.Time, logger *utils.Logger) (*models.PipelineResult, error) {
	tables, err := NewNormalizer(logger).Normalize(records)
	if err != nil {
		return nil, err
	}

	closures, err := ReshapeDates(tables.WideDates)
	if err != nil {
		return nil, err
	}
	remarks, err := ReshapeRemarks(tables.WideRemarks)
	if err != nil {
		return nil, err
	}
	logger.Info("[pipeline] Reshaped %d closure windows and %d remarks", len(closures), len(remarks))

	classification, err := NewClassifier(logger).Classify(closures, tables.Centres, ReferenceDate(now))
	if err != nil {
		return nil, err
	}

	return &models.PipelineResult{
		GeneratedAt:    now,
		RawRecords:     records,
		Centres:        tables.Centres,
		Closures:       closures,
		Remarks:        remarks,
		Classification: classification,
	}, nil
}

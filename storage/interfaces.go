package storage

import "hawker-closures/models"

// TableWriter is the interface any export backend must satisfy.
type TableWriter interface {
	WriteTables(result *models.PipelineResult, table []models.TableRow) error
	Close() error
}

// RawRecordWriter is the interface for exporting the unprocessed dataset rows.
type RawRecordWriter interface {
	WriteRaw(records []models.RawRecord, columns []string) error
	Close() error
}

var (
	_ TableWriter     = (*CSVWriter)(nil)
	_ RawRecordWriter = (*CSVWriter)(nil)
)

package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"hawker-closures/models"
)

// Export file names written under the output directory.
const (
	RawRecordsFile = "raw_records.csv"
	HawkerTable    = "hawker_table.csv"
	CentresFile    = "centres.csv"
	ClosuresFile   = "closures.csv"
	RemarksFile    = "remarks.csv"
)

// CSVWriter exports pipeline tables as CSV files in one directory.
// It is safe for concurrent use.
type CSVWriter struct {
	mu  sync.Mutex
	dir string
}

// NewCSVWriter creates the output directory if needed.
func NewCSVWriter(dir string) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{dir: dir}, nil
}

// Dir returns the output directory.
func (c *CSVWriter) Dir() string { return c.dir }

// WriteRaw writes the raw dataset rows using the given column order.
func (c *CSVWriter) WriteRaw(records []models.RawRecord, columns []string) error {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = rec[col]
		}
		rows = append(rows, row)
	}
	return c.writeFile(RawRecordsFile, columns, rows)
}

// WriteTables writes the combined hawker table plus the normalised centre, closure and remark tables.
func (c *CSVWriter) WriteTables(result *models.PipelineResult, table []models.TableRow) error {
	hawkerRows := make([][]string, 0, len(table))
	for _, r := range table {
		hawkerRows = append(hawkerRows, []string{
			r.Name, r.Address, r.Description,
			strconv.Itoa(r.MarketStalls), strconv.Itoa(r.FoodStalls),
			r.Activity, r.StartDate, r.EndDate, r.Status,
		})
	}
	if err := c.writeFile(HawkerTable, models.TableHeader, hawkerRows); err != nil {
		return err
	}

	centreRows := make([][]string, 0, len(result.Centres))
	for _, hc := range result.Centres {
		centreRows = append(centreRows, []string{
			hc.CleanName, hc.OriginalName, hc.Description, hc.Address,
			strconv.Itoa(hc.MarketStalls), strconv.Itoa(hc.FoodStalls), hc.Status,
			strconv.FormatFloat(hc.Latitude, 'f', -1, 64),
			strconv.FormatFloat(hc.Longitude, 'f', -1, 64),
			hc.PhotoURL,
		})
	}
	if err := c.writeFile(CentresFile, []string{
		"clean_name", "original_name", "description", "address", "market_stalls",
		"food_stalls", "status", "latitude", "longitude", "photo_url",
	}, centreRows); err != nil {
		return err
	}

	closureRows := make([][]string, 0, len(result.Closures))
	for _, cr := range result.Closures {
		closureRows = append(closureRows, []string{cr.CleanName, cr.Activity, isoDate(cr.StartDate), isoDate(cr.EndDate)})
	}
	if err := c.writeFile(ClosuresFile, []string{"clean_name", "activity", "start_date", "end_date"}, closureRows); err != nil {
		return err
	}

	remarkRows := make([][]string, 0, len(result.Remarks))
	for _, rr := range result.Remarks {
		remarkRows = append(remarkRows, []string{rr.CleanName, rr.Activity, rr.Remark})
	}
	return c.writeFile(RemarksFile, []string{"clean_name", "activity", "remark"}, remarkRows)
}

// Close is a no-op; every file is closed as soon as it is written.
func (c *CSVWriter) Close() error {
	return nil
}

func (c *CSVWriter) writeFile(name string, header []string, rows [][]string) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := filepath.Join(c.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("csv: close %q: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush %q: %w", path, err)
	}
	return nil
}

func isoDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

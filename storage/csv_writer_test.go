package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hawker-closures/models"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteRawUsesColumnOrder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	w, err := NewCSVWriter(dir)
	require.NoError(t, err)
	defer w.Close()

	records := []models.RawRecord{
		{"name": "Tekka Centre", "q1_cleaningstartdate": "04/03/2024", "serial_no": "9"},
		{"name": "Newton Food Centre"},
	}
	require.NoError(t, w.WriteRaw(records, []string{"name", "q1_cleaningstartdate"}))

	rows := readCSV(t, filepath.Join(dir, RawRecordsFile))
	assert.Equal(t, [][]string{
		{"name", "q1_cleaningstartdate"},
		{"Tekka Centre", "04/03/2024"},
		{"Newton Food Centre", ""},
	}, rows)
}

func TestWriteTables(t *testing.T) {
	dir := t.TempDir()
	w, err := NewCSVWriter(dir)
	require.NoError(t, err)

	result := &models.PipelineResult{
		Centres: []*models.HawkerCentre{{
			CleanName: "Tekka Centre", OriginalName: "Tekka Centre", Address: "665 Buffalo Road",
			MarketStalls: 300, FoodStalls: 100, Status: "Existing", Latitude: 1.3063, Longitude: 103.8505,
		}},
		Closures: []models.ClosureRecord{{
			CleanName: "Tekka Centre", Activity: "q2 cleaning",
			StartDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		}},
		Remarks: []models.RemarkRecord{{CleanName: "Tekka Centre", Activity: "other works", Remark: "Re-roofing"}},
	}
	table := []models.TableRow{{
		Name: "Tekka Centre", Address: "665 Buffalo Road", MarketStalls: 300, FoodStalls: 100,
		Activity: "Q2 cleaning", StartDate: "2024-06-03", Status: "Open",
	}}

	require.NoError(t, w.WriteTables(result, table))

	hawkers := readCSV(t, filepath.Join(dir, HawkerTable))
	require.Len(t, hawkers, 2)
	assert.Equal(t, models.TableHeader, hawkers[0])
	assert.Equal(t, []string{"Tekka Centre", "665 Buffalo Road", "", "300", "100", "Q2 cleaning", "2024-06-03", "", "Open"}, hawkers[1])

	centres := readCSV(t, filepath.Join(dir, CentresFile))
	require.Len(t, centres, 2)
	assert.Equal(t, "1.3063", centres[1][7])

	closures := readCSV(t, filepath.Join(dir, ClosuresFile))
	assert.Equal(t, []string{"Tekka Centre", "q2 cleaning", "2024-06-03", ""}, closures[1])

	remarks := readCSV(t, filepath.Join(dir, RemarksFile))
	assert.Equal(t, []string{"Tekka Centre", "other works", "Re-roofing"}, remarks[1])
}

func TestWriteFileRewritesAndReportsErrors(t *testing.T) {
	dir := t.TempDir()
	w, err := NewCSVWriter(dir)
	require.NoError(t, err)

	require.NoError(t, w.WriteRaw([]models.RawRecord{{"name": "Tekka Centre"}}, []string{"name"}))
	require.NoError(t, w.WriteRaw([]models.RawRecord{{"name": "Amoy Street Food Centre"}}, []string{"name"}))
	assert.Equal(t, [][]string{{"name"}, {"Amoy Street Food Centre"}}, readCSV(t, filepath.Join(dir, RawRecordsFile)))

	require.NoError(t, os.RemoveAll(dir))
	err = w.WriteRaw([]models.RawRecord{{"name": "Tekka Centre"}}, []string{"name"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv: create file")
}

package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"hawker-closures/models"
	"hawker-closures/utils"
)

// Source field names published by the closure dataset.
const (
	FieldName         = "name"
	FieldDescription  = "description_myenv"
	FieldAddress      = "address_myenv"
	FieldMarketStalls = "no_of_market_stalls"
	FieldFoodStalls   = "no_of_food_stalls"
	FieldStatus       = "status"
	FieldLatitude     = "latitude_hc"
	FieldLongitude    = "longitude_hc"
	FieldPhotoURL     = "photourl"
)

var (
	// DateColumns are the wide closure date columns in source order.
	DateColumns = []string{
		"q1_cleaningstartdate", "q1_cleaningenddate",
		"q2_cleaningstartdate", "q2_cleaningenddate",
		"q3_cleaningstartdate", "q3_cleaningenddate",
		"q4_cleaningstartdate", "q4_cleaningenddate",
		"other_works_startdate", "other_works_enddate",
	}

	// RemarkColumns are the wide remark columns in source order.
	RemarkColumns = []string{
		"remarks_q1", "remarks_q2", "remarks_q3", "remarks_q4", "remarks_other_works",
	}

	centreColumns = []string{
		FieldName, FieldDescription, FieldAddress, FieldMarketStalls, FieldFoodStalls,
		FieldStatus, FieldLatitude, FieldLongitude, FieldPhotoURL,
	}

	// bracketRegexp captures the first parenthesised group when it is not nested.
	bracketRegexp = regexp.MustCompile(`^[^()]*\(([^()]+)\)`)
)

// SourceColumns lists every required field in the order the dataset publishes them.
func SourceColumns() []string {
	cols := make([]string, 0, len(centreColumns)+len(DateColumns)+len(RemarkColumns))
	cols = append(cols, centreColumns...)
	cols = append(cols, DateColumns...)
	cols = append(cols, RemarkColumns...)
	return cols
}

// Normalizer splits raw dataset rows into centre metadata and wide date/remark tables.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize validates every record and splits it into the three tables sharing the clean name key.
// Any missing field, unparsable number or duplicate clean name aborts the whole run.
func (n *Normalizer) Normalize(records []models.RawRecord) (*models.NormalizedTables, error) {
	tables := &models.NormalizedTables{
		Centres:     make([]*models.HawkerCentre, 0, len(records)),
		WideDates:   make([]models.WideRow, 0, len(records)),
		WideRemarks: make([]models.WideRow, 0, len(records)),
	}
	seen := make(map[string]int, len(records))
	required := SourceColumns()

	for i, rec := range records {
		for _, field := range required {
			if _, ok := rec[field]; !ok {
				return nil, fmt.Errorf("normalizer: record %d: missing field %q: %w", i, field, ErrSchema)
			}
		}

		centre, err := buildCentre(rec)
		if err != nil {
			return nil, fmt.Errorf("normalizer: record %d (%s): %w", i, rec[FieldName], err)
		}

		if prev, dup := seen[centre.CleanName]; dup {
			return nil, fmt.Errorf("normalizer: records %d and %d share clean name %q: %w",
				prev, i, centre.CleanName, ErrSchema)
		}
		seen[centre.CleanName] = i

		tables.Centres = append(tables.Centres, centre)
		tables.WideDates = append(tables.WideDates, wideRow(centre.CleanName, rec, DateColumns))
		tables.WideRemarks = append(tables.WideRemarks, wideRow(centre.CleanName, rec, RemarkColumns))
	}

	n.logger.Info("[normalizer] Normalised %d records into %d centres", len(records), len(tables.Centres))
	return tables, nil
}

func buildCentre(rec models.RawRecord) (*models.HawkerCentre, error) {
	marketStalls, err := parseCount(rec, FieldMarketStalls)
	if err != nil {
		return nil, err
	}
	foodStalls, err := parseCount(rec, FieldFoodStalls)
	if err != nil {
		return nil, err
	}
	lat, err := parseCoordinate(rec, FieldLatitude)
	if err != nil {
		return nil, err
	}
	lng, err := parseCoordinate(rec, FieldLongitude)
	if err != nil {
		return nil, err
	}

	return &models.HawkerCentre{
		CleanName:    CleanName(rec[FieldName]),
		OriginalName: rec[FieldName],
		Description:  rec[FieldDescription],
		Address:      rec[FieldAddress],
		MarketStalls: marketStalls,
		FoodStalls:   foodStalls,
		Status:       rec[FieldStatus],
		Latitude:     lat,
		Longitude:    lng,
		PhotoURL:     rec[FieldPhotoURL],
	}, nil
}

func wideRow(cleanName string, rec models.RawRecord, columns []string) models.WideRow {
	row := models.WideRow{CleanName: cleanName, Cells: make([]models.Cell, 0, len(columns))}
	for _, col := range columns {
		row.Cells = append(row.Cells, models.Cell{CleanName: cleanName, Column: col, Value: rec[col]})
	}
	return row
}

func parseCount(rec models.RawRecord, field string) (int, error) {
	raw := strings.TrimSpace(rec[field])
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("field %q: invalid stall count %q: %w", field, raw, ErrParse)
	}
	return n, nil
}

func parseCoordinate(rec models.RawRecord, field string) (float64, error) {
	raw := strings.TrimSpace(rec[field])
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("field %q: invalid coordinate %q: %w", field, raw, ErrParse)
	}
	return f, nil
}

// CleanName returns the canonical centre name embedded in brackets, e.g.
// "Chong Pang (Market & Food Centre)" → "Market & Food Centre".
// Names without a usable bracketed group are returned unchanged.
func CleanName(name string) string {
	if inner, ok := extractBracketed(name); ok {
		return inner
	}
	return name
}

// extractBracketed finds the first parenthesised group. Nested, empty or unbalanced
// brackets before the first closing bracket report not-found.
func extractBracketed(name string) (string, bool) {
	m := bracketRegexp.FindStringSubmatch(name)
	if len(m) < 2 || strings.TrimSpace(m[1]) == "" {
		return "", false
	}
	return m[1], true
}

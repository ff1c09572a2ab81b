package models

import "time"

// RawRecord is one row of the closure dataset exactly as the source publishes it:
// field name to text value. Nothing is parsed or renamed at this stage.
type RawRecord map[string]string

// HawkerCentre is the normalised centre metadata, keyed by CleanName.
type HawkerCentre struct {
	CleanName    string  `json:"clean_name"`
	OriginalName string  `json:"original_name"`
	Description  string  `json:"description"`
	Address      string  `json:"address"`
	MarketStalls int     `json:"market_stalls"`
	FoodStalls   int     `json:"food_stalls"`
	Status       string  `json:"status"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	PhotoURL     string  `json:"photo_url"`
}

// Cell is a single (centre, column, value) triple of an unpivoted wide table.
type Cell struct {
	CleanName string
	Column    string
	Value     string
}

// WideRow holds the cells of one centre in source column order.
type WideRow struct {
	CleanName string
	Cells     []Cell
}

// ClosureRecord is one scheduled closure window for a (centre, activity) pair.
// Either date may be zero when the source only published one side.
type ClosureRecord struct {
	CleanName string    `json:"clean_name"`
	Activity  string    `json:"activity"`
	StartDate time.Time `json:"start_date,omitzero"`
	EndDate   time.Time `json:"end_date,omitzero"`
}

// HasStart reports whether the start date was published.
func (r ClosureRecord) HasStart() bool { return !r.StartDate.IsZero() }

// HasEnd reports whether the end date was published.
func (r ClosureRecord) HasEnd() bool { return !r.EndDate.IsZero() }

// RemarkRecord is a free-text remark attached to a (centre, activity) pair.
type RemarkRecord struct {
	CleanName string `json:"clean_name"`
	Activity  string `json:"activity"`
	Remark    string `json:"remark"`
}

// NormalizedTables is the output of raw record normalisation.
type NormalizedTables struct {
	Centres     []*HawkerCentre
	WideDates   []WideRow
	WideRemarks []WideRow
}

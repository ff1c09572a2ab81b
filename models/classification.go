package models

import "time"

// Status is the temporal state of a hawker centre relative to the reference date.
type Status string

const (
	StatusOpen        Status = "OPEN"
	StatusClosingSoon Status = "CLOSING_SOON"
	StatusClosed      Status = "CLOSED"
)

// Colour returns the map marker colour for the status.
func (s Status) Colour() string {
	switch s {
	case StatusOpen:
		return "green"
	case StatusClosingSoon:
		return "orange"
	case StatusClosed:
		return "red"
	}
	return ""
}

// Label returns the human readable status used by the data table.
func (s Status) Label() string {
	switch s {
	case StatusOpen:
		return "Open"
	case StatusClosingSoon:
		return "Closing within a month"
	case StatusClosed:
		return "Closed"
	}
	return ""
}

// ClassifiedCentre is a centre joined with the closure record that decided its bucket.
type ClassifiedCentre struct {
	HawkerCentre
	Closure     ClosureRecord `json:"closure"`
	Status      Status        `json:"status"`
	Colour      string        `json:"colour"`
	Description string        `json:"status_description"`
}

// Classification holds the three disjoint buckets plus the centres that fell in none.
type Classification struct {
	Today       time.Time           `json:"today"`
	Horizon     time.Time           `json:"horizon"`
	Open        []*ClassifiedCentre `json:"open"`
	ClosingSoon []*ClassifiedCentre `json:"closing_soon"`
	Closed      []*ClassifiedCentre `json:"closed"`
	Excluded    []string            `json:"excluded"`
}

// All returns every classified centre, open first, then closing soon, then closed.
func (c *Classification) All() []*ClassifiedCentre {
	all := make([]*ClassifiedCentre, 0, len(c.Open)+len(c.ClosingSoon)+len(c.Closed))
	all = append(all, c.Open...)
	all = append(all, c.ClosingSoon...)
	all = append(all, c.Closed...)
	return all
}

// Bucket returns the classified centres for one status.
func (c *Classification) Bucket(s Status) []*ClassifiedCentre {
	switch s {
	case StatusOpen:
		return c.Open
	case StatusClosingSoon:
		return c.ClosingSoon
	case StatusClosed:
		return c.Closed
	}
	return nil
}

// TableRow is one row of the combined hawker data table.
type TableRow struct {
	Name         string `json:"Hawker Name"`
	Address      string `json:"Hawker Address"`
	Description  string `json:"Hawker Description"`
	MarketStalls int    `json:"No of Market Stalls"`
	FoodStalls   int    `json:"No of Food Stalls"`
	Activity     string `json:"Closure Activity"`
	StartDate    string `json:"Closure Start Date"`
	EndDate      string `json:"Closure End Date"`
	Status       string `json:"Current Status"`
}

// TableHeader lists the data table columns in display order.
var TableHeader = []string{
	"Hawker Name", "Hawker Address", "Hawker Description",
	"No of Market Stalls", "No of Food Stalls",
	"Closure Activity", "Closure Start Date", "Closure End Date", "Current Status",
}

// PipelineResult is everything one pipeline run produces.
type PipelineResult struct {
	RunID          string          `json:"run_id"`
	GeneratedAt    time.Time       `json:"generated_at"`
	RawRecords     []RawRecord     `json:"-"`
	Centres        []*HawkerCentre `json:"centres"`
	Closures       []ClosureRecord `json:"closures"`
	Remarks        []RemarkRecord  `json:"remarks"`
	Classification *Classification `json:"classification"`
}

// StatusReport holds summary figures over one classification.
type StatusReport struct {
	RunID        string
	Today        time.Time
	Horizon      time.Time
	TotalCentres int
	OpenCount    int
	ClosingCount int
	ClosedCount  int
	Excluded     []string
	ClosingSoon  []*ClassifiedCentre
	ByActivity   map[string]int
	RemarksCount int
}

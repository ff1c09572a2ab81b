package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/jinzhu/now"

	"hawker-closures/models"
	"hawker-closures/utils"
)

// DisplayDateLayout is how closure dates appear in descriptions, e.g. "05 Mar 2024".
const DisplayDateLayout = "02 Jan 2006"

// Singapore is the fixed UTC+8 zone observed without daylight saving since 1982.
var Singapore = time.FixedZone("SGT", 8*60*60)

// ReferenceDate resolves "today" for a run: the Singapore calendar date of now, at midnight UTC
// so it compares directly against parsed closure dates.
func ReferenceDate(t time.Time) time.Time {
	sg := t.In(Singapore)
	return time.Date(sg.Year(), sg.Month(), sg.Day(), 0, 0, 0, 0, time.UTC)
}

// Horizon returns today plus one calendar month. The day of month is clamped to the last day
// of the target month, so 31 Jan becomes 28 or 29 Feb rather than rolling into March.
func Horizon(today time.Time) time.Time {
	firstOfNext := time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, today.Location())
	lastDay := now.With(firstOfNext).EndOfMonth().Day()
	return time.Date(firstOfNext.Year(), firstOfNext.Month(), min(today.Day(), lastDay),
		0, 0, 0, 0, today.Location())
}

// Classifier buckets centres into closed, closing soon and open relative to a reference date.
type Classifier struct {
	logger *utils.Logger
}

// NewClassifier creates a Classifier with the given logger.
func NewClassifier(logger *utils.Logger) *Classifier {
	return &Classifier{logger: logger}
}

// Classify assigns every centre with a qualifying closure record to exactly one bucket, in
// precedence order closed, closing soon, open, keeping the earliest-starting qualifying record.
// Centres that qualify for none are listed in Excluded. Any closure name missing from
// centres is an ErrJoinMiss, whether or not its windows qualify.
func (c *Classifier) Classify(closures []models.ClosureRecord, centres []*models.HawkerCentre, today time.Time) (*models.Classification, error) {
	horizon := Horizon(today)

	byCentre := make(map[string][]models.ClosureRecord)
	var names []string
	for _, rec := range closures {
		if _, ok := byCentre[rec.CleanName]; !ok {
			names = append(names, rec.CleanName)
		}
		byCentre[rec.CleanName] = append(byCentre[rec.CleanName], rec)
	}
	sort.Strings(names)

	index := make(map[string]*models.HawkerCentre, len(centres))
	for _, hc := range centres {
		index[hc.CleanName] = hc
	}

	result := &models.Classification{Today: today, Horizon: horizon}
	classified := make(map[string]struct{}, len(names))

	for _, name := range names {
		hc, found := index[name]
		if !found {
			return nil, fmt.Errorf("classifier: %q has closure records but no centre metadata: %w", name, ErrJoinMiss)
		}

		status, rec, ok := selectClosure(byCentre[name], today, horizon)
		if !ok {
			continue
		}

		cc := &models.ClassifiedCentre{
			HawkerCentre: *hc,
			Closure:      rec,
			Status:       status,
			Colour:       status.Colour(),
		}
		cc.Description = Describe(cc)
		classified[name] = struct{}{}

		switch status {
		case models.StatusClosed:
			result.Closed = append(result.Closed, cc)
		case models.StatusClosingSoon:
			result.ClosingSoon = append(result.ClosingSoon, cc)
		case models.StatusOpen:
			result.Open = append(result.Open, cc)
		}
	}

	excluded := make(map[string]struct{})
	for _, hc := range centres {
		if _, ok := classified[hc.CleanName]; !ok {
			excluded[hc.CleanName] = struct{}{}
		}
	}
	result.Excluded = make([]string, 0, len(excluded))
	for name := range excluded {
		result.Excluded = append(result.Excluded, name)
	}
	sort.Strings(result.Excluded)

	c.logger.Info("[classifier] %s: %d closed, %d closing by %s, %d open, %d without a qualifying closure",
		today.Format(time.DateOnly), len(result.Closed), len(result.ClosingSoon),
		horizon.Format(time.DateOnly), len(result.Open), len(result.Excluded))
	if len(result.Excluded) > 0 {
		c.logger.Debug("[classifier] Excluded centres: %v", result.Excluded)
	}
	return result, nil
}

// selectClosure applies the bucket rules in precedence order to one centre's records.
func selectClosure(records []models.ClosureRecord, today, horizon time.Time) (models.Status, models.ClosureRecord, bool) {
	closed := func(r models.ClosureRecord) bool {
		return r.HasStart() && r.HasEnd() && !r.StartDate.After(today) && !today.After(r.EndDate)
	}
	closingSoon := func(r models.ClosureRecord) bool {
		return r.HasStart() && !r.StartDate.Before(today) && !r.StartDate.After(horizon)
	}
	open := func(r models.ClosureRecord) bool {
		return r.HasStart() && r.StartDate.After(horizon)
	}

	if rec, ok := earliestStart(records, closed); ok {
		return models.StatusClosed, rec, true
	}
	if rec, ok := earliestStart(records, closingSoon); ok {
		return models.StatusClosingSoon, rec, true
	}
	if rec, ok := earliestStart(records, open); ok {
		return models.StatusOpen, rec, true
	}
	return "", models.ClosureRecord{}, false
}

// earliestStart returns the matching record with the earliest start date; ties keep the first seen.
func earliestStart(records []models.ClosureRecord, match func(models.ClosureRecord) bool) (models.ClosureRecord, bool) {
	var best models.ClosureRecord
	found := false
	for _, r := range records {
		if !match(r) {
			continue
		}
		if !found || r.StartDate.Before(best.StartDate) {
			best = r
			found = true
		}
	}
	return best, found
}

// Describe builds the tooltip sentence for a classified centre.
func Describe(cc *models.ClassifiedCentre) string {
	start := formatDisplayDate(cc.Closure.StartDate)
	end := formatDisplayDate(cc.Closure.EndDate)

	switch cc.Status {
	case models.StatusOpen:
		return fmt.Sprintf("%s currently open. Next closure is from %s to %s.", cc.CleanName, start, end)
	case models.StatusClosingSoon:
		return fmt.Sprintf("%s will be closed soon from %s to %s.", cc.CleanName, start, end)
	case models.StatusClosed:
		return fmt.Sprintf("%s is currently closed until %s.", cc.CleanName, end)
	}
	return cc.CleanName
}

func formatDisplayDate(d time.Time) string {
	if d.IsZero() {
		return "TBC"
	}
	return d.Format(DisplayDateLayout)
}

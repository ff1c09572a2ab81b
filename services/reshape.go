package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"hawker-closures/models"
)

// SourceDateLayout is the date format the dataset publishes (day/month/year).
const SourceDateLayout = "02/01/2006"

const nilRemark = "nil"

var (
	// placeholderDates are published in place of a date that is not known or not applicable.
	placeholderDates = map[string]struct{}{"TBC": {}, "NA": {}}

	// dateColumnRegexp splits "q1_cleaningstartdate" into "q1_cleaning" and "start".
	dateColumnRegexp = regexp.MustCompile(`^(.*?)(start|end)date$`)
	// remarkColumnRegexp captures the period of "remarks_<period>".
	remarkColumnRegexp = regexp.MustCompile(`^remarks_(.+)$`)
)

type dateRole string

const (
	roleStart dateRole = "start"
	roleEnd   dateRole = "end"
)

// IsPlaceholderDate reports whether v is a literal placeholder rather than a date.
func IsPlaceholderDate(v string) bool {
	_, ok := placeholderDates[v]
	return ok
}

// Unpivot flattens wide rows into (centre, column, value) cells, row by row in column order.
func Unpivot(rows []models.WideRow) []models.Cell {
	var cells []models.Cell
	for _, r := range rows {
		cells = append(cells, r.Cells...)
	}
	return cells
}

// ParseDateColumn splits a wide date column name into its activity label and date role.
func ParseDateColumn(column string) (activity string, role string, err error) {
	m := dateColumnRegexp.FindStringSubmatch(column)
	if m == nil {
		return "", "", fmt.Errorf("date column %q does not end in startdate/enddate: %w", column, ErrSchema)
	}
	activity = strings.TrimSpace(strings.ReplaceAll(m[1], "_", " "))
	if activity == "" {
		return "", "", fmt.Errorf("date column %q has no activity: %w", column, ErrSchema)
	}
	return activity, m[2], nil
}

// ParseRemarkColumn derives the activity label from a remark column name.
// Quarter periods become "<quarter> cleaning" so they line up with the date activities.
func ParseRemarkColumn(column string) (string, error) {
	m := remarkColumnRegexp.FindStringSubmatch(column)
	if m == nil {
		return "", fmt.Errorf("remark column %q does not start with remarks_: %w", column, ErrSchema)
	}
	activity := strings.TrimSpace(strings.ReplaceAll(m[1], "_", " "))
	if strings.HasPrefix(activity, "q") {
		activity += " cleaning"
	}
	return activity, nil
}

type closureKey struct {
	cleanName string
	activity  string
}

// ReshapeDates turns the wide closure date table into one ClosureRecord per (centre, activity)
// that has at least one real date. Placeholder cells are dropped before parsing; a side with no
// value stays zero.
func ReshapeDates(rows []models.WideRow) ([]models.ClosureRecord, error) {
	byKey := make(map[closureKey]*models.ClosureRecord)
	var order []closureKey

	for _, cell := range Unpivot(rows) {
		if IsPlaceholderDate(cell.Value) {
			continue
		}

		activity, role, err := ParseDateColumn(cell.Column)
		if err != nil {
			return nil, fmt.Errorf("reshape dates: %s: %w", cell.CleanName, err)
		}

		date, err := time.Parse(SourceDateLayout, strings.TrimSpace(cell.Value))
		if err != nil {
			return nil, fmt.Errorf("reshape dates: %s: column %q: value %q: %w",
				cell.CleanName, cell.Column, cell.Value, ErrParse)
		}

		key := closureKey{cleanName: cell.CleanName, activity: activity}
		rec, ok := byKey[key]
		if !ok {
			rec = &models.ClosureRecord{CleanName: cell.CleanName, Activity: activity}
			byKey[key] = rec
			order = append(order, key)
		}

		switch dateRole(role) {
		case roleStart:
			if rec.HasStart() {
				return nil, fmt.Errorf("reshape dates: %s: duplicate %s start date: %w",
					cell.CleanName, activity, ErrSchema)
			}
			rec.StartDate = date
		case roleEnd:
			if rec.HasEnd() {
				return nil, fmt.Errorf("reshape dates: %s: duplicate %s end date: %w",
					cell.CleanName, activity, ErrSchema)
			}
			rec.EndDate = date
		}
	}

	out := make([]models.ClosureRecord, 0, len(order))
	for _, key := range order {
		rec := byKey[key]
		if rec.HasStart() && rec.HasEnd() && rec.StartDate.After(rec.EndDate) {
			return nil, fmt.Errorf("reshape dates: %s: %s starts %s after it ends %s: %w",
				rec.CleanName, rec.Activity,
				rec.StartDate.Format(SourceDateLayout), rec.EndDate.Format(SourceDateLayout), ErrSchema)
		}
		out = append(out, *rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CleanName != out[j].CleanName {
			return out[i].CleanName < out[j].CleanName
		}
		return out[i].Activity < out[j].Activity
	})
	return out, nil
}

// WidenDates rebuilds wide rows from long closure records, writing dates in the source layout.
// Columns are named "<activity>startdate"/"<activity>enddate" with spaces turned back into
// underscores; sides that are unset are omitted. Centres keep their first-seen order.
func WidenDates(records []models.ClosureRecord) []models.WideRow {
	idx := make(map[string]int)
	var rows []models.WideRow

	for _, rec := range records {
		i, ok := idx[rec.CleanName]
		if !ok {
			i = len(rows)
			idx[rec.CleanName] = i
			rows = append(rows, models.WideRow{CleanName: rec.CleanName})
		}

		prefix := activityColumnPrefix(rec.Activity)
		if rec.HasStart() {
			rows[i].Cells = append(rows[i].Cells, models.Cell{
				CleanName: rec.CleanName,
				Column:    prefix + "startdate",
				Value:     rec.StartDate.Format(SourceDateLayout),
			})
		}
		if rec.HasEnd() {
			rows[i].Cells = append(rows[i].Cells, models.Cell{
				CleanName: rec.CleanName,
				Column:    prefix + "enddate",
				Value:     rec.EndDate.Format(SourceDateLayout),
			})
		}
	}
	return rows
}

// activityColumnPrefix maps "q1 cleaning" back to "q1_cleaning" and "other works" to "other_works_",
// matching the source column naming.
func activityColumnPrefix(activity string) string {
	prefix := strings.ReplaceAll(activity, " ", "_")
	if strings.HasSuffix(prefix, "cleaning") {
		return prefix
	}
	return prefix + "_"
}

// ReshapeRemarks turns the wide remark table into long remark records, dropping "nil" remarks.
func ReshapeRemarks(rows []models.WideRow) ([]models.RemarkRecord, error) {
	var out []models.RemarkRecord
	for _, cell := range Unpivot(rows) {
		if cell.Value == nilRemark {
			continue
		}
		activity, err := ParseRemarkColumn(cell.Column)
		if err != nil {
			return nil, fmt.Errorf("reshape remarks: %s: %w", cell.CleanName, err)
		}
		out = append(out, models.RemarkRecord{
			CleanName: cell.CleanName,
			Activity:  activity,
			Remark:    cell.Value,
		})
	}
	return out, nil
}

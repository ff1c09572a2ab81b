package services

import (
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"hawker-closures/models"
)

// BuildTable flattens a classification into the combined data table, sorted by centre name.
func BuildTable(c *models.Classification) []models.TableRow {
	all := c.All()
	rows := make([]models.TableRow, 0, len(all))
	for _, cc := range all {
		rows = append(rows, models.TableRow{
			Name:         cc.CleanName,
			Address:      cc.Address,
			Description:  cc.HawkerCentre.Description,
			MarketStalls: cc.MarketStalls,
			FoodStalls:   cc.FoodStalls,
			Activity:     capitalize(cc.Closure.Activity),
			StartDate:    tableDate(cc.Closure.StartDate),
			EndDate:      tableDate(cc.Closure.EndDate),
			Status:       cc.Status.Label(),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows
}

// capitalize upper-cases the first letter and lower-cases the rest: "q1 cleaning" → "Q1 cleaning".
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func tableDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

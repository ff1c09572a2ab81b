package services

import (
	"time"

	"hawker-closures/models"
	"hawker-closures/utils"
)

func newTestLogger() *utils.Logger { return utils.NewNopLogger() }

// rawRecord returns a complete dataset row with every date TBC and every remark nil,
// then applies overrides.
func rawRecord(name string, overrides map[string]string) models.RawRecord {
	rec := models.RawRecord{
		"_id":             "1",
		"serial_no":       "1",
		"google_3d_view":  "https://example.com/3d",
		FieldName:         name,
		FieldDescription:  "Market and hawker centre",
		FieldAddress:      "1 Example Road, Singapore 123456",
		FieldMarketStalls: "40",
		FieldFoodStalls:   "60",
		FieldStatus:       "Existing",
		FieldLatitude:     "1.3521",
		FieldLongitude:    "103.8198",
		FieldPhotoURL:     "https://example.com/photo.jpg",
	}
	for _, col := range DateColumns {
		rec[col] = "TBC"
	}
	for _, col := range RemarkColumns {
		rec[col] = "nil"
	}
	for k, v := range overrides {
		rec[k] = v
	}
	return rec
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func centre(name string) *models.HawkerCentre {
	return &models.HawkerCentre{CleanName: name, OriginalName: name, Latitude: 1.35, Longitude: 103.82}
}

func closure(name, activity string, start, end time.Time) models.ClosureRecord {
	return models.ClosureRecord{CleanName: name, Activity: activity, StartDate: start, EndDate: end}
}

package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"hawker-closures/models"
	"hawker-closures/utils"
)

type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

func (s *ReportService) Generate(result *models.PipelineResult) *models.StatusReport {
	report := &models.StatusReport{
		RunID:      result.RunID,
		ByActivity: make(map[string]int),
	}

	c := result.Classification
	if c == nil {
		return report
	}

	report.Today = c.Today
	report.Horizon = c.Horizon
	report.TotalCentres = len(result.Centres)
	report.OpenCount = len(c.Open)
	report.ClosingCount = len(c.ClosingSoon)
	report.ClosedCount = len(c.Closed)
	report.Excluded = c.Excluded
	report.RemarksCount = len(result.Remarks)

	for _, cc := range c.All() {
		report.ByActivity[cc.Closure.Activity]++
	}

	// Soonest closures first
	report.ClosingSoon = append([]*models.ClassifiedCentre(nil), c.ClosingSoon...)
	sort.SliceStable(report.ClosingSoon, func(i, j int) bool {
		return report.ClosingSoon[i].Closure.StartDate.Before(report.ClosingSoon[j].Closure.StartDate)
	})

	if len(report.Excluded) > 0 {
		s.logger.Warn("[report] %d centres have no qualifying closure and are not shown", len(report.Excluded))
	}
	return report
}

func (s *ReportService) Print(r *models.StatusReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🍜 HAWKER CENTRE CLOSURES\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Run                    : %s\n", r.RunID)
	fmt.Printf("  As of                  : \033[1m%s\033[0m (horizon %s)\n",
		r.Today.Format(DisplayDateLayout), r.Horizon.Format(DisplayDateLayout))
	fmt.Printf("  Hawker centres         : \033[1m%d\033[0m\n", r.TotalCentres)
	fmt.Printf("  Open                   : \033[1;32m%d\033[0m\n", r.OpenCount)
	fmt.Printf("  Closing within a month : \033[1;33m%d\033[0m\n", r.ClosingCount)
	fmt.Printf("  Closed                 : \033[1;31m%d\033[0m\n", r.ClosedCount)
	fmt.Printf("  No closure on record   : \033[1m%d\033[0m\n", len(r.Excluded))
	fmt.Printf("  Remarks                : \033[1m%d\033[0m\n", r.RemarksCount)
	fmt.Println()

	// ── CLOSING SOON ─────────────────────────────────────────────────────
	fmt.Printf("\033[1;33m  Closing Within a Month\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ClosingSoon) == 0 {
		fmt.Printf("  No closures coming up\n")
	} else {
		for i, cc := range r.ClosingSoon {
			fmt.Printf("  \033[1m%d.\033[0m %-32s %s → %s (in %d days)\n", i+1, truncate(cc.CleanName, 30),
				formatDisplayDate(cc.Closure.StartDate), formatDisplayDate(cc.Closure.EndDate),
				daysUntil(r.Today, cc.Closure.StartDate))
		}
	}
	fmt.Println()

	// Closures by activity
	fmt.Printf("\033[1;33m  Selected Closures by Activity\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ByActivity) == 0 {
		fmt.Printf("  No closure data\n")
	} else {
		type activityCount struct {
			activity string
			count    int
		}
		var acts []activityCount
		for act, cnt := range r.ByActivity {
			acts = append(acts, activityCount{act, cnt})
		}
		sort.Slice(acts, func(i, j int) bool {
			if acts[i].count != acts[j].count {
				return acts[i].count > acts[j].count
			}
			return acts[i].activity < acts[j].activity
		})
		for _, ac := range acts {
			bar := strings.Repeat("█", ac.count)
			fmt.Printf("  %-16s %s (%d)\n", ac.activity, bar, ac.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

// daysUntil is the number of whole days from today to d.
func daysUntil(today, d time.Time) int {
	return int(d.Sub(today).Hours() / 24)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

package domain

import (
	"time"
	_ "time/tzdata"

	ratedomain "github.com/smallbiznis/courier/internal/rate/domain"
)

// FinancialYear returns the reporting year that starts on the first day of
// startMonth in year, local to loc, as a UTC interval.
func FinancialYear(year int, startMonth time.Month, loc *time.Location) ratedomain.Period {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, startMonth, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(1, 0, 0)
	return ratedomain.Period{Start: start.UTC(), End: end.UTC()}
}

// Month is one calendar month, local to the reporting timezone, clipped to
// the interval it was derived from.
type Month struct {
	Name   string
	Period ratedomain.Period
}

// Months splits period at local calendar month boundaries.
func Months(period ratedomain.Period, loc *time.Location) []Month {
	if loc == nil {
		loc = time.UTC
	}
	if !period.Valid() {
		return nil
	}

	var months []Month
	local := period.Start.In(loc)
	cursor := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	for cursor.Before(period.End) {
		next := cursor.AddDate(0, 1, 0)

		start := cursor.UTC()
		if start.Before(period.Start) {
			start = period.Start
		}
		end := next.UTC()
		if end.After(period.End) {
			end = period.End
		}
		if end.After(start) {
			months = append(months, Month{
				Name:   cursor.Month().String(),
				Period: ratedomain.Period{Start: start, End: end},
			})
		}
		cursor = next
	}
	return months
}

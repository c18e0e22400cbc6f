package domain

import (
	"sort"
	"time"
)

// ResolveBands splits period into the sub-intervals covered by each rate.
//
// rates must all belong to one notification type. Rate i applies over
// [ValidFrom_i, ValidFrom_i+1) and the last rate is open-ended, so a period
// starting after the last ValidFrom resolves to a single band at that rate.
// Returned bands are clipped to the period, ordered and contiguous.
func ResolveBands(rates []Rate, period Period) ([]Band, error) {
	if len(rates) == 0 {
		return nil, ErrEmptyRateTable
	}
	if !period.Valid() {
		return nil, ErrInvalidPeriod
	}

	sorted := make([]Rate, len(rates))
	copy(sorted, rates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ValidFrom.Before(sorted[j].ValidFrom)
	})

	bands := make([]Band, 0, len(sorted))
	for i, current := range sorted {
		start := current.ValidFrom
		end := period.End
		if i+1 < len(sorted) {
			end = sorted[i+1].ValidFrom
		}
		// superseded at the same instant it became valid
		if !end.After(start) {
			continue
		}
		if !overlaps(start, end, period) {
			continue
		}
		bands = append(bands, Band{
			Rate:  current.Rate,
			Start: latest(start, period.Start),
			End:   earliest(end, period.End),
		})
	}

	if len(bands) == 0 {
		return nil, ErrNoRateForPeriod
	}
	return bands, nil
}

func overlaps(start, end time.Time, period Period) bool {
	return start.Before(period.End) && end.After(period.Start)
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

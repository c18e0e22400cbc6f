package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	notificationdomain "github.com/smallbiznis/courier/internal/notification/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func smsRate(value int64, validFrom time.Time) Rate {
	return Rate{
		NotificationType: notificationdomain.SMS,
		Rate:             decimal.NewFromInt(value),
		ValidFrom:        validFrom,
	}
}

func TestResolveBands_SplitsPeriodAtRateChange(t *testing.T) {
	rates := []Rate{
		smsRate(10, date(2000, time.April, 1)),
		smsRate(12, date(2000, time.July, 1)),
	}
	period := Period{Start: date(2000, time.April, 1), End: date(2001, time.April, 1)}

	bands, err := ResolveBands(rates, period)
	require.NoError(t, err)
	require.Len(t, bands, 2)

	assert.True(t, bands[0].Rate.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, date(2000, time.April, 1), bands[0].Start)
	assert.Equal(t, date(2000, time.July, 1), bands[0].End)

	assert.True(t, bands[1].Rate.Equal(decimal.NewFromInt(12)))
	assert.Equal(t, date(2000, time.July, 1), bands[1].Start)
	assert.Equal(t, date(2001, time.April, 1), bands[1].End)
}

func TestResolveBands_PeriodAfterLastRateUsesLastRate(t *testing.T) {
	rates := []Rate{
		smsRate(10, date(2016, time.May, 1)),
		smsRate(15, date(2017, time.January, 1)),
	}
	period := Period{Start: date(2018, time.April, 1), End: date(2019, time.April, 1)}

	bands, err := ResolveBands(rates, period)
	require.NoError(t, err)
	require.Len(t, bands, 1)
	assert.True(t, bands[0].Rate.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, period.Start, bands[0].Start)
	assert.Equal(t, period.End, bands[0].End)
}

func TestResolveBands_RateSpanningWholePeriod(t *testing.T) {
	rates := []Rate{
		smsRate(10, date(2015, time.January, 1)),
		smsRate(11, date(2020, time.January, 1)),
	}
	period := Period{Start: date(2017, time.April, 1), End: date(2018, time.April, 1)}

	bands, err := ResolveBands(rates, period)
	require.NoError(t, err)
	require.Len(t, bands, 1)
	assert.True(t, bands[0].Rate.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, period.Start, bands[0].Start)
	assert.Equal(t, period.End, bands[0].End)
}

func TestResolveBands_ClipsEarlierRateToPeriodStart(t *testing.T) {
	rates := []Rate{
		smsRate(10, date(2016, time.May, 1)),
		smsRate(12, date(2016, time.October, 1)),
		smsRate(14, date(2017, time.June, 1)),
	}
	period := Period{Start: date(2017, time.April, 1), End: date(2018, time.April, 1)}

	bands, err := ResolveBands(rates, period)
	require.NoError(t, err)
	require.Len(t, bands, 2)
	assert.True(t, bands[0].Rate.Equal(decimal.NewFromInt(12)))
	assert.Equal(t, period.Start, bands[0].Start)
	assert.Equal(t, date(2017, time.June, 1), bands[0].End)
	assert.True(t, bands[1].Rate.Equal(decimal.NewFromInt(14)))
}

func TestResolveBands_UnsortedInputIsOrdered(t *testing.T) {
	rates := []Rate{
		smsRate(12, date(2000, time.July, 1)),
		smsRate(10, date(2000, time.April, 1)),
	}
	period := Period{Start: date(2000, time.April, 1), End: date(2001, time.April, 1)}

	bands, err := ResolveBands(rates, period)
	require.NoError(t, err)
	require.Len(t, bands, 2)
	assert.True(t, bands[0].Rate.Equal(decimal.NewFromInt(10)))
	assert.True(t, rates[0].Rate.Equal(decimal.NewFromInt(12)), "input must not be reordered")
}

func TestResolveBands_RateStartingAtPeriodEndIsExcluded(t *testing.T) {
	rates := []Rate{
		smsRate(10, date(2000, time.April, 1)),
		smsRate(12, date(2001, time.April, 1)),
	}
	period := Period{Start: date(2000, time.April, 1), End: date(2001, time.April, 1)}

	bands, err := ResolveBands(rates, period)
	require.NoError(t, err)
	require.Len(t, bands, 1)
	assert.True(t, bands[0].Rate.Equal(decimal.NewFromInt(10)))
}

func TestResolveBands_Errors(t *testing.T) {
	period := Period{Start: date(2000, time.April, 1), End: date(2001, time.April, 1)}

	_, err := ResolveBands(nil, period)
	assert.ErrorIs(t, err, ErrEmptyRateTable)

	_, err = ResolveBands([]Rate{smsRate(10, date(2005, time.January, 1))}, period)
	assert.ErrorIs(t, err, ErrNoRateForPeriod)

	_, err = ResolveBands([]Rate{smsRate(10, date(2000, time.January, 1))}, Period{Start: period.End, End: period.Start})
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestResolveBands_BandsTileCoveredPeriod(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := date(2010, time.January, 1)

	for iter := 0; iter < 500; iter++ {
		n := 1 + rng.Intn(6)
		rates := make([]Rate, 0, n)
		for i := 0; i < n; i++ {
			rates = append(rates, smsRate(int64(rng.Intn(50)), base.AddDate(0, 0, rng.Intn(2000))))
		}
		start := base.AddDate(0, 0, rng.Intn(2500))
		period := Period{Start: start, End: start.AddDate(0, 0, 1+rng.Intn(400))}

		bands, err := ResolveBands(rates, period)
		if err != nil {
			require.ErrorIs(t, err, ErrNoRateForPeriod)
			continue
		}

		first := rates[0].ValidFrom
		for _, r := range rates {
			if r.ValidFrom.Before(first) {
				first = r.ValidFrom
			}
		}
		expectedStart := period.Start
		if first.After(expectedStart) {
			expectedStart = first
		}

		require.NotEmpty(t, bands)
		assert.Equal(t, expectedStart, bands[0].Start)
		assert.Equal(t, period.End, bands[len(bands)-1].End)
		for i, band := range bands {
			assert.True(t, band.End.After(band.Start), "band %d is empty", i)
			if i > 0 {
				assert.Equal(t, bands[i-1].End, band.Start, "gap or overlap before band %d", i)
			}
		}

		if !period.Start.Before(latestValidFrom(rates)) {
			assert.Len(t, bands, 1)
		}
	}
}

func latestValidFrom(rates []Rate) time.Time {
	last := rates[0].ValidFrom
	for _, r := range rates {
		if r.ValidFrom.After(last) {
			last = r.ValidFrom
		}
	}
	return last
}

func TestCost(t *testing.T) {
	rate := decimal.RequireFromString("1.65")

	assert.Equal(t, int64(17), Cost(rate, 10, 1))
	assert.Equal(t, int64(33), Cost(rate, 10, 2))
	assert.Equal(t, int64(17), Cost(rate, 10, 0), "unset multiplier defaults to 1")
	assert.Equal(t, int64(0), Cost(rate, 0, 3))
}

// Package forecast shapes provider payloads into the widget's display model.
package forecast

import (
	"errors"
	"math"
	"time"

	"weather-widget/internal/models"
)

const (
	// DailyStride is the number of 3-hour records per calendar day.
	DailyStride = 8
	DailyDays   = 5

	dateLayout = "January 2, 2006"
	timeLayout = "03:04 PM"
)

var (
	ErrNoIntervals = errors.New("forecast payload has no interval records")
	ErrNoCondition = errors.New("current payload has no weather condition")
)

// Normalize builds the display model from the current-conditions payload and
// the 5-day/3-hour forecast for the same location.
func Normalize(current models.CurrentPayload, fc models.ForecastPayload) (models.DisplayModel, error) {
	if len(fc.List) == 0 {
		return models.DisplayModel{}, ErrNoIntervals
	}
	if len(current.Weather) == 0 {
		return models.DisplayModel{}, ErrNoCondition
	}

	loc := zoneFor(current.Timezone)
	ts := time.Unix(current.Dt, 0).In(loc)
	cond := current.Weather[0]

	name := current.Name
	if name == "" {
		name = fc.City.Name
	}
	country := current.Sys.Country
	if country == "" {
		country = fc.City.Country
	}

	return models.DisplayModel{
		Current: models.Current{
			Location:    name,
			Country:     country,
			Timestamp:   current.Dt,
			Date:        ts.Format(dateLayout),
			Time:        ts.Format(timeLayout),
			Temperature: floor(current.Main.Temp),
			High:        floor(current.Main.TempMax),
			Low:         floor(current.Main.TempMin),
			Humidity:    current.Main.Humidity,
			WindSpeed:   floor(current.Wind.Speed),
			Description: cond.Main,
			IconKey:     Icon(cond.Icon),
		},
		DailySummary: DailySummary(fc.List, zoneFor(fc.City.Timezone)),
	}, nil
}

// DailySummary keeps every DailyStride-th record (0-indexed), at most DailyDays of them.
func DailySummary(records []models.IntervalRecord, loc *time.Location) []models.DailyEntry {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]models.DailyEntry, 0, DailyDays)
	for i := 0; i < len(records) && len(out) < DailyDays; i += DailyStride {
		r := records[i]
		entry := models.DailyEntry{
			Timestamp:   r.Dt,
			Date:        time.Unix(r.Dt, 0).In(loc).Format(dateLayout),
			Temperature: floor(r.Main.Temp),
			IconKey:     DefaultIcon,
		}
		if len(r.Weather) > 0 {
			entry.Description = r.Weather[0].Main
			entry.IconKey = Icon(r.Weather[0].Icon)
		}
		out = append(out, entry)
	}
	return out
}

// zoneFor turns the provider's UTC shift in seconds into a fixed zone.
func zoneFor(offsetSeconds int) *time.Location {
	if offsetSeconds == 0 {
		return time.UTC
	}
	return time.FixedZone("", offsetSeconds)
}

func floor(v float64) int {
	return int(math.Floor(v))
}

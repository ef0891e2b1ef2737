package owm

import (
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"weather-widget/internal/models"
)

type demoCity struct {
	name     string
	country  string
	lat, lon float64
	tz       int
}

var demoCities = []demoCity{
	{"Budapest", "HU", 47.4979, 19.0402, 7200},
	{"London", "GB", 51.5074, -0.1278, 3600},
	{"New York", "US", 40.7128, -74.0060, -14400},
	{"Tokyo", "JP", 35.6762, 139.6503, 32400},
	{"Paris", "FR", 48.8566, 2.3522, 7200},
	{"Berlin", "DE", 52.5200, 13.4050, 7200},
	{"Sydney", "AU", -33.8688, 151.2093, 36000},
	{"San Francisco", "US", 37.7749, -122.4194, -25200},
	{"Amsterdam", "NL", 52.3676, 4.9041, 7200},
	{"Vienna", "AT", 48.2082, 16.3738, 7200},
}

var demoConditions = []models.Condition{
	{ID: 800, Main: "Clear", Description: "clear sky", Icon: "01d"},
	{ID: 802, Main: "Clouds", Description: "scattered clouds", Icon: "03d"},
	{ID: 500, Main: "Rain", Description: "light rain", Icon: "10d"},
	{ID: 804, Main: "Clouds", Description: "overcast clouds", Icon: "04n"},
	{ID: 300, Main: "Drizzle", Description: "light drizzle", Icon: "09d"},
}

func findDemoCity(name string) (demoCity, bool) {
	for _, c := range demoCities {
		if strings.EqualFold(c.name, strings.TrimSpace(name)) {
			return c, true
		}
	}
	return demoCity{}, false
}

func nearestDemoCity(lat, lon float64) demoCity {
	best := demoCities[0]
	bestDist := math.MaxFloat64
	for _, c := range demoCities {
		d := math.Hypot(c.lat-lat, c.lon-lon)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// mockCurrent mimics the provider: unknown cities answer 404.
func mockCurrent(city string) (models.CurrentPayload, error) {
	c, ok := findDemoCity(city)
	if !ok {
		return models.CurrentPayload{}, fmt.Errorf("fetching current weather: %w",
			httpStatusError{status: http.StatusNotFound, body: `{"cod":"404","message":"city not found"}`})
	}
	now := time.Now().Truncate(time.Minute)
	seed := len(c.name)
	out := models.CurrentPayload{
		Name:     c.name,
		Dt:       now.Unix(),
		Timezone: c.tz,
		Coord:    models.Coord{Lat: c.lat, Lon: c.lon},
		Main: models.MainBlock{
			Temp:     14 + float64(seed%9) + 0.6,
			TempMin:  10 + float64(seed%9) + 0.2,
			TempMax:  18 + float64(seed%9) + 0.8,
			Humidity: 50 + seed*3%40,
		},
		Wind:    models.Wind{Speed: 2.4 + float64(seed%5)},
		Weather: []models.Condition{demoConditions[seed%len(demoConditions)]},
	}
	out.Sys.Country = c.country
	return out, nil
}

func mockForecast(lat, lon float64) models.ForecastPayload {
	c := nearestDemoCity(lat, lon)
	start := time.Now().Truncate(3 * time.Hour).Add(3 * time.Hour)
	list := make([]models.IntervalRecord, 0, 40)
	for i := 0; i < 40; i++ {
		cond := demoConditions[(i/8+len(c.name))%len(demoConditions)]
		temp := 12 + 6*math.Sin(float64(i)*math.Pi/4) + float64(i%8)/4
		list = append(list, models.IntervalRecord{
			Dt:      start.Add(time.Duration(i) * 3 * time.Hour).Unix(),
			Main:    models.MainBlock{Temp: temp, TempMin: temp - 1, TempMax: temp + 1, Humidity: 60 + i%20},
			Wind:    models.Wind{Speed: 1.5 + float64(i%6)/2},
			Weather: []models.Condition{cond},
		})
	}
	return models.ForecastPayload{
		List: list,
		City: models.City{Name: c.name, Country: c.country, Timezone: c.tz, Coord: models.Coord{Lat: c.lat, Lon: c.lon}},
	}
}

package models

// Condition is one entry of the provider's "weather" array.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type MainBlock struct {
	Temp     float64 `json:"temp"`
	TempMin  float64 `json:"temp_min"`
	TempMax  float64 `json:"temp_max"`
	Humidity int     `json:"humidity"`
}

type Wind struct {
	Speed float64 `json:"speed"`
}

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// IntervalRecord is one 3-hour step of the forecast list.
type IntervalRecord struct {
	Dt      int64       `json:"dt"`
	Main    MainBlock   `json:"main"`
	Wind    Wind        `json:"wind"`
	Weather []Condition `json:"weather"`
}

type City struct {
	Name     string `json:"name"`
	Country  string `json:"country"`
	Timezone int    `json:"timezone"`
	Coord    Coord  `json:"coord"`
}

// ForecastPayload is the body of /data/2.5/forecast.
type ForecastPayload struct {
	List []IntervalRecord `json:"list"`
	City City             `json:"city"`
}

// CurrentPayload is the body of /data/2.5/weather.
type CurrentPayload struct {
	Name     string      `json:"name"`
	Dt       int64       `json:"dt"`
	Timezone int         `json:"timezone"`
	Coord    Coord       `json:"coord"`
	Main     MainBlock   `json:"main"`
	Wind     Wind        `json:"wind"`
	Weather  []Condition `json:"weather"`
	Sys      struct {
		Country string `json:"country"`
	} `json:"sys"`
}

// Current holds floored, Celsius values for the current-conditions card.
type Current struct {
	Location    string `json:"location"`
	Country     string `json:"country,omitempty"`
	Timestamp   int64  `json:"timestamp"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Temperature int    `json:"temperature"`
	High        int    `json:"high"`
	Low         int    `json:"low"`
	Humidity    int    `json:"humidity"`
	WindSpeed   int    `json:"windSpeed"`
	Description string `json:"description"`
	IconKey     string `json:"iconKey"`
}

type DailyEntry struct {
	Timestamp   int64  `json:"timestamp"`
	Date        string `json:"date"`
	Temperature int    `json:"temperature"`
	Description string `json:"description"`
	IconKey     string `json:"iconKey"`
}

// DisplayModel is replaced wholesale on every successful search.
type DisplayModel struct {
	Current      Current      `json:"current"`
	DailySummary []DailyEntry `json:"dailySummary"`
}

package widget

import (
	"weather-widget/internal/forecast"
	"weather-widget/internal/models"
)

type CurrentView struct {
	Location    string  `json:"location"`
	Country     string  `json:"country,omitempty"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Temperature float64 `json:"temperature"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Humidity    int     `json:"humidity"`
	WindSpeed   int     `json:"windSpeed"`
	Description string  `json:"description"`
	IconKey     string  `json:"iconKey"`
}

type DailyView struct {
	Date        string  `json:"date"`
	Temperature float64 `json:"temperature"`
	Description string  `json:"description"`
	IconKey     string  `json:"iconKey"`
}

// View is what the page draws: the stored Celsius model converted for the
// selected unit.
type View struct {
	SessionID   string        `json:"sessionId,omitempty"`
	Sequence    uint64        `json:"sequence"`
	Unit        forecast.Unit `json:"unit"`
	Symbol      string        `json:"symbol"`
	ToggleLabel string        `json:"toggleLabel"`
	Current     *CurrentView  `json:"current,omitempty"`
	Daily       []DailyView   `json:"dailySummary"`
}

func Render(m *models.DisplayModel, useCelsius bool) View {
	unit := forecast.UnitFor(useCelsius)
	v := View{
		Unit:        unit,
		Symbol:      unit.Symbol(),
		ToggleLabel: forecast.UnitFor(!useCelsius).Symbol(),
		Daily:       []DailyView{},
	}
	if m == nil {
		return v
	}

	conv := func(c int) float64 { return forecast.DisplayTemp(float64(c), useCelsius) }
	c := m.Current
	v.Current = &CurrentView{
		Location:    c.Location,
		Country:     c.Country,
		Date:        c.Date,
		Time:        c.Time,
		Temperature: conv(c.Temperature),
		High:        conv(c.High),
		Low:         conv(c.Low),
		Humidity:    c.Humidity,
		WindSpeed:   c.WindSpeed,
		Description: c.Description,
		IconKey:     c.IconKey,
	}
	for _, d := range m.DailySummary {
		v.Daily = append(v.Daily, DailyView{
			Date:        d.Date,
			Temperature: conv(d.Temperature),
			Description: d.Description,
			IconKey:     d.IconKey,
		})
	}
	return v
}

func renderState(st State) View {
	v := Render(st.Model, st.UseCelsius)
	v.SessionID = st.ID
	v.Sequence = st.Applied
	return v
}

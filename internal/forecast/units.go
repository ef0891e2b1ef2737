package forecast

import "strings"

type Unit string

const (
	Celsius    Unit = "celsius"
	Fahrenheit Unit = "fahrenheit"
)

func UnitFor(useCelsius bool) Unit {
	if useCelsius {
		return Celsius
	}
	return Fahrenheit
}

// ParseUnit accepts the names used by the API query string ("metric", "imperial", "c", "f", ...).
func ParseUnit(s string) (Unit, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "c", "celsius", "metric":
		return Celsius, true
	case "f", "fahrenheit", "imperial":
		return Fahrenheit, true
	}
	return Celsius, false
}

func (u Unit) Symbol() string {
	if u == Fahrenheit {
		return "°F"
	}
	return "°C"
}

// DisplayTemp converts a stored Celsius value for display. Stored values stay in Celsius.
func DisplayTemp(celsius float64, useCelsius bool) float64 {
	if useCelsius {
		return celsius
	}
	return celsius*9/5 + 32
}

func ToCelsius(fahrenheit float64) float64 {
	return (fahrenheit - 32) * 5 / 9
}

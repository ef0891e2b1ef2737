package forecast

const DefaultIcon = "/clear.png"

var icons = map[string]string{
	"01d": "/clear.png",
	"01n": "/night.png",
	"02d": "/cloudy.png",
	"02n": "/night.png",
	"03d": "/cloudy.png",
	"03n": "/night.png",
	"04d": "/cloudy.png",
	"04n": "/night.png",
	"09d": "/drizzle.png",
	"09n": "/drizzle.png",
	"10d": "/rain.png",
	"10n": "/rain.png",
	"11d": "/thunder.png",
	"11n": "/thunder.png",
	"13d": "/snow.png",
	"13n": "/snow.png",
	"50d": "/mist.png",
	"50n": "/mist.png",
}

// Icon maps a provider condition code to a local asset path.
func Icon(code string) string {
	if asset, ok := icons[code]; ok {
		return asset
	}
	return DefaultIcon
}

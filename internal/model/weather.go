package model

// WeatherData is the full payload returned by GET /api/weather.
//
// Guests receive a reduced version: current conditions with the detailed
// metrics zeroed, empty hourly/daily slices, and no air quality block.
// The shaping happens in the weather service, not here.
type WeatherData struct {
	Current  CurrentWeather  `json:"current"`
	Hourly   []HourlyWeather `json:"hourly"`
	Daily    []DailyWeather  `json:"daily"`
	AQI      *AirQuality     `json:"aqi,omitempty"`
	Location LocationInfo    `json:"location"`
}

// CurrentWeather describes conditions at a single point in time.
// Temperatures are Celsius, wind is km/h, visibility is km. The frontend
// converts to the user's preferred units for display.
//
// Sunrise, Sunset and LastUpdated are RFC 3339 strings rather than
// time.Time: the guest view blanks them out, and a zero time.Time would
// serialize as year 1 instead of an empty string.
type CurrentWeather struct {
	Temp          int    `json:"temp"`
	FeelsLike     int    `json:"feelsLike"`
	Condition     string `json:"condition"`
	Description   string `json:"description"`
	Icon          string `json:"icon"`
	Humidity      int    `json:"humidity"`
	WindSpeed     int    `json:"windSpeed"`
	WindDirection int    `json:"windDirection"`
	Pressure      int    `json:"pressure"`
	Visibility    int    `json:"visibility"`
	UVIndex       int    `json:"uvIndex"`
	Sunrise       string `json:"sunrise"`
	Sunset        string `json:"sunset"`
	LastUpdated   string `json:"lastUpdated"`
}

// HourlyWeather is one 3-hour forecast slot.
type HourlyWeather struct {
	Time          string `json:"time"`
	Temp          int    `json:"temp"`
	Condition     string `json:"condition"`
	Icon          string `json:"icon"`
	Precipitation int    `json:"precipitation"` // probability, percent
	WindSpeed     int    `json:"windSpeed"`
}

// DailyWeather is one day in the daily forecast.
// Daily data requires the paid OneCall tier, so the service currently
// returns an empty slice; the shape is kept for API stability.
type DailyWeather struct {
	Date          string `json:"date"`
	TempMax       int    `json:"tempMax"`
	TempMin       int    `json:"tempMin"`
	Condition     string `json:"condition"`
	Description   string `json:"description"`
	Icon          string `json:"icon"`
	Precipitation int    `json:"precipitation"`
	Humidity      int    `json:"humidity"`
	WindSpeed     int    `json:"windSpeed"`
}

// AirQuality mirrors OpenWeather's air_pollution component block.
// AQI is the 1 (good) to 5 (very poor) index; the rest are μg/m³.
type AirQuality struct {
	AQI  int     `json:"aqi"`
	CO   float64 `json:"co"`
	NO   float64 `json:"no"`
	NO2  float64 `json:"no2"`
	O3   float64 `json:"o3"`
	SO2  float64 `json:"so2"`
	PM25 float64 `json:"pm2_5"`
	PM10 float64 `json:"pm10"`
}

// LocationInfo names the place a weather response describes.
type LocationInfo struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// AutocompleteResult is one suggestion from GET /api/autocomplete.
type AutocompleteResult struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

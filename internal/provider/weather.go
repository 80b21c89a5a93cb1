package provider

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	weatherBaseURL = "https://api.openweathermap.org/data/2.5"
	weatherIconURL = "https://openweathermap.org/img/wn/%s@2x.png"
	forecastSlots  = 8
)

// WeatherMain holds temperature, humidity and pressure readings.
type WeatherMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Humidity  int     `json:"humidity"`
	Pressure  int     `json:"pressure"`
}

// WeatherInfo is a condition summary with its icon code.
type WeatherInfo struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Wind holds speed (m/s) and direction (degrees).
type Wind struct {
	Speed float64 `json:"speed"`
	Deg   int     `json:"deg"`
}

// CurrentWeather is the current conditions at a location.
type CurrentWeather struct {
	Name    string        `json:"name"`
	Main    WeatherMain   `json:"main"`
	Weather []WeatherInfo `json:"weather"`
	Wind    *Wind         `json:"wind,omitempty"`
	Sys     *struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys,omitempty"`
}

// ForecastItem is one three-hour forecast slot.
type ForecastItem struct {
	Dt      int64         `json:"dt"`
	Main    WeatherMain   `json:"main"`
	Weather []WeatherInfo `json:"weather"`
	Wind    Wind          `json:"wind"`
	DtTxt   string        `json:"dt_txt"`
}

// Time returns the slot time.
func (f ForecastItem) Time() time.Time {
	return time.Unix(f.Dt, 0)
}

// Forecast is a short-range forecast for a city.
type Forecast struct {
	List []ForecastItem `json:"list"`
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
}

// Weather queries OpenWeather. It is not an article provider.
type Weather struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewWeather creates a new OpenWeather client.
func NewWeather(opts Options) *Weather {
	return &Weather{
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(opts.baseURL(weatherBaseURL), "/"),
		client:  opts.httpClient(),
	}
}

func (w *Weather) Name() string { return "weather" }

// IsConfigured returns whether the API key is available.
func (w *Weather) IsConfigured() bool {
	return w.apiKey != ""
}

func (w *Weather) params(lat, lon float64) url.Values {
	return url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"units": {"metric"},
		"appid": {w.apiKey},
	}
}

// Current returns current conditions at lat/lon in metric units.
func (w *Weather) Current(ctx context.Context, lat, lon float64) (*CurrentWeather, error) {
	if err := validateCoords(lat, lon); err != nil {
		return nil, err
	}
	var out CurrentWeather
	if err := getJSON(ctx, w.client, w.Name(), w.baseURL+"/weather?"+w.params(lat, lon).Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Forecast returns the next eight three-hour slots at lat/lon.
func (w *Weather) Forecast(ctx context.Context, lat, lon float64) (*Forecast, error) {
	if err := validateCoords(lat, lon); err != nil {
		return nil, err
	}
	params := w.params(lat, lon)
	params.Set("cnt", strconv.Itoa(forecastSlots))
	var out Forecast
	if err := getJSON(ctx, w.client, w.Name(), w.baseURL+"/forecast?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func validateCoords(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("weather: invalid coordinates %v,%v", lat, lon)
	}
	return nil
}

var compass = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// WindDirection maps degrees to an 8-point compass direction.
func WindDirection(deg int) string {
	d := ((deg % 360) + 360) % 360
	return compass[int(float64(d)+22.5)/45%8]
}

// IconURL returns the 2x icon image URL for an OpenWeather icon code.
func IconURL(icon string) string {
	return fmt.Sprintf(weatherIconURL, icon)
}

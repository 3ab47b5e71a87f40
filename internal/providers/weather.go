package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Open-meteo WMO weather interpretation codes.
var weatherCodes = map[int]string{
	0:  "Clear",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow",
	73: "Moderate snow",
	75: "Heavy snow",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm w/ slight hail",
	99: "Thunderstorm w/ heavy hail",
}

type WeatherClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func NewWeatherClient() *WeatherClient {
	return &WeatherClient{
		baseURL: "https://api.open-meteo.com/v1/forecast",
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(5*time.Second), 1),
	}
}

type meteoResponse struct {
	CurrentWeather struct {
		Temperature   float64 `json:"temperature"`
		WindSpeed     float64 `json:"windspeed"`
		WindDirection float64 `json:"winddirection"`
		WeatherCode   int     `json:"weathercode"`
		Time          string  `json:"time"`
	} `json:"current_weather"`
	Hourly struct {
		Time        []string  `json:"time"`
		Apparent    []float64 `json:"apparent_temperature"`
		Humidity    []float64 `json:"relativehumidity_2m"`
	} `json:"hourly"`
}

// Fetch retrieves current conditions for a coordinate. No credential
// required.
func (w *WeatherClient) Fetch(ctx context.Context, lat, lon float64, timezone string) (WeatherReport, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return WeatherReport{}, err
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("current_weather", "true")
	params.Set("hourly", "apparent_temperature,relativehumidity_2m")
	params.Set("timezone", timezone)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return WeatherReport{}, err
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return WeatherReport{}, fmt.Errorf("fetching weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return WeatherReport{}, fmt.Errorf("weather API %d: %s", resp.StatusCode, string(b))
	}

	var mr meteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return WeatherReport{}, fmt.Errorf("decoding weather response: %w", err)
	}
	return parseWeather(mr), nil
}

// parseWeather maps the raw response to the typed report, joining the
// hourly series to the current observation time for apparent temperature
// and humidity.
func parseWeather(mr meteoResponse) WeatherReport {
	cur := mr.CurrentWeather
	r := WeatherReport{
		Temperature: cur.Temperature,
		WindSpeed:   cur.WindSpeed,
		Code:        cur.WeatherCode,
		Description: describeWeather(cur.WeatherCode),
		ObservedAt:  cur.Time,
	}
	dir := cur.WindDirection
	r.WindDir = &dir

	for i, t := range mr.Hourly.Time {
		if t != cur.Time {
			continue
		}
		if i < len(mr.Hourly.Apparent) {
			v := mr.Hourly.Apparent[i]
			r.Apparent = &v
		}
		if i < len(mr.Hourly.Humidity) {
			v := mr.Hourly.Humidity[i]
			r.Humidity = &v
		}
		break
	}
	return r
}

func describeWeather(code int) string {
	if desc, ok := weatherCodes[code]; ok {
		return desc
	}
	return "Unknown"
}

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/i474232898/weather-data-collector/internal/weather"
	"github.com/sony/gobreaker"
)

// DefaultWeatherAPIURL is the current-conditions endpoint of WeatherAPI.com.
const DefaultWeatherAPIURL = "https://api.weatherapi.com/v1/current.json"

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
// WeatherAPI returns a single localized condition text per request.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	units   weather.Units
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(cfg HTTPClientConfig, apiKey string, units weather.Units, baseURL string) *WeatherAPIProvider {
	if baseURL == "" {
		baseURL = DefaultWeatherAPIURL
	}
	if units == "" {
		units = weather.UnitsMetric
	}

	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		units:   units,
		baseURL: baseURL,
		httpCfg: cfg,
		circuit: newCircuitBreaker("weatherapi", cfg),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, t weather.Target) (weather.Observation, error) {
	if p.apiKey == "" {
		return weather.Observation{}, fmt.Errorf("weatherapi api key is not configured")
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", t.City)
	// WeatherAPI expects lowercase language codes.
	values.Set("lang", strings.ToLower(t.Lang))

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	if err != nil {
		return weather.Observation{}, err
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, req)
	if err != nil {
		return weather.Observation{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Location struct {
			Name string `json:"name"`
		} `json:"location"`
		Current struct {
			TempC     float64 `json:"temp_c"`
			TempF     float64 `json:"temp_f"`
			Condition struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Observation{}, fmt.Errorf("decode weatherapi response: %w", err)
	}

	var descriptions []string
	if text := strings.TrimSpace(payload.Current.Condition.Text); text != "" {
		descriptions = []string{text}
	}

	return weather.Observation{
		Target:       t,
		Place:        payload.Location.Name,
		Temperature:  p.temperature(payload.Current.TempC, payload.Current.TempF),
		Descriptions: descriptions,
	}, nil
}

func (p *WeatherAPIProvider) temperature(c, f float64) float64 {
	switch p.units {
	case weather.UnitsImperial:
		return f
	case weather.UnitsStandard:
		return c + 273.15
	default:
		return c
	}
}

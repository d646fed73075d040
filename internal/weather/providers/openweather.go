package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/i474232898/weather-data-collector/internal/weather"
	"github.com/sony/gobreaker"
)

// DefaultOpenWeatherURL is the current-weather endpoint of OpenWeatherMap.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	units   weather.Units
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewOpenWeatherProvider creates a provider. An empty baseURL selects
// DefaultOpenWeatherURL and empty units select metric.
func NewOpenWeatherProvider(cfg HTTPClientConfig, apiKey string, units weather.Units, baseURL string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	if units == "" {
		units = weather.UnitsMetric
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		units:   units,
		baseURL: baseURL,
		httpCfg: cfg,
		circuit: newCircuitBreaker("openweather", cfg),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// URL returns the request URL for a target.
func (p *OpenWeatherProvider) URL(t weather.Target) string {
	values := url.Values{}
	values.Set("q", t.City)
	values.Set("appid", p.apiKey)
	values.Set("units", string(p.units))
	values.Set("lang", t.Lang)
	return fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, t weather.Target) (weather.Observation, error) {
	if p.apiKey == "" {
		return weather.Observation{}, fmt.Errorf("openweather api key is not configured")
	}

	req, err := http.NewRequest(http.MethodGet, p.URL(t), nil)
	if err != nil {
		return weather.Observation{}, err
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, req)
	if err != nil {
		return weather.Observation{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Name string `json:"name"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Observation{}, fmt.Errorf("decode openweather response: %w", err)
	}

	descriptions := make([]string, 0, len(payload.Weather))
	for _, w := range payload.Weather {
		descriptions = append(descriptions, w.Description)
	}

	return weather.Observation{
		Target:       t,
		Place:        payload.Name,
		Temperature:  payload.Main.Temp,
		Descriptions: descriptions,
	}, nil
}

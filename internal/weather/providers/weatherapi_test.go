package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-data-collector/internal/weather"
)

func TestWeatherAPIFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "key", q.Get("key"))
		assert.Equal(t, "Berlin", q.Get("q"))
		assert.Equal(t, "de", q.Get("lang"))
		fmt.Fprint(w, `{"location":{"name":"Berlin"},"current":{"temp_c":10.4,"temp_f":50.7,"condition":{"text":"Bedeckt "}}}`)
	}))
	defer srv.Close()

	target := weather.Target{City: "Berlin", Lang: "DE"}

	p := NewWeatherAPIProvider(HTTPClientConfig{Client: srv.Client()}, "key", weather.UnitsMetric, srv.URL)
	obs, err := p.Fetch(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, "Berlin", obs.Place)
	assert.InDelta(t, 10.4, obs.Temperature, 1e-9)
	assert.Equal(t, "Bedeckt", obs.PrimaryDescription())

	p = NewWeatherAPIProvider(HTTPClientConfig{Client: srv.Client()}, "key", weather.UnitsImperial, srv.URL)
	obs, err = p.Fetch(context.Background(), target)
	require.NoError(t, err)
	assert.InDelta(t, 50.7, obs.Temperature, 1e-9)

	p = NewWeatherAPIProvider(HTTPClientConfig{Client: srv.Client()}, "key", weather.UnitsStandard, srv.URL)
	obs, err = p.Fetch(context.Background(), target)
	require.NoError(t, err)
	assert.InDelta(t, 283.55, obs.Temperature, 1e-9)
}

func TestWeatherAPINotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(HTTPClientConfig{Client: srv.Client()}, "key", weather.UnitsMetric, srv.URL)
	_, err := p.Fetch(context.Background(), weather.Target{City: "Atlantis", Lang: "EN"})
	assert.ErrorIs(t, err, errNotFound)
}

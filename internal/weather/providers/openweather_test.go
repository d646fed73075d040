package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-data-collector/internal/weather"
)

func TestOpenWeatherURL(t *testing.T) {
	p := NewOpenWeatherProvider(HTTPClientConfig{Client: http.DefaultClient}, "secret", "", "")

	u, err := url.Parse(p.URL(weather.Target{City: "München", Lang: "DE"}))
	require.NoError(t, err)

	assert.Equal(t, "api.openweathermap.org", u.Host)
	assert.Equal(t, "/data/2.5/weather", u.Path)
	q := u.Query()
	assert.Equal(t, "München", q.Get("q"))
	assert.Equal(t, "secret", q.Get("appid"))
	assert.Equal(t, "metric", q.Get("units"))
	assert.Equal(t, "DE", q.Get("lang"))
}

func TestOpenWeatherFetchDecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Berlin", r.URL.Query().Get("q"))
		assert.Equal(t, "EN", r.URL.Query().Get("lang"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"name":"Berlin","main":{"temp":10.42,"humidity":80},"weather":[{"id":804,"description":"overcast clouds"},{"description":"mist"}]}`)
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(HTTPClientConfig{Client: srv.Client()}, "key", weather.UnitsMetric, srv.URL)
	obs, err := p.Fetch(context.Background(), weather.Target{City: "Berlin", Lang: "EN"})
	require.NoError(t, err)

	assert.Equal(t, "Berlin", obs.Place)
	assert.InDelta(t, 10.42, obs.Temperature, 1e-9)
	assert.Equal(t, []string{"overcast clouds", "mist"}, obs.Descriptions)
	assert.Equal(t, weather.Target{City: "Berlin", Lang: "EN"}, obs.Target)
}

func TestOpenWeatherFetchNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"cod":401,"message":"Invalid API key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(HTTPClientConfig{Client: srv.Client()}, "bad", weather.UnitsMetric, srv.URL)
	_, err := p.Fetch(context.Background(), weather.Target{City: "Berlin", Lang: "DE"})
	assert.ErrorIs(t, err, errUnauthorized)
}

func TestOpenWeatherFetchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(HTTPClientConfig{Client: srv.Client()}, "key", weather.UnitsMetric, srv.URL)
	_, err := p.Fetch(context.Background(), weather.Target{City: "Berlin", Lang: "DE"})
	assert.Error(t, err)
}

func TestOpenWeatherFetchWithoutKey(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(HTTPClientConfig{Client: srv.Client()}, "", weather.UnitsMetric, srv.URL)
	_, err := p.Fetch(context.Background(), weather.Target{City: "Berlin", Lang: "DE"})
	assert.Error(t, err)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := HTTPClientConfig{Client: srv.Client(), MaxConsecutiveFailures: 2, OpenTimeout: time.Hour}
	p := NewOpenWeatherProvider(cfg, "key", weather.UnitsMetric, srv.URL)

	for i := 0; i < 2; i++ {
		_, err := p.Fetch(context.Background(), weather.Target{City: "Berlin", Lang: "DE"})
		assert.ErrorIs(t, err, errServerError)
	}

	_, err := p.Fetch(context.Background(), weather.Target{City: "Berlin", Lang: "EN"})
	assert.True(t, errors.Is(err, errCircuitOpen), "got %v", err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "each target is attempted at most once")
}

func TestClientFetchesAgainstFakeServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") == "München" && q.Get("lang") == "EN" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprintf(w, `{"name":%q,"main":{"temp":1.5},"weather":[{"description":"%s-%s"}]}`, q.Get("q"), q.Get("q"), q.Get("lang"))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(HTTPClientConfig{Client: srv.Client()}, "key", weather.UnitsMetric, srv.URL)
	c, err := weather.NewClient(p, []string{"Berlin", "München", "Stuttgart"}, []string{"DE", "EN"})
	require.NoError(t, err)

	set := c.FetchObservations(context.Background())
	assert.Equal(t, 5, set.Len())
	assert.Equal(t, []weather.Target{{City: "München", Lang: "EN"}}, set.Missing())

	obs, ok := set.Get(weather.Target{City: "Stuttgart", Lang: "EN"})
	require.True(t, ok)
	assert.Equal(t, "Stuttgart-EN", obs.PrimaryDescription())
}

package weather

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

var (
	// ErrLanguageCount is returned when a cycle is not configured with exactly
	// a primary and a secondary language.
	ErrLanguageCount = errors.New("exactly two languages are required")
	// ErrNoCities is returned when no cities are configured.
	ErrNoCities = errors.New("no cities configured")
)

// Client fetches one observation per (city, language) target from a Provider.
type Client struct {
	provider Provider
	cities   []string
	langs    []string
}

// NewClient creates a Client for the given cities and the primary and
// secondary languages, in that order.
func NewClient(provider Provider, cities, langs []string) (*Client, error) {
	if len(cities) == 0 {
		return nil, ErrNoCities
	}
	if len(langs) != 2 {
		return nil, ErrLanguageCount
	}
	return &Client{
		provider: provider,
		cities:   append([]string(nil), cities...),
		langs:    append([]string(nil), langs...),
	}, nil
}

// Cities returns the configured cities in order.
func (c *Client) Cities() []string { return append([]string(nil), c.cities...) }

// Langs returns the primary and secondary language.
func (c *Client) Langs() []string { return append([]string(nil), c.langs...) }

// Targets returns the request targets, cities in outer order.
func (c *Client) Targets() []Target {
	return BuildTargets(c.cities, c.langs)
}

// FetchObservations requests every target one after the other. A failed
// request is logged and left out of the returned set; the loop carries on
// with the next target.
func (c *Client) FetchObservations(ctx context.Context) *ObservationSet {
	set := NewObservationSet(c.cities, c.langs)

	targets := c.Targets()
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			zap.L().Error("fetch cancelled", zap.String("target", t.Key()), zap.Error(err))
			break
		}

		obs, err := c.provider.Fetch(ctx, t)
		if err != nil {
			zap.L().Error("weather fetch failed",
				zap.String("provider", c.provider.Name()),
				zap.String("target", t.Key()),
				zap.Error(err),
			)
			continue
		}
		obs.Target = t
		set.Put(obs)
	}

	zap.L().Debug("observations fetched", zap.Int("fetched", set.Len()), zap.Int("targets", len(targets)))
	return set
}

package store

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/i474232898/weather-data-collector/internal/weather"
)

func TestMemoryStoreRetention(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(4, Options{Table: testTable})

	_, err := s.InsertBatch(ctx, fullSet())
	require.NoError(t, err)
	_, err = s.InsertBatch(ctx, fullSet())
	require.NoError(t, err)

	rows, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, int64(3), rows[0].ID)
	assert.Equal(t, "Stuttgart", rows[0].Place)
	assert.Equal(t, int64(6), rows[3].ID)
}

func TestMemoryStoreClosed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, Options{})
	require.NoError(t, s.Close())

	_, err := s.InsertBatch(ctx, fullSet())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.All(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryStoreRefusesIncompleteBatch(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	ctx := context.Background()
	s := NewMemoryStore(0, Options{Table: testTable})

	set := weather.NewObservationSet([]string{"Berlin", "München", "Stuttgart"}, []string{"DE", "EN"})
	obs, _ := fullSet().Get(weather.Target{City: "Berlin", Lang: "DE"})
	set.Put(obs)

	n, err := s.InsertBatch(ctx, set)
	var incomplete *weather.IncompleteBatchError
	require.True(t, errors.As(err, &incomplete))
	assert.Zero(t, n)
	assert.Equal(t, 1, logs.FilterMessage("refusing to insert batch").Len())

	rows, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMemoryStoreRenderAllAndClose(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, Options{Table: testTable})
	_, err := s.InsertBatch(ctx, fullSet())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.RenderAll(ctx, &buf))
	assert.Contains(t, buf.String(), "Description (DE)")
	assert.Contains(t, buf.String(), "Stuttgart")

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.RenderAll(ctx, &buf), ErrClosed)
}

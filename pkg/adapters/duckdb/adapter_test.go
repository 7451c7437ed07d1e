package duckdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams(map[string]any{
		"extensions": []string{"json", "icu"},
		"settings":   map[string]string{"threads": "2"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"json", "icu"}, params.Extensions)
	assert.Equal(t, "2", params.Settings["threads"])

	params, err = parseParams(nil)
	require.NoError(t, err)
	assert.Empty(t, params.Extensions)
}

func TestParseParams_BadShape(t *testing.T) {
	_, err := parseParams(map[string]any{"extensions": 42})
	require.Error(t, err)
}

func TestDialect(t *testing.T) {
	a := New(nil)
	d := a.Dialect()
	require.NotNil(t, d)
	assert.Equal(t, "duckdb", d.Name)
	assert.True(t, d.Features.GenerateSeries)
	assert.False(t, d.Features.Triggers)
}

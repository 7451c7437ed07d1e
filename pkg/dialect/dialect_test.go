package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListContainsBuiltins(t *testing.T) {
	names := List()
	assert.Contains(t, names, "duckdb")
	assert.Contains(t, names, "sqlite")
	assert.Contains(t, names, "postgres")
	assert.Contains(t, names, "mssql")
}

func TestGetIsCaseInsensitive(t *testing.T) {
	d, ok := Get("DuckDB")
	require.True(t, ok)
	assert.Equal(t, "duckdb", d.Name)

	_, ok = Get("oracle")
	assert.False(t, ok)
}

func TestFormatPlaceholder(t *testing.T) {
	tests := []struct {
		dialect string
		index   int
		want    string
	}{
		{"duckdb", 1, "?"},
		{"sqlite", 3, "?"},
		{"postgres", 1, "$1"},
		{"postgres", 2, "$2"},
		{"mssql", 1, "@p1"},
	}

	for _, tt := range tests {
		d, ok := Get(tt.dialect)
		require.True(t, ok, tt.dialect)
		assert.Equal(t, tt.want, d.FormatPlaceholder(tt.index))
	}
}

func TestQuoteIdentifier(t *testing.T) {
	pg, _ := Get("postgres")
	assert.Equal(t, `"order"`, pg.QuoteIdentifier("order"))
	assert.Equal(t, `"we""ird"`, pg.QuoteIdentifier(`we"ird`))

	ms, _ := Get("mssql")
	assert.Equal(t, "[order]", ms.QuoteIdentifier("order"))
	assert.Equal(t, "[a]]b]", ms.QuoteIdentifier("a]b"))
}

func TestRecursiveCTE(t *testing.T) {
	for _, name := range []string{"duckdb", "sqlite", "postgres"} {
		d, _ := Get(name)
		assert.Equal(t, "WITH RECURSIVE", d.RecursiveCTE(), name)
	}

	ms, _ := Get("mssql")
	assert.Equal(t, "WITH", ms.RecursiveCTE())
}

func TestExplain(t *testing.T) {
	sq, _ := Get("sqlite")
	got, ok := sq.Explain("SELECT 1")
	require.True(t, ok)
	assert.Equal(t, "EXPLAIN QUERY PLAN SELECT 1", got)

	ms, _ := Get("mssql")
	_, ok = ms.Explain("SELECT 1")
	assert.False(t, ok)
}

func TestFeatureExpectations(t *testing.T) {
	// The temporal scripts rely on these exact splits per engine.
	duck, _ := Get("duckdb")
	assert.False(t, duck.Features.Triggers)
	assert.False(t, duck.Features.SystemVersioning)

	sq, _ := Get("sqlite")
	assert.True(t, sq.Features.Triggers)
	assert.False(t, sq.Features.XML)

	pg, _ := Get("postgres")
	assert.True(t, pg.Features.Triggers)
	assert.True(t, pg.Features.XML)

	ms, _ := Get("mssql")
	assert.True(t, ms.Features.SystemVersioning)
	assert.True(t, ms.Features.XML)
}

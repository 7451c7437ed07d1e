package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "1", c.Version)
	assert.Equal(t, []string{"duckdb", "sqlite", "postgres", "mssql"}, c.Dialects())

	wantOrder := []string{
		"setup", "seed", "recursion", "windowing", "temporal",
		"joins", "generation", "semistructured", "performance", "cleanup",
	}
	assert.Equal(t, wantOrder, c.TopicNames())
}

func TestLoad_EveryDialectResolvesEveryTopic(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	for _, dialect := range c.Dialects() {
		scripts, err := c.Scripts(dialect)
		require.NoError(t, err, dialect)
		require.Len(t, scripts, len(c.Topics()), dialect)

		for _, s := range scripts {
			assert.Equal(t, dialect, s.Dialect)
			assert.NotEmpty(t, s.Statements, "%s/%s", dialect, s.Topic.Name)
		}

		assert.Equal(t, StageSetup, scripts[0].Topic.Stage, dialect)
		assert.Equal(t, StageCleanup, scripts[len(scripts)-1].Topic.Stage, dialect)
	}
}

func TestScript_OverridesAndSharing(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	tests := []struct {
		dialect  string
		topic    string
		wantPath string
		shared   bool
	}{
		{"sqlite", "setup", "scripts/sqlite/setup.sql", false},
		{"sqlite", "recursion", "scripts/recursion.sql", true},
		{"mssql", "recursion", "scripts/mssql/recursion.sql", false},
		{"sqlite", "temporal", "scripts/temporal.sql", true},
		{"postgres", "temporal", "scripts/temporal.sql", true},
		{"duckdb", "temporal", "scripts/duckdb/temporal.sql", false},
		{"mssql", "temporal", "scripts/mssql/temporal.sql", false},
		{"duckdb", "seed", "scripts/seed.sql", true},
		{"mssql", "seed", "scripts/seed.sql", true},
		{"postgres", "windowing", "scripts/windowing.sql", true},
		{"duckdb", "performance", "scripts/duckdb/performance.sql", false},
	}

	for _, tt := range tests {
		s, err := c.Script(tt.dialect, tt.topic)
		require.NoError(t, err, "%s/%s", tt.dialect, tt.topic)
		assert.Equal(t, tt.wantPath, s.Path, "%s/%s", tt.dialect, tt.topic)
		assert.Equal(t, tt.shared, s.Shared, "%s/%s", tt.dialect, tt.topic)
	}
}

func TestScript_UnknownTopic(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	_, err = c.Script("sqlite", "sharding")
	require.Error(t, err)

	var unknownErr *UnknownTopicError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "sharding", unknownErr.Topic)
	assert.Contains(t, unknownErr.Available, "recursion")
	assert.Contains(t, err.Error(), "sqlbook list")
}

func TestScript_UnknownDialect(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	_, err = c.Script("oracle", "recursion")
	require.Error(t, err)

	var unknownErr *UnknownDialectError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "oracle", unknownErr.Dialect)
	assert.Contains(t, unknownErr.Available, "postgres")
}

func TestScriptsByStage(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	examples, err := c.ScriptsByStage("duckdb", StageExample)
	require.NoError(t, err)
	require.Len(t, examples, 7)
	for _, s := range examples {
		assert.Equal(t, StageExample, s.Topic.Stage)
	}

	lifecycle, err := c.ScriptsByStage("postgres", StageSetup, StageSeed, StageCleanup)
	require.NoError(t, err)
	require.Len(t, lifecycle, 3)
	assert.Equal(t, "setup", lifecycle[0].Topic.Name)
	assert.Equal(t, "cleanup", lifecycle[2].Topic.Name)
}

func TestStatementClassification(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	// Teardown drops objects and never returns rows.
	cleanup, err := c.Script("sqlite", "cleanup")
	require.NoError(t, err)
	for _, stmt := range cleanup.Statements {
		assert.False(t, stmt.ReturnsRows(), stmt.SQL)
	}

	// The windowing topic is queries from start to finish.
	windowing, err := c.Script("sqlite", "windowing")
	require.NoError(t, err)
	for _, stmt := range windowing.Statements {
		assert.True(t, stmt.ReturnsRows(), stmt.SQL)
	}

	// The system-versioned pricing query binds its anchor with DECLARE
	// and still counts as row-returning.
	temporal, err := c.Script("mssql", "temporal")
	require.NoError(t, err)
	last := temporal.Statements[len(temporal.Statements)-1]
	assert.True(t, strings.HasPrefix(strings.ToLower(last.SQL), "declare"))
	assert.True(t, last.ReturnsRows())
}

func TestStatementLabels(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	// The example scripts annotate every statement; the splitter turns
	// those comments into labels.
	rec, err := c.Script("postgres", "recursion")
	require.NoError(t, err)
	for _, stmt := range rec.Statements {
		assert.NotEmpty(t, stmt.Label, "statement at line %d", stmt.Line)
	}
}

func TestTopicLookup(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	topic, ok := c.Topic("windowing")
	require.True(t, ok)
	assert.Equal(t, "Window functions", topic.Title)
	assert.Equal(t, StageExample, topic.Stage)

	_, ok = c.Topic("replication")
	assert.False(t, ok)

	assert.True(t, c.HasDialect("duckdb"))
	assert.True(t, c.HasDialect("MSSQL"))
	assert.False(t, c.HasDialect("oracle"))
}

//go:build integration

package duckdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlbook/pkg/adapter"
)

func TestConnectInMemory(t *testing.T) {
	a := New(nil)
	ctx := context.Background()

	err := a.Connect(ctx, adapter.Config{Type: "duckdb", Path: ":memory:"})
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	require.NoError(t, a.Exec(ctx, "CREATE TABLE t (n INTEGER)"))
	require.NoError(t, a.Exec(ctx, "INSERT INTO t SELECT * FROM generate_series(1, 5)"))

	rows, err := a.Query(ctx, "SELECT SUM(n) FROM t")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	require.True(t, rows.Next())
	var sum int
	require.NoError(t, rows.Scan(&sum))
	assert.Equal(t, 15, sum)
}

func TestSessionSettings(t *testing.T) {
	a := New(nil)
	ctx := context.Background()

	err := a.Connect(ctx, adapter.Config{
		Type:   "duckdb",
		Path:   ":memory:",
		Params: map[string]any{"settings": map[string]string{"threads": "1"}},
	})
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	objects, err := a.ListObjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, objects)
}

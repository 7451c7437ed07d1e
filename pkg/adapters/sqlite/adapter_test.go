package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlbook/pkg/adapter"
)

func newConnected(t *testing.T) *Adapter {
	t.Helper()
	a := New(nil)
	err := a.Connect(context.Background(), adapter.Config{Type: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestConnectInMemory(t *testing.T) {
	a := newConnected(t)
	assert.True(t, a.IsConnected())
	assert.Equal(t, "sqlite", a.Dialect().Name)
}

func TestExecAndQuery(t *testing.T) {
	a := newConnected(t)
	ctx := context.Background()

	require.NoError(t, a.Exec(ctx, "CREATE TABLE nums (n INTEGER PRIMARY KEY)"))
	require.NoError(t, a.Exec(ctx, "INSERT INTO nums (n) VALUES (1), (2), (3)"))

	rows, err := a.Query(ctx, "SELECT COUNT(*) FROM nums")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	require.True(t, rows.Next())
	var count int
	require.NoError(t, rows.Scan(&count))
	assert.Equal(t, 3, count)
	assert.NoError(t, rows.Err())
}

func TestForeignKeysEnforced(t *testing.T) {
	a := newConnected(t)
	ctx := context.Background()

	require.NoError(t, a.Exec(ctx, "CREATE TABLE parents (id INTEGER PRIMARY KEY)"))
	require.NoError(t, a.Exec(ctx, "CREATE TABLE children (id INTEGER PRIMARY KEY, parent_id INTEGER NOT NULL REFERENCES parents(id))"))

	err := a.Exec(ctx, "INSERT INTO children (id, parent_id) VALUES (1, 999)")
	require.Error(t, err, "orphan insert should be rejected")
	assert.Contains(t, err.Error(), "FOREIGN KEY")
}

func TestListObjects(t *testing.T) {
	a := newConnected(t)
	ctx := context.Background()

	objects, err := a.ListObjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, objects, "fresh database should have no objects")

	require.NoError(t, a.Exec(ctx, "CREATE TABLE orders (id INTEGER PRIMARY KEY)"))
	require.NoError(t, a.Exec(ctx, "CREATE VIEW v_orders AS SELECT id FROM orders"))

	objects, err = a.ListObjects(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, adapter.ObjectInfo{Schema: "main", Name: "orders", Type: "table"}, objects[0])
	assert.Equal(t, adapter.ObjectInfo{Schema: "main", Name: "v_orders", Type: "view"}, objects[1])
}

func TestGetTableMetadata(t *testing.T) {
	a := newConnected(t)
	ctx := context.Background()

	require.NoError(t, a.Exec(ctx, `
		CREATE TABLE products (
			product_id INTEGER PRIMARY KEY,
			product_name TEXT NOT NULL,
			unit_price REAL
		)
	`))
	require.NoError(t, a.Exec(ctx, "INSERT INTO products VALUES (1, 'widget', 9.99)"))

	meta, err := a.GetTableMetadata(ctx, "products")
	require.NoError(t, err)

	assert.Equal(t, "products", meta.Name)
	assert.Equal(t, int64(1), meta.RowCount)
	require.Len(t, meta.Columns, 3)

	assert.Equal(t, "product_id", meta.Columns[0].Name)
	assert.True(t, meta.Columns[0].PrimaryKey)
	assert.Equal(t, "product_name", meta.Columns[1].Name)
	assert.False(t, meta.Columns[1].Nullable)
	assert.True(t, meta.Columns[2].Nullable)

	_, err = a.GetTableMetadata(ctx, "missing_table")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

package schema

import (
	"fmt"
	"sort"
)

// Object kinds.
const (
	KindTable = "table"
	KindView  = "view"
)

// Table describes one object the setup script creates.
type Table struct {
	// Name is the object name, unqualified.
	Name string

	// Kind is KindTable or KindView.
	Kind string

	// DependsOn lists referenced objects for views. Table dependencies
	// are derived from ForeignKeys instead.
	DependsOn []string

	// SeedCount is the row count the seed script leaves behind, or -1
	// when the table is populated by triggers or the temporal examples
	// and so differs per dialect.
	SeedCount int

	// History marks version-history tables. They carry no enforced
	// foreign keys: history must outlive the rows it describes.
	History bool
}

// ForeignKey describes one declared reference between tables.
type ForeignKey struct {
	Table     string
	Column    string
	RefTable  string
	RefColumn string

	// Nullable is true when the column may be NULL (optional reference).
	// Orphan probes skip NULL values for these.
	Nullable bool
}

// Tables is the full set of objects the setup script creates, in no
// particular order. CreateOrder derives a safe creation order from the
// foreign keys.
var Tables = []Table{
	{Name: "departments", Kind: KindTable, SeedCount: 6},
	{Name: "employees", Kind: KindTable, SeedCount: 20},
	{Name: "categories", Kind: KindTable, SeedCount: 12},
	{Name: "products", Kind: KindTable, SeedCount: 24},
	{Name: "customers", Kind: KindTable, SeedCount: 12},
	{Name: "orders", Kind: KindTable, SeedCount: 30},
	{Name: "order_items", Kind: KindTable, SeedCount: 64},
	{Name: "parts", Kind: KindTable, SeedCount: 12},
	{Name: "bill_of_materials", Kind: KindTable, SeedCount: 16},
	{Name: "graph_edges", Kind: KindTable, SeedCount: 14},
	{Name: "sales", Kind: KindTable, SeedCount: 36},
	{Name: "stock_prices", Kind: KindTable, SeedCount: 36},
	{Name: "transactions", Kind: KindTable, SeedCount: 32},
	{Name: "employee_history", Kind: KindTable, SeedCount: -1, History: true},
	{Name: "department_history", Kind: KindTable, SeedCount: -1, History: true},
	{Name: "product_pricing", Kind: KindTable, SeedCount: -1, History: true},
	{Name: "v_order_totals", Kind: KindView, DependsOn: []string{"orders", "order_items", "customers"}},
	{Name: "v_employee_directory", Kind: KindView, DependsOn: []string{"employees", "departments"}},
}

// ForeignKeys lists every declared reference in the schema. The verifier
// turns each into an orphan probe; the graph builder turns them into edges.
// Self-references (employees.manager_id, categories.parent_id) stay in the
// list for probing but do not become graph edges.
var ForeignKeys = []ForeignKey{
	{Table: "employees", Column: "dept_id", RefTable: "departments", RefColumn: "dept_id"},
	{Table: "employees", Column: "manager_id", RefTable: "employees", RefColumn: "emp_id", Nullable: true},
	{Table: "categories", Column: "parent_id", RefTable: "categories", RefColumn: "category_id", Nullable: true},
	{Table: "products", Column: "category_id", RefTable: "categories", RefColumn: "category_id"},
	{Table: "orders", Column: "customer_id", RefTable: "customers", RefColumn: "customer_id"},
	{Table: "order_items", Column: "order_id", RefTable: "orders", RefColumn: "order_id"},
	{Table: "order_items", Column: "product_id", RefTable: "products", RefColumn: "product_id"},
	{Table: "bill_of_materials", Column: "parent_part_id", RefTable: "parts", RefColumn: "part_id"},
	{Table: "bill_of_materials", Column: "component_part_id", RefTable: "parts", RefColumn: "part_id"},
	{Table: "sales", Column: "product_id", RefTable: "products", RefColumn: "product_id"},
}

// ByName returns the declared object with the given name.
func ByName(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// BuildGraph assembles the dependency graph of all declared objects.
// Foreign keys and view references become edges from the referenced object
// to its dependent.
func BuildGraph() (*Graph, error) {
	g := NewGraph()
	for _, t := range Tables {
		g.AddNode(t.Name, t)
	}

	for _, fk := range ForeignKeys {
		if fk.Table == fk.RefTable {
			continue
		}
		if err := g.AddEdge(fk.RefTable, fk.Table); err != nil {
			return nil, fmt.Errorf("invalid foreign key %s.%s: %w", fk.Table, fk.Column, err)
		}
	}

	for _, t := range Tables {
		for _, dep := range t.DependsOn {
			if err := g.AddEdge(dep, t.Name); err != nil {
				return nil, fmt.Errorf("invalid dependency of %s: %w", t.Name, err)
			}
		}
	}

	return g, nil
}

// CreateOrder returns object names in an order that satisfies every
// reference: referenced tables before referencing tables, views last among
// their sources.
func CreateOrder() ([]string, error) {
	g, err := BuildGraph()
	if err != nil {
		return nil, err
	}
	nodes, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.ID
	}
	return names, nil
}

// DropOrder returns object names in an order safe for dropping:
// dependents before the objects they reference.
func DropOrder() ([]string, error) {
	names, err := CreateOrder()
	if err != nil {
		return nil, err
	}
	reversed := make([]string, len(names))
	for i, name := range names {
		reversed[len(names)-1-i] = name
	}
	return reversed, nil
}

// ExpectedObjects returns the object names that should exist after setup on
// the given dialect, sorted. SQL Server adds the engine-managed history
// table behind the system-versioned product_pricing.
func ExpectedObjects(dialectName string) []string {
	names := make([]string, 0, len(Tables)+1)
	for _, t := range Tables {
		names = append(names, t.Name)
	}
	if dialectName == "mssql" {
		names = append(names, "product_pricing_history")
	}
	sort.Strings(names)
	return names
}

// SeedCounts returns the expected post-seed row count per table, skipping
// tables whose content is dialect-dependent.
func SeedCounts() map[string]int {
	counts := make(map[string]int)
	for _, t := range Tables {
		if t.Kind != KindTable || t.SeedCount < 0 {
			continue
		}
		counts[t.Name] = t.SeedCount
	}
	return counts
}

package schema

import (
	"testing"
)

func TestBuildGraph_Acyclic(t *testing.T) {
	g, err := BuildGraph()
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	if found, path := g.HasCycle(); found {
		t.Fatalf("declared schema contains a reference cycle: %v", path)
	}

	if g.NodeCount() != len(Tables) {
		t.Errorf("expected %d nodes, got %d", len(Tables), g.NodeCount())
	}
}

func TestCreateOrder_RespectsReferences(t *testing.T) {
	order, err := CreateOrder()
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if len(order) != len(Tables) {
		t.Fatalf("expected %d objects, got %d", len(Tables), len(order))
	}

	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}

	for _, fk := range ForeignKeys {
		if fk.Table == fk.RefTable {
			continue
		}
		if pos[fk.RefTable] > pos[fk.Table] {
			t.Errorf("%s must be created before %s (fk on %s)", fk.RefTable, fk.Table, fk.Column)
		}
	}

	for _, tbl := range Tables {
		for _, dep := range tbl.DependsOn {
			if pos[dep] > pos[tbl.Name] {
				t.Errorf("%s must be created before view %s", dep, tbl.Name)
			}
		}
	}
}

func TestDropOrder_IsReverseOfCreateOrder(t *testing.T) {
	create, err := CreateOrder()
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	drop, err := DropOrder()
	if err != nil {
		t.Fatalf("drop order failed: %v", err)
	}

	if len(create) != len(drop) {
		t.Fatalf("length mismatch: %d vs %d", len(create), len(drop))
	}
	for i := range create {
		if create[i] != drop[len(drop)-1-i] {
			t.Fatalf("drop order is not the reverse of create order at %d: %s vs %s", i, create[i], drop[len(drop)-1-i])
		}
	}

	// order_items must be dropped before both orders and products
	pos := make(map[string]int, len(drop))
	for i, name := range drop {
		pos[name] = i
	}
	if pos["order_items"] > pos["orders"] {
		t.Error("order_items must be dropped before orders")
	}
	if pos["order_items"] > pos["products"] {
		t.Error("order_items must be dropped before products")
	}
}

func TestExpectedObjects(t *testing.T) {
	base := ExpectedObjects("sqlite")
	if len(base) != len(Tables) {
		t.Errorf("expected %d objects for sqlite, got %d", len(Tables), len(base))
	}

	mssql := ExpectedObjects("mssql")
	if len(mssql) != len(Tables)+1 {
		t.Errorf("expected %d objects for mssql, got %d", len(Tables)+1, len(mssql))
	}

	found := false
	for _, name := range mssql {
		if name == "product_pricing_history" {
			found = true
		}
	}
	if !found {
		t.Error("mssql object list should include product_pricing_history")
	}
}

func TestSeedCounts_SkipsHistoryTables(t *testing.T) {
	counts := SeedCounts()

	if _, ok := counts["employee_history"]; ok {
		t.Error("employee_history should not have a portable seed count")
	}
	if _, ok := counts["v_order_totals"]; ok {
		t.Error("views should not have seed counts")
	}

	if got := counts["departments"]; got != 6 {
		t.Errorf("expected 6 departments, got %d", got)
	}
	if got := counts["order_items"]; got != 64 {
		t.Errorf("expected 64 order_items, got %d", got)
	}
}

func TestByName(t *testing.T) {
	tbl, ok := ByName("employees")
	if !ok {
		t.Fatal("employees should be declared")
	}
	if tbl.Kind != KindTable {
		t.Errorf("employees should be a table, got %s", tbl.Kind)
	}

	if _, ok := ByName("nope"); ok {
		t.Error("unknown object should not resolve")
	}
}

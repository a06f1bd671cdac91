package credits

import "testing"

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog([]Package{
		{ID: "start", Name: "60 credits", PriceRub: 150, Credits: 60},
		{ID: "standard", Name: "250 credits", PriceRub: 500, Credits: 250},
		{ID: "pro", Name: "900 credits", PriceRub: 1500, Credits: 900},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

func TestResolveWithinTolerance(t *testing.T) {
	c := testCatalog(t)

	tests := []struct {
		amount float64
		wantID string
		found  bool
	}{
		{amount: 500, wantID: "standard", found: true},
		{amount: 499, wantID: "standard", found: true},
		{amount: 501, wantID: "standard", found: true},
		{amount: 498.99, found: false},
		{amount: 501.01, found: false},
		{amount: 150, wantID: "start", found: true},
		{amount: 42, found: false},
	}

	for _, tt := range tests {
		pkg, ok := c.Resolve(tt.amount)
		if ok != tt.found {
			t.Fatalf("Resolve(%v): found = %v, want %v", tt.amount, ok, tt.found)
		}
		if ok && pkg.ID != tt.wantID {
			t.Fatalf("Resolve(%v) = %q, want %q", tt.amount, pkg.ID, tt.wantID)
		}
	}
}

func TestResolveTieBreaksByDeclarationOrder(t *testing.T) {
	c, err := NewCatalog([]Package{
		{ID: "a", Name: "A", PriceRub: 100, Credits: 10},
		{ID: "b", Name: "B", PriceRub: 101, Credits: 11},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	// 100.5 is within tolerance of both; the first declared package wins.
	pkg, ok := c.Resolve(100.5)
	if !ok || pkg.ID != "a" {
		t.Fatalf("Resolve(100.5) = %q, %v; want first-declared %q", pkg.ID, ok, "a")
	}
}

func TestNewCatalogRejectsInvalidPackages(t *testing.T) {
	tests := []struct {
		name     string
		packages []Package
	}{
		{name: "empty catalog", packages: nil},
		{name: "zero price", packages: []Package{{ID: "x", Name: "X", PriceRub: 0, Credits: 10}}},
		{name: "zero credits", packages: []Package{{ID: "x", Name: "X", PriceRub: 10, Credits: 0}}},
		{name: "missing id", packages: []Package{{Name: "X", PriceRub: 10, Credits: 10}}},
		{name: "duplicate id", packages: []Package{
			{ID: "x", Name: "X", PriceRub: 10, Credits: 10},
			{ID: "x", Name: "Y", PriceRub: 20, Credits: 20},
		}},
	}

	for _, tt := range tests {
		if _, err := NewCatalog(tt.packages); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}
}

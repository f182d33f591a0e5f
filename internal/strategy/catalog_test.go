package strategy

import "testing"

func TestCatalogOrder(t *testing.T) {
	catalog := Catalog()
	if len(catalog) != 3 {
		t.Fatalf("expected 3 strategies, got %d", len(catalog))
	}
	want := []Key{Swing, Intraday, Scalping}
	for i, key := range want {
		if catalog[i].Key != key {
			t.Errorf("catalog[%d] = %s, want %s", i, catalog[i].Key, key)
		}
	}
}

func TestLookup(t *testing.T) {
	s, ok := Lookup(Scalping)
	if !ok {
		t.Fatal("scalping not found")
	}
	if s.Name != "Scalping" {
		t.Errorf("name = %s", s.Name)
	}

	if _, ok := Lookup("daytrade"); ok {
		t.Error("unknown key resolved")
	}
}

package registers

import "testing"

func TestNewCatalogRejectsDuplicateNames(t *testing.T) {
	descs := []Descriptor{
		{Name: "A", Length: 1, Kind: KindU16},
		{Name: "A", Length: 1, Kind: KindU16, Address: 1},
	}
	if _, err := NewCatalog(descs); err == nil {
		t.Fatalf("expected an error for duplicate register names")
	}
}

func TestNewCatalogRejectsOverlappingWriteableRanges(t *testing.T) {
	descs := []Descriptor{
		{Name: "A", Address: 100, Length: 2, Kind: KindU32, Writeable: true},
		{Name: "B", Address: 101, Length: 1, Kind: KindU16, Writeable: true},
	}
	if _, err := NewCatalog(descs); err == nil {
		t.Fatalf("expected an error for overlapping writeable registers")
	}
}

func TestNewCatalogAllowsOverlappingReadableRanges(t *testing.T) {
	descs := []Descriptor{
		{Name: "A", Address: 100, Length: 2, Kind: KindU32},
		{Name: "B", Address: 101, Length: 1, Kind: KindU16},
	}
	if _, err := NewCatalog(descs); err != nil {
		t.Fatalf("overlapping read-only registers should be allowed: %v", err)
	}
}

func TestCatalogLookup(t *testing.T) {
	cat, err := NewCatalog([]Descriptor{{Name: "A", Address: 1, Length: 1, Kind: KindU16}})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	if !cat.Has("A") || cat.Has("B") {
		t.Fatalf("Has returned incorrect results")
	}
	if _, err := cat.Lookup("B"); err == nil {
		t.Fatalf("expected ErrNotFound for unknown field")
	}
	d := cat.MustLookup("A")
	if d.Name != "A" {
		t.Fatalf("MustLookup returned wrong descriptor: %+v", d)
	}
}

func TestNewHuaweiCatalogBuilds(t *testing.T) {
	cat, err := NewHuaweiCatalog()
	if err != nil {
		t.Fatalf("NewHuaweiCatalog failed: %v", err)
	}
	for _, name := range []string{"ACTIVE_POWER", "PHASE_A_VOLTAGE", "PHASE_A_CURRENT", "TIME_ZONE", "PV_01_VOLTAGE"} {
		if !cat.Has(name) {
			t.Fatalf("expected catalog to contain %q", name)
		}
	}
}

package il

import "testing"

func TestVarIDRoundtrip(t *testing.T) {
	id := NewVarID(42, 3, false)
	if id.BaseIndex() != 42 {
		t.Fatalf("got base %d, want 42", id.BaseIndex())
	}
	if id.Version() != 3 {
		t.Fatalf("got version %d, want 3", id.Version())
	}
	if id.IsTemp() {
		t.Fatalf("expected non-temp")
	}
}

func TestVarIDTempFlagSurvivesVersioning(t *testing.T) {
	id := NewVarID(7, 0, true)
	versioned := id.WithVersion(9)
	if !versioned.IsTemp() {
		t.Fatalf("expected temp flag to survive WithVersion")
	}
	if versioned.BaseIndex() != 7 || versioned.Version() != 9 {
		t.Fatalf("got base=%d version=%d", versioned.BaseIndex(), versioned.Version())
	}
}

func TestVarIDBaseStripsVersion(t *testing.T) {
	id := NewVarID(5, 2, false)
	base := id.Base()
	if base.Version() != 0 {
		t.Fatalf("expected stripped version, got %d", base.Version())
	}
	if base.BaseIndex() != 5 {
		t.Fatalf("expected base index preserved, got %d", base.BaseIndex())
	}
}

package mcp4xxx

import "testing"

func TestLookupProfile(t *testing.T) {
	p, err := LookupProfile("mcp4231")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if p.MaxPosition != 128 || p.Channels != 2 || !p.Volatile || p.Rheostat {
		t.Fatalf("mcp4231 profile wrong: %+v", p)
	}

	p, err = LookupProfile("mcp4162")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if p.MaxPosition != 256 || p.Channels != 1 || p.Volatile || !p.Rheostat {
		t.Fatalf("mcp4162 profile wrong: %+v", p)
	}

	if _, err := LookupProfile("mcp9999"); err != ErrUnknownModel {
		t.Fatalf("unknown model err = %v, want ErrUnknownModel", err)
	}
}

func TestProfileTableInvariants(t *testing.T) {
	for model, p := range profiles {
		if p.Model != model {
			t.Errorf("%s: key/model mismatch %q", model, p.Model)
		}
		if p.MaxPosition != 128 && p.MaxPosition != 256 {
			t.Errorf("%s: max position %d", model, p.MaxPosition)
		}
		if p.Channels != 1 && p.Channels != 2 {
			t.Errorf("%s: channels %d", model, p.Channels)
		}
		if p.WiperOhms != 75 {
			t.Errorf("%s: wiper ohms %v", model, p.WiperOhms)
		}
	}
}

func TestResistanceGrades(t *testing.T) {
	for _, g := range []float64{5e3, 10e3, 50e3, 100e3} {
		if !validGrade(g) {
			t.Errorf("grade %v rejected", g)
		}
	}
	if validGrade(12e3) {
		t.Error("grade 12k accepted")
	}
	if validGrade(0) {
		t.Error("grade 0 accepted")
	}
}

package colo

import (
	"strings"
	"testing"
)

func TestTranslateKnownCodes(t *testing.T) {
	cases := []struct {
		code string
		name string
		iso  string
	}{
		{"HKG", "香港", "hk"},
		{"NRT", "东京", "jp"},
		{"LAX", "洛杉矶", "us"},
		{"LHR", "伦敦", "gb"},
		{"SIN", "新加坡", "sg"},
	}
	for _, c := range cases {
		got := Translate(c.code)
		if got.Name != c.name || got.ISO != c.iso {
			t.Fatalf("Translate(%q) = %+v, want {%s %s}", c.code, got, c.name, c.iso)
		}
	}
}

func TestTranslateCaseInsensitive(t *testing.T) {
	for _, code := range []string{"hkg", "Nrt", "lax", "sYd", "unknown"} {
		a := Translate(code)
		b := Translate(strings.ToUpper(code))
		if a != b {
			t.Fatalf("Translate(%q) = %+v, Translate(upper) = %+v", code, a, b)
		}
	}
}

func TestTranslateUnknownCode(t *testing.T) {
	got := Translate("xyz")
	if got.Name != "XYZ" || got.ISO != "" {
		t.Fatalf("Translate(xyz) = %+v, want name XYZ without iso", got)
	}
	// 平台哨兵值不在表内，同样走降级路径
	got = Translate("UNK")
	if got.Name != "UNK" || got.ISO != "" {
		t.Fatalf("Translate(UNK) = %+v, want raw code without iso", got)
	}
}

func TestTranslateEmpty(t *testing.T) {
	got := Translate("")
	if got.Name != "" || got.ISO != "" {
		t.Fatalf("Translate(\"\") = %+v, want zero entry", got)
	}
}

func TestTableISOFormat(t *testing.T) {
	if len(table) < 19 {
		t.Fatalf("table has %d entries, want at least 19", len(table))
	}
	for code, e := range table {
		if code != strings.ToUpper(code) || len(code) != 3 {
			t.Fatalf("table key %q is not an uppercase 3-letter code", code)
		}
		if len(e.ISO) != 2 || e.ISO != strings.ToLower(e.ISO) {
			t.Fatalf("entry %s has bad iso %q", code, e.ISO)
		}
		if e.Name == "" {
			t.Fatalf("entry %s has empty name", code)
		}
	}
}

func TestTranslateDoesNotMutateTable(t *testing.T) {
	before := table["HKG"]
	e := Translate("HKG")
	e.Name = "mutated"
	e.ISO = "xx"
	if table["HKG"] != before {
		t.Fatalf("shared table mutated: %+v", table["HKG"])
	}
}

func TestKnown(t *testing.T) {
	if !Known("hkg") {
		t.Fatalf("Known(hkg) = false")
	}
	if Known("UNK") || Known("") {
		t.Fatalf("Known should be false for UNK and empty")
	}
}

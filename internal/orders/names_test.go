package orders

import (
	"strings"
	"testing"
	"time"
)

func TestSafeVendor(t *testing.T) {
	cases := map[string]string{
		"  王記  ":     "王記",
		`a/b\c:d*e?`: "a_b_c_d_e_",
		`"x"<y>|z`:   "_x__y__z",
		"":           "",
	}
	for in, want := range cases {
		if got := SafeVendor(in); got != want {
			t.Fatalf("SafeVendor(%q) = %q, want %q", in, got, want)
		}
	}

	long := strings.Repeat("肉", 100)
	if got := []rune(SafeVendor(long)); len(got) != 80 {
		t.Fatalf("long vendor kept %d runes, want 80", len(got))
	}
}

func TestSheetNames(t *testing.T) {
	if got := SheetName("2025-03-01", "王記/小吃"); got != "2025-03-01__王記_小吃.csv" {
		t.Fatalf("SheetName = %q", got)
	}

	now := time.Date(2025, 3, 1, 9, 5, 7, 0, time.Local)
	if got := NewSheetName(now); got != "newfile_2025-03-01-09-05-07.csv" {
		t.Fatalf("NewSheetName = %q", got)
	}
}

func TestVendorFromName(t *testing.T) {
	cases := map[string]string{
		"2025-03-01__王記.csv":              "王記",
		"2025-03-01__a__b.csv":            "a__b",
		"newfile_2025-03-01-09-05-07.csv": "",
		"random.csv":                      "",
		"":                                "",
	}
	for in, want := range cases {
		if got := VendorFromName(in); got != want {
			t.Fatalf("VendorFromName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDateFromName(t *testing.T) {
	if d, ok := DateFromName("newfile_2025-03-01-09-05-07.csv"); !ok || d != "2025-03-01" {
		t.Fatalf("new sheet date = %q %v", d, ok)
	}
	if d, ok := DateFromName("2025-12-31__x.csv"); !ok || d != "2025-12-31" {
		t.Fatalf("named sheet date = %q %v", d, ok)
	}
	if _, ok := DateFromName("2025-13-40__x.csv"); ok {
		t.Fatalf("invalid date accepted")
	}
	if _, ok := DateFromName("x.csv"); ok {
		t.Fatalf("undated name accepted")
	}
}

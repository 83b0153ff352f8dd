package quantity

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		text string
		unit string
		want string
		rule Rule
	}{
		{"catty and tael", "20斤10兩", Catty, "20.625", RuleCattyTael},
		{"catty and tael 2", "2斤12兩", Catty, "2.75", RuleCattyTael},
		{"catty and tael spaced", " 2 斤 12 兩 ", Catty, "2.75", RuleCattyTael},
		{"tael only", "12兩", Catty, "0.75", RuleTael},
		{"kilogram chinese", "0.6公斤", Catty, "1", RuleKilogram},
		{"kilogram ascii upper", "3KG", Catty, "5", RuleKilogram},
		{"kilogram ascii lower", "1.2kg", Catty, "2", RuleKilogram},
		{"kilogram without number", "公斤", Catty, "0", RuleKilogram},
		{"taiwan catty synonym", "3台斤", Catty, "3", RuleBareNumber},
		{"taiwan catty tael", "1台斤8兩", Catty, "1.5", RuleCattyTael},
		{"bare catty", "1斤", Catty, "1", RuleBareNumber},
		{"bare number", "3", Catty, "3", RuleBareNumber},
		{"bare decimal", "2.5", Catty, "2.5", RuleBareNumber},
		{"no number catty", "abc", Catty, "0", RuleNone},
		{"empty catty", "", Catty, "0", RuleNone},
		{"empty piece", "", "個", "0", RuleNone},
		{"passthrough piece", "5", "個", "5", RulePassthrough},
		{"passthrough ignores units", "20斤10兩", "個", "20", RulePassthrough},
		{"passthrough ignores kg", "3kg", "只", "3", RulePassthrough},
		{"passthrough leading dot", "約.5個", "個", "0.5", RulePassthrough},
		{"passthrough decimal", "1.25", "盒", "1.25", RulePassthrough},
		{"stray digits", "x7y", "個", "7", RulePassthrough},
		{"full width digits", "２斤４兩", Catty, "2.25", RuleCattyTael},
		{"full width kg", "３ＫＧ", Catty, "5", RuleKilogram},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Explain(tc.text, tc.unit)
			if !got.Quantity.Equal(dec(t, tc.want)) {
				t.Fatalf("Explain(%q, %q) = %s, want %s", tc.text, tc.unit, got.Quantity, tc.want)
			}
			if got.Rule != tc.rule {
				t.Fatalf("Explain(%q, %q) rule = %s, want %s", tc.text, tc.unit, got.Rule, tc.rule)
			}
			if n := Normalize(tc.text, tc.unit); !n.Equal(got.Quantity) {
				t.Fatalf("Normalize disagrees with Explain: %s vs %s", n, got.Quantity)
			}
		})
	}
}

func TestNormalize_KilogramBeatsCattyTael(t *testing.T) {
	got := Explain("2斤12兩 1.2kg", Catty)
	if got.Rule != RuleKilogram {
		t.Fatalf("rule = %s, want kilogram", got.Rule)
	}
	// The first number in the text is used, not the one next to the marker.
	if !got.Quantity.Equal(dec(t, "2").Div(dec(t, "0.6"))) {
		t.Fatalf("quantity = %s", got.Quantity)
	}
}

func TestNormalize_DecimalFallsThroughToBareNumber(t *testing.T) {
	cases := map[string]string{
		"2.5斤3兩": "2.5",
		"1.5兩":   "1.5",
		"斤3兩":    "3",
	}
	for text, want := range cases {
		got := Explain(text, Catty)
		if got.Rule != RuleBareNumber {
			t.Fatalf("%q: rule = %s, want bare_number", text, got.Rule)
		}
		if !got.Quantity.Equal(dec(t, want)) {
			t.Fatalf("%q: quantity = %s, want %s", text, got.Quantity, want)
		}
	}
}

func TestNormalize_OneKilogramIsRepeatingCatty(t *testing.T) {
	got := Normalize("1公斤", Catty)
	back := got.Mul(dec(t, "0.6")).Round(10)
	if !back.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("1公斤 -> %s catty, *0.6 = %s", got, back)
	}
	if got.Round(3).String() != "1.667" {
		t.Fatalf("1公斤 rounded = %s", got.Round(3))
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"20斤10兩", "0.6公斤", "12兩", "abc", "3", "1公斤"}
	for _, in := range inputs {
		first := Normalize(in, Catty)
		for i := 0; i < 5; i++ {
			if again := Normalize(in, Catty); !again.Equal(first) {
				t.Fatalf("%q: call %d = %s, first = %s", in, i, again, first)
			}
		}
	}
}

func TestNormalize_NeverNegative(t *testing.T) {
	for _, in := range []string{"-3", "-2斤", "負1kg"} {
		if q := Normalize(in, Catty); q.IsNegative() {
			t.Fatalf("%q produced negative %s", in, q)
		}
		if q := Normalize(in, "個"); q.IsNegative() {
			t.Fatalf("%q produced negative %s", in, q)
		}
	}
}

func TestFold(t *testing.T) {
	if got := Fold("  ３台斤ＫＧ "); got != "3斤kg" {
		t.Fatalf("Fold = %q", got)
	}
}

func TestRuleString(t *testing.T) {
	want := map[Rule]string{
		RuleNone:        "none",
		RulePassthrough: "passthrough",
		RuleKilogram:    "kilogram",
		RuleCattyTael:   "catty_tael",
		RuleTael:        "tael",
		RuleBareNumber:  "bare_number",
	}
	for r, s := range want {
		if r.String() != s {
			t.Fatalf("%d.String() = %q, want %q", r, r.String(), s)
		}
	}
}

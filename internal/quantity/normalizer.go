// Package quantity turns free-text order quantities into exact decimals.
//
// Only products sold by the catty (斤) get weight parsing: kilograms are converted
// at 0.6 kg per catty and taels at 16 per catty. Every other unit takes the first
// number in the text as-is. Parsing never fails; text without a number is zero.
package quantity

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

// Catty is the unit label that enables catty/tael/kilogram parsing.
const Catty = "斤"

// Rule identifies which matcher produced a quantity.
type Rule int

const (
	RuleNone Rule = iota
	RulePassthrough
	RuleKilogram
	RuleCattyTael
	RuleTael
	RuleBareNumber
)

func (r Rule) String() string {
	switch r {
	case RulePassthrough:
		return "passthrough"
	case RuleKilogram:
		return "kilogram"
	case RuleCattyTael:
		return "catty_tael"
	case RuleTael:
		return "tael"
	case RuleBareNumber:
		return "bare_number"
	default:
		return "none"
	}
}

// Result is a normalized quantity and the rule that matched.
type Result struct {
	Quantity decimal.Decimal
	Rule     Rule
}

var (
	numberRe    = regexp.MustCompile(`\d*\.?\d+`)
	cattyTaelRe = regexp.MustCompile(`^(\d+)\s*斤\s*(\d+)\s*兩`)
	taelRe      = regexp.MustCompile(`^(\d+)\s*兩`)

	kilogramsPerCatty = decimal.RequireFromString("0.6")
	taelsPerCatty     = decimal.NewFromInt(16)
)

type matcher struct {
	rule  Rule
	match func(s string) (decimal.Decimal, bool)
}

// cattyMatchers run in order against catty text; the first hit wins.
var cattyMatchers = []matcher{
	{RuleKilogram, matchKilogram},
	{RuleCattyTael, matchCattyTael},
	{RuleTael, matchTael},
	{RuleBareNumber, FirstNumber},
}

// Normalize returns the quantity of text expressed in unit's base measure.
func Normalize(text, unit string) decimal.Decimal {
	return Explain(text, unit).Quantity
}

// Explain is Normalize plus the rule that decided the result.
func Explain(text, unit string) Result {
	s := Fold(text)

	if unit != Catty {
		if q, ok := FirstNumber(s); ok {
			return Result{Quantity: q, Rule: RulePassthrough}
		}
		return Result{Quantity: decimal.Zero, Rule: RuleNone}
	}

	for _, m := range cattyMatchers {
		if q, ok := m.match(s); ok {
			return Result{Quantity: q, Rule: m.rule}
		}
	}
	return Result{Quantity: decimal.Zero, Rule: RuleNone}
}

// Fold narrows full-width characters, trims, lower-cases and maps 台斤 to 斤.
func Fold(text string) string {
	s := width.Narrow.String(text)
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "台斤", "斤")
}

// FirstNumber returns the leftmost decimal or integer substring of s.
func FirstNumber(s string) (decimal.Decimal, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// matchKilogram claims any text carrying a kilogram marker, even without a number.
func matchKilogram(s string) (decimal.Decimal, bool) {
	if !strings.Contains(s, "公斤") && !strings.Contains(s, "kg") {
		return decimal.Zero, false
	}
	kg, ok := FirstNumber(s)
	if !ok {
		return decimal.Zero, true
	}
	return kg.Div(kilogramsPerCatty), true
}

func matchCattyTael(s string) (decimal.Decimal, bool) {
	m := cattyTaelRe.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, false
	}
	catty := decimal.RequireFromString(m[1])
	tael := decimal.RequireFromString(m[2])
	return catty.Add(tael.Div(taelsPerCatty)), true
}

func matchTael(s string) (decimal.Decimal, bool) {
	m := taelRe.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, false
	}
	return decimal.RequireFromString(m[1]).Div(taelsPerCatty), true
}

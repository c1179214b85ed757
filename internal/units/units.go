// Package units normalizes raw commodity prices to US dollars per kilogram.
//
// Conversion is an ordered list of rules matched case-insensitively against
// the free-text unit reported by a source. The first rule that matches wins,
// so precedence matters: cents-per-pound is tested before the generic pound
// rule and bushel before tonne, because scraped unit text is noisy and
// several markers can appear together.
//
// Only the units the market report needs are recognized. Anything else is
// passed through unchanged (rule "noop"), which keeps the conversion total.
package units

import "strings"

// Conversion factors.
const (
	PoundKg      = 0.45359237 // kilograms per avoirdupois pound
	CornBushelKg = 25.4       // kilograms per bushel of shelled corn
	SoyBushelKg  = 27.2155    // kilograms per bushel of soybeans
	TonneKg      = 1000.0     // kilograms per metric tonne
	CentsPerUSD  = 100.0

	// A unitless quote above HeuristicThreshold is assumed to be per
	// thousand units and divided by HeuristicDivisor.
	HeuristicThreshold = 1000.0
	HeuristicDivisor   = 1000.0
)

// Rule names recorded on every conversion.
const (
	RuleHeuristic  = "heuristic"
	RuleCentsPerLb = "cents_per_lb"
	RuleUSDPerLb   = "usd_per_lb"
	RuleBushelCorn = "bushel_corn"
	RuleBushelSoy  = "bushel_soy"
	RuleUSDPerTon  = "usd_per_tonne"
	RuleUSDPerKg   = "usd_per_kg"
	RuleNoop       = "noop"
)

// Rule is one entry of the conversion table. Match receives the lower-cased
// unit and commodity name.
type Rule struct {
	Name    string
	Match   func(unit, commodity string) bool
	Convert func(price float64) float64
}

// Rules is the conversion table in evaluation order. The unit-absent
// heuristic and the no-op default are not part of it.
var Rules = []Rule{
	{
		Name: RuleCentsPerLb,
		Match: func(u, _ string) bool {
			return strings.Contains(u, "¢") || strings.Contains(u, "cent")
		},
		Convert: func(p float64) float64 { return (p / CentsPerUSD) / PoundKg },
	},
	{
		Name:    RuleUSDPerLb,
		Match:   func(u, _ string) bool { return strings.Contains(u, "lb") },
		Convert: func(p float64) float64 { return p / PoundKg },
	},
	{
		Name: RuleBushelCorn,
		Match: func(u, c string) bool {
			return strings.Contains(u, "bushel") && strings.Contains(c, "corn")
		},
		Convert: func(p float64) float64 { return p / CornBushelKg },
	},
	{
		Name: RuleBushelSoy,
		Match: func(u, c string) bool {
			return strings.Contains(u, "bushel") && strings.Contains(c, "soy")
		},
		Convert: func(p float64) float64 { return p / SoyBushelKg },
	},
	{
		// "ton" also covers "tonne" and "tons".
		Name:    RuleUSDPerTon,
		Match:   func(u, _ string) bool { return strings.Contains(u, "ton") },
		Convert: func(p float64) float64 { return p / TonneKg },
	},
	{
		Name:    RuleUSDPerKg,
		Match:   func(u, _ string) bool { return strings.Contains(u, "kg") },
		Convert: func(p float64) float64 { return p },
	},
}

// Conversion is the result of normalizing one price.
type Conversion struct {
	Value float64 // USD per kilogram
	Rule  string  // name of the rule that produced Value
}

// Convert normalizes price to USD/kg. A nil unit means the source reported
// none; see RuleHeuristic.
func Convert(price float64, unit *string, commodity string) Conversion {
	if unit == nil {
		if price > HeuristicThreshold {
			return Conversion{Value: price / HeuristicDivisor, Rule: RuleHeuristic}
		}
		return Conversion{Value: price, Rule: RuleHeuristic}
	}

	u := strings.ToLower(*unit)
	c := strings.ToLower(commodity)
	for _, r := range Rules {
		if r.Match(u, c) {
			return Conversion{Value: r.Convert(price), Rule: r.Name}
		}
	}
	return Conversion{Value: price, Rule: RuleNoop}
}

// ToUSDPerKg is Convert without the audit information.
func ToUSDPerKg(price float64, unit *string, commodity string) float64 {
	return Convert(price, unit, commodity).Value
}

// IsUnmappedBushel reports a bushel-denominated unit for a commodity with no
// bushel weight. Such prices fall through to the remaining rules and usually
// come out unconverted.
func IsUnmappedBushel(unit *string, commodity string) bool {
	if unit == nil || !strings.Contains(strings.ToLower(*unit), "bushel") {
		return false
	}
	c := strings.ToLower(commodity)
	return !strings.Contains(c, "corn") && !strings.Contains(c, "soy")
}

package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func unit(s string) *string { return &s }

func round4(v float64) float64 { return math.Round(v*1e4) / 1e4 }

func TestConvertCentsPerPound(t *testing.T) {
	for _, p := range []float64{0, 1, 250.5, 403.14, 1e6} {
		got := Convert(p, unit("¢/lb"), "Arabica")
		assert.Equal(t, (p/100.0)/0.45359237, got.Value, "price %v", p)
		assert.Equal(t, RuleCentsPerLb, got.Rule)
	}
	// The word form matches too, regardless of case.
	assert.Equal(t, RuleCentsPerLb, Convert(10, unit("US Cents per LB"), "x").Rule)
}

func TestConvertDollarsPerPound(t *testing.T) {
	got := Convert(2, unit("USD/lb"), "Cocoa")
	assert.Equal(t, 2/0.45359237, got.Value)
	assert.Equal(t, RuleUSDPerLb, got.Rule)
}

func TestConvertTonne(t *testing.T) {
	for _, u := range []string{"USD/tonne", "USD/T", "usd per metric ton", "TONS"} {
		got := Convert(4506, unit(u), "Robusta")
		if u == "USD/T" {
			// "t" alone is not a recognized marker.
			assert.Equal(t, RuleNoop, got.Rule, u)
			continue
		}
		assert.Equal(t, 4.506, got.Value, u)
		assert.Equal(t, RuleUSDPerTon, got.Rule, u)
	}
}

func TestConvertBushel(t *testing.T) {
	for _, p := range []float64{0, 520, 1200} {
		assert.Equal(t, p/25.4, ToUSDPerKg(p, unit("USD/bushel"), "Corn"))
		assert.Equal(t, p/27.2155, ToUSDPerKg(p, unit("USD/bushel"), "Soybeans"))
	}
	assert.Equal(t, RuleBushelCorn, Convert(1, unit("USD/Bushel"), "CORN").Rule)
	assert.Equal(t, RuleBushelSoy, Convert(1, unit("usd/bushel"), "soy meal").Rule)
}

func TestConvertUnmappedBushelFallsThrough(t *testing.T) {
	// Known gap: bushel prices for other commodities are left unconverted.
	got := Convert(700, unit("USD/bushel"), "Wheat")
	assert.Equal(t, 700.0, got.Value)
	assert.Equal(t, RuleNoop, got.Rule)
	assert.True(t, IsUnmappedBushel(unit("USD/bushel"), "Wheat"))

	// Later rules still apply after the bushel rules decline.
	got = Convert(700, unit("USD/bushel (short ton basis)"), "Wheat")
	assert.Equal(t, RuleUSDPerTon, got.Rule)
	assert.Equal(t, 0.7, got.Value)
}

func TestIsUnmappedBushel(t *testing.T) {
	assert.False(t, IsUnmappedBushel(nil, "Wheat"))
	assert.False(t, IsUnmappedBushel(unit("USD/tonne"), "Wheat"))
	assert.False(t, IsUnmappedBushel(unit("USD/bushel"), "Corn"))
	assert.False(t, IsUnmappedBushel(unit("USD/bushel"), "Soybeans"))
}

func TestConvertKilogramIsExact(t *testing.T) {
	for _, p := range []float64{0, 0.8, 160, 123456.789} {
		got := Convert(p, unit("USD/kg"), "Vanilla Natural")
		assert.Equal(t, p, got.Value)
		assert.Equal(t, RuleUSDPerKg, got.Rule)
	}
}

func TestConvertAbsentUnitHeuristic(t *testing.T) {
	tests := []struct {
		price float64
		want  float64
	}{
		{0, 0},
		{999.99, 999.99},
		{1000, 1000}, // boundary is exclusive
		{1000.5, 1.0005},
		{4506, 4.506},
	}
	for _, tt := range tests {
		got := Convert(tt.price, nil, "anything")
		assert.Equal(t, tt.want, got.Value, "price %v", tt.price)
		assert.Equal(t, RuleHeuristic, got.Rule)
	}
}

func TestConvertUnknownUnitIsNoop(t *testing.T) {
	for _, name := range []string{"Arabica", "Corn", ""} {
		got := Convert(42.5, unit("widgets"), name)
		assert.Equal(t, 42.5, got.Value)
		assert.Equal(t, RuleNoop, got.Rule)
	}
	// An empty unit string is present but matches nothing.
	assert.Equal(t, RuleNoop, Convert(5000, unit(""), "Cocoa").Rule)
	assert.Equal(t, 5000.0, ToUSDPerKg(5000, unit(""), "Cocoa"))
}

func TestConvertPrecedence(t *testing.T) {
	// Cents marker beats the generic pound rule.
	assert.Equal(t, RuleCentsPerLb, Convert(1, unit("cents/lb"), "x").Rule)
	// Pound beats kg when both appear.
	assert.Equal(t, RuleUSDPerLb, Convert(1, unit("USD/lb (approx kg)"), "x").Rule)
	// Bushel beats tonne for corn.
	assert.Equal(t, RuleBushelCorn, Convert(1, unit("USD/bushel per ton"), "Corn").Rule)
	// Tonne beats kg.
	assert.Equal(t, RuleUSDPerTon, Convert(1, unit("USD/tonne (kg eq)"), "x").Rule)
}

func TestReportScenarios(t *testing.T) {
	assert.Equal(t, 8.8877, round4(ToUSDPerKg(403.14, unit("¢/lb"), "Arabica")))
	assert.Equal(t, 4.506, round4(ToUSDPerKg(4506, unit("USD/tonne"), "Robusta")))
	assert.Equal(t, 20.4724, round4(ToUSDPerKg(520, unit("USD/bushel"), "Corn")))
	assert.Equal(t, 44.0925, round4(ToUSDPerKg(1200, unit("USD/bushel"), "Soybeans")))
}

func TestRulesOrder(t *testing.T) {
	want := []string{RuleCentsPerLb, RuleUSDPerLb, RuleBushelCorn, RuleBushelSoy, RuleUSDPerTon, RuleUSDPerKg}
	var got []string
	for _, r := range Rules {
		got = append(got, r.Name)
	}
	assert.Equal(t, want, got)
}

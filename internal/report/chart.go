package report

import (
	"fmt"
	"strings"

	"github.com/seenimoa/marketreport/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// SVG Chart: USD/kg per commodity, embedded in the HTML summary
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 640)
	MarginTop    int    // space for the title (default: 36)
	MarginRight  int    // room for value labels (default: 70)
	MarginBottom int    // default: 12
	MarginLeft   int    // room for commodity labels (default: 130)
	BarHeight    int    // default: 22
	BarGap       int    // default: 8
	BgColor      string // default: "#ffffff"
	TextColor    string // default: "#1a1a2e"
	FontSize     int    // default: 11
	Title        string
}

// DefaultChartConfig returns the summary chart defaults.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        640,
		MarginTop:    36,
		MarginRight:  70,
		MarginBottom: 12,
		MarginLeft:   130,
		BarHeight:    22,
		BarGap:       8,
		BgColor:      "#ffffff",
		TextColor:    "#1a1a2e",
		FontSize:     11,
		Title:        "USD per kg",
	}
}

// height grows with the number of bars.
func (c ChartConfig) height(n int) int {
	return c.MarginTop + n*(c.BarHeight+c.BarGap) + c.MarginBottom
}

// sourceColors distinguish live quotes from demo fills at a glance.
var sourceColors = map[models.SourceTag]string{
	models.SourceSeries: "#2563eb",
	models.SourcePage:   "#16a34a",
	models.SourceDemo:   "#9ca3af",
}

// BarItem represents a single bar.
type BarItem struct {
	Label string
	Value float64
	Color string // optional
}

// RowBars converts report rows into bars coloured by source.
func RowBars(rows []models.NormalizedRow) []BarItem {
	items := make([]BarItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, BarItem{
			Label: r.Commodity,
			Value: r.USDPerKg,
			Color: sourceColors[r.Source],
		})
	}
	return items
}

// BarChart generates an SVG horizontal bar chart. Bars are scaled to the
// largest value; negative values are drawn as zero-width bars.
func BarChart(items []BarItem, cfg ChartConfig) string {
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if len(items) == 0 {
		return emptySVG(cfg, "No data")
	}

	maxVal := 0.0
	for _, item := range items {
		if item.Value > maxVal {
			maxVal = item.Value
		}
	}
	if maxVal <= 0 {
		maxVal = 1
	}

	h := cfg.height(len(items))
	pw := float64(cfg.Width - cfg.MarginLeft - cfg.MarginRight)

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg.Width, h))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, h, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))

	for i, item := range items {
		by := cfg.MarginTop + i*(cfg.BarHeight+cfg.BarGap)
		bw := 0.0
		if item.Value > 0 {
			bw = item.Value / maxVal * pw
		}
		color := item.Color
		if color == "" {
			color = "#2563eb"
		}

		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%.1f" height="%d" fill="%s" rx="2"/>`,
			cfg.MarginLeft, by, bw, cfg.BarHeight, color))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			cfg.MarginLeft-6, by+cfg.BarHeight/2+4, cfg.FontSize, cfg.TextColor, escapeXML(item.Label)))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s">%.4f</text>`,
			float64(cfg.MarginLeft)+bw+5, by+cfg.BarHeight/2+4, cfg.FontSize, cfg.TextColor, item.Value))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Helpers
// ════════════════════════════════════════════════════════════════════

func svgHeader(w, h int) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		w, h, w, h)
}

func emptySVG(cfg ChartConfig, msg string) string {
	w, h := cfg.Width, 120
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		w, h, w, h, w/2, h/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}

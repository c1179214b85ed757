package report

import (
	"bytes"
	"html/template"

	"github.com/rotisserie/eris"

	"github.com/seenimoa/marketreport/pkg/models"
	"github.com/seenimoa/marketreport/pkg/utils"
)

// SummaryTemplate is the HTML body of the delivery e-mail. Styles are inline
// because most mail clients drop <style> blocks.
const SummaryTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
</head>
<body style="font-family:-apple-system,'Segoe UI',Roboto,sans-serif;color:#1a1a2e;max-width:720px;margin:0 auto;padding:16px;">
<h1 style="font-size:1.4rem;color:#2563eb;border-bottom:3px solid #2563eb;padding-bottom:8px;">{{.Title}}</h1>
<p style="color:#6b7280;font-size:0.85rem;">Generated {{.GeneratedAt}}{{if .RunID}} &middot; run {{.RunID}}{{end}}</p>
<p>{{.Total}} commodities: {{.Series}} series, {{.Pages}} page, {{.Demo}} demo.</p>
{{if .Demo}}<p style="color:#ea580c;">Demo prices stand in for sources that were unavailable.</p>{{end}}
<table style="border-collapse:collapse;width:100%;font-size:0.9rem;">
<thead>
<tr style="background:#2563eb;color:#ffffff;">
<th style="text-align:left;padding:6px;">culture</th>
<th style="text-align:right;padding:6px;">raw_price</th>
<th style="text-align:left;padding:6px;">raw_unit</th>
<th style="text-align:right;padding:6px;">USD_per_kg</th>
<th style="text-align:left;padding:6px;">source</th>
</tr>
</thead>
<tbody>
{{range $i, $r := .Rows}}<tr style="border-bottom:1px solid #e5e7eb;{{if $r.Demo}}color:#6b7280;{{end}}">
<td style="padding:6px;">{{$r.Commodity}}</td>
<td style="text-align:right;padding:6px;">{{$r.RawPrice}}</td>
<td style="padding:6px;">{{$r.RawUnit}}</td>
<td style="text-align:right;padding:6px;font-weight:600;">{{$r.USDPerKg}}</td>
<td style="padding:6px;">{{$r.Source}}</td>
</tr>
{{end}}</tbody>
</table>
{{if .Chart}}<div style="margin-top:16px;">{{.Chart}}</div>{{end}}
<p style="color:#6b7280;font-size:0.8rem;margin-top:16px;">CSV and PDF attached.</p>
</body>
</html>
`

var summaryTmpl = template.Must(template.New("summary").Parse(SummaryTemplate))

// SummaryData is the template model for SummaryTemplate.
type SummaryData struct {
	Title       string
	RunID       string
	GeneratedAt string
	Total       int
	Series      int
	Pages       int
	Demo        int
	Rows        []SummaryRow
	Chart       template.HTML
}

// SummaryRow is one formatted table row.
type SummaryRow struct {
	Commodity string
	RawPrice  string
	RawUnit   string
	USDPerKg  string
	Source    string
	Demo      bool
}

func buildSummaryData(meta Meta, rows []models.NormalizedRow) SummaryData {
	d := SummaryData{
		Title:       meta.Title(),
		RunID:       meta.RunID,
		GeneratedAt: utils.FormatDateTimeUTC(meta.GeneratedAt),
		Total:       len(rows),
		Rows:        make([]SummaryRow, 0, len(rows)),
	}
	for _, r := range rows {
		switch r.Source {
		case models.SourceSeries:
			d.Series++
		case models.SourcePage:
			d.Pages++
		case models.SourceDemo:
			d.Demo++
		}
		d.Rows = append(d.Rows, SummaryRow{
			Commodity: r.Commodity,
			RawPrice:  utils.FormatRawPrice(r.RawPrice),
			RawUnit:   r.RawUnit,
			USDPerKg:  utils.FormatUSDPerKg(r.USDPerKg),
			Source:    string(r.Source),
			Demo:      r.Source == models.SourceDemo,
		})
	}
	if len(rows) > 0 {
		// BarChart escapes every label it emits.
		d.Chart = template.HTML(BarChart(RowBars(rows), DefaultChartConfig()))
	}
	return d
}

// RenderSummaryHTML renders the e-mail summary for one run.
func RenderSummaryHTML(meta Meta, rows []models.NormalizedRow) (string, error) {
	var buf bytes.Buffer
	if err := summaryTmpl.Execute(&buf, buildSummaryData(meta, rows)); err != nil {
		return "", eris.Wrap(err, "report: render summary")
	}
	return buf.String(), nil
}

package pipeline

import (
	"strings"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/seenimoa/marketreport/internal/collector"
	"github.com/seenimoa/marketreport/internal/config"
	"github.com/seenimoa/marketreport/internal/datasource"
	"github.com/seenimoa/marketreport/internal/delivery"
	"github.com/seenimoa/marketreport/internal/observability"
	"github.com/seenimoa/marketreport/internal/report"
)

// FromConfig wires the production pipeline: Yahoo series, Trading Economics
// pages, the dated report writer and SMTP delivery.
func FromConfig(cfg *config.Config, logger *zap.Logger, clock clockwork.Clock) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	metrics := observability.NewMetrics()

	series := datasource.NewYFinance(datasource.YFinanceOptions{
		BaseURL:     cfg.Sources.Yahoo.BaseURL,
		Timeout:     cfg.Sources.Timeout,
		HistoryDays: cfg.Sources.Yahoo.HistoryDays,
		RatePerSec:  cfg.Sources.Yahoo.RatePerSec,
		Clock:       clock,
		Logger:      logger.Named("yfinance"),
		Metrics:     metrics,
	})
	pages := datasource.NewTradingEconomics(datasource.TradingEconomicsOptions{
		BaseURL:     cfg.Sources.TE.BaseURL,
		Timeout:     cfg.Sources.Timeout,
		Selectors:   cfg.Sources.TE.Selectors,
		MetaFields:  ParseMetaFields(cfg.Sources.TE.MetaFields),
		DelayMin:    cfg.Sources.TE.DelayMin,
		DelayJitter: cfg.Sources.TE.DelayJitter,
		Clock:       clock,
		Logger:      logger.Named("tradingeconomics"),
		Metrics:     metrics,
	})

	writer := report.NewWriter(report.WriterOptions{
		Dir:    cfg.Report.Dir,
		XLSX:   cfg.Report.XLSX,
		Clock:  clock,
		Logger: logger.Named("report"),
	})
	mailer := delivery.NewMailer(delivery.SMTPConfig{
		Host:    cfg.SMTP.Host,
		Port:    cfg.SMTP.Port,
		User:    cfg.SMTP.User,
		Pass:    cfg.SMTP.Pass,
		Timeout: cfg.SMTP.Timeout,
	}, delivery.WithLogger(logger.Named("delivery")), delivery.WithMetrics(metrics))

	return New(
		collector.New(series, pages, logger.Named("collector"), metrics),
		writer,
		mailer,
		Options{
			Recipient:       cfg.SMTP.To,
			Logger:          logger,
			Metrics:         metrics,
			MetricsTextfile: cfg.Metrics.Textfile,
			Clock:           clock,
		},
	)
}

// ParseMetaFields turns "attr=value" entries into meta field selectors.
// Malformed entries are skipped; an empty result selects the defaults.
func ParseMetaFields(specs []string) []datasource.MetaField {
	var out []datasource.MetaField
	for _, s := range specs {
		attr, value, ok := strings.Cut(s, "=")
		attr, value = strings.TrimSpace(attr), strings.TrimSpace(value)
		if !ok || attr == "" || value == "" {
			continue
		}
		out = append(out, datasource.MetaField{Attr: attr, Value: value})
	}
	return out
}

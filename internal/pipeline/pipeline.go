// Package pipeline runs one market report end to end: collect quotes,
// normalize them, write the artifacts and deliver them.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/seenimoa/marketreport/internal/observability"
	"github.com/seenimoa/marketreport/internal/report"
	"github.com/seenimoa/marketreport/pkg/models"
)

// Collector resolves a quote for every roster commodity.
type Collector interface {
	Collect(ctx context.Context) *models.Dataset
}

// ReportWriter writes the report artifacts for one run.
type ReportWriter interface {
	Write(runID string, rows []models.NormalizedRow) (report.Artifacts, error)
}

// Deliverer sends the written files. It returns false without error when
// delivery is not configured.
type Deliverer interface {
	Send(ctx context.Context, to, date string, files []string, htmlBody string) (bool, error)
}

// Options holds the optional collaborators of a Pipeline.
type Options struct {
	Recipient       string
	Logger          *zap.Logger
	Metrics         *observability.Metrics
	MetricsTextfile string // written after every run when set
	Clock           clockwork.Clock
	NewRunID        func() string
}

// Result summarizes a finished run.
type Result struct {
	RunID     string
	Rows      []models.NormalizedRow
	Artifacts report.Artifacts
	Emailed   bool
	Duration  time.Duration
}

// Pipeline orchestrates collect, build, write and deliver.
type Pipeline struct {
	collector Collector
	writer    ReportWriter
	deliverer Deliverer
	recipient string
	logger    *zap.Logger
	metrics   *observability.Metrics
	textfile  string
	clock     clockwork.Clock
	newRunID  func() string
}

// New creates a Pipeline. A nil deliverer disables delivery.
func New(c Collector, w ReportWriter, d Deliverer, opts Options) *Pipeline {
	p := &Pipeline{
		collector: c,
		writer:    w,
		deliverer: d,
		recipient: opts.Recipient,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		textfile:  opts.MetricsTextfile,
		clock:     opts.Clock,
		newRunID:  opts.NewRunID,
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.clock == nil {
		p.clock = clockwork.NewRealClock()
	}
	if p.newRunID == nil {
		p.newRunID = uuid.NewString
	}
	return p
}

// Run executes one report. Source failures never fail the run: missing
// quotes are filled from the demo table. Write and delivery errors are
// returned, the latter after the files are already on disk.
func (p *Pipeline) Run(ctx context.Context) (res Result, err error) {
	start := p.clock.Now()
	res.RunID = p.newRunID()
	logger := p.logger.With(zap.String("run_id", res.RunID))
	logger.Info("report run started")

	defer func() {
		res.Duration = p.clock.Since(start)
		p.finish(logger, res, err)
	}()

	ds := p.collector.Collect(ctx)
	res.Rows = report.BuildRows(ds, logger, p.metrics)
	if p.metrics != nil {
		p.metrics.ReportRows.Set(float64(len(res.Rows)))
	}

	res.Artifacts, err = p.writer.Write(res.RunID, res.Rows)
	if err != nil {
		return res, err
	}

	if p.deliverer == nil {
		return res, nil
	}

	html, herr := report.RenderSummaryHTML(res.Artifacts.Meta, res.Rows)
	if herr != nil {
		logger.Warn("summary render failed, sending plain text only", zap.Error(herr))
		html = ""
	}
	res.Emailed, err = p.deliverer.Send(ctx, p.recipient, res.Artifacts.Meta.Date, res.Artifacts.Files(), html)
	return res, err
}

func (p *Pipeline) finish(logger *zap.Logger, res Result, err error) {
	if p.metrics != nil {
		p.metrics.RunDuration.Set(res.Duration.Seconds())
		p.metrics.LastRunUnix.Set(float64(p.clock.Now().Unix()))
	}
	if werr := p.metrics.WriteTextfile(p.textfile); werr != nil {
		logger.Warn("metrics textfile not written", zap.Error(werr))
	}

	if err != nil {
		logger.Error("report run failed", zap.Error(err), zap.Duration("duration", res.Duration))
		return
	}
	logger.Info("report run finished",
		zap.Int("rows", len(res.Rows)),
		zap.Strings("files", res.Artifacts.Files()),
		zap.Bool("emailed", res.Emailed),
		zap.Duration("duration", res.Duration),
	)
}

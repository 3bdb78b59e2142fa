package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "pmreport"

// Metrics holds all pmreport metric instruments.
type Metrics struct {
	SubmissionsStarted   metric.Int64Counter
	SubmissionsSucceeded metric.Int64Counter
	SubmissionsFailed    metric.Int64Counter
	SubmissionsStale     metric.Int64Counter
	SubmissionDuration   metric.Float64Histogram
	ReportsRendered      metric.Int64Counter
	ReportsFailed        metric.Int64Counter
	ReportPages          metric.Int64Histogram
	SessionsActive       metric.Int64UpDownCounter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.SubmissionsStarted, err = meter.Int64Counter("pmreport.submissions.started",
		metric.WithDescription("Number of submissions sent to the project service"))
	if err != nil {
		return nil, err
	}

	m.SubmissionsSucceeded, err = meter.Int64Counter("pmreport.submissions.succeeded",
		metric.WithDescription("Number of submissions settled with a result"))
	if err != nil {
		return nil, err
	}

	m.SubmissionsFailed, err = meter.Int64Counter("pmreport.submissions.failed",
		metric.WithDescription("Number of submissions settled with an error"))
	if err != nil {
		return nil, err
	}

	m.SubmissionsStale, err = meter.Int64Counter("pmreport.submissions.stale",
		metric.WithDescription("Number of settlements discarded because a newer submission exists"))
	if err != nil {
		return nil, err
	}

	m.SubmissionDuration, err = meter.Float64Histogram("pmreport.submission.duration_seconds",
		metric.WithDescription("Round-trip time of the project service call in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.ReportsRendered, err = meter.Int64Counter("pmreport.reports.rendered",
		metric.WithDescription("Number of PDF reports rendered"))
	if err != nil {
		return nil, err
	}

	m.ReportsFailed, err = meter.Int64Counter("pmreport.reports.failed",
		metric.WithDescription("Number of report renders rejected or failed"))
	if err != nil {
		return nil, err
	}

	m.ReportPages, err = meter.Int64Histogram("pmreport.report.pages",
		metric.WithDescription("Pages per rendered report"),
		metric.WithUnit("{page}"))
	if err != nil {
		return nil, err
	}

	m.SessionsActive, err = meter.Int64UpDownCounter("pmreport.sessions.active",
		metric.WithDescription("Number of live sessions"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

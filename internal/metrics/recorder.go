package metrics

import "time"

// PageOutcome labels the result of one exported page.
type PageOutcome string

const (
	PageSucceeded PageOutcome = "succeeded"
	PageFailed    PageOutcome = "failed"
)

// Recorder defines observability hooks for the site server and the exporter.
type Recorder interface {
	ObserveRequest(route string, status int, d time.Duration)
	IncPanic()
	IncExportPage(outcome PageOutcome)
	ObserveExportDuration(d time.Duration)
	IncExportRun(outcome string) // outcome: success|partial|failed
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRequest(string, int, time.Duration) {}
func (NoopRecorder) IncPanic()                                 {}
func (NoopRecorder) IncExportPage(PageOutcome)                 {}
func (NoopRecorder) ObserveExportDuration(time.Duration)       {}
func (NoopRecorder) IncExportRun(string)                       {}

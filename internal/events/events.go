// Package events publishes export lifecycle events.
//
// Events are JSON documents sent on "<subject>.<type>", for example
// "scholarsite.export.page". Publishing is best effort: callers log failures
// and carry on.
package events

import (
	"context"
	"time"
)

const (
	TypePage      = "page"
	TypeCompleted = "completed"
)

// Event describes one exported page or one finished export run.
type Event struct {
	Type       string    `json:"type"`
	RunID      string    `json:"run_id"`
	Time       time.Time `json:"time"`
	URLPath    string    `json:"url_path,omitempty"`
	OutputPath string    `json:"output_path,omitempty"`
	Status     int       `json:"status,omitempty"`
	Bytes      int64     `json:"bytes,omitempty"`
	Error      string    `json:"error,omitempty"`
	Pages      int       `json:"pages,omitempty"`
	Succeeded  int       `json:"succeeded,omitempty"`
	Failed     int       `json:"failed,omitempty"`
	DurationMS float64   `json:"duration_ms,omitempty"`
	GitCommit  string    `json:"git_commit,omitempty"`
}

// Publisher sends events somewhere.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Recorder keeps events in memory; useful in tests and dry runs.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.Events = append(r.Events, ev)
	return nil
}

func (r *Recorder) Close() error { return nil }

// OfType returns the recorded events of type t.
func (r *Recorder) OfType(t string) []Event {
	var out []Event
	for _, ev := range r.Events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

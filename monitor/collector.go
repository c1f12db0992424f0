// Package monitor records engine activity.
package monitor

import "time"

// Recommendation outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeNoMatch = "no_match"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
)

// Recorder receives engine events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Recommendation(outcome string, elapsed time.Duration)
	StaleReference()
	Rebuild(success bool, elapsed time.Duration)
	CatalogSize(records int)
	IndexSize(entries int)
}

type NoOpRecorder struct{}

func NewNoOpRecorder() *NoOpRecorder {
	return &NoOpRecorder{}
}

func (NoOpRecorder) Recommendation(string, time.Duration) {}
func (NoOpRecorder) StaleReference()                      {}
func (NoOpRecorder) Rebuild(bool, time.Duration)          {}
func (NoOpRecorder) CatalogSize(int)                      {}
func (NoOpRecorder) IndexSize(int)                        {}

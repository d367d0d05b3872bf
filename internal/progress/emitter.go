// Package progress streams analysis progress to a single consumer. Every
// stream ends with exactly one terminal event.
package progress

import (
	"sync"

	"creditscope/internal/domain"
)

// Step names a pipeline phase or a terminal event.
type Step string

const (
	StepInitializing Step = "initializing"
	StepProcessing   Step = "processing"
	StepAnalyzing    Step = "analyzing"
	StepFinalizing   Step = "finalizing"
	StepResult       Step = "result"
	StepError        Step = "error"
)

// Phase percentage bounds.
const (
	InitStart       = 0
	ProcessingStart = 10
	AnalysisStart   = 70
	FinalizeStart   = 95
	Complete        = 100
)

// Event is one message on the progress stream.
type Event struct {
	Step     Step                 `json:"step"`
	Progress int                  `json:"progress"`
	Message  string               `json:"message,omitempty"`
	Result   *domain.CreditReport `json:"result,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// IsTerminal reports whether the event ends the stream.
func (e Event) IsTerminal() bool {
	return e.Step == StepResult || e.Step == StepError
}

// Emitter publishes events for one request. Percentages never decrease, and
// once a terminal event is sent the channel is closed and further calls are
// ignored.
type Emitter struct {
	mu       sync.Mutex
	ch       chan Event
	last     int
	finished bool
}

// DefaultBuffer is large enough that a request never blocks on a slow reader
// under normal batch sizes.
const DefaultBuffer = 256

// NewEmitter creates an Emitter with the given channel buffer.
func NewEmitter(buffer int) *Emitter {
	if buffer < 1 {
		buffer = 1
	}
	return &Emitter{ch: make(chan Event, buffer)}
}

// Events returns the receive side of the stream. It must have exactly one reader.
func (e *Emitter) Events() <-chan Event {
	return e.ch
}

// Emit sends a progress event. pct is clamped to [last, 100].
func (e *Emitter) Emit(step Step, pct int, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finished {
		return
	}
	e.ch <- Event{Step: step, Progress: e.advance(pct), Message: message}
}

// Result sends the terminal result event and closes the stream.
func (e *Emitter) Result(report *domain.CreditReport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finished {
		return
	}
	e.ch <- Event{Step: StepResult, Progress: e.advance(Complete), Message: "Analysis complete", Result: report}
	e.close()
}

// Fail sends the terminal error event and closes the stream.
func (e *Emitter) Fail(message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finished {
		return
	}
	e.ch <- Event{Step: StepError, Progress: e.last, Error: message}
	e.close()
}

// Finished reports whether a terminal event has been sent.
func (e *Emitter) Finished() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.finished
}

func (e *Emitter) advance(pct int) int {
	if pct > Complete {
		pct = Complete
	}
	if pct < e.last {
		pct = e.last
	}
	e.last = pct
	return pct
}

func (e *Emitter) close() {
	e.finished = true
	close(e.ch)
}

// Span linearly maps item i of n into [start, end).
func Span(start, end, i, n int) int {
	if n <= 0 {
		return start
	}
	return start + (end-start)*i/n
}

package services

import (
	"sync"

	"offerwise_backend/internal/services/dto"
)

// ProgressSink receives every progress event of every run. The websocket hub
// implements this to push events to subscribed clients.
type ProgressSink interface {
	Publish(runID string, event dto.SearchProgress)
}

// progressReporter is the single observable channel of one run. It enforces
// the event invariants: percent is monotonic non-decreasing and every count
// only grows within the run. After Close no further events are delivered.
type progressReporter struct {
	runID string
	sinks []ProgressSink

	mu          sync.Mutex
	closed      bool
	last        dto.SearchProgress
	hasLast     bool
	subscribers map[int]chan dto.SearchProgress
	nextSubID   int
}

func newProgressReporter(runID string, sinks ...ProgressSink) *progressReporter {
	return &progressReporter{
		runID:       runID,
		sinks:       sinks,
		subscribers: make(map[int]chan dto.SearchProgress),
	}
}

// Subscribe returns a buffered event channel and an unsubscribe func. The
// channel is closed when the run reaches a terminal state.
func (r *progressReporter) Subscribe() (<-chan dto.SearchProgress, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan dto.SearchProgress, 64)
	if r.closed {
		close(ch)
		return ch, func() {}
	}

	id := r.nextSubID
	r.nextSubID++
	r.subscribers[id] = ch

	return ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if sub, ok := r.subscribers[id]; ok {
			delete(r.subscribers, id)
			close(sub)
		}
	}
}

// Emit publishes one event, normalized against the run's previous event.
func (r *progressReporter) Emit(event dto.SearchProgress) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}

	event.RunID = r.runID
	if r.hasLast {
		if event.Percent < r.last.Percent {
			event.Percent = r.last.Percent
		}
		event.ScannedCount = maxInt(event.ScannedCount, r.last.ScannedCount)
		event.TotalCount = maxInt(event.TotalCount, r.last.TotalCount)
		event.FilteredCount = maxInt(event.FilteredCount, r.last.FilteredCount)
		event.MatchedCount = maxInt(event.MatchedCount, r.last.MatchedCount)
		event.AnalyzedCount = maxInt(event.AnalyzedCount, r.last.AnalyzedCount)
	}
	r.last = event
	r.hasLast = true

	// Deliver while still holding the mutex: Close and unsubscribe close the
	// subscriber channels under the same lock, so a send can never hit a
	// closed channel and nothing is observable once the reporter is sealed.
	// Both delivery paths are non-blocking, so holding the lock cannot stall.
	for _, ch := range r.subscribers {
		select {
		case ch <- event:
		default:
			// Slow consumers drop ticks rather than stall the pipeline.
		}
	}
	for _, sink := range r.sinks {
		sink.Publish(r.runID, event)
	}
	r.mu.Unlock()
}

// Latest returns the most recent event, if any.
func (r *progressReporter) Latest() (dto.SearchProgress, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.hasLast
}

// Close seals the reporter; subscriber channels are closed and later Emit
// calls are ignored. Used both on completion and on cancellation.
func (r *progressReporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for id, ch := range r.subscribers {
		delete(r.subscribers, id)
		close(ch)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

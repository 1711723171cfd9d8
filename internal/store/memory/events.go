package memory

import (
	"context"
	"sync"

	"github.com/capitalize-ai/briefing-platform/internal/model"
)

// EventLog keeps the most recent published events in memory.
type EventLog struct {
	mu     sync.Mutex
	max    int
	seq    uint64
	events []model.BriefingEvent
}

// NewEventLog creates an event log holding at most max events. A max <= 0
// keeps everything.
func NewEventLog(max int) *EventLog {
	return &EventLog{max: max}
}

// PublishEvent appends an event and returns its sequence.
func (l *EventLog) PublishEvent(ctx context.Context, event *model.BriefingEvent) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	l.events = append(l.events, *event)
	if l.max > 0 && len(l.events) > l.max {
		l.events = l.events[len(l.events)-l.max:]
	}
	return l.seq, nil
}

// Events returns a copy of the retained events, oldest first.
func (l *EventLog) Events() []model.BriefingEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.BriefingEvent, len(l.events))
	copy(out, l.events)
	return out
}

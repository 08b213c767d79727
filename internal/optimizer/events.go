package optimizer

import (
	"context"
	"sync"

	"pv_optimizer/internal/model"
)

type EventKind int

const (
	EventProgress EventKind = iota
	EventResult
	EventFailure
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventResult:
		return "result"
	case EventFailure:
		return "failure"
	}
	return "unknown"
}

// Event is a progress update, the final result, or the failure reason.
type Event struct {
	Kind      EventKind
	Completed int
	Total     int
	Result    model.OptimizationResult
	Err       error
}

// eventBuffer is the channel capacity used by Run.
const eventBuffer = 16

// Run starts the search in the background. The returned channel carries
// zero or more progress events followed by exactly one result or failure
// event, then closes. Progress is dropped rather than blocking the search
// when the reader falls behind.
func Run(ctx context.Context, req Request) <-chan Event {
	ch := make(chan Event, eventBuffer)
	go func() {
		defer close(ch)

		var mu sync.Mutex
		progress := func(completed, total int) {
			mu.Lock()
			defer mu.Unlock()
			// Keep one slot free for the terminal event.
			if len(ch) >= cap(ch)-1 {
				return
			}
			ch <- Event{Kind: EventProgress, Completed: completed, Total: total}
		}

		res, err := Optimize(ctx, req, progress)
		if err != nil {
			ch <- Event{Kind: EventFailure, Err: err}
			return
		}
		ch <- Event{Kind: EventResult, Completed: res.Evaluated, Total: res.Evaluated, Result: res}
	}()
	return ch
}

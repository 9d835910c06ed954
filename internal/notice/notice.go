// internal/notice/notice.go
//
// Per-request notification queue.
//
// Context
//   Handlers push user-facing notices (success, error, warning, info) while
//   processing a request.  The fragment composer drains the queue exactly
//   once into a single out-of-band fragment, so notices enqueued anywhere in
//   the call chain surface in the response without handler cooperation.
//
//   A Queue is constructed per request by the dispatcher and carried on the
//   view.Context.  It is never a package-level singleton: two concurrent
//   requests own two independent queues.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package notice

import "sync"

// Level classifies a notice for styling on the client.
type Level int

const (
	Success Level = iota
	Error
	Warning
	Info
)

// String returns the lowercase CSS-class form of the level.
func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "info"
	}
}

// Entry is one queued notice.
type Entry struct {
	Level Level
	Text  string
}

// Queue accumulates notices for a single request.  The mutex keeps the
// abstraction safe if a handler fans work out to goroutines, even though
// the normal model is one goroutine per request.
type Queue struct {
	mu      sync.Mutex
	entries []Entry
}

// New returns an empty queue.
func New() *Queue { return &Queue{} }

// Push appends one entry, preserving insertion order.
func (q *Queue) Push(level Level, text string) {
	q.mu.Lock()
	q.entries = append(q.entries, Entry{Level: level, Text: text})
	q.mu.Unlock()
}

// Convenience wrappers for the four levels.
func (q *Queue) Success(text string) { q.Push(Success, text) }
func (q *Queue) Error(text string)   { q.Push(Error, text) }
func (q *Queue) Warning(text string) { q.Push(Warning, text) }
func (q *Queue) Info(text string)    { q.Push(Info, text) }

// Len reports how many entries are currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// DrainAll returns every queued entry in insertion order and empties the
// queue.  A second drain on the same queue returns nil.
func (q *Queue) DrainAll() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.entries
	q.entries = nil
	return out
}

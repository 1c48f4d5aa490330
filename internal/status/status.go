// Package status defines the tagged event variant the engine emits to its
// host. The event kind and payload are compile-time checked instead of the
// original's duck-typed (kind, value) tuple.
package status

import "fmt"

// Kind identifies the event payload shape.
type Kind int

const (
	// Status carries a human-readable progress narration.
	Status Kind = iota
	// Progress carries a monotone 0..100 percent complete.
	Progress
	// ProgressPair carries the tile pair currently being matched.
	ProgressPair
	// Error carries a terminal failure message; always the last event.
	Error
	// Done carries the terminal success message.
	Done
)

func (k Kind) String() string {
	switch k {
	case Status:
		return "status"
	case Progress:
		return "progress"
	case ProgressPair:
		return "progress_pair"
	case Error:
		return "error"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// TileCoord identifies a tile by its (row, column) grid index.
type TileCoord struct{ R, C int }

// Event is a single status update emitted by the engine.
type Event struct {
	Kind    Kind
	Message string       // Status, Error, Done
	Percent int          // Progress
	Pair    [2]TileCoord // ProgressPair: [0]=src, [1]=dst
}

// Sink is the one-way channel the engine writes to and the host drains.
// A bounded channel gives the engine natural backpressure without needing
// a second synchronization primitive.
type Sink chan Event

// NewSink creates a status channel with the given buffer capacity.
func NewSink(capacity int) Sink {
	return make(Sink, capacity)
}

// Emit sends an event, dropping it if the sink is nil (status reporting is
// optional for callers that don't care about progress).
func Emit(sink Sink, ev Event) {
	if sink == nil {
		return
	}
	sink <- ev
}

// Statusf emits a Status event.
func Statusf(sink Sink, format string, args ...any) {
	Emit(sink, Event{Kind: Status, Message: fmt.Sprintf(format, args...)})
}

// Progressf emits a Progress event.
func Progressf(sink Sink, percent int) {
	Emit(sink, Event{Kind: Progress, Percent: percent})
}

// ProgressPairf emits a ProgressPair event.
func ProgressPairf(sink Sink, src, dst TileCoord) {
	Emit(sink, Event{Kind: ProgressPair, Pair: [2]TileCoord{src, dst}})
}

// Errorf emits a terminal Error event.
func Errorf(sink Sink, format string, args ...any) {
	Emit(sink, Event{Kind: Error, Message: fmt.Sprintf(format, args...)})
}

// Donef emits a terminal Done event.
func Donef(sink Sink, format string, args ...any) {
	Emit(sink, Event{Kind: Done, Message: fmt.Sprintf(format, args...)})
}

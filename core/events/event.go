package events

// Event carries a structured state change emitted by the engine for
// downstream subscribers (RPC, indexers, relayers).
type Event struct {
	Type       string
	Attributes map[string]string
}

// Typed is implemented by the concrete event payloads in this package.
type Typed interface {
	EventType() string
	Event() *Event
}

// Emitter broadcasts events to downstream subscribers.
type Emitter interface {
	Emit(Typed)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is the default when a component does not wire an emitter.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Typed) {}

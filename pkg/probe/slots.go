package probe

// Slot is an independently-optional write target for one named output. The
// zero value is unbound: writing to it is a safe no-op. Writes are
// fire-and-forget and last-writer-wins.
type Slot[T any] struct {
	write func(T)
}

// SlotFunc binds a slot to a function.
func SlotFunc[T any](fn func(T)) Slot[T] {
	return Slot[T]{write: fn}
}

// SlotOf binds a slot to a destination variable.
func SlotOf[T any](dst *T) Slot[T] {
	return Slot[T]{write: func(v T) { *dst = v }}
}

// Bound reports whether the slot has a binding.
func (s Slot[T]) Bound() bool { return s.write != nil }

// Set writes the value if the slot is bound, and does nothing otherwise.
func (s Slot[T]) Set(v T) {
	if s.write != nil {
		s.write(v)
	}
}

// OutputSlots holds the nine named output bindings of an invocation. Every
// slot is optional; an unbound slot swallows its writes.
type OutputSlots struct {
	// StatusCode receives the HTTP status code of a received response.
	StatusCode Slot[int]

	// StatusText receives the human-readable status text.
	StatusText Slot[string]

	// Body receives the response body.
	Body Slot[string]

	// Headers receives the response headers as display text, one
	// "Name: Value" line per header.
	Headers Slot[string]

	// Error receives the error message of non-success outcomes.
	Error Slot[string]

	// ElapsedMS receives the last attempt's duration in milliseconds.
	ElapsedMS Slot[int64]

	// AllowedMethods receives the Allow response header, when present.
	AllowedMethods Slot[string]

	// AllowedHeaders receives the Access-Control-Allow-Headers response
	// header, when present.
	AllowedHeaders Slot[string]

	// MaxAge receives the Access-Control-Max-Age response header, when
	// present.
	MaxAge Slot[string]
}

// Bindings connects an invocation to its host: output slots and the
// terminal signal emitter. A nil *Bindings, a nil Slots field, or a nil
// Emitter are all valid and mean "unbound".
type Bindings struct {
	Slots   *OutputSlots
	Emitter SignalEmitter
}

// slots returns the slot set, or an all-unbound set when nothing is bound.
func (b *Bindings) slots() *OutputSlots {
	if b == nil || b.Slots == nil {
		return &OutputSlots{}
	}
	return b.Slots
}

// emit fires the terminal signal if an emitter is bound.
func (b *Bindings) emit(signal Signal) {
	if b == nil || b.Emitter == nil {
		return
	}
	b.Emitter.Emit(signal)
}

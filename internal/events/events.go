// Package events dispatches events to handlers synchronously, in registration order.
package events

// Registry holds the handlers registered for one kind of event.
// The zero value is ready to use. It is not safe for concurrent use.
type Registry[E any] struct {
	nextID   uint64
	handlers []handler[E]
}

type handler[E any] struct {
	id uint64
	fn func(E)
}

// Add registers fn and returns a function removing it again.
// Calling the returned function more than once is a no-op.
func (r *Registry[E]) Add(fn func(E)) func() {
	r.nextID++
	id := r.nextID
	r.handlers = append(r.handlers, handler[E]{id: id, fn: fn})

	return func() {
		for i, h := range r.handlers {
			if h.id == id {
				// copy so an Emit in progress keeps its snapshot intact
				handlers := make([]handler[E], 0, len(r.handlers)-1)
				handlers = append(handlers, r.handlers[:i]...)
				r.handlers = append(handlers, r.handlers[i+1:]...)
				return
			}
		}
	}
}

// Emit calls every handler registered at the time of the call with e.
// Handlers may add or remove handlers while being called.
func (r *Registry[E]) Emit(e E) {
	for _, h := range r.handlers {
		h.fn(e)
	}
}

// Len returns the number of registered handlers.
func (r *Registry[E]) Len() int {
	return len(r.handlers)
}

// Clear removes every handler.
func (r *Registry[E]) Clear() {
	r.handlers = nil
}

package event

import (
	"reflect"
	"sync"
)

// Envelope is one structured input. Scoped inputs carry a target; unscoped
// ones are global.
type Envelope[T comparable] struct {
	Type    reflect.Type
	Payload any
	Target  T
	Scoped  bool
}

// Bus is a double-buffered input queue. Inputs emitted in frame N are
// delivered in frame N+1: SwapBuffers is called once at delivery time and
// anything emitted while handlers run lands in the next frame.
type Bus[T comparable] struct {
	mu       sync.Mutex
	front    []Envelope[T]
	back     []Envelope[T]
	handlers map[reflect.Type][]func(Envelope[T])
}

func NewBus[T comparable]() *Bus[T] {
	return &Bus[T]{
		front:    make([]Envelope[T], 0, 64),
		back:     make([]Envelope[T], 0, 64),
		handlers: make(map[reflect.Type][]func(Envelope[T])),
	}
}

// Emit queues an unscoped input into the back buffer.
func (b *Bus[T]) Emit(payload any) {
	b.push(Envelope[T]{Type: reflect.TypeOf(payload), Payload: payload})
}

// EmitTo queues an input scoped to target.
func (b *Bus[T]) EmitTo(target T, payload any) {
	b.push(Envelope[T]{Type: reflect.TypeOf(payload), Payload: payload, Target: target, Scoped: true})
}

func (b *Bus[T]) push(env Envelope[T]) {
	b.mu.Lock()
	b.back = append(b.back, env)
	b.mu.Unlock()
}

// Subscribe registers a handler for inputs whose dynamic type is t.
func (b *Bus[T]) Subscribe(t reflect.Type, fn func(Envelope[T])) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], fn)
}

// SwapBuffers rotates back into front and clears the new back buffer.
func (b *Bus[T]) SwapBuffers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.front, b.back = b.back, b.front
	clear(b.back)
	b.back = b.back[:0]
}

// DispatchAll delivers the front buffer in emission order and returns the
// number of inputs delivered. Handlers are called without the lock held.
func (b *Bus[T]) DispatchAll() int {
	b.mu.Lock()
	front := b.front
	b.mu.Unlock()

	for _, env := range front {
		b.mu.Lock()
		handlers := b.handlers[env.Type]
		b.mu.Unlock()
		for _, h := range handlers {
			h(env)
		}
	}
	return len(front)
}

// Pending returns the number of inputs waiting for the next frame.
func (b *Bus[T]) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.back)
}

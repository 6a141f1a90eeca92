package session

import "sync"

// Emitter fans notifications out to subscribers.
// Handlers run on the emitting goroutine, outside the emitter lock.
type Emitter struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]func(Notification)
	order    []int
}

// Subscribe registers fn and returns a function that removes it.
// Calling cancel more than once is safe.
func (e *Emitter) Subscribe(fn func(Notification)) (cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[int]func(Notification))
	}
	id := e.nextID
	e.nextID++
	e.handlers[id] = fn
	e.order = append(e.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.handlers, id)
			for i, v := range e.order {
				if v == id {
					e.order = append(e.order[:i], e.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Emit delivers n to every subscriber in subscription order.
func (e *Emitter) Emit(n Notification) {
	e.mu.Lock()
	fns := make([]func(Notification), 0, len(e.order))
	for _, id := range e.order {
		fns = append(fns, e.handlers[id])
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(n)
	}
}

// Len returns the number of subscribers.
func (e *Emitter) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.order)
}

package folio

// event is a synchronous listener list. Listeners run in subscription order.
type event[T any] struct {
	next      int
	listeners []listener[T]
}

type listener[T any] struct {
	id int
	fn func(T)
}

// subscribe registers fn and returns a function that removes it.
func (e *event[T]) subscribe(fn func(T)) func() {
	e.next++
	id := e.next
	e.listeners = append(e.listeners, listener[T]{id: id, fn: fn})
	return func() {
		for i, l := range e.listeners {
			if l.id == id {
				e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

// emit calls every listener registered at the time of the call.
func (e *event[T]) emit(v T) {
	snapshot := e.listeners
	for _, l := range snapshot {
		l.fn(v)
	}
}

func (e *event[T]) clear() {
	e.listeners = nil
}

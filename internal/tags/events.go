package tags

import (
	"sync"

	"github.com/Belphemur/DoubanRecommend/internal/models"
)

// Op identifies the editor operation that produced an Event.
type Op string

const (
	OpAdd    Op = "add"
	OpDelete Op = "delete"
	OpReset  Op = "reset"
)

// Event is delivered to observers after a completed mutation.
// Saved is false when the change could not be persisted.
type Event struct {
	Op       Op
	Category models.Category
	Tag      string
	Tags     []string
	Saved    bool
}

// Observer receives change events. Observers are called synchronously, in
// subscription order, after the editor released its lock.
type Observer func(Event)

type observers struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]Observer
	order  []int
}

func (o *observers) subscribe(fn Observer) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.subs == nil {
		o.subs = make(map[int]Observer)
	}
	id := o.nextID
	o.nextID++
	o.subs[id] = fn
	o.order = append(o.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.subs, id)
			for i, existing := range o.order {
				if existing == id {
					o.order = append(o.order[:i], o.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (o *observers) notify(ev Event) {
	o.mu.Lock()
	fns := make([]Observer, 0, len(o.order))
	for _, id := range o.order {
		fns = append(fns, o.subs[id])
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Package event implements an ordered observer list.
package event

// Result tells the notifier whether a subscriber stays registered.
type Result int

const (
	Continue Result = iota // keep the subscriber
	Remove                 // drop it after this call
)

// Subscriber receives events of type E.
type Subscriber[E any] interface {
	OnEvent(ev *E) Result
}

// SubscriberFunc adapts a plain function to Subscriber.
type SubscriberFunc[E any] func(ev *E) Result

func (f SubscriberFunc[E]) OnEvent(ev *E) Result { return f(ev) }

// Notifier dispatches events to subscribers in registration order.
//
// A Notify issued while a pass is running (from inside a subscriber) is
// queued and delivered after the running pass, in FIFO order. Subscribers
// registered during a pass are first visited by the next event.
type Notifier[E any] struct {
	subs        []Subscriber[E]
	queue       []E
	dispatching bool
}

func NewNotifier[E any]() *Notifier[E] { return &Notifier[E]{} }

func (n *Notifier[E]) Register(s Subscriber[E]) { n.subs = append(n.subs, s) }

func (n *Notifier[E]) RegisterFunc(f func(ev *E) Result) { n.Register(SubscriberFunc[E](f)) }

// Len reports the number of registered subscribers.
func (n *Notifier[E]) Len() int { return len(n.subs) }

// Notify delivers ev to every subscriber, then drains any spawned events.
func (n *Notifier[E]) Notify(ev E) {
	if n.dispatching {
		n.queue = append(n.queue, ev)
		return
	}
	n.dispatching = true
	defer func() {
		n.dispatching = false
		n.queue = nil
	}()

	n.dispatch(ev)
	for len(n.queue) > 0 {
		next := n.queue[0]
		n.queue = n.queue[1:]
		n.dispatch(next)
	}
}

// Spawn schedules ev. Inside a pass it runs after the pass completes;
// outside one it behaves like Notify.
func (n *Notifier[E]) Spawn(ev E) { n.Notify(ev) }

// dispatch visits the subscribers present when the pass starts. n.subs
// stays intact during the pass, so Len is accurate. Removals and late
// registrations are applied on exit, even when a subscriber panics.
func (n *Notifier[E]) dispatch(ev E) {
	cur := n.subs[:len(n.subs):len(n.subs)]
	removed := make([]bool, len(cur))
	defer func() {
		late := n.subs[len(cur):]
		kept := make([]Subscriber[E], 0, len(n.subs))
		for i, s := range cur {
			if !removed[i] {
				kept = append(kept, s)
			}
		}
		n.subs = append(kept, late...)
	}()

	for i, s := range cur {
		if s.OnEvent(&ev) == Remove {
			removed[i] = true
		}
	}
}

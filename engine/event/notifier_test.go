package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifyRegistrationOrder(t *testing.T) {
	n := NewNotifier[int]()
	var got []string
	n.RegisterFunc(func(ev *int) Result { got = append(got, "a"); return Continue })
	n.RegisterFunc(func(ev *int) Result { got = append(got, "b"); return Continue })
	n.RegisterFunc(func(ev *int) Result { got = append(got, "c"); return Continue })

	n.Notify(1)
	n.Notify(2)
	assert.Equal(t, []string{"a", "b", "c", "a", "b", "c"}, got)
}

func TestNotifyRemove(t *testing.T) {
	n := NewNotifier[string]()
	var seen []string
	n.RegisterFunc(func(ev *string) Result {
		seen = append(seen, "once:"+*ev)
		return Remove
	})
	n.RegisterFunc(func(ev *string) Result {
		seen = append(seen, "always:"+*ev)
		return Continue
	})

	n.Notify("e1")
	n.Notify("e2")
	assert.Equal(t, []string{"once:e1", "always:e1", "always:e2"}, seen)
	assert.Equal(t, 1, n.Len())
}

func TestRegisterDuringNotifyNotVisited(t *testing.T) {
	n := NewNotifier[int]()
	var late []int
	n.RegisterFunc(func(ev *int) Result {
		n.RegisterFunc(func(ev *int) Result {
			late = append(late, *ev)
			return Continue
		})
		return Remove
	})

	n.Notify(1)
	assert.Empty(t, late)
	assert.Equal(t, 1, n.Len())

	n.Notify(2)
	assert.Equal(t, []int{2}, late)
}

func TestSpawnRunsAfterPassInFIFOOrder(t *testing.T) {
	n := NewNotifier[int]()
	var order []int
	n.RegisterFunc(func(ev *int) Result {
		order = append(order, *ev)
		if *ev == 1 {
			n.Spawn(10)
			n.Spawn(11)
		}
		if *ev == 10 {
			n.Spawn(100)
		}
		return Continue
	})
	n.RegisterFunc(func(ev *int) Result {
		order = append(order, -*ev)
		return Continue
	})

	n.Notify(1)
	assert.Equal(t, []int{1, -1, 10, -10, 11, -11, 100, -100}, order)
}

type counter struct{ n int }

func (c *counter) OnEvent(ev *int) Result {
	c.n += *ev
	if c.n >= 3 {
		return Remove
	}
	return Continue
}

func TestSubscriberInterface(t *testing.T) {
	n := NewNotifier[int]()
	c := &counter{}
	n.Register(c)
	for i := 0; i < 5; i++ {
		n.Notify(1)
	}
	assert.Equal(t, 3, c.n)
	assert.Zero(t, n.Len())
}

func TestLenDuringPass(t *testing.T) {
	n := NewNotifier[int]()
	var seen []int
	for i := 0; i < 3; i++ {
		n.RegisterFunc(func(*int) Result {
			seen = append(seen, n.Len())
			return Continue
		})
	}
	n.Notify(0)
	assert.Equal(t, []int{3, 3, 3}, seen)
}

func TestSubscribersSurvivePanic(t *testing.T) {
	n := NewNotifier[int]()
	var got []int
	n.RegisterFunc(func(ev *int) Result {
		got = append(got, *ev)
		if *ev == 1 {
			n.Notify(10) // queued behind the failing pass
		}
		return Continue
	})
	n.RegisterFunc(func(*int) Result { return Remove })
	n.RegisterFunc(func(ev *int) Result {
		if *ev == 1 {
			panic("boom")
		}
		return Continue
	})

	assert.Panics(t, func() { n.Notify(1) })
	assert.Equal(t, 2, n.Len(), "only the removed subscriber is gone")

	n.Notify(2)
	assert.Equal(t, []int{1, 2}, got, "events queued by the failed pass are dropped")
	assert.Equal(t, 2, n.Len())
}

package pullrequest

import (
	"context"
	"time"
)

// FakeClock advances only when Sleep is called.
type FakeClock struct {
	Current    time.Time
	Sleeps     []time.Duration
	SleepError error
}

func (c *FakeClock) Now() time.Time {
	return c.Current
}

func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if c.SleepError != nil {
		return c.SleepError
	}
	c.Sleeps = append(c.Sleeps, d)
	c.Current = c.Current.Add(d)

	return nil
}

type RecordingObserver struct {
	Transitions []*Transition
}

func (o *RecordingObserver) Notify(t *Transition) {
	o.Transitions = append(o.Transitions, t)
}

func (o *RecordingObserver) States() []State {
	states := make([]State, 0, len(o.Transitions))
	for _, t := range o.Transitions {
		states = append(states, t.To)
	}

	return states
}

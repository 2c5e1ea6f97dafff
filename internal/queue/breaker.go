package queue

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerPublisher stops calling a failing broker for a while so that auth
// requests do not each pay a dial timeout.
type BreakerPublisher struct {
	next Publisher
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerPublisher(name string, next Publisher) *BreakerPublisher {
	return &BreakerPublisher{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "events-" + name,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 3
			},
		}),
	}
}

// Publish forwards ev unless the breaker is open, in which case it returns
// gobreaker.ErrOpenState.
func (p *BreakerPublisher) Publish(ctx context.Context, ev AuthEvent) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.next.Publish(ctx, ev)
	})
	return err
}

func (p *BreakerPublisher) State() gobreaker.State { return p.cb.State() }

func (p *BreakerPublisher) Close() error { return p.next.Close() }

package streamtime

import (
	"errors"
	"sync"
)

// Sentinel errors for the channel fail modes in spec §4.2.
var (
	// ErrConsumerGone is returned to a producer attempting to enqueue onto a
	// channel whose consumer has already detached. This is a fatal protocol
	// error: the producer must not have outlived its sole consumer.
	ErrConsumerGone = errors.New("streamtime: producing onto a channel whose consumer has dropped")

	// ErrProducerGone is returned to a consumer dequeuing/peeking a channel
	// whose producer has detached without having emitted Done. Well-behaved
	// operators will have already observed Done; this path is only reached
	// on a protocol violation.
	ErrProducerGone = errors.New("streamtime: consuming from a channel whose producer has dropped")
)

// ChannelElement pairs a token (or any payload T) with the cycle at which it
// becomes available to a consumer.
type ChannelElement[T any] struct {
	ReadyTime Cycle
	Data      T
}

// Logger receives one call per channel operation when attached; it is the
// gated per-token event trace described in spec §9. A nil Logger (the
// default) costs nothing and never affects measured elapsed cycles.
type Logger interface {
	LogEnqueue(channel string, el ChannelElement[any])
	LogDequeue(channel string, el ChannelElement[any])
}

// Channel is an ordered, bounded queue of ChannelElements with exactly one
// producer and one consumer (spec §3.2). It is the sole synchronization
// primitive between blocks; there is no other shared mutable state.
type Channel[T any] struct {
	name     string
	capacity int // 0 means unbounded (the "special unbounded variant" for tests)

	mu   sync.Mutex
	cond *sync.Cond
	q    []ChannelElement[T]

	producerClosed bool
	consumerClosed bool

	lastReady Cycle
	logger    Logger
}

// NewChannel creates a bounded channel with the given capacity (must be >=1
// unless unbounded is requested via NewUnboundedChannel).
func NewChannel[T any](name string, capacity int) *Channel[T] {
	if capacity < 1 {
		panic("streamtime: channel capacity must be >= 1")
	}
	c := &Channel[T]{name: name, capacity: capacity}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// NewUnboundedChannel creates a channel with no capacity limit, for use in
// tests that want to decouple producer/consumer pacing from backpressure.
func NewUnboundedChannel[T any](name string) *Channel[T] {
	c := &Channel[T]{name: name, capacity: 0}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// SetLogger attaches an optional event logger (spec §9).
func (c *Channel[T]) SetLogger(l Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
}

func (c *Channel[T]) isUnbounded() bool { return c.capacity == 0 }

// CloseProducer marks the producer side detached. It should be called after
// the producer has enqueued its final Done element (or, on an aborted run,
// immediately). Enqueue does not check this flag, so a later Enqueue still
// appends; waiting consumers are woken so that, once the queue is empty,
// they observe end-of-stream.
func (c *Channel[T]) CloseProducer() {
	c.mu.Lock()
	c.producerClosed = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

// CloseConsumer marks the consumer side detached, releasing any producer
// blocked on a full queue with ErrConsumerGone.
func (c *Channel[T]) CloseConsumer() {
	c.mu.Lock()
	c.consumerClosed = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

// Enqueue blocks the producer until capacity is available. An el.ReadyTime
// below the producer's current clock is raised to that clock; the call also
// advances the channel's
// minimum consume time to el.ReadyTime (ready_time is non-decreasing along a
// channel, per spec §4.2).
func (c *Channel[T]) Enqueue(producerTime *Time, el ChannelElement[T]) error {
	if Cycle(el.ReadyTime) < producerTime.Tick() {
		el.ReadyTime = producerTime.Tick()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for !c.isUnbounded() && len(c.q) >= c.capacity {
		if c.consumerClosed {
			return ErrConsumerGone
		}
		c.cond.Wait()
	}
	if c.consumerClosed {
		return ErrConsumerGone
	}

	if el.ReadyTime < c.lastReady {
		el.ReadyTime = c.lastReady
	}
	c.lastReady = el.ReadyTime

	c.q = append(c.q, el)
	if c.logger != nil {
		c.logger.LogEnqueue(c.name, ChannelElement[any]{ReadyTime: el.ReadyTime, Data: el.Data})
	}
	c.cond.Broadcast()
	return nil
}

// waitForHead blocks until either the queue is non-empty or the producer has
// detached, returning the head without removing it and whether the queue was
// non-empty.
func (c *Channel[T]) waitForHead() (ChannelElement[T], bool) {
	for len(c.q) == 0 {
		if c.producerClosed {
			return ChannelElement[T]{}, false
		}
		c.cond.Wait()
	}
	return c.q[0], true
}

// PeekNext returns the head element without removing it, blocking until the
// queue is non-empty, and advances the consumer's clock to the head's
// ReadyTime when that is later.
func (c *Channel[T]) PeekNext(consumerTime *Time) (ChannelElement[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	head, ok := c.waitForHead()
	if !ok {
		return ChannelElement[T]{}, ErrProducerGone
	}
	if head.ReadyTime > consumerTime.Tick() {
		consumerTime.AdvanceTo(head.ReadyTime)
	}
	return head, nil
}

// Dequeue blocks until the head element is available, removes it, and
// advances the consumer's clock to max(current, ready_time).
func (c *Channel[T]) Dequeue(consumerTime *Time) (ChannelElement[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	head, ok := c.waitForHead()
	if !ok {
		return ChannelElement[T]{}, ErrProducerGone
	}
	c.q = c.q[1:]
	consumerTime.AdvanceTo(head.ReadyTime)
	if c.logger != nil {
		c.logger.LogDequeue(c.name, ChannelElement[any]{ReadyTime: head.ReadyTime, Data: head.Data})
	}
	c.cond.Broadcast()
	return head, nil
}

// Len reports the number of buffered (not-yet-dequeued) elements. It exists
// for diagnostics and tests and must not be used for synchronization.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.q)
}

// Name returns the channel's diagnostic name (used in error messages).
func (c *Channel[T]) Name() string { return c.name }

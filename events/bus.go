package events

import "sync"

// Topic names for the local event bus.
type Topic string

const (
	TopicPaymentReceived     Topic = "payment:received"
	TopicSubscriptionMinted  Topic = "subscription:minted"
	TopicSubscriptionRenewed Topic = "subscription:renewed"
	TopicMerchantRegistered  Topic = "merchant:registered"
	TopicMerchantWithdrawal  Topic = "merchant:withdrawal"
)

// Bus fans events observed by one watch out to any number of local
// consumers, so each consumer does not need its own ledger subscription.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic][]BatchFunc
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Topic][]BatchFunc)}
}

// Subscribe attaches a handler to a topic.
func (b *Bus) Subscribe(topic Topic, handler BatchFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Publish delivers a batch to every handler of the topic.
func (b *Bus) Publish(topic Topic, batch []Typed) {
	b.mu.RLock()
	handlers := append([]BatchFunc{}, b.handlers[topic]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(batch)
	}
}

// Reset detaches every handler.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[Topic][]BatchFunc)
}

// Listeners reports how many handlers are attached across all topics.
func (b *Bus) Listeners() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, hs := range b.handlers {
		n += len(hs)
	}
	return n
}

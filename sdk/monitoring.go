package sdk

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chainsub/chainsub-go/events"
	"github.com/chainsub/chainsub-go/ledger"
)

// Listeners holds the optional typed callbacks for live event monitoring.
// Each callback receives the decoded payload plus the event metadata
// (block number, log index, transaction hash).
type Listeners struct {
	OnPaymentReceived     func(events.PaymentReceived, events.Typed)
	OnSubscriptionMinted  func(events.SubscriptionMinted, events.Typed)
	OnSubscriptionRenewed func(events.SubscriptionRenewed, events.Typed)
	OnMerchantRegistered  func(events.MerchantRegistered, events.Typed)
	OnMerchantWithdrawal  func(events.MerchantWithdrawal, events.Typed)
}

// StartEventMonitoring starts one watch per listened event and fans each
// into the local bus, so additional local consumers can subscribe to bus
// topics without extra ledger subscriptions.
func (s *SDK) StartEventMonitoring(ctx context.Context, listeners Listeners) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.monitorWatches) > 0 {
		return fmt.Errorf("event monitoring already started")
	}

	type wiring struct {
		event   ledger.EventName
		topic   events.Topic
		handler events.BatchFunc
	}

	var wirings []wiring
	if listeners.OnPaymentReceived != nil {
		wirings = append(wirings, wiring{ledger.EventPaymentReceived, events.TopicPaymentReceived,
			typedHandler(listeners.OnPaymentReceived)})
	}
	if listeners.OnSubscriptionMinted != nil {
		wirings = append(wirings, wiring{ledger.EventSubscriptionMinted, events.TopicSubscriptionMinted,
			typedHandler(listeners.OnSubscriptionMinted)})
	}
	if listeners.OnSubscriptionRenewed != nil {
		wirings = append(wirings, wiring{ledger.EventSubscriptionRenewed, events.TopicSubscriptionRenewed,
			typedHandler(listeners.OnSubscriptionRenewed)})
	}
	if listeners.OnMerchantRegistered != nil {
		wirings = append(wirings, wiring{ledger.EventMerchantRegistered, events.TopicMerchantRegistered,
			typedHandler(listeners.OnMerchantRegistered)})
	}
	if listeners.OnMerchantWithdrawal != nil {
		wirings = append(wirings, wiring{ledger.EventMerchantWithdrawal, events.TopicMerchantWithdrawal,
			typedHandler(listeners.OnMerchantWithdrawal)})
	}

	for _, w := range wirings {
		s.bus.Subscribe(w.topic, w.handler)

		topic := w.topic
		id, err := s.registry.StartWatch(ctx, ledger.Filter{Event: w.event}, func(batch []events.Typed) {
			s.bus.Publish(topic, batch)
		})
		if err != nil {
			// Partial teardown is a defect: unwind everything started so far.
			s.teardownLocked()
			return fmt.Errorf("failed to start %s watch: %w", w.event, err)
		}
		s.monitorWatches = append(s.monitorWatches, id)
	}

	s.logger.Info("Started event monitoring", zap.Int("watches", len(s.monitorWatches)))
	return nil
}

// StopEventMonitoring cancels every watch started by StartEventMonitoring
// and detaches every bus listener. Both halves happen together: cancelling
// watches while leaving listeners attached (or the reverse) is a defect.
func (s *SDK) StopEventMonitoring() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
}

func (s *SDK) teardownLocked() {
	for _, id := range s.monitorWatches {
		s.registry.StopWatch(id)
	}
	s.monitorWatches = nil
	s.bus.Reset()
}

// typedHandler adapts a typed listener to a bus batch handler, dropping
// payloads of the wrong type (a topic only ever carries its own event type).
func typedHandler[P events.Payload](fn func(P, events.Typed)) events.BatchFunc {
	return func(batch []events.Typed) {
		for _, ev := range batch {
			if payload, ok := ev.Payload.(P); ok {
				fn(payload, ev)
			}
		}
	}
}

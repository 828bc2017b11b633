// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package event provides the in-process event bus used to signal between
// the amount-picker, transfer confirmation, and impeachment coordinator.
package event

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const EventQueueSize = 20

type EventType string

type EventSubscriberId int

type EventHandlerFunc func(Event)

type Event struct {
	Timestamp time.Time
	Data      any
	Type      EventType
}

func NewEvent(eventType EventType, eventData any) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      eventData,
	}
}

type subscriber struct {
	ch     chan Event
	closed bool
}

type EventBus struct {
	subscribers map[EventType]map[EventSubscriberId]*subscriber
	metrics     *eventMetrics
	logger      *slog.Logger
	lastSubId   EventSubscriberId
	mu          sync.Mutex
}

type eventMetrics struct {
	eventsTotal *prometheus.CounterVec
	subscribers *prometheus.GaugeVec
}

// NewEventBus creates a new EventBus. Both arguments may be nil: a nil
// registry disables metrics and a nil logger discards log output.
func NewEventBus(
	promRegistry prometheus.Registerer,
	logger *slog.Logger,
) *EventBus {
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	e := &EventBus{
		subscribers: make(map[EventType]map[EventSubscriberId]*subscriber),
		logger:      logger,
	}
	if promRegistry != nil {
		promautoFactory := promauto.With(promRegistry)
		e.metrics = &eventMetrics{
			eventsTotal: promautoFactory.NewCounterVec(
				prometheus.CounterOpts{
					Name: "walletkit_events_total",
					Help: "total events published by type",
				},
				[]string{"type"},
			),
			subscribers: promautoFactory.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "walletkit_event_subscribers",
					Help: "current subscriber count by type",
				},
				[]string{"type"},
			),
		}
	}
	return e
}

// Subscribe allows a consumer to receive events of a particular type via
// a channel
func (e *EventBus) Subscribe(
	eventType EventType,
) (EventSubscriberId, <-chan Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sub := &subscriber{
		ch: make(chan Event, EventQueueSize),
	}
	subId := e.lastSubId + 1
	e.lastSubId = subId
	if _, ok := e.subscribers[eventType]; !ok {
		e.subscribers[eventType] = make(map[EventSubscriberId]*subscriber)
	}
	e.subscribers[eventType][subId] = sub
	if e.metrics != nil {
		e.metrics.subscribers.WithLabelValues(string(eventType)).Inc()
	}
	return subId, sub.ch
}

// SubscribeFunc allows a consumer to receive events of a particular type
// via a callback function
func (e *EventBus) SubscribeFunc(
	eventType EventType,
	handlerFunc EventHandlerFunc,
) EventSubscriberId {
	subId, evtCh := e.Subscribe(eventType)
	go func() {
		for {
			evt, ok := <-evtCh
			if !ok {
				return
			}
			handlerFunc(evt)
		}
	}()
	return subId
}

// Unsubscribe stops delivery of events for a particular type for an
// existing subscriber and closes its channel
func (e *EventBus) Unsubscribe(eventType EventType, subId EventSubscriberId) {
	e.mu.Lock()
	defer e.mu.Unlock()
	evtTypeSubs, ok := e.subscribers[eventType]
	if !ok {
		return
	}
	sub, ok := evtTypeSubs[subId]
	if !ok {
		return
	}
	delete(evtTypeSubs, subId)
	if len(evtTypeSubs) == 0 {
		delete(e.subscribers, eventType)
	}
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
	if e.metrics != nil {
		e.metrics.subscribers.WithLabelValues(string(eventType)).Dec()
	}
}

// Publish sends an event of a particular type to all subscribers. A
// subscriber whose queue is full has the event dropped rather than
// blocking the publisher. Delivery happens under the bus lock so a
// concurrent Unsubscribe cannot close a channel mid-send.
func (e *EventBus) Publish(eventType EventType, evt Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, sub := range e.subscribers[eventType] {
		if sub.closed {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			e.logger.Warn(
				"subscriber queue full, dropping event",
				"type", eventType,
			)
		}
	}
	if e.metrics != nil {
		e.metrics.eventsTotal.WithLabelValues(string(eventType)).Inc()
	}
}

// Stop closes all subscriber channels and clears the subscribers map.
// This ensures that SubscribeFunc goroutines exit cleanly during
// shutdown. The EventBus can still be reused after Stop() is called.
func (e *EventBus) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for eventType, evtTypeSubs := range e.subscribers {
		for _, sub := range evtTypeSubs {
			if !sub.closed {
				sub.closed = true
				close(sub.ch)
			}
		}
		delete(e.subscribers, eventType)
	}
	if e.metrics != nil {
		e.metrics.subscribers.Reset()
	}
}

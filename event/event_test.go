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

package event_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/blinklabs-io/walletkit/event"
)

func TestEventBusSingleSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)
	var testEvtData int = 999
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, testEvtData))
	select {
	case evt, ok := <-subCh:
		if !ok {
			t.Fatalf("event channel closed unexpectedly")
		}
		switch v := evt.Data.(type) {
		case int:
			if v != testEvtData {
				t.Fatalf("did not get expected event")
			}
		default:
			t.Fatalf("event data was not of expected type, expected int, got %T", evt.Data)
		}
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for event")
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	var testEvtData int = 999
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, sub1Ch := eb.Subscribe(testEvtType)
	_, sub2Ch := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, testEvtData))
	for _, subCh := range []<-chan event.Event{sub1Ch, sub2Ch} {
		select {
		case evt, ok := <-subCh:
			if !ok {
				t.Fatalf("event channel closed unexpectedly")
			}
			if evt.Data.(int) != testEvtData {
				t.Fatalf("did not get expected event")
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("timeout waiting for event")
		}
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, subCh := eb.Subscribe(testEvtType)
	eb.Unsubscribe(testEvtType, subId)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 1))
	select {
	case _, ok := <-subCh:
		if !ok {
			// Expected: Unsubscribe closes the subscriber channel
			return
		}
		t.Fatalf("received unexpected event")
	case <-time.After(1 * time.Second):
		t.Fatalf("subscriber channel was not closed after Unsubscribe")
	}
}

func TestEventBusStop(t *testing.T) {
	defer goleak.VerifyNone(t)
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)

	var received atomic.Int32
	eb.SubscribeFunc(testEvtType, func(evt event.Event) {
		received.Add(1)
	})

	eb.Publish(testEvtType, event.NewEvent(testEvtType, "before"))
	require.Eventually(t, func() bool {
		return received.Load() == 1
	}, 1*time.Second, 10*time.Millisecond)

	eb.Stop()

	// No delivery after Stop
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "after"))
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), received.Load())

	// The bus is reusable after Stop
	_, subCh := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "new"))
	select {
	case _, ok := <-subCh:
		require.True(t, ok, "new subscriber should receive event")
	case <-time.After(1 * time.Second):
		t.Fatal("new subscriber did not receive event")
	}
	eb.Stop()
}

func TestEventBusFullQueueDropsEvent(t *testing.T) {
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(testEvtType)
	// Overfill the subscriber queue; the publisher must not block
	for i := range event.EventQueueSize + 5 {
		eb.Publish(testEvtType, event.NewEvent(testEvtType, i))
	}
	// The queued events are the first EventQueueSize published
	for i := range event.EventQueueSize {
		evt := <-subCh
		require.Equal(t, i, evt.Data.(int))
	}
	select {
	case <-subCh:
		t.Fatal("expected overflow events to be dropped")
	default:
	}
}

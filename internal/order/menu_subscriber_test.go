package order

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/appetiteclub/apt/events"
)

// MockSubscriber is a mock implementation of events.Subscriber for testing
type MockSubscriber struct {
	SubscribeFunc func(ctx context.Context, topic string, handler events.HandlerFunc) error
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	return nil
}

func TestMenuSubscriberStart(t *testing.T) {
	var subscribedTopic string
	sub := &MockSubscriber{
		SubscribeFunc: func(ctx context.Context, topic string, handler events.HandlerFunc) error {
			subscribedTopic = topic
			return nil
		},
	}

	s := NewMenuSubscriber(sub, NewProductCatalog(nil, nil), nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	if subscribedTopic != MenuItemsTopic {
		t.Errorf("subscribed topic = %q, want %q", subscribedTopic, MenuItemsTopic)
	}
}

func TestMenuSubscriberStartWithoutSubscriber(t *testing.T) {
	s := NewMenuSubscriber(nil, NewProductCatalog(nil, nil), nil)
	if err := s.Start(context.Background()); err == nil {
		t.Error("Start() without subscriber should fail")
	}
}

func TestMenuSubscriberHandleEvent(t *testing.T) {
	product := testProduct("Taco de birria", "3.00")

	tests := []struct {
		name       string
		event      menuItemEvent
		wantCached bool
	}{
		{
			name:       "removedEventEvictsProduct",
			event:      menuItemEvent{EventType: eventMenuItemRemoved, ItemID: product.ID.String()},
			wantCached: false,
		},
		{
			name:       "unknownEventIgnored",
			event:      menuItemEvent{EventType: "menu.item.viewed", ItemID: product.ID.String()},
			wantCached: true,
		},
		{
			name:       "invalidItemIDIgnored",
			event:      menuItemEvent{EventType: eventMenuItemRemoved, ItemID: "not-a-uuid"},
			wantCached: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := NewProductCatalog(nil, nil)
			catalog.Set(product)
			s := NewMenuSubscriber(&MockSubscriber{}, catalog, nil)

			payload, _ := json.Marshal(tt.event)
			if err := s.handleEvent(context.Background(), payload); err != nil {
				t.Fatalf("handleEvent() unexpected error: %v", err)
			}

			_, cached := catalog.Get(product.ID)
			if cached != tt.wantCached {
				t.Errorf("product cached = %v, want %v", cached, tt.wantCached)
			}
		})
	}
}

func TestMenuSubscriberHandleEventBadPayload(t *testing.T) {
	s := NewMenuSubscriber(&MockSubscriber{}, NewProductCatalog(nil, nil), nil)

	// Malformed payloads are logged and dropped, never returned as errors.
	if err := s.handleEvent(context.Background(), []byte("{")); err != nil {
		t.Errorf("handleEvent() with bad payload error = %v, want nil", err)
	}
}

package order

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"
)

const (
	// MenuItemsTopic delivers authoritative catalog changes from the menu
	// service.
	MenuItemsTopic = "menu.items"

	eventMenuItemUpserted = "menu.item.upserted"
	eventMenuItemRemoved  = "menu.item.removed"
)

type menuItemEvent struct {
	EventType string `json:"event_type"`
	ItemID    string `json:"item_id"`
}

// MenuSubscriber keeps the product catalog cache in sync with menu service
// events so a price change reaches new lines without a restart. Already
// quoted lines are unaffected; they carry their own snapshot.
type MenuSubscriber struct {
	subscriber events.Subscriber
	catalog    *ProductCatalog
	logger     apt.Logger
}

func NewMenuSubscriber(sub events.Subscriber, catalog *ProductCatalog, logger apt.Logger) *MenuSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &MenuSubscriber{
		subscriber: sub,
		catalog:    catalog,
		logger:     logger,
	}
}

func (s *MenuSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting menu subscriber", "topic", MenuItemsTopic)
	if s.catalog != nil {
		if err := s.catalog.Warm(ctx); err != nil {
			s.logger.Info("catalog warmup failed", "error", err)
		}
	}
	if s.subscriber == nil {
		return fmt.Errorf("menu subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, MenuItemsTopic, s.handleEvent)
}

func (s *MenuSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var event menuItemEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		s.logger.Info("invalid menu item event", "error", err)
		return nil
	}

	id, err := uuid.Parse(event.ItemID)
	if err != nil {
		s.logger.Info("invalid item id in menu event", "item_id", event.ItemID)
		return nil
	}

	switch event.EventType {
	case eventMenuItemRemoved:
		s.catalog.Remove(id)
		s.logger.Debug("menu item removed from catalog", "item_id", id.String())
	case eventMenuItemUpserted:
		if _, err := s.catalog.Refresh(ctx, id); err != nil {
			s.logger.Info("catalog refresh failed", "item_id", id.String(), "error", err)
		}
	default:
		s.logger.Debug("ignoring menu event", "event_type", event.EventType)
	}
	return nil
}

package order

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductCatalog is a read-through cache over the menu service. The engine
// never writes to it; the menu service owns products and the variant sets.
type ProductCatalog struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*Product
	client   *apt.ServiceClient
	logger   apt.Logger
}

func NewProductCatalog(client *apt.ServiceClient, logger apt.Logger) *ProductCatalog {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &ProductCatalog{
		products: make(map[uuid.UUID]*Product),
		client:   client,
		logger:   logger,
	}
}

func (c *ProductCatalog) Warm(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	resp, err := c.client.List(ctx, "menu-items")
	if err != nil {
		return fmt.Errorf("failed to list menu items: %w", err)
	}
	return c.ingestCollection(resp.Data)
}

// Ensure returns the cached product or fetches it from the menu service.
func (c *ProductCatalog) Ensure(ctx context.Context, id uuid.UUID) (*Product, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid product id")
	}
	if p, ok := c.Get(id); ok {
		return p, nil
	}
	return c.Refresh(ctx, id)
}

func (c *ProductCatalog) Refresh(ctx context.Context, id uuid.UUID) (*Product, error) {
	if c.client == nil {
		return nil, fmt.Errorf("product catalog uninitialized")
	}
	resp, err := c.client.Get(ctx, "menu-items", id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch menu item %s: %w", id, err)
	}
	var dto productDTO
	if err := rehydrate(resp.Data, &dto); err != nil {
		return nil, fmt.Errorf("failed to decode menu item %s: %w", id, err)
	}
	product, err := dto.toProduct()
	if err != nil {
		return nil, err
	}
	c.Set(product)
	return product, nil
}

func (c *ProductCatalog) Get(id uuid.UUID) (*Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	return p, ok
}

func (c *ProductCatalog) Set(p *Product) {
	if p == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

func (c *ProductCatalog) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, id)
}

func (c *ProductCatalog) ingestCollection(data interface{}) error {
	var records []productDTO
	if err := rehydrate(data, &records); err != nil {
		return err
	}
	for _, record := range records {
		product, err := record.toProduct()
		if err != nil {
			c.logger.Debug("skipping invalid menu item", "product_id", record.ID)
			continue
		}
		c.Set(product)
	}
	return nil
}

type productDTO struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	UnitPrice       float64  `json:"unit_price"`
	RequiresVariant bool     `json:"requires_variant"`
	IsFractional    bool     `json:"is_fractional"`
	Variants        []string `json:"variants,omitempty"`
}

func (d productDTO) toProduct() (*Product, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid product id %s", d.ID)
	}
	if d.UnitPrice < 0 {
		return nil, fmt.Errorf("negative unit price for product %s", d.ID)
	}
	return &Product{
		ID:              id,
		Name:            d.Name,
		UnitPrice:       decimal.NewFromFloat(d.UnitPrice),
		RequiresVariant: d.RequiresVariant,
		IsFractional:    d.IsFractional,
		Variants:        d.Variants,
	}, nil
}

func rehydrate(data interface{}, out interface{}) error {
	bytes, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

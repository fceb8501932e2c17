package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is catalog data, read-only to this service. The menu service owns
// it; the engine only snapshots name and price into line items.
type Product struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	RequiresVariant bool            `json:"requires_variant"`
	IsFractional    bool            `json:"is_fractional"`
	Variants        []string        `json:"variants,omitempty"`
}

func (p *Product) GetID() uuid.UUID {
	return p.ID
}

func (p *Product) ResourceType() string {
	return "product"
}

// AllowsVariant reports whether name is in the catalog-owned variant set.
// A product without a declared set accepts any non-empty variant; the set
// is the menu service's to curate.
func (p *Product) AllowsVariant(name string) bool {
	if len(p.Variants) == 0 {
		return name != ""
	}
	for _, v := range p.Variants {
		if v == name {
			return true
		}
	}
	return false
}

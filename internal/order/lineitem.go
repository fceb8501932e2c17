package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one row of an open ticket: a product, a quantity and an
// optional variant. The line total is always derived, never stored, so it
// cannot drift from the snapshot price.
type LineItem struct {
	Product  *Product        `json:"product"`
	Quantity decimal.Decimal `json:"quantity"`
	Variant  string          `json:"variant,omitempty"`
	Notes    string          `json:"notes,omitempty"`
}

// NewLineItem validates and builds a line. The product pointer is shared
// and never mutated here.
func NewLineItem(product *Product, quantity decimal.Decimal, variant string) (*LineItem, error) {
	if product == nil {
		return nil, ValidationError{Field: "product", Message: "product is required"}
	}
	if err := validateQuantity(product, quantity); err != nil {
		return nil, err
	}
	if err := validateVariant(product, variant); err != nil {
		return nil, err
	}
	return &LineItem{
		Product:  product,
		Quantity: quantity,
		Variant:  variant,
	}, nil
}

// LineTotal computes quantity × unit price. Pure accessor.
func (li *LineItem) LineTotal() decimal.Decimal {
	return li.Quantity.Mul(li.Product.UnitPrice)
}

// SameSlot reports whether a submission for (productID, variant) lands on
// this line. Product id AND variant must both match; two absent variants
// match each other.
func (li *LineItem) SameSlot(productID uuid.UUID, variant string) bool {
	return li.Product.ID == productID && li.Variant == variant
}

func validateQuantity(product *Product, quantity decimal.Decimal) error {
	if quantity.Sign() <= 0 {
		return ValidationError{Field: "quantity", Message: "quantity must be greater than zero"}
	}
	if !product.IsFractional && !quantity.IsInteger() {
		return ValidationError{Field: "quantity", Message: "product is sold by unit, quantity must be a whole number"}
	}
	return nil
}

func validateVariant(product *Product, variant string) error {
	if product.RequiresVariant {
		if variant == "" {
			return ValidationError{Field: "variant", Message: "product requires a variant selection"}
		}
		if !product.AllowsVariant(variant) {
			return ValidationError{Field: "variant", Message: "variant is not offered for this product"}
		}
		return nil
	}
	if variant != "" {
		return ValidationError{Field: "variant", Message: "product does not take a variant"}
	}
	return nil
}

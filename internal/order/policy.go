package order

import (
	"github.com/birriaclub/pos/pkg/enums/quantitykind"
)

// Classify maps a product to the input-capture flow the UI must run before
// a line can be accepted. Variant selection comes first when both flags are
// set: the chosen variant still goes through its own quantity entry, which
// may itself be fractional.
func Classify(p *Product) quantitykind.Kind {
	if p == nil {
		return quantitykind.Kinds.Integer
	}
	if p.RequiresVariant {
		return quantitykind.Kinds.VariantRequired
	}
	if p.IsFractional {
		return quantitykind.Kinds.Fractional
	}
	return quantitykind.Kinds.Integer
}

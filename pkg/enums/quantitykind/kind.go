package quantitykind

import "strings"

// Kind tells the ordering UI which input-capture flow a product needs:
// a plain increment, a decimal quantity prompt, or a variant selection
// before any quantity is taken.
type Kind struct {
	Name string
}

func (k Kind) Code() string {
	return k.Name
}

func (k Kind) Label() string {
	parts := strings.Split(k.Name, "-")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

type Enum struct {
	Integer         Kind
	Fractional      Kind
	VariantRequired Kind
}

var Kinds = Enum{
	Integer:         Kind{Name: "integer"},
	Fractional:      Kind{Name: "fractional"},
	VariantRequired: Kind{Name: "variant-required"},
}

var All = []Kind{
	Kinds.Integer,
	Kinds.Fractional,
	Kinds.VariantRequired,
}

// ByName returns the kind for a given name, or nil if not found
func ByName(name string) *Kind {
	for _, k := range All {
		if k.Name == name {
			return &k
		}
	}
	return nil
}

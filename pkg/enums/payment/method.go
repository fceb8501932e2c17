package payment

import "strings"

type Method struct {
	Name string
}

func (m Method) Code() string {
	return m.Name
}

func (m Method) Label() string {
	// Capitalize first letter
	if len(m.Name) == 0 {
		return ""
	}
	return strings.ToUpper(m.Name[:1]) + m.Name[1:]
}

type Enum struct {
	Cash Method
	Card Method
}

var Methods = Enum{
	Cash: Method{Name: "cash"},
	Card: Method{Name: "card"},
}

var All = []Method{
	Methods.Cash,
	Methods.Card,
}

// ByName returns the payment method for a given name, or nil if not found
func ByName(name string) *Method {
	for _, m := range All {
		if m.Name == name {
			return &m
		}
	}
	return nil
}

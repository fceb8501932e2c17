package billing

import (
	"github.com/shopspring/decimal"

	"github.com/birriaclub/pos/internal/order"
	"github.com/birriaclub/pos/pkg/enums/payment"
)

// WireShare is one share in the close-bill payload. Field names are the
// collaborator's contract (the billing backend speaks Spanish).
type WireShare struct {
	Method    string          `json:"metodoPago"`
	Amount    decimal.Decimal `json:"monto"`
	Reference string          `json:"numeroReferencia,omitempty"`
}

// Settlement is the payload handed to the close-bill collaborator: either
// a single full-amount payer or the reconciled shares of a split. This
// package builds it; it performs no I/O.
type Settlement struct {
	Method string `json:"metodoPago,omitempty"`
	// Amount is a pointer so split payloads omit it entirely. The legacy
	// backend treats a present monto as authoritative, zero included.
	Amount    *decimal.Decimal `json:"monto,omitempty"`
	Reference string           `json:"numeroReferencia,omitempty"`
	Shares    []WireShare      `json:"pagos,omitempty"`
}

// Split reports whether the settlement carries per-person shares.
func (s Settlement) Split() bool {
	return len(s.Shares) > 0
}

// BuildSingle produces a full-amount, single-payer settlement. The
// reference is an opaque pass-through for card payments; the collaborator
// UI generates it.
func BuildSingle(ord *order.Order, method payment.Method, reference string) (Settlement, error) {
	if ord == nil || ord.Len() == 0 {
		return Settlement{}, order.ValidationError{Field: "order", Message: "cannot settle an empty ticket"}
	}
	if payment.ByName(method.Name) == nil {
		return Settlement{}, order.ValidationError{Field: "method", Message: "unknown payment method"}
	}
	total := ord.Total()
	return Settlement{
		Method:    method.Name,
		Amount:    &total,
		Reference: reference,
	}, nil
}

// BuildSplit converts a reconciled split into the wire shape. A splitter in
// any other state is a caller bug and fails with StateError rather than
// producing a payload that disagrees with what the table declared.
func BuildSplit(ord *order.Order, splitter *Splitter) (Settlement, error) {
	if ord == nil || ord.Len() == 0 {
		return Settlement{}, order.ValidationError{Field: "order", Message: "cannot settle an empty ticket"}
	}
	if splitter == nil {
		return Settlement{}, StateError{Op: "build split settlement", State: "no split in progress"}
	}
	if !splitter.Reconciled() {
		return Settlement{}, StateError{Op: "build split settlement", State: splitter.State()}
	}

	shares := splitter.Shares()
	wire := make([]WireShare, 0, len(shares))
	for _, share := range shares {
		wire = append(wire, WireShare{
			Method: share.Method.Name,
			Amount: share.Amount,
		})
	}
	return Settlement{Shares: wire}, nil
}

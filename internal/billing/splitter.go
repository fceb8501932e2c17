package billing

import (
	"github.com/shopspring/decimal"

	"github.com/birriaclub/pos/internal/order"
	"github.com/birriaclub/pos/pkg/enums/payment"
)

// Splitter states. Reconciled and Rejected are terminal; any retry is a
// fresh Begin.
const (
	StateIdle              = "idle"
	StateCollectingPersons = "collecting-person-count"
	StateCollectingShare   = "collecting-share"
	StateReconciled        = "reconciled"
	StateRejected          = "rejected"
)

// Tolerance is the monetary slack accepted when reconciling declared
// shares against the ticket total. One cent: rounding on a per-person
// division may lose at most that, a real shortfall loses more.
var Tolerance = decimal.NewFromInt(1).Shift(-2)

// PaymentShare is one person's declared contribution.
type PaymentShare struct {
	Method payment.Method  `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// Splitter walks a table through splitting one ticket's total across
// several payers. The total is snapshotted at Begin: an in-flight split is
// reconciled against what the table was quoted, not against later edits.
// Reconciliation happens only once all declared shares are in, the way
// cash is counted at a table: everything in hand, then once.
type Splitter struct {
	state   string
	total   decimal.Decimal
	persons int
	shares  []PaymentShare
}

func NewSplitter() *Splitter {
	return &Splitter{state: StateIdle}
}

// Begin snapshots the ticket total and starts collecting. Calling Begin on
// a used splitter restarts it; terminal states do not stick.
func (s *Splitter) Begin(ord *order.Order) error {
	if ord == nil {
		return order.ValidationError{Field: "order", Message: "order is required"}
	}
	if ord.Len() == 0 {
		return order.ValidationError{Field: "order", Message: "cannot split an empty ticket"}
	}
	s.total = ord.Total()
	s.persons = 0
	s.shares = nil
	s.state = StateCollectingPersons
	return nil
}

// SetPersonCount declares how many people pay. Resets any shares already
// collected.
func (s *Splitter) SetPersonCount(n int) error {
	if s.state != StateCollectingPersons && s.state != StateCollectingShare {
		return StateError{Op: "set person count", State: s.state}
	}
	if n <= 0 {
		return order.ValidationError{Field: "persons", Message: "person count must be a positive integer"}
	}
	s.persons = n
	s.shares = nil
	s.state = StateCollectingShare
	return nil
}

// SubmitShare records one person's declared payment. When the last share
// arrives the splitter reconciles and lands in a terminal state.
func (s *Splitter) SubmitShare(method payment.Method, amount decimal.Decimal) error {
	if s.state != StateCollectingShare {
		return StateError{Op: "submit share", State: s.state}
	}
	if payment.ByName(method.Name) == nil {
		return order.ValidationError{Field: "method", Message: "unknown payment method"}
	}
	if amount.Sign() <= 0 {
		return order.ValidationError{Field: "amount", Message: "share amount must be greater than zero"}
	}

	s.shares = append(s.shares, PaymentShare{Method: method, Amount: amount})

	if len(s.shares) < s.persons {
		return nil
	}

	// All shares declared: count what's in hand, once.
	if s.Discrepancy().Abs().LessThanOrEqual(Tolerance) {
		s.state = StateReconciled
	} else {
		s.state = StateRejected
	}
	return nil
}

// State returns the current state name.
func (s *Splitter) State() string {
	return s.state
}

// PersonIndex is the 1-based index of the payer whose share is expected
// next. Zero outside of collection.
func (s *Splitter) PersonIndex() int {
	if s.state != StateCollectingShare {
		return 0
	}
	return len(s.shares) + 1
}

func (s *Splitter) Persons() int {
	return s.persons
}

// Total is the snapshot taken at Begin.
func (s *Splitter) Total() decimal.Decimal {
	return s.total
}

// Declared is the sum of submitted shares so far.
func (s *Splitter) Declared() decimal.Decimal {
	sum := decimal.Zero
	for _, share := range s.shares {
		sum = sum.Add(share.Amount)
	}
	return sum
}

// Discrepancy is declared minus total: negative means the table came up
// short. Never rounded away; a Rejected split surfaces it as-is.
func (s *Splitter) Discrepancy() decimal.Decimal {
	return s.Declared().Sub(s.total)
}

// Reconciled reports whether the split reached its successful terminal
// state.
func (s *Splitter) Reconciled() bool {
	return s.state == StateReconciled
}

// Shares returns the collected shares in submission order. Only meaningful
// once Reconciled; exposed in all states for reporting.
func (s *Splitter) Shares() []PaymentShare {
	out := make([]PaymentShare, len(s.shares))
	copy(out, s.shares)
	return out
}

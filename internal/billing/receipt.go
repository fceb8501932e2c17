package billing

// ReceiptSummary is what the close-bill collaborator returns once a ticket
// is settled. Spanish field names are its wire contract. Formatting and
// printing belong to the receipt collaborator; this service only passes
// the summary through.
type ReceiptSummary struct {
	TableNumber string        `json:"numeroMesa"`
	Items       []ReceiptItem `json:"items"`
	Subtotal    float64       `json:"subtotal"`
	Total       float64       `json:"total"`
}

type ReceiptItem struct {
	Name      string  `json:"nombre"`
	Quantity  float64 `json:"cantidad"`
	UnitPrice float64 `json:"precioUnitario"`
	Subtotal  float64 `json:"subtotal"`
}

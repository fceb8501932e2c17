package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// CloseBillClient executes settlements against the billing collaborator.
// The legacy backend exposes POST /pedidos/{id}/pago and answers with the
// receipt summary.
type CloseBillClient struct {
	client *apt.ServiceClient
	logger apt.Logger
}

func NewCloseBillClient(client *apt.ServiceClient, logger apt.Logger) *CloseBillClient {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &CloseBillClient{
		client: client,
		logger: logger,
	}
}

// Close submits the settlement for a ticket and returns the collaborator's
// receipt summary.
func (c *CloseBillClient) Close(ctx context.Context, ticketID uuid.UUID, settlement Settlement) (*ReceiptSummary, error) {
	if c.client == nil {
		return nil, fmt.Errorf("close-bill client not available")
	}

	path := fmt.Sprintf("/pedidos/%s/pago", ticketID.String())
	resp, err := c.client.Request(ctx, "POST", path, settlement)
	if err != nil {
		return nil, fmt.Errorf("close-bill request failed for ticket %s: %w", ticketID, err)
	}

	var receipt ReceiptSummary
	if err := decodeSuccessResponse(resp, &receipt); err != nil {
		return nil, fmt.Errorf("cannot decode receipt for ticket %s: %w", ticketID, err)
	}
	return &receipt, nil
}

func decodeSuccessResponse(resp *apt.SuccessResponse, target interface{}) error {
	if resp == nil {
		return fmt.Errorf("nil success response")
	}

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}

package get

import (
	"context"
	"fmt"
	"net/url"

	"gowalmart_seller/internal/walmart/business/models/dto/request"
	"gowalmart_seller/internal/walmart/business/models/dto/response"
)

// PingEngine proves that the credentials work by reading one order.
type PingEngine struct {
	client Requester
	window request.Window
}

func NewPingEngine(client Requester, window request.Window) *PingEngine {
	return &PingEngine{client: client, window: window}
}

func (pe *PingEngine) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("lastModifiedStartDate", pe.window.StartDate())
	params.Set("limit", "1")

	var resp response.Orders
	if err := pe.client.Get(ctx, "orders", params, &resp); err != nil {
		return fmt.Errorf("reading orders: %w", err)
	}
	return nil
}

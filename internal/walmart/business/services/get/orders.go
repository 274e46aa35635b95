package get

import (
	"context"
	"net/url"
	"strconv"

	"gowalmart_seller/internal/walmart/business/models"
	"gowalmart_seller/internal/walmart/business/models/dto/request"
	"gowalmart_seller/internal/walmart/business/models/dto/response"
	"gowalmart_seller/pkg/logger"
)

// Orders reads purchase orders modified inside the window.
// https://developer.walmart.com/api/us/mp/orders#operation/getAllOrders
type Orders struct {
	client   Requester
	window   request.Window
	pageSize int
	log      logger.Logger
}

func NewOrders(deps Dependencies) *Orders {
	return &Orders{client: deps.Client, window: deps.Window, pageSize: deps.pageSize(DefaultPageSize), log: deps.Log}
}

func (o *Orders) Name() string { return "orders" }

func (o *Orders) PrimaryKey() []string { return []string{"purchaseOrderId"} }

func (o *Orders) params() url.Values {
	params := url.Values{}
	params.Set("lastModifiedStartDate", o.window.StartDate())
	params.Set("limit", strconv.Itoa(o.pageSize))
	if end, ok := o.window.EndDate(); ok {
		params.Set("lastModifiedEndDate", end)
	}
	return params
}

func (o *Orders) Read(ctx context.Context, emit EmitFunc) error {
	return readPages(ctx, o.log, o.Name(), o.params(), o.page, emit)
}

func (o *Orders) page(ctx context.Context, params url.Values) ([]models.Record, url.Values, error) {
	var resp response.Orders
	if err := o.client.Get(ctx, "orders", params, &resp); err != nil {
		return nil, nil, err
	}
	return resp.List.Elements.Order, cursorParams(resp.List.Meta.NextCursor), nil
}

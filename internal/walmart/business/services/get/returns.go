package get

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"gowalmart_seller/internal/walmart/business/models"
	"gowalmart_seller/internal/walmart/business/models/dto/request"
	"gowalmart_seller/internal/walmart/business/models/dto/response"
	"gowalmart_seller/pkg/logger"
)

// Returns reads return orders modified inside the window. The API needs an
// end date, so an open window ends today (UTC).
// https://developer.walmart.com/api/us/mp/returns#operation/getReturns
type Returns struct {
	client   Requester
	window   request.Window
	pageSize int
	log      logger.Logger
	now      func() time.Time
}

func NewReturns(deps Dependencies) *Returns {
	return &Returns{
		client:   deps.Client,
		window:   deps.Window,
		pageSize: deps.pageSize(DefaultPageSize),
		log:      deps.Log,
		now:      deps.now,
	}
}

func (r *Returns) Name() string { return "returns" }

func (r *Returns) PrimaryKey() []string { return []string{"returnOrderId"} }

func (r *Returns) params() url.Values {
	params := url.Values{}
	params.Set("returnLastModifiedStartDate", r.window.StartDate())
	params.Set("returnLastModifiedEndDate", r.window.EndDateOr(r.now()))
	params.Set("limit", strconv.Itoa(r.pageSize))
	return params
}

func (r *Returns) Read(ctx context.Context, emit EmitFunc) error {
	return readPages(ctx, r.log, r.Name(), r.params(), r.page, emit)
}

func (r *Returns) page(ctx context.Context, params url.Values) ([]models.Record, url.Values, error) {
	var resp response.Returns
	if err := r.client.Get(ctx, "returns", params, &resp); err != nil {
		return nil, nil, err
	}
	return resp.ReturnOrders, cursorParams(resp.Meta.NextCursor), nil
}

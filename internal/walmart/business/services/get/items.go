package get

import (
	"context"
	"net/url"
	"strconv"

	"gowalmart_seller/internal/walmart/business/models"
	"gowalmart_seller/internal/walmart/business/models/dto/response"
	"gowalmart_seller/pkg/logger"
)

const firstItemsCursor = "*"

// Items reads the whole item catalog; the endpoint has no date filter.
// https://developer.walmart.com/api/us/mp/items#operation/getAllItems
type Items struct {
	client   Requester
	pageSize int
	log      logger.Logger
}

func NewItems(deps Dependencies) *Items {
	return &Items{client: deps.Client, pageSize: deps.pageSize(DefaultPageSize), log: deps.Log}
}

func (i *Items) Name() string { return "items" }

func (i *Items) PrimaryKey() []string { return []string{"sku"} }

func (i *Items) Read(ctx context.Context, emit EmitFunc) error {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(i.pageSize))
	params.Set("nextCursor", firstItemsCursor)
	return readPages(ctx, i.log, i.Name(), params, i.page, emit)
}

func (i *Items) page(ctx context.Context, params url.Values) ([]models.Record, url.Values, error) {
	var resp response.Items
	if err := i.client.Get(ctx, "items", params, &resp); err != nil {
		return nil, nil, err
	}
	if resp.NextCursor == "" || len(resp.ItemResponse) == 0 {
		return resp.ItemResponse, nil, nil
	}
	next := url.Values{}
	next.Set("limit", params.Get("limit"))
	next.Set("nextCursor", resp.NextCursor)
	return resp.ItemResponse, next, nil
}

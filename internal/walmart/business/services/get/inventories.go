package get

import (
	"context"
	"net/url"
	"strconv"

	"gowalmart_seller/internal/walmart/business/models"
	"gowalmart_seller/internal/walmart/business/models/dto/response"
	"gowalmart_seller/pkg/logger"
)

// Inventories reads inventory of every item across all ship nodes.
// https://developer.walmart.com/api/us/mp/inventory#operation/getMultiNodeInventoryForAllSkuAndAllShipNodes
type Inventories struct {
	client   Requester
	pageSize int
	log      logger.Logger
}

func NewInventories(deps Dependencies) *Inventories {
	return &Inventories{client: deps.Client, pageSize: deps.pageSize(DefaultInventoryPageSize), log: deps.Log}
}

func (i *Inventories) Name() string { return "inventory" }

func (i *Inventories) PrimaryKey() []string { return []string{"sku"} }

func (i *Inventories) Read(ctx context.Context, emit EmitFunc) error {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(i.pageSize))
	return readPages(ctx, i.log, i.Name(), params, i.page, emit)
}

func (i *Inventories) page(ctx context.Context, params url.Values) ([]models.Record, url.Values, error) {
	var resp response.Inventories
	if err := i.client.Get(ctx, "inventories", params, &resp); err != nil {
		return nil, nil, err
	}
	records := resp.Elements.Inventories
	if resp.Meta.NextCursor == "" || len(records) == 0 {
		return records, nil, nil
	}
	next := url.Values{}
	next.Set("limit", params.Get("limit"))
	next.Set("nextCursor", resp.Meta.NextCursor)
	return records, next, nil
}

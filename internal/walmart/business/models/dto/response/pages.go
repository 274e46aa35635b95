package response

import "gowalmart_seller/internal/walmart/business/models"

type Meta struct {
	TotalCount int    `json:"totalCount"`
	Limit      int    `json:"limit"`
	NextCursor string `json:"nextCursor"`
}

// Orders is the body of GET /v3/orders.
type Orders struct {
	List struct {
		Meta     Meta `json:"meta"`
		Elements struct {
			Order []models.Record `json:"order"`
		} `json:"elements"`
	} `json:"list"`
}

// Returns is the body of GET /v3/returns.
type Returns struct {
	Meta         Meta            `json:"meta"`
	ReturnOrders []models.Record `json:"returnOrders"`
}

// Items is the body of GET /v3/items.
type Items struct {
	ItemResponse []models.Record `json:"ItemResponse"`
	TotalItems   int             `json:"totalItems"`
	NextCursor   string          `json:"nextCursor"`
}

// Inventories is the body of GET /v3/inventories.
type Inventories struct {
	Meta     Meta `json:"meta"`
	Elements struct {
		Inventories []models.Record `json:"inventories"`
	} `json:"elements"`
}

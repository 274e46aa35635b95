package get

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"gowalmart_seller/internal/walmart/business/models"
	"gowalmart_seller/internal/walmart/business/models/dto/request"
	"gowalmart_seller/internal/walmart/business/services"
	"gowalmart_seller/pkg/logger"
)

const (
	DefaultPageSize          = 200
	DefaultInventoryPageSize = 50
)

// EmitFunc receives every record read. Returning an error stops the stream.
type EmitFunc func(record models.Record) error

// Stream is one replicated Walmart resource. Every read is a full refresh.
type Stream interface {
	Name() string
	PrimaryKey() []string
	Read(ctx context.Context, emit EmitFunc) error
}

// Requester is the part of the API client the streams use.
type Requester interface {
	Get(ctx context.Context, endpoint string, params url.Values, response interface{}) error
	Post(ctx context.Context, endpoint string, params url.Values, requestBody interface{}, response interface{}) error
	Download(ctx context.Context, rawURL string) ([]byte, error)
}

type Dependencies struct {
	Client   Requester
	Window   request.Window
	PageSize int
	Log      logger.Logger

	// Report polling, zero values use the defaults.
	ReportPollInterval time.Duration
	ReportMaxPolls     uint

	Now func() time.Time
}

func (d Dependencies) pageSize(fallback int) int {
	if d.PageSize > 0 {
		return d.PageSize
	}
	return fallback
}

func (d Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// All returns every supported stream.
func All(deps Dependencies) []Stream {
	return []Stream{
		NewOrders(deps),
		NewReturns(deps),
		NewItems(deps),
		NewInventories(deps),
		NewItemReports(deps),
	}
}

func Find(streams []Stream, name string) (Stream, error) {
	for _, s := range streams {
		if s.Name() == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", services.ErrUnknownStream, name)
}

// page fetches one page for params and returns its records and the
// parameters of the next page, or nil when there is none.
type page func(ctx context.Context, params url.Values) ([]models.Record, url.Values, error)

// readPages follows next-page parameters until they run out. A cursor seen
// twice ends the stream instead of looping forever.
func readPages(ctx context.Context, log logger.Logger, stream string, params url.Values, fetch page, emit EmitFunc) error {
	seen := map[string]bool{params.Encode(): true}
	for pageNumber := 1; ; pageNumber++ {
		records, next, err := fetch(ctx, params)
		if err != nil {
			return fmt.Errorf("fetching %s page %d: %w", stream, pageNumber, err)
		}
		log.Debug("%s page %d: %d records", stream, pageNumber, len(records))

		for _, record := range records {
			if err := emit(record); err != nil {
				return err
			}
		}

		if next == nil {
			return nil
		}
		key := next.Encode()
		if seen[key] {
			log.Warn("%s: cursor repeated on page %d, stopping", stream, pageNumber)
			return nil
		}
		seen[key] = true
		params = next
	}
}

// cursorParams converts a query-string cursor into next-page parameters.
func cursorParams(cursor string) url.Values {
	if cursor == "" {
		return nil
	}
	return request.ParseCursor(cursor)
}

package get

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"

	"gowalmart_seller/internal/walmart/business/models"
	"gowalmart_seller/internal/walmart/business/models/dto/response"
	"gowalmart_seller/internal/walmart/business/services"
	"gowalmart_seller/pkg/logger"
)

const (
	DefaultReportPollInterval = 30 * time.Second
	DefaultReportMaxPolls     = 120

	itemReportType    = "ITEM"
	itemReportVersion = "v4"
)

var errReportPending = errors.New("report is not ready yet")

// ItemReports requests an on-request ITEM report, waits for Walmart to
// generate it and emits one record per CSV row.
// https://developer.walmart.com/api/us/mp/onrequestreports
type ItemReports struct {
	client       Requester
	log          logger.Logger
	pollInterval time.Duration
	maxPolls     uint
}

func NewItemReports(deps Dependencies) *ItemReports {
	r := &ItemReports{
		client:       deps.Client,
		log:          deps.Log,
		pollInterval: deps.ReportPollInterval,
		maxPolls:     deps.ReportMaxPolls,
	}
	if r.pollInterval <= 0 {
		r.pollInterval = DefaultReportPollInterval
	}
	if r.maxPolls == 0 {
		r.maxPolls = DefaultReportMaxPolls
	}
	return r
}

func (r *ItemReports) Name() string { return "item_reports_on_request" }

func (r *ItemReports) PrimaryKey() []string { return []string{"SKU"} }

func (r *ItemReports) Read(ctx context.Context, emit EmitFunc) error {
	requestID, err := r.create(ctx)
	if err != nil {
		return err
	}
	if err := r.wait(ctx, requestID); err != nil {
		return err
	}
	payload, err := r.download(ctx, requestID)
	if err != nil {
		return err
	}
	var rows int
	err = parseReport(payload, func(record models.Record) error {
		rows++
		return emit(record)
	})
	if err != nil {
		return fmt.Errorf("report %s after %d rows: %w", requestID, rows, err)
	}
	r.log.Log("report %s: %d rows", requestID, rows)
	return nil
}

func (r *ItemReports) create(ctx context.Context) (string, error) {
	params := url.Values{}
	params.Set("reportType", itemReportType)
	params.Set("reportVersion", itemReportVersion)

	var created response.ReportRequest
	if err := r.client.Post(ctx, "reports/reportRequests", params, map[string]interface{}{}, &created); err != nil {
		return "", fmt.Errorf("creating report request: %w", err)
	}
	if created.RequestID == "" {
		return "", fmt.Errorf("%w: no requestId in response", services.ErrReportFailed)
	}
	r.log.Log("report %s requested, status %s", created.RequestID, created.RequestStatus)
	return created.RequestID, nil
}

func (r *ItemReports) wait(ctx context.Context, requestID string) error {
	err := retry.Do(func() error {
		var status response.ReportRequest
		if err := r.client.Get(ctx, "reports/reportRequests/"+url.PathEscape(requestID), nil, &status); err != nil {
			return fmt.Errorf("polling report %s: %w", requestID, err)
		}
		switch status.RequestStatus {
		case response.ReportStatusReady:
			return nil
		case response.ReportStatusError:
			return fmt.Errorf("%w: %s", services.ErrReportFailed, requestID)
		default:
			r.log.Debug("report %s is %s", requestID, status.RequestStatus)
			return errReportPending
		}
	},
		retry.Context(ctx),
		retry.Attempts(r.maxPolls),
		retry.Delay(r.pollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, errReportPending) }),
	)
	if errors.Is(err, errReportPending) {
		return fmt.Errorf("%w: %s after %d polls", services.ErrReportTimeout, requestID, r.maxPolls)
	}
	return err
}

func (r *ItemReports) download(ctx context.Context, requestID string) ([]byte, error) {
	var link response.ReportDownload
	if err := r.client.Get(ctx, "reports/downloadReport", url.Values{"requestId": {requestID}}, &link); err != nil {
		return nil, fmt.Errorf("getting download link for report %s: %w", requestID, err)
	}
	if link.DownloadURL == "" {
		return nil, fmt.Errorf("%w: report %s has no download URL", services.ErrReportFailed, requestID)
	}
	payload, err := r.client.Download(ctx, link.DownloadURL)
	if err != nil {
		return nil, fmt.Errorf("downloading report %s: %w", requestID, err)
	}
	return payload, nil
}

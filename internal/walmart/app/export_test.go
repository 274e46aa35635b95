package app

import (
	"net/http"
	"time"
)

// WithHTTPClient sets the client used for the Walmart API.
func WithHTTPClient(client *http.Client) Options {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithReportPolling shortens the on-request report polling.
func WithReportPolling(interval time.Duration, maxPolls uint) Options {
	return func(o *options) {
		o.reportPollInterval = interval
		o.reportMaxPolls = maxPolls
	}
}

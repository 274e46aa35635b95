package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"gowalmart_seller/metrics"
	"gowalmart_seller/pkg/logger"
)

// Doer sends a single HTTP request.
type Doer func(req *http.Request) (*http.Response, error)

type Middleware func(next Doer) Doer

// Chain applies middlewares so that the first one is the outermost.
func Chain(do Doer, middlewares ...Middleware) Doer {
	for i := len(middlewares) - 1; i >= 0; i-- {
		do = middlewares[i](do)
	}
	return do
}

// Metrics records the count and duration of each request.
func Metrics() Middleware {
	return func(next Doer) Doer {
		return func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next(req)
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			metrics.RecordRequest(req.Method, EndpointLabel(req.URL.Path), status, time.Since(start))
			return resp, err
		}
	}
}

// Logging writes one debug line per request.
func Logging(log logger.Logger) Middleware {
	return func(next Doer) Doer {
		return func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next(req)
			if err != nil {
				log.Debug("%s %s failed after %s: %s", req.Method, req.URL.Path, time.Since(start), err)
				return resp, err
			}
			log.Debug("%s %s -> %d in %s", req.Method, req.URL.Path, resp.StatusCode, time.Since(start))
			return resp, err
		}
	}
}

var idSegment = regexp.MustCompile(`^[0-9a-fA-F-]{8,}$|^[0-9]+$`)

// EndpointLabel strips the version prefix and identifiers from a path
// so that metric labels stay bounded.
func EndpointLabel(path string) string {
	path = strings.Trim(path, "/")
	if i := strings.Index(path, "v3/"); i >= 0 {
		path = path[i+len("v3/"):]
	}
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if idSegment.MatchString(segment) {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

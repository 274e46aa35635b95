package services_test

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gowalmart_seller/internal/walmart/business/services"
)

func TestAPIError(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		status     int
		retryAfter string

		wantTemporary    bool
		wantUnauthorized bool
		wantRetryAfter   time.Duration
	}{
		"too many requests":   {status: 429, retryAfter: "3", wantTemporary: true, wantRetryAfter: 3 * time.Second},
		"server error":        {status: 503, wantTemporary: true},
		"bad request":         {status: 400},
		"unauthorized":        {status: 401, wantUnauthorized: true},
		"forbidden":           {status: 403, wantUnauthorized: true},
		"garbage retry-after": {status: 429, retryAfter: "soon", wantTemporary: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			resp := &http.Response{StatusCode: tc.status, Header: http.Header{}}
			if tc.retryAfter != "" {
				resp.Header.Set("Retry-After", tc.retryAfter)
			}
			apiErr := services.NewAPIError(resp, []byte(strings.Repeat("x", 2000)))

			wrapped := fmt.Errorf("fetching: %w", apiErr)
			require.Equal(t, tc.wantTemporary, services.IsTemporary(wrapped))
			require.Equal(t, tc.wantUnauthorized, errors.Is(wrapped, services.ErrUnauthorized))
			require.Equal(t, tc.wantRetryAfter, apiErr.RetryAfter)
			require.LessOrEqual(t, len(apiErr.Body), 512, "body is truncated")
		})
	}
}

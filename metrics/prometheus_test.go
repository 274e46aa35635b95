package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	tests := map[int]string{
		0:   "error",
		200: "2xx",
		204: "2xx",
		302: "3xx",
		429: "4xx",
		503: "5xx",
		700: "unknown",
	}
	for code, want := range tests {
		require.Equal(t, want, classifyStatus(code), "status %d", code)
	}
}

func TestRecordCounters(t *testing.T) {
	t.Parallel()

	before := testutil.ToFloat64(recordsTotal.WithLabelValues("counter_test"))
	RecordRecords("counter_test", 3)
	RecordRecords("counter_test", 2)
	require.Equal(t, before+5, testutil.ToFloat64(recordsTotal.WithLabelValues("counter_test")))

	RecordStreamError("counter_test")
	require.Equal(t, float64(1), testutil.ToFloat64(streamErrorsTotal.WithLabelValues("counter_test")))

	RecordRequest("GET", "orders", 200, 10*time.Millisecond)
	require.GreaterOrEqual(t, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "orders", "2xx")), float64(1))
}

func TestServerExposesMetrics(t *testing.T) {
	t.Parallel()

	srv := NewServer("127.0.0.1", 0)
	require.NoError(t, srv.Start())
	defer srv.Shutdown(context.Background())

	RecordRecords("server_test", 1)

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `connector_records_total{stream="server_test"} 1`)
}

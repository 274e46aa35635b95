package app_test

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gowalmart_seller/internal/walmart/app"
)

// fakeWalmart serves a small seller account.
func fakeWalmart(t *testing.T, failInventory bool) *httptest.Server {
	t.Helper()

	var report bytes.Buffer
	zw := zip.NewWriter(&report)
	f, err := zw.Create("ItemReport.csv")
	require.NoError(t, err)
	_, err = f.Write([]byte("SKU,Item ID,Price\nA-1,101,9.99\nB-2,102,19.99\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	mux := http.NewServeMux()
	mux.HandleFunc("/v3/token", func(w http.ResponseWriter, r *http.Request) {
		id, secret, ok := r.BasicAuth()
		if !ok || id != "id" || secret != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":[{"code":"UNAUTHORIZED.GMP_GATEWAY_API"}]}`)
			return
		}
		fmt.Fprint(w, `{"access_token":"tok","token_type":"Bearer","expires_in":900}`)
	})
	authorized := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("WM_SEC.ACCESS_TOKEN") != "tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}
	mux.HandleFunc("/v3/orders", authorized(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("soIndex") == "" {
			fmt.Fprint(w, `{"list":{"meta":{"nextCursor":"?limit=200&soIndex=1"},"elements":{"order":[{"purchaseOrderId":"po-1"}]}}}`)
			return
		}
		fmt.Fprint(w, `{"list":{"meta":{},"elements":{"order":[{"purchaseOrderId":"po-2"}]}}}`)
	}))
	mux.HandleFunc("/v3/returns", authorized(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"meta":{},"returnOrders":[{"returnOrderId":"ret-1"}]}`)
	}))
	mux.HandleFunc("/v3/items", authorized(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ItemResponse":[{"sku":"A-1"},{"sku":"B-2"}],"nextCursor":""}`)
	}))
	mux.HandleFunc("/v3/inventories", authorized(func(w http.ResponseWriter, r *http.Request) {
		if failInventory {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"errors":[{"code":"INVALID_REQUEST"}]}`)
			return
		}
		fmt.Fprint(w, `{"meta":{},"elements":{"inventories":[{"sku":"A-1","nodes":[]}]}}`)
	}))
	mux.HandleFunc("/v3/reports/reportRequests", authorized(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"requestId":"rq","requestStatus":"RECEIVED"}`)
	}))
	mux.HandleFunc("/v3/reports/reportRequests/rq", authorized(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"requestId":"rq","requestStatus":"READY"}`)
	}))
	mux.HandleFunc("/v3/reports/downloadReport", authorized(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"requestId":"rq","downloadURL":"http://%s/download/rq"}`, r.Host)
	}))
	mux.HandleFunc("/download/rq", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(report.Bytes())
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func connectorConfig(t *testing.T, apiURL, secret, startDate string) string {
	t.Helper()
	return writeFile(t, "config.json", fmt.Sprintf(
		`{"client_id":"id","client_secret":%q,"start_date":%q,"api_url":%q,"requests_per_minute":6000}`,
		secret, startDate, apiURL+"/v3/"))
}

func catalog(t *testing.T, streams map[string]string) string {
	t.Helper()
	var entries []string
	for name, mode := range streams {
		entries = append(entries, fmt.Sprintf(`{"stream":{"name":%q,"json_schema":{}},"sync_mode":%q}`, name, mode))
	}
	return writeFile(t, "catalog.json", `{"streams":[`+strings.Join(entries, ",")+`]}`)
}

type message struct {
	Type             string `json:"type"`
	ConnectionStatus *struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"connectionStatus"`
	Catalog *struct {
		Streams []struct {
			Name string `json:"name"`
		} `json:"streams"`
	} `json:"catalog"`
	Record *struct {
		Stream string                 `json:"stream"`
		Data   map[string]interface{} `json:"data"`
	} `json:"record"`
	Trace *struct {
		Type         string `json:"type"`
		StreamStatus *struct {
			StreamDescriptor struct {
				Name string `json:"name"`
			} `json:"stream_descriptor"`
			Status string `json:"status"`
		} `json:"stream_status"`
	} `json:"trace"`
	Log *struct {
		Level string `json:"level"`
	} `json:"log"`
	Spec *struct {
		ConnectionSpecification map[string]interface{} `json:"connectionSpecification"`
	} `json:"spec"`
}

func run(t *testing.T, args ...string) ([]message, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	a, err := app.New(&stdout, &stderr, app.WithReportPolling(time.Millisecond, 3))
	require.NoError(t, err)
	a.SetArgs(args)
	runErr := a.Run(context.Background())

	var messages []message
	scanner := bufio.NewScanner(&stdout)
	for scanner.Scan() {
		var m message
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m), "stdout line %q", scanner.Text())
		messages = append(messages, m)
	}
	return messages, runErr
}

func recordsByStream(messages []message) map[string][]string {
	got := map[string][]string{}
	for _, m := range messages {
		if m.Type != "RECORD" {
			continue
		}
		for _, key := range []string{"purchaseOrderId", "returnOrderId", "sku", "SKU"} {
			if v, ok := m.Record.Data[key].(string); ok {
				got[m.Record.Stream] = append(got[m.Record.Stream], v)
				break
			}
		}
	}
	return got
}

func statuses(messages []message) map[string][]string {
	got := map[string][]string{}
	for _, m := range messages {
		if m.Type == "TRACE" && m.Trace.StreamStatus != nil {
			name := m.Trace.StreamStatus.StreamDescriptor.Name
			got[name] = append(got[name], m.Trace.StreamStatus.Status)
		}
	}
	return got
}

func TestSpec(t *testing.T) {
	t.Parallel()

	messages, err := run(t, "spec")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, "SPEC", messages[0].Type)
	require.Equal(t, []interface{}{"client_id", "client_secret", "start_date"},
		messages[0].Spec.ConnectionSpecification["required"])
}

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		secret    string
		startDate string
		rawConfig string

		wantStatus  string
		wantMessage string
	}{
		"Valid credentials": {
			secret: "secret", startDate: "2024-01-01",
			wantStatus: "SUCCEEDED",
		},
		"Invalid credentials": {
			secret: "wrong", startDate: "2024-01-01",
			wantStatus: "FAILED", wantMessage: "error while generating access token",
		},
		"Invalid start date": {
			secret: "secret", startDate: "01/01/2024",
			wantStatus: "FAILED", wantMessage: "start_date",
		},
		"Config file that does not decode": {
			rawConfig:  `{"client_id":"id","client_secret":"secret","start_date":"2024-01-01","page_size":"many"}`,
			wantStatus: "FAILED", wantMessage: "invalid config",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := fakeWalmart(t, false)
			path := connectorConfig(t, srv.URL, tc.secret, tc.startDate)
			if tc.rawConfig != "" {
				path = writeFile(t, "config.json", tc.rawConfig)
			}

			messages, err := run(t, "check", "--config", path)
			require.NoError(t, err)
			require.Len(t, messages, 1)
			require.Equal(t, tc.wantStatus, messages[0].ConnectionStatus.Status)
			require.Contains(t, messages[0].ConnectionStatus.Message, tc.wantMessage)
		})
	}
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	srv := fakeWalmart(t, false)
	messages, err := run(t, "discover", "--config", connectorConfig(t, srv.URL, "secret", "2024-01-01"))
	require.NoError(t, err)
	require.Len(t, messages, 1)

	var names []string
	for _, s := range messages[0].Catalog.Streams {
		names = append(names, s.Name)
	}
	require.Equal(t, []string{"orders", "returns", "items", "inventory", "item_reports_on_request"}, names)
}

func TestRead(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		catalog       map[string]string
		failInventory bool

		wantRecords  map[string][]string
		wantStatuses map[string][]string
		wantWarnings int
		wantErr      bool
	}{
		"All streams": {
			catalog: map[string]string{
				"orders": "full_refresh", "returns": "full_refresh", "items": "full_refresh",
				"inventory": "full_refresh", "item_reports_on_request": "full_refresh",
			},
			wantRecords: map[string][]string{
				"orders":                  {"po-1", "po-2"},
				"returns":                 {"ret-1"},
				"items":                   {"A-1", "B-2"},
				"inventory":               {"A-1"},
				"item_reports_on_request": {"A-1", "B-2"},
			},
			wantStatuses: map[string][]string{
				"orders":                  {"STARTED", "RUNNING", "COMPLETE"},
				"returns":                 {"STARTED", "RUNNING", "COMPLETE"},
				"items":                   {"STARTED", "RUNNING", "COMPLETE"},
				"inventory":               {"STARTED", "RUNNING", "COMPLETE"},
				"item_reports_on_request": {"STARTED", "RUNNING", "COMPLETE"},
			},
		},
		"Streams outside the catalog are skipped, incremental is read as full refresh": {
			catalog:      map[string]string{"orders": "incremental"},
			wantRecords:  map[string][]string{"orders": {"po-1", "po-2"}},
			wantStatuses: map[string][]string{"orders": {"STARTED", "RUNNING", "COMPLETE"}},
			wantWarnings: 1,
		},
		"Failing stream does not stop the others": {
			catalog:       map[string]string{"inventory": "full_refresh", "items": "full_refresh"},
			failInventory: true,
			wantRecords:   map[string][]string{"items": {"A-1", "B-2"}},
			wantStatuses: map[string][]string{
				"items":     {"STARTED", "RUNNING", "COMPLETE"},
				"inventory": {"STARTED", "INCOMPLETE"},
			},
			wantErr: true,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := fakeWalmart(t, tc.failInventory)
			messages, err := run(t, "read",
				"--config", connectorConfig(t, srv.URL, "secret", "2024-01-01"),
				"--catalog", catalog(t, tc.catalog))
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tc.wantRecords, recordsByStream(messages))
			assert.Equal(t, tc.wantStatuses, statuses(messages))

			var warnings, traceErrors int
			for _, m := range messages {
				if m.Type == "LOG" && m.Log.Level == "WARN" {
					warnings++
				}
				if m.Type == "TRACE" && m.Trace.Type == "ERROR" {
					traceErrors++
				}
			}
			assert.Equal(t, tc.wantWarnings, warnings)
			if tc.wantErr {
				assert.Equal(t, 1, traceErrors)
			}
		})
	}
}

func TestUsageErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args []string

		wantUsageErr bool
	}{
		"Missing config":        {args: []string{"check"}},
		"Config file not found": {args: []string{"read", "--config", "missing.json"}},
		"Unknown command":       {args: []string{"write"}, wantUsageErr: true},
		"Unknown flag":          {args: []string{"spec", "--nope"}, wantUsageErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer
			a, err := app.New(&stdout, &stderr)
			require.NoError(t, err)
			a.SetArgs(tc.args)

			require.Error(t, a.Run(context.Background()))
			require.Equal(t, tc.wantUsageErr, a.UsageError())
			require.Empty(t, stdout.String())
		})
	}
}

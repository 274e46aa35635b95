package request

import (
	"net/url"
	"strings"
	"time"
)

const DateFormat = "2006-01-02"

// ParseCursor turns a nextCursor query string such as
// "?limit=200&hasMoreElements=true&soIndex=1000" into request parameters.
// Pairs without exactly one "=" are dropped.
func ParseCursor(cursor string) url.Values {
	params := url.Values{}
	for _, pair := range strings.Split(cursor, "&") {
		pair = strings.Trim(pair, "?")
		if strings.Count(pair, "=") != 1 {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if key == "" {
			continue
		}
		if unescaped, err := url.QueryUnescape(value); err == nil {
			value = unescaped
		}
		params.Set(key, value)
	}
	return params
}

// Window is the replication date range. A zero End means open ended.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) StartDate() string {
	return w.Start.UTC().Format(DateFormat)
}

// EndDate returns the formatted end date and false when the window is open.
func (w Window) EndDate() (string, bool) {
	if w.End.IsZero() {
		return "", false
	}
	return w.End.UTC().Format(DateFormat), true
}

// EndDateOr returns the end date, falling back to the UTC date of now.
func (w Window) EndDateOr(now time.Time) string {
	if end, ok := w.EndDate(); ok {
		return end
	}
	return now.UTC().Format(DateFormat)
}

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMissingKey = errors.New("record has no primary key")

// Record is a raw API object as returned by Walmart.
type Record map[string]interface{}

// Key joins the values of the primary key fields with "|".
func (r Record) Key(primaryKey []string) (string, error) {
	parts := make([]string, 0, len(primaryKey))
	for _, field := range primaryKey {
		value, ok := r[field]
		if !ok || value == nil {
			return "", fmt.Errorf("%w: field %q", ErrMissingKey, field)
		}
		var part string
		switch v := value.(type) {
		case string:
			part = v
		case json.Number:
			part = v.String()
		case float64:
			part = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			part = strconv.FormatBool(v)
		default:
			return "", fmt.Errorf("%w: field %q has unsupported type %T", ErrMissingKey, field, value)
		}
		if part == "" {
			return "", fmt.Errorf("%w: field %q is empty", ErrMissingKey, field)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "|"), nil
}

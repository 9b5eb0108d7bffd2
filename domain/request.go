package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Request describes one business call against the upstream API.
type Request struct {
	Method string
	Path   string
	Query  map[string]any
	Body   any
}

// QueryParam is a single rendered query entry.
type QueryParam struct {
	Key   string
	Value string
}

// QueryParams renders the query map in key order. Entries whose value is
// nil or the empty string are omitted.
func (r Request) QueryParams() []QueryParam {
	if len(r.Query) == 0 {
		return nil
	}
	keys := make([]string, 0, len(r.Query))
	for k := range r.Query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make([]QueryParam, 0, len(keys))
	for _, k := range keys {
		value, ok := FormatQueryValue(r.Query[k])
		if !ok {
			continue
		}
		params = append(params, QueryParam{Key: k, Value: value})
	}
	return params
}

// FormatQueryValue converts a scalar into its canonical query text.
// It returns false for values that must not be sent.
func FormatQueryValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, val != ""
	case *string:
		if val == nil {
			return "", false
		}
		return FormatQueryValue(*val)
	case bool:
		return strconv.FormatBool(val), true
	case json.Number:
		return val.String(), val != ""
	case float64:
		return formatFloat(val, 64), true
	case float32:
		return formatFloat(float64(val), 32), true
	case int:
		return strconv.Itoa(val), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case uint:
		return strconv.FormatUint(uint64(val), 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	default:
		return fmt.Sprint(val), true
	}
}

func formatFloat(f float64, bits int) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

// JoinURL appends path to base without escaping it.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

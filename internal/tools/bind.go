package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/fastygo/tripletex-mcp/domain"
)

// Bind validates args against def and builds the upstream request.
// Absent and null arguments are skipped unless required; required strings
// must not be empty.
func Bind(def Definition, args map[string]any) (domain.Request, error) {
	known := make(map[string]struct{}, len(def.Params))
	for _, p := range def.Params {
		known[p.Name] = struct{}{}
	}
	var unknown []string
	for name := range args {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return domain.Request{}, invalid("unknown argument(s): %s", strings.Join(unknown, ", "))
	}

	req := domain.Request{Method: def.Method, Path: def.Path}
	var body map[string]any

	for _, p := range def.Params {
		value, present := args[p.Name]
		if !present || value == nil {
			if p.Required {
				return domain.Request{}, invalid("missing required argument %q", p.Name)
			}
			continue
		}

		value, err := coerce(p, value)
		if err != nil {
			return domain.Request{}, err
		}
		// Empty query strings are never sent, so a required one would be lost.
		if text, ok := value.(string); ok && text == "" && p.Required {
			return domain.Request{}, invalid("argument %q must not be empty", p.Name)
		}

		switch p.In {
		case InPath:
			text, _ := domain.FormatQueryValue(value)
			if text == "" {
				return domain.Request{}, invalid("argument %q must not be empty", p.Name)
			}
			req.Path = strings.ReplaceAll(req.Path, "{"+p.Name+"}", url.PathEscape(text))
		case InQuery:
			if req.Query == nil {
				req.Query = make(map[string]any)
			}
			req.Query[p.field()] = value
		case InBody:
			if body == nil {
				body = make(map[string]any)
			}
			if err := setField(body, strings.Split(p.field(), "."), value); err != nil {
				return domain.Request{}, invalid("argument %q: %v", p.Name, err)
			}
		default:
			return domain.Request{}, domain.NewError(domain.ErrCodeInternal,
				fmt.Sprintf("tool %s: parameter %s has unknown location %q", def.Name, p.Name, p.In))
		}
	}

	if strings.Contains(req.Path, "{") {
		return domain.Request{}, domain.NewError(domain.ErrCodeInternal,
			fmt.Sprintf("tool %s: unresolved path placeholder in %s", def.Name, req.Path))
	}
	if body != nil {
		req.Body = body
	}
	return req, nil
}

func coerce(p Param, value any) (any, error) {
	switch p.Type {
	case TypeString:
		if s, ok := value.(string); ok {
			return s, nil
		}
	case TypeBoolean:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case TypeNumber, TypeInteger:
		f, ok := toFloat(value)
		if !ok {
			break
		}
		if p.Type == TypeInteger {
			if f != math.Trunc(f) {
				return nil, invalid("argument %q must be an integer", p.Name)
			}
			return int64(f), nil
		}
		return f, nil
	default:
		return value, nil
	}
	return nil, invalid("argument %q must be a %s", p.Name, p.Type)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func setField(target map[string]any, path []string, value any) error {
	for _, key := range path[:len(path)-1] {
		next, ok := target[key]
		if !ok {
			child := make(map[string]any)
			target[key] = child
			target = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("field %s is not an object", key)
		}
		target = child
	}
	target[path[len(path)-1]] = value
	return nil
}

func invalid(format string, args ...any) error {
	return domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf(format, args...))
}

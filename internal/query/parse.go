package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// arrayLimit is the highest index still decoded into a slice; larger indices
// stay object keys
const arrayLimit = 20

// Parse decodes a query string written in bracket notation into nested maps and
// slices. A leading "?" is ignored. Repeated keys collect into a slice.
func Parse(raw string) (map[string]interface{}, error) {
	raw = strings.TrimPrefix(raw, "?")
	result := make(map[string]interface{})
	if raw == "" {
		return result, nil
	}

	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(part, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, err
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, err
		}
		if key == "" {
			continue
		}

		assign(result, splitKey(key), value)
	}

	for k, v := range result {
		result[k] = compact(v)
	}
	return result, nil
}

// splitKey turns "a[b][]" into ["a", "b", ""]. Keys with unbalanced brackets are
// kept whole.
func splitKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return []string{key}
	}

	segments := []string{key[:open]}
	rest := key[open:]
	for rest != "" {
		if rest[0] != '[' {
			return []string{key}
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return []string{key}
		}
		segments = append(segments, rest[1:end])
		rest = rest[end+1:]
	}
	return segments
}

func assign(m map[string]interface{}, segments []string, value string) {
	head := segments[0]
	if head == "" {
		head = strconv.Itoa(len(m))
	}

	if len(segments) == 1 {
		existing, ok := m[head]
		if !ok {
			m[head] = value
			return
		}
		switch e := existing.(type) {
		case []interface{}:
			m[head] = append(e, value)
		case string:
			m[head] = []interface{}{e, value}
		default:
			m[head] = value
		}
		return
	}

	child, ok := m[head].(map[string]interface{})
	if !ok {
		child = make(map[string]interface{})
		m[head] = child
	}
	assign(child, segments[1:], value)
}

// compact converts maps whose keys are all small indices into slices, dropping
// gaps the way sparse arrays are compacted
func compact(v interface{}) interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		return v
	}

	for k, child := range m {
		m[k] = compact(child)
	}

	if len(m) == 0 {
		return m
	}

	indices := make([]int, 0, len(m))
	for k := range m {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || i > arrayLimit || strconv.Itoa(i) != k {
			return m
		}
		indices = append(indices, i)
	}
	sort.Ints(indices)

	out := make([]interface{}, 0, len(indices))
	for _, i := range indices {
		out = append(out, m[strconv.Itoa(i)])
	}
	return out
}

// Package query serializes and parses query strings in the bracket notation the
// content API uses for filters, sorting and pagination (filters[title][$eq]=x,
// _sort[0]=a).
package query

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// dateLayout matches the ISO form browsers produce for Date values
const dateLayout = "2006-01-02T15:04:05.000Z"

// Encode serializes params into a query string. Nested maps become key[sub],
// slices become key[0], key[1]... Keys are sorted at every level so the output is
// deterministic. A nil value encodes as "key=" and empty slices or maps are
// omitted.
func Encode(params map[string]interface{}) string {
	if len(params) == 0 {
		return ""
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []string
	for _, k := range keys {
		pairs = appendValue(pairs, k, params[k])
	}
	return strings.Join(pairs, "&")
}

// EncodeValues is Encode for callers that already hold url.Values
func EncodeValues(values url.Values) string {
	params := make(map[string]interface{}, len(values))
	for k, v := range values {
		if len(v) == 1 {
			params[k] = v[0]
		} else {
			params[k] = v
		}
	}
	return Encode(params)
}

func appendValue(pairs []string, key string, v interface{}) []string {
	switch val := v.(type) {
	case nil:
		return append(pairs, escape(key)+"=")
	case string:
		return append(pairs, escape(key)+"="+escape(val))
	case time.Time:
		return append(pairs, escape(key)+"="+escape(val.UTC().Format(dateLayout)))
	case bool:
		return append(pairs, escape(key)+"="+strconv.FormatBool(val))
	case json.Number:
		return append(pairs, escape(key)+"="+escape(val.String()))
	case url.Values:
		return appendValue(pairs, key, map[string][]string(val))
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return append(pairs, escape(key)+"=")
		}
		rv = rv.Elem()
	}
	if t, ok := rv.Interface().(time.Time); ok {
		return appendValue(pairs, key, t)
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return append(pairs, escape(key)+"="+escape(fmt.Sprint(rv.Interface())))
		}
		mapKeys := rv.MapKeys()
		sort.Slice(mapKeys, func(i, j int) bool {
			return mapKeys[i].String() < mapKeys[j].String()
		})
		for _, mk := range mapKeys {
			pairs = appendValue(pairs, key+"["+mk.String()+"]", rv.MapIndex(mk).Interface())
		}
		return pairs
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			pairs = appendValue(pairs, key+"["+strconv.Itoa(i)+"]", rv.Index(i).Interface())
		}
		return pairs
	case reflect.Struct:
		generic, err := toGeneric(rv.Interface())
		if err != nil {
			return append(pairs, escape(key)+"="+escape(fmt.Sprint(rv.Interface())))
		}
		return appendValue(pairs, key, generic)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return append(pairs, escape(key)+"="+strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return append(pairs, escape(key)+"="+strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		return append(pairs, escape(key)+"="+escape(strconv.FormatFloat(rv.Float(), 'f', -1, 64)))
	case reflect.String:
		return append(pairs, escape(key)+"="+escape(rv.String()))
	case reflect.Bool:
		return append(pairs, escape(key)+"="+strconv.FormatBool(rv.Bool()))
	default:
		return append(pairs, escape(key)+"="+escape(fmt.Sprint(rv.Interface())))
	}
}

// toGeneric round-trips a struct through JSON so its json tags drive the keys
func toGeneric(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// escape percent-encodes everything outside the RFC 3986 unreserved set
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

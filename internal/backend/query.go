package backend

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Params is a nested query object: values may be scalars, slices or further maps.
type Params map[string]any

// EncodeQuery serialises a nested query object using bracket notation, the
// format the backend's filter and populate parameters expect:
//
//	{"filters": {"slug": {"$eq": "salsa"}}, "sort": ["createdAt:desc"]}
//	filters%5Bslug%5D%5B%24eq%5D=salsa&sort%5B0%5D=createdAt%3Adesc
//
// Keys are emitted in sorted order; nil values are skipped. url.Values is
// passed through in its own encoding.
func EncodeQuery(query any) string {
	if query == nil {
		return ""
	}

	if values, ok := query.(url.Values); ok {
		return values.Encode()
	}

	pairs := make([]string, 0)
	appendValue(&pairs, "", reflect.ValueOf(query))
	return strings.Join(pairs, "&")
}

func appendValue(pairs *[]string, prefix string, v reflect.Value) {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		keys := make([]string, 0, v.Len())
		byKey := make(map[string]reflect.Value, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key := fmt.Sprint(iter.Key().Interface())
			keys = append(keys, key)
			byKey[key] = iter.Value()
		}
		sort.Strings(keys)

		for _, key := range keys {
			appendValue(pairs, childKey(prefix, key), byKey[key])
		}
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return
		}
		for i := 0; i < v.Len(); i++ {
			appendValue(pairs, childKey(prefix, strconv.Itoa(i)), v.Index(i))
		}
	case reflect.Invalid:
		return
	default:
		if prefix == "" {
			return
		}
		*pairs = append(*pairs, escape(prefix)+"="+escape(scalar(v)))
	}
}

func childKey(prefix string, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "[" + key + "]"
}

func scalar(v reflect.Value) string {
	if stringer, ok := v.Interface().(fmt.Stringer); ok {
		return stringer.String()
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	default:
		return fmt.Sprint(v.Interface())
	}
}

// escape percent-encodes everything outside the RFC 3986 unreserved set.
func escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}

	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	default:
		return false
	}
}

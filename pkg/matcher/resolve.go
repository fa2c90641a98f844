package matcher

import (
	"net/url"
	"strings"

	"github.com/getmockd/httpreplay/internal/matching"
)

// Resolve evaluates the matcher against r. The boolean is false when the
// matcher has nothing to contribute; callers skip the part rather than fail.
func (s Spec) Resolve(r *Request) (string, bool) {
	switch s.kind {
	case KindMethod:
		return nonEmpty(strings.ToUpper(r.Method))
	case KindURL:
		return resolveURL(r), true
	case KindHost:
		return nonEmpty(r.Host())
	case KindDomain:
		return resolveDomain(r)
	case KindSubdomain:
		return resolveSubdomain(r)
	case KindPath:
		return resolvePath(r)
	case KindBodyHash:
		return resolveBodyHash(r, s.keys), true
	case KindQueryHash:
		return resolveQueryHash(r, s.keys)
	case KindHeader:
		return nonEmpty(r.Header.Get(s.key))
	case KindQueryParam:
		v, _ := queryValue(r.Query(), s.key)
		return nonEmpty(matching.Stringify(v))
	case KindAttribute:
		v, _ := r.Attribute(s.key)
		return nonEmpty(matching.Stringify(v))
	case KindBodyField:
		data, ok := r.JSON()
		if !ok {
			return "", false
		}
		v, _ := matching.Lookup(data, s.key)
		return nonEmpty(matching.Stringify(v))
	case KindCustom:
		return resolveCustom(r, s.extract)
	default:
		return "", false
	}
}

func nonEmpty(s string) (string, bool) {
	return s, s != ""
}

func urlPath(r *Request) string {
	if r.URL == nil {
		return ""
	}
	return strings.Trim(r.URL.Path, "/")
}

func resolveURL(r *Request) string {
	host := r.Host()
	if host == "" {
		host = "unknown"
	}
	if p := urlPath(r); p != "" {
		return host + "_" + p
	}
	return host
}

func resolvePath(r *Request) (string, bool) {
	return nonEmpty(urlPath(r))
}

func resolveDomain(r *Request) (string, bool) {
	host := r.Host()
	if host == "" {
		return "", false
	}
	labels := strings.Split(host, ".")
	if len(labels) > 2 {
		return strings.Join(labels[1:], "."), true
	}
	return host, true
}

func resolveSubdomain(r *Request) (string, bool) {
	host := r.Host()
	if host == "" {
		return "", false
	}
	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return "", false
	}
	return nonEmpty(labels[0])
}

func resolveBodyHash(r *Request, keys []string) string {
	data, ok := r.JSON()
	if !ok {
		return matching.ShortHash(r.Body)
	}
	if len(keys) == 0 {
		return matching.HashValue(data)
	}

	switch data.(type) {
	case map[string]any, []any:
	default:
		return matching.ShortHash(r.Body)
	}

	subset := make(map[string]any, len(keys))
	for _, k := range keys {
		v, _ := matching.Lookup(data, k)
		subset[k] = v
	}
	return matching.HashValue(subset)
}

func resolveQueryHash(r *Request, keys []string) (string, bool) {
	if r.URL == nil || r.URL.RawQuery == "" {
		return "", false
	}

	params := r.Query()
	if len(keys) == 0 {
		all := make(map[string]any, len(params))
		for k := range params {
			all[k], _ = queryValue(params, k)
		}
		return matching.HashValue(all), true
	}

	subset := make(map[string]any, len(keys))
	for _, k := range keys {
		subset[k], _ = queryValue(params, k)
	}
	return matching.HashValue(subset), true
}

// queryValue returns a query parameter as a string, or as a list when it
// repeats. A dot path ("filter.status") also finds bracket keys ("filter[status]").
func queryValue(params url.Values, key string) (any, bool) {
	vals, ok := params[key]
	if !ok && strings.Contains(key, ".") {
		segs := strings.Split(key, ".")
		vals, ok = params[segs[0]+"["+strings.Join(segs[1:], "][")+"]"]
	}
	switch {
	case !ok || len(vals) == 0:
		return nil, false
	case len(vals) == 1:
		return vals[0], true
	default:
		list := make([]any, len(vals))
		for i, v := range vals {
			list[i] = v
		}
		return list, true
	}
}

func resolveCustom(r *Request, fn ExtractFunc) (string, bool) {
	if fn == nil {
		return "", false
	}
	var parts []string
	for _, p := range fn(r) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return nonEmpty(strings.Join(parts, "_"))
}

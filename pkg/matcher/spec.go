package matcher

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMatcher is returned for matcher tokens that name no known matcher,
// and when a zero Spec is evaluated.
var ErrUnknownMatcher = errors.New("unknown matcher")

// Kind identifies a matcher variant.
type Kind uint8

// Matcher kinds.
const (
	KindInvalid Kind = iota
	KindMethod
	KindURL
	KindHost
	KindDomain
	KindSubdomain
	KindPath
	KindBodyHash
	KindQueryHash
	KindHeader
	KindQueryParam
	KindAttribute
	KindBodyField
	KindCustom
)

var kindTokens = map[Kind]string{
	KindMethod:     "method",
	KindURL:        "url",
	KindHost:       "host",
	KindDomain:     "domain",
	KindSubdomain:  "subdomain",
	KindPath:       "path",
	KindBodyHash:   "body_hash",
	KindQueryHash:  "query_hash",
	KindHeader:     "header",
	KindQueryParam: "query",
	KindAttribute:  "attribute",
	KindBodyField:  "body_field",
	KindCustom:     "custom",
}

// String returns the token prefix for the kind.
func (k Kind) String() string {
	if s, ok := kindTokens[k]; ok {
		return s
	}
	return "invalid"
}

// ExtractFunc is a user-supplied matcher. It may return any number of parts;
// empty parts are dropped and the rest are joined with "_".
type ExtractFunc func(r *Request) []string

// Spec describes one matcher. The zero value is invalid.
type Spec struct {
	kind    Kind
	key     string
	keys    []string
	name    string
	extract ExtractFunc
}

// Method matches the upper-cased HTTP method.
func Method() Spec { return Spec{kind: KindMethod} }

// URL matches host plus trimmed path.
func URL() Spec { return Spec{kind: KindURL} }

// Host matches the URL host.
func Host() Spec { return Spec{kind: KindHost} }

// Domain matches the host with its subdomain stripped.
func Domain() Spec { return Spec{kind: KindDomain} }

// Subdomain matches the first host label of hosts with three or more labels.
func Subdomain() Spec { return Spec{kind: KindSubdomain} }

// Path matches the trimmed URL path.
func Path() Spec { return Spec{kind: KindPath} }

// BodyHash hashes the whole body, or only the given dot-path keys.
func BodyHash(keys ...string) Spec { return Spec{kind: KindBodyHash, keys: cleanKeys(keys)} }

// QueryHash hashes all query parameters, or only the given ones.
func QueryHash(keys ...string) Spec { return Spec{kind: KindQueryHash, keys: cleanKeys(keys)} }

// Header matches the first value of the named request header.
func Header(name string) Spec { return Spec{kind: KindHeader, key: name} }

// QueryParam matches the first value of the named query parameter.
func QueryParam(name string) Spec { return Spec{kind: KindQueryParam, key: name} }

// Attribute matches a request attribute by dot path.
func Attribute(path string) Spec { return Spec{kind: KindAttribute, key: path} }

// BodyField matches a JSON body field by dot path.
func BodyField(path string) Spec { return Spec{kind: KindBodyField, key: path} }

// Custom wraps a user extractor. name is only used for String and logging.
func Custom(name string, fn ExtractFunc) Spec {
	if fn == nil {
		return Spec{}
	}
	if name == "" {
		name = "func"
	}
	return Spec{kind: KindCustom, name: name, extract: fn}
}

// Kind returns the matcher kind.
func (s Spec) Kind() Kind { return s.kind }

// Valid reports whether s describes a usable matcher.
func (s Spec) Valid() bool {
	switch s.kind {
	case KindInvalid:
		return false
	case KindHeader, KindQueryParam, KindAttribute, KindBodyField:
		return s.key != ""
	case KindCustom:
		return s.extract != nil
	default:
		_, ok := kindTokens[s.kind]
		return ok
	}
}

// ExaminesBody reports whether the matcher reads the request body.
// Custom extractors are opaque and report false.
func (s Spec) ExaminesBody() bool {
	return s.kind == KindBodyHash || s.kind == KindBodyField
}

// String returns the token form of s.
func (s Spec) String() string {
	switch s.kind {
	case KindHeader, KindQueryParam, KindAttribute, KindBodyField:
		return s.kind.String() + ":" + s.key
	case KindBodyHash, KindQueryHash:
		if len(s.keys) == 0 {
			return s.kind.String()
		}
		return s.kind.String() + ":" + strings.Join(s.keys, ",")
	case KindCustom:
		return "custom:" + s.name
	default:
		return s.kind.String()
	}
}

// Parse turns a matcher token into a Spec.
func Parse(token string) (Spec, error) {
	token = strings.TrimSpace(token)

	switch token {
	case "method", "http_method":
		return Method(), nil
	case "url":
		return URL(), nil
	case "host":
		return Host(), nil
	case "domain":
		return Domain(), nil
	case "subdomain":
		return Subdomain(), nil
	case "path":
		return Path(), nil
	case "body_hash", "body":
		return BodyHash(), nil
	case "query_hash":
		return QueryHash(), nil
	}

	name, arg, ok := strings.Cut(token, ":")
	if ok && arg != "" {
		switch name {
		case "header":
			return Header(arg), nil
		case "query":
			return QueryParam(arg), nil
		case "attribute", "http_attribute":
			return Attribute(arg), nil
		case "body_field":
			return BodyField(arg), nil
		case "body_hash":
			return BodyHash(strings.Split(arg, ",")...), nil
		case "query_hash":
			return QueryHash(strings.Split(arg, ",")...), nil
		}
	}

	return Spec{}, fmt.Errorf("%w: %q", ErrUnknownMatcher, token)
}

// ParseAll parses tokens in order, failing on the first unknown one.
func ParseAll(tokens []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(tokens))
	for _, tok := range tokens {
		s, err := Parse(tok)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}

func cleanKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Package matcher extracts fingerprint fragments from outbound HTTP requests.
//
// A matcher is a pure function from a request snapshot to an optional string.
// Matchers are described by Spec values, a closed set of kinds that are parsed
// once from their token form ("method", "header:X-Shop", "body_hash:query") and
// then evaluated per request without any further string parsing.
//
// # Tokens
//
//	method, http_method          upper-cased HTTP method
//	url                          host plus trimmed path ("api.example.com_products")
//	host                         URL host
//	domain                       host without its first label when it has 3+ labels
//	subdomain                    first host label when the host has 3+ labels
//	path                         trimmed URL path
//	body_hash, body              6-char hash of the whole body
//	body_hash:k1,k2              6-char hash of the named body keys (dot paths)
//	query_hash                   6-char hash of all query parameters
//	query_hash:k1,k2             6-char hash of the named query parameters
//	header:Name                  first value of a request header
//	query:name                   first value of a query parameter
//	attribute:key                request attribute (dot path), alias http_attribute:key
//	body_field:path              JSON body field (dot path)
//
// Custom extractors are built in code with Custom.
package matcher

// Package matching holds the low-level helpers shared by the request matchers
// and the fingerprint resolver:
//
//   - URL globs: `*` matches any run of characters, slashes included
//   - JSON dot-path lookups over decoded bodies and attribute maps
//   - Canonical (sorted-key) JSON rendering for order-independent hashing
//   - Short, stable content hashes used as fingerprint fragments
//
// Nothing in this package holds state; every function is safe for concurrent use.
package matching

// Package replay records outbound HTTP calls made by tests and replays them
// on later runs.
//
// The first time a test sends a request, the real call goes out and the
// response is written under the storage root. On later runs the stored
// response is served and the network is never touched. Requests are
// recognized by a fingerprint built from matchers (method and URL by
// default), so incidental differences such as header order do not matter.
//
// # Usage
//
//	func TestProducts(t *testing.T) {
//	    e := replay.ForTest(t)
//	    client := e.Client()
//
//	    resp, err := client.Get("https://api.example.com/products")
//	    ...
//	}
//
// Several responses for one fingerprint are served in the order they were
// recorded, which covers pagination and polling.
//
// # Scopes
//
// Each test gets a private directory named after the test. Named shared
// buckets (under "_shared/") can be read from and written to by many tests:
//
//	e := replay.ForTest(t, replay.UseShared("shopify"))
//
// # Modes
//
// Fresh deletes stored records before loading them, forcing a new recording.
// Bail turns every would-be recording into an error, which catches fixtures
// that were never committed; set REPLAY_BAIL=1 in CI. ExpireAfter re-records
// anything older than a number of days.
//
// # Integration
//
// Transport is an http.RoundTripper built from the two hooks Intercept and
// Observe. Clients that cannot take a custom transport can call the hooks
// directly.
package replay

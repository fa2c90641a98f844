package fingerprint

import (
	"github.com/getmockd/httpreplay/internal/matching"
	"github.com/getmockd/httpreplay/pkg/matcher"
)

// Override replaces the default matchers for requests whose URL matches Pattern.
type Override struct {
	Pattern string
	MatchBy []matcher.Spec
}

// Policy is the active matcher configuration: a default sequence plus
// per-URL-pattern overrides checked in declaration order.
type Policy struct {
	Default   []matcher.Spec
	Overrides []Override
}

// DefaultMatchBy is the matcher sequence used when nothing else is configured.
func DefaultMatchBy() []matcher.Spec {
	return []matcher.Spec{matcher.Method(), matcher.URL()}
}

// For returns the matcher sequence that applies to r.
func (p Policy) For(r *matcher.Request) []matcher.Spec {
	rawURL := r.URLString()
	for _, o := range p.Overrides {
		if matching.MatchURL(o.Pattern, rawURL) {
			return o.MatchBy
		}
	}
	return p.Default
}

// Validate checks that every spec in the policy is usable.
func (p Policy) Validate() error {
	if err := validate(p.Default); err != nil {
		return err
	}
	for _, o := range p.Overrides {
		if err := validate(o.MatchBy); err != nil {
			return err
		}
	}
	return nil
}

func validate(specs []matcher.Spec) error {
	for _, s := range specs {
		if !s.Valid() {
			return matcher.ErrUnknownMatcher
		}
	}
	return nil
}

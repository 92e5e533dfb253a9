// Package tags reconciles keyword tag strings and parses user edit input.
//
// Tags are stored as a single comma-joined string. Every function here keeps
// the stored form canonical: tokens are trimmed, never empty and never
// repeated, and existing tokens keep their order.
//
//	tags.Merge(nil, []string{"x", "y"})   // "x,y"
//	tags.Merge(&s /* "x,y" */, []string{"y", "z"}) // "x,y,z"
//	tags.Remove(&s /* "x,y,z" */, []string{"y"})   // "x,z"
//	tags.Remove(nil, []string{"y"})       // ""
//
// The parse helpers never fail: malformed input becomes "no value" so that
// callers can treat it as "field not changed".
package tags

// Package parser turns transcribed lab-note text into a structured record.
//
// Extraction is literal pattern matching with no statistical model: metadata
// fields come from ordered regular-expression tables where the first matching
// pattern wins, the body is segmented into the fixed section buckets by a
// single line-oriented pass over keyword headers, and measurements are pulled
// out by one rule per unit. Every function here is total: missing data
// degrades to empty strings and empty slices, never to an error.
//
// The only impure input is the clock, used to synthesize an experiment id for
// notes that do not carry one. Tests inject it with WithClock.
package parser

// Package search owns the relevance model used to rank lab records.
//
// A record's score is the sum of fixed per-field weights for every field that
// contains the query as a case-insensitive substring. A record is a candidate
// only when its score is positive, so the match set and the scoring set are
// the same. Ties are broken by creation time, newest first.
//
// Case folding uses Unicode full folding from golang.org/x/text so stored
// index columns and queries compare the same way in every backend.
package search

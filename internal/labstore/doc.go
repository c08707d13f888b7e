// Package labstore persists structured lab records and answers lookup,
// listing, relevance search, measurement range and suggestion queries.
//
// Records are keyed by experiment id and written replace-on-write: the
// experiments row is upserted while its sections, measurements and search
// index row are rewritten inside one transaction. SQLite (default) and
// Postgres are supported through a small dialect layer; the schema is
// managed by golang-migrate from embedded per-dialect migrations.
//
// Every operation runs under the configured store timeout. Writers for the
// same experiment id are serialized in-process, and SQLite busy errors are
// retried with backoff.
package labstore

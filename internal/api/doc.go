// Package api is the notebook service shared by the CLI and the HTTP server.
//
// Service wires the parser to the record store. Process parses a note,
// applies an optional experiment id override and stores the record; a storage
// failure is reported on the returned Result instead of as an error, so
// callers always get the structured record back. Read operations delegate to
// the store.
package api

// Package main hosts the labnote CLI entrypoint and command graph.
//
// The Cobra command tree parses notes, stores them, and queries the record
// store directly; `serve` runs the HTTP service in the foreground. Commands
// share configuration resolution, store wiring, and output rendering
// (go-pretty tables on a terminal, JSON with --json) through commandContext.
package main

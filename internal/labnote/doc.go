// Package labnote defines the structured lab-note record shared by the parser,
// the record store, and the outer CLI/HTTP surfaces.
//
// A Record is produced by one parsing pass over transcribed text and is owned
// by the store once persisted. Sections and measurements are value objects
// that only exist inside their parent record.
package labnote

package parser

import (
	"time"

	"labnote/internal/labnote"
)

// generatedIDLayout formats the timestamp of synthesized experiment ids.
const generatedIDLayout = "20060102_150405"

// GeneratedIDPrefix prefixes experiment ids synthesized for unidentified notes.
const GeneratedIDPrefix = "EXP_"

// Parser extracts records from raw text. The zero value is not usable; call New.
type Parser struct {
	now          func() time.Time
	keepPreamble bool
}

// Option customizes a Parser.
type Option func(*Parser)

// WithClock overrides the clock used for synthesized experiment ids.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

// WithPreamble keeps lines that appear before the first section header in
// Record.Preamble instead of dropping them.
func WithPreamble(keep bool) Option {
	return func(p *Parser) {
		p.keepPreamble = keep
	}
}

// New constructs a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse runs field, section, and measurement extraction over the same text.
func (p *Parser) Parse(text string) labnote.Record {
	record := p.Extract(text)
	record.Measurements = p.ExtractMeasurements(text)
	return record
}

// Extract populates metadata fields and sections. Measurements are left empty.
func (p *Parser) Extract(text string) labnote.Record {
	record := labnote.Record{
		RawText:      text,
		Measurements: []labnote.Measurement{},
		Sections:     map[labnote.Section]string{},
	}

	fields := extractFields(text)
	record.ExperimentID = fields.experimentID
	record.Date = fields.date
	record.Researcher = fields.researcher
	record.Title = fields.title

	segmented := segment(text)
	for name, body := range segmented.sections {
		record.SetSection(name, body)
	}
	if p.keepPreamble {
		record.Preamble = segmented.preamble
	}

	if record.ExperimentID == "" {
		record.ExperimentID = p.GenerateID()
	}
	return record
}

// GenerateID returns an experiment id derived from the current UTC second.
// Two ids generated within the same second collide.
func (p *Parser) GenerateID() string {
	return GeneratedIDPrefix + p.now().UTC().Format(generatedIDLayout)
}

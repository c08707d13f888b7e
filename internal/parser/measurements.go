package parser

import (
	"regexp"
	"strconv"

	"labnote/internal/labnote"
)

// measurementRule maps one unit pattern to the type and normalized unit it
// reports. The first capture group is the numeric value.
type measurementRule struct {
	kind  string
	unit  string
	regex *regexp.Regexp
}

const number = `(\d+(?:\.\d+)?)`

// measurementRules run in this order and the output keeps per-rule grouping.
// The unit alternatives end on word boundaries so that rules stay disjoint:
// "30min" is a time and never a molarity, "5 cells" is not a temperature.
var measurementRules = []measurementRule{
	{
		kind:  labnote.TypeTemperature,
		unit:  "°C",
		regex: regexp.MustCompile(`(?i)` + number + `\s*(?:°\s?C\b|℃|degrees?\s*(?:Celsius|C)\b|Celsius\b|C\b)`),
	},
	{
		kind:  labnote.TypePH,
		unit:  "",
		regex: regexp.MustCompile(`(?i)\bpH:?\s*` + number),
	},
	{
		kind:  labnote.TypeVolume,
		unit:  "mL",
		regex: regexp.MustCompile(`(?i)` + number + `\s*(?:ml|millilit(?:er|re)s?)\b`),
	},
	{
		kind:  labnote.TypeMass,
		unit:  "g",
		regex: regexp.MustCompile(`(?i)` + number + `\s*(?:grams?|g)\b`),
	},
	{
		kind:  labnote.TypeTime,
		unit:  "min",
		regex: regexp.MustCompile(`(?i)` + number + `\s*(?:minutes?|mins?)\b`),
	},
	{
		kind:  labnote.TypeTime,
		unit:  "hr",
		regex: regexp.MustCompile(`(?i)` + number + `\s*(?:hours?|hrs?)\b`),
	},
	{
		// Case-sensitive: a lowercase m is a prefix (mL, mg, min), not molarity.
		kind:  labnote.TypeConcentration,
		unit:  "M",
		regex: regexp.MustCompile(number + `\s*M\b`),
	},
	{
		kind:  labnote.TypePercentage,
		unit:  "%",
		regex: regexp.MustCompile(`(?i)` + number + `\s*(?:%|percent\b)`),
	},
}

// ExtractMeasurements scans text with every unit rule and returns one
// measurement per match. There is no cross-rule deduplication.
func (p *Parser) ExtractMeasurements(text string) []labnote.Measurement {
	return extractMeasurements(text)
}

func extractMeasurements(text string) []labnote.Measurement {
	measurements := []labnote.Measurement{}
	for _, rule := range measurementRules {
		for _, m := range rule.regex.FindAllStringSubmatch(text, -1) {
			value, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			measurements = append(measurements, labnote.Measurement{
				Type:    rule.kind,
				Value:   value,
				Unit:    rule.unit,
				RawText: m[0],
			})
		}
	}
	return measurements
}

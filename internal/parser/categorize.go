package parser

import (
	"strings"
	"unicode"
)

// Category is a coarse label assigned to a single line by keyword voting.
type Category string

const (
	CategoryMethods      Category = "methods"
	CategoryResults      Category = "results"
	CategoryObservations Category = "observations"
	CategoryMaterials    Category = "materials"
	CategoryData         Category = "data"
)

// Categories maps each category to the lower-cased lines assigned to it.
type Categories map[Category][]string

var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{CategoryMethods, []string{"mixed", "heated", "added", "measured", "prepared", "stirred", "incubated"}},
	{CategoryResults, []string{"observed", "found", "showed", "indicated", "demonstrated", "revealed"}},
	{CategoryObservations, []string{"noted", "noticed", "appeared", "seemed", "looked", "visible"}},
	{CategoryMaterials, []string{"solution", "reagent", "chemical", "equipment", "instrument"}},
	{CategoryData, []string{"temperature", "ph", "concentration", "volume", "mass", "time"}},
}

// wholeWordKeywords only count as separate words; "ph" must not hit
// "phosphate" or "graph".
var wholeWordKeywords = map[string]bool{"ph": true}

// Categorize assigns every non-blank line to the category with the most
// keyword hits. Ties go to the category listed first; lines without any hit
// are dropped. Unlike sections, categories are independent of headers.
func (p *Parser) Categorize(text string) Categories {
	out := make(Categories, len(categoryKeywords))
	for _, entry := range categoryKeywords {
		out[entry.category] = []string{}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.ToLower(strings.TrimSpace(raw))
		if line == "" {
			continue
		}
		words := lineWords(line)
		best, bestScore := Category(""), 0
		for _, entry := range categoryKeywords {
			score := 0
			for _, kw := range entry.keywords {
				if wholeWordKeywords[kw] {
					if words[kw] {
						score++
					}
				} else if strings.Contains(line, kw) {
					score++
				}
			}
			if score > bestScore {
				best, bestScore = entry.category, score
			}
		}
		if bestScore > 0 {
			out[best] = append(out[best], line)
		}
	}
	return out
}

func lineWords(line string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(line, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		words[w] = true
	}
	return words
}

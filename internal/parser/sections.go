package parser

import (
	"regexp"
	"strings"

	"labnote/internal/labnote"
)

// sectionHeader matches a line that opens a section. Keywords are tried in
// the listed order and only at the start of the line.
type sectionHeader struct {
	section labnote.Section
	regex   *regexp.Regexp
}

var sectionKeywords = []struct {
	section  labnote.Section
	keywords []string
}{
	{labnote.SectionMethods, []string{`methods?`, `procedure`, `protocol`, `experimental\s+setup`}},
	{labnote.SectionResults, []string{`results?`, `findings`, `data`, `outcomes?`}},
	{labnote.SectionObservations, []string{`observations?`, `notes?`, `comments?`}},
	{labnote.SectionMaterials, []string{`materials?`, `reagents?`, `equipment`, `supplies`}},
	{labnote.SectionProcedure, []string{`procedure`, `steps?`, `process`}},
	{labnote.SectionDiscussion, []string{`discussion`, `analysis`, `interpretation`}},
	{labnote.SectionConclusion, []string{`conclusion`, `summary`, `final\s+thoughts?`}},
}

var sectionHeaders = func() []sectionHeader {
	headers := make([]sectionHeader, 0, len(sectionKeywords))
	for _, entry := range sectionKeywords {
		pattern := `(?i)^(?:` + strings.Join(entry.keywords, "|") + `):?`
		headers = append(headers, sectionHeader{
			section: entry.section,
			regex:   regexp.MustCompile(pattern),
		})
	}
	return headers
}()

type segmentation struct {
	sections map[labnote.Section]string
	preamble string
}

// segment walks the text line by line, routing lines to the most recently
// opened section.
func segment(text string) segmentation {
	out := segmentation{sections: map[labnote.Section]string{}}

	var (
		current  labnote.Section
		open     bool
		buffer   []string
		preamble []string
	)
	flush := func() {
		if open && len(buffer) > 0 {
			if body := strings.TrimSpace(strings.Join(buffer, "\n")); body != "" {
				out.sections[current] = body
			}
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		header, rest, ok := matchHeader(line)
		if ok {
			flush()
			current = header
			open = true
			buffer = buffer[:0]
			if rest != "" && rest != ":" {
				buffer = append(buffer, rest)
			}
			continue
		}

		if open {
			buffer = append(buffer, line)
		} else {
			preamble = append(preamble, line)
		}
	}
	flush()

	out.preamble = strings.Join(preamble, "\n")
	return out
}

// matchHeader reports the section a line opens and the text left on the line
// once the keyword prefix is removed.
func matchHeader(line string) (labnote.Section, string, bool) {
	for _, h := range sectionHeaders {
		loc := h.regex.FindStringIndex(line)
		if loc == nil {
			continue
		}
		return h.section, strings.TrimSpace(line[loc[1]:]), true
	}
	return "", "", false
}

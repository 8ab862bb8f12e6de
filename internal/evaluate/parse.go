package evaluate

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// responseParser does label-anchored extraction from free-text generator
// replies. Each field's value runs from after its "LABEL:" anchor until the
// next known label or the end of the text. Missing fields are simply absent
// from the result; callers keep their zero values. One parser per evaluator,
// built once at package init.
type responseParser struct {
	labels  []string
	anchors []*regexp.Regexp
}

func newResponseParser(labels ...string) *responseParser {
	p := &responseParser{labels: labels}
	for _, l := range labels {
		p.anchors = append(p.anchors, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(l)+`\s*:`))
	}
	return p
}

type anchorHit struct {
	label      string
	start, end int
}

// parse returns the extracted fields keyed by label. A reply containing none
// of the known labels yields an empty map; the caller treats that as a parse
// failure and falls back to the manual-review result.
func (p *responseParser) parse(response string) map[string]string {
	var hits []anchorHit
	for i, re := range p.anchors {
		if loc := re.FindStringIndex(response); loc != nil {
			hits = append(hits, anchorHit{p.labels[i], loc[0], loc[1]})
		}
	}
	if len(hits) == 0 {
		return nil
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].start < hits[j].start })

	fields := make(map[string]string, len(hits))
	for i, h := range hits {
		end := len(response)
		if i+1 < len(hits) {
			end = hits[i+1].start
		}
		fields[h.label] = strings.TrimSpace(response[h.end:end])
	}
	return fields
}

var numberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// firstNumber extracts the leading numeric token from a field value, so
// "7/10", "[7 out of 10]" and plain "7" all read as 7.
func firstNumber(s string) (float64, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func firstInt(s string) (int, bool) {
	n, ok := firstNumber(s)
	if !ok {
		return 0, false
	}
	return int(n), true
}

// bulletList splits a field value into bullet items, tolerating "-", "*" and
// numbered prefixes.
func bulletList(s string) []string {
	var items []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		line = strings.TrimSpace(line)
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

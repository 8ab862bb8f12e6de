package segment

import (
	"regexp"
	"strings"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

// Fallback chains for the identity fields on the first page header. Each
// chain is tried in order; the first match wins.
var (
	rollPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Roll\s*(?:No|Number|#)[:\s]*([A-Z0-9]+)`),
		regexp.MustCompile(`(?i)Roll[:\s]*([A-Z0-9]+)`),
		regexp.MustCompile(`(?i)ID[:\s]*([A-Z0-9]+)`),
		regexp.MustCompile(`\b([A-Z]{2,}\d{4,})\b`), // e.g. CS2021001
	}
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`Name[:\s]*([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`),
		regexp.MustCompile(`Student[:\s]*([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`),
	}
	coursePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Course[:\s]*([A-Z]{2,}\d{3,})`),
		regexp.MustCompile(`(?i)Subject[:\s]*([A-Z]{2,}\d{3,})`),
		regexp.MustCompile(`\b([A-Z]{2,}\d{3,})\b`),
	}
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Date[:\s]*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
		regexp.MustCompile(`(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
	}
)

// ExtractHeader pulls student identity fields out of the header text of a
// sheet's first page. Missing fields come back as "UNKNOWN" (empty for the
// date); a sheet with a garbled header still gets graded.
func ExtractHeader(headerText string) model.HeaderInfo {
	return model.HeaderInfo{
		RollNumber: firstMatch(rollPatterns, headerText, "UNKNOWN"),
		Name:       firstMatch(namePatterns, headerText, "UNKNOWN"),
		CourseCode: firstMatch(coursePatterns, headerText, "UNKNOWN"),
		Date:       firstMatch(datePatterns, headerText, ""),
	}
}

func firstMatch(patterns []*regexp.Regexp, text, fallback string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return fallback
}

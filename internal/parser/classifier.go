package parser

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/transcript-analyzer/internal/models"
)

// sectionPrefixes are fixed literals opening the decorative section headers
// that the registry export interleaves between records.
var sectionPrefixes = []string{
	"TEST",
	"COURSE RESULTS",
	"Career",
	"Degree",
	"Programme:",
	"Attributes",
	"Term,",
	"Course,",
}

// campusIDPattern matches the uppercase-alphanumeric campus identifier in
// field 2 of a student header row.
var campusIDPattern = regexp.MustCompile(`^[A-Z0-9]{6,}$`)

// Classify labels one decoded row. fields are the quote-aware, trimmed cells;
// line is the reconstructed row text; yearOpen reports whether a year block is
// currently receiving rows.
//
// The categories overlap, so the decision order below is load-bearing: a
// specialization continuation also looks like a course row, and a year header
// can coincidentally satisfy the student-header shape.
func Classify(fields []string, line string, yearOpen bool) models.RowKind {
	if isDecorative(line) {
		return models.RowIgnored
	}
	if strings.HasPrefix(line, "Course Counts") {
		return models.RowSummary
	}
	if isStudentHeader(fields) {
		return models.RowStudentHeader
	}
	if len(fields) > 0 && isFourDigits(fields[0]) {
		return models.RowYearHeader
	}
	if yearOpen && len(fields) >= 2 && fields[0] == "" && fields[1] != "" {
		if isSpecialization(fields) {
			return models.RowSpecialization
		}
	}
	if yearOpen && len(fields) > 0 && fields[0] == "" {
		return models.RowCourse
	}
	return models.RowUnclassified
}

// isDecorative reports blank rows, rows made only of separators (-, =,
// commas, spaces), and rows opening with a known section-header literal.
func isDecorative(line string) bool {
	s := strings.TrimSpace(line)
	if s == "" {
		return true
	}
	for _, prefix := range sectionPrefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return strings.Trim(s, "-=, ") == ""
}

// isStudentHeader checks the student-header shape: surname and given names in
// the first two fields, a campus identifier, and an all-digit employee id.
// A row whose first field is a 4-digit number is a year header, never a
// student header, regardless of the later fields.
func isStudentHeader(fields []string) bool {
	if len(fields) < 5 {
		return false
	}
	if fields[0] == "" || fields[1] == "" {
		return false
	}
	if strings.Contains(fields[1], "(CONTINUED") {
		return false
	}
	if !campusIDPattern.MatchString(fields[2]) {
		return false
	}
	if !isAllDigits(fields[3]) {
		return false
	}
	if isFourDigits(fields[0]) {
		return false
	}
	return true
}

// isSpecialization distinguishes a specialization continuation from a course
// row: either the row is too short to hold a course segment, or the leading
// text carries no digit where a course code would have one.
func isSpecialization(fields []string) bool {
	if len(fields) <= 3 {
		return true
	}
	spec := strings.TrimSpace(strings.TrimRight(fields[1], ";"))
	if spec == "" {
		return false
	}
	head := spec
	if len(head) > 10 {
		head = head[:10]
	}
	return !strings.ContainsAny(head, "0123456789")
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isFourDigits(s string) bool {
	return len(s) == 4 && isAllDigits(s)
}

package models

// RowKind labels what a classified transcript row is. Several kinds share
// shape, so classification is order-dependent (see parser.Classify).
type RowKind string

const (
	RowIgnored        RowKind = "ignored" // blank, decorative, or section header
	RowSummary        RowKind = "summary"
	RowStudentHeader  RowKind = "student-header"
	RowYearHeader     RowKind = "year-header"
	RowSpecialization RowKind = "specialization"
	RowCourse         RowKind = "course"
	RowUnclassified   RowKind = "unclassified"
)

// DebugLine records what the parser did with one physical row, making
// skipped and dropped rows visible without changing parse behaviour.
type DebugLine struct {
	LineNum int     `json:"lineNum"`
	Text    string  `json:"text"`
	Kind    RowKind `json:"kind"`
	Result  string  `json:"result"` // "student", "year", "course", "courses-x2", "specialization", "summary", "skipped", "dropped"
}

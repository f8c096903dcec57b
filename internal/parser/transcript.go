package parser

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/insightdelivered/transcript-analyzer/internal/models"
)

// Result is the output of one parse pass: the reconstructed students plus a
// per-row trace of what the parser did.
type Result struct {
	Students   []models.Student   `json:"students"`
	DebugLines []models.DebugLine `json:"debugLines,omitempty"`
}

// Parse runs one forward pass over the transcript text and reconstructs the
// student → year → course hierarchy. It never fails on malformed rows: short
// rows resolve missing fields to empty strings and unrecognized rows are
// skipped (visible in the debug trace).
func Parse(text string) *Result {
	res := &Result{}

	var current *models.Student // open student, nil in the NoStudent state
	yearIdx := -1               // index into current.Years, -1 when no year is open

	closeStudent := func() {
		if current != nil {
			res.Students = append(res.Students, *current)
			current = nil
		}
		yearIdx = -1
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	for lineNum := 1; ; lineNum++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A row the CSV decoder cannot make sense of is skipped, like
			// any other unrecognized row.
			res.trace(lineNum, "", models.RowUnclassified, "skipped")
			continue
		}

		// Some exports pack a whole row into one quoted cell that itself
		// starts with a comma; re-decode that cell as its own CSV row.
		if len(row) == 1 && strings.HasPrefix(row[0], ",") {
			if inner, err := csv.NewReader(strings.NewReader(row[0])).Read(); err == nil {
				row = inner
			}
		}

		line := strings.Join(row, ",")
		fields := make([]string, len(row))
		for i, f := range row {
			fields[i] = strings.TrimSpace(f)
		}

		kind := Classify(fields, line, current != nil && yearIdx >= 0)

		switch kind {
		case models.RowStudentHeader:
			closeStudent()
			current = newStudent(fields)
			res.trace(lineNum, line, kind, "student")

		case models.RowYearHeader:
			if current == nil {
				res.trace(lineNum, line, kind, "dropped")
				continue
			}
			current.Years = append(current.Years, newYear(fields))
			yearIdx = len(current.Years) - 1
			res.trace(lineNum, line, kind, "year")

		case models.RowSpecialization:
			yr := &current.Years[yearIdx]
			spec := strings.TrimSpace(strings.TrimRight(field(fields, 1), ";"))
			if spec != "" {
				yr.Specialization = spec
				// Repeated continuation rows for the same year keep appending.
				if yr.Programme != "" {
					yr.Programme += " - " + spec
				}
			}
			res.trace(lineNum, line, kind, "specialization")

		case models.RowCourse:
			yr := &current.Years[yearIdx]
			n := appendCourses(yr, fields)
			switch n {
			case 2:
				res.trace(lineNum, line, kind, "courses-x2")
			case 1:
				res.trace(lineNum, line, kind, "course")
			default:
				res.trace(lineNum, line, kind, "dropped")
			}

		case models.RowSummary:
			if current == nil {
				res.trace(lineNum, line, kind, "dropped")
				continue
			}
			sum := parseSummary(fields)
			if !sum.Empty() {
				current.Summary = &sum
			}
			// Course rows after a summary have no year to land in until the
			// next year header.
			yearIdx = -1
			res.trace(lineNum, line, kind, "summary")

		default:
			res.trace(lineNum, line, kind, "skipped")
		}
	}

	closeStudent()
	return res
}

func newStudent(fields []string) *models.Student {
	return &models.Student{
		Name:       field(fields, 0) + ", " + field(fields, 1),
		CampusID:   field(fields, 2),
		EmplID:     field(fields, 3),
		Programme:  field(fields, 4),
		Plan:       field(fields, 6),
		LevelStart: field(fields, 8),
		LevelEnd:   field(fields, 9),
		Finalist:   field(fields, 10),
		Annotation: models.Annotation{
			Code:    field(fields, 16),
			Comment: field(fields, 17),
		},
	}
}

func newYear(fields []string) models.Year {
	// field 0 was verified 4-digit by the classifier
	year, _ := strconv.Atoi(field(fields, 0))
	return models.Year{
		Year:          year,
		Term:          field(fields, 1),
		Programme:     field(fields, 2),
		Degree:        field(fields, 3),
		AcademicLevel: field(fields, 4),
		Standing:      field(fields, 5),
		Plan:          field(fields, 6),
		Metrics: models.Metrics{
			JT:       metric(fields, 11),
			JE:       metric(fields, 12),
			ST:       metric(fields, 13),
			SE:       metric(fields, 14),
			TT:       metric(fields, 15),
			TE:       metric(fields, 16),
			CE:       metric(fields, 17),
			WghtdGPA: metric(fields, 18),
			TermGPA:  metric(fields, 19),
			CumGPA:   metric(fields, 20),
		},
	}
}

// appendCourses parses the one or two course segments packed into a course
// row and appends them to the year. Fields 1-6 are the first segment; a
// second segment, when present, sits after the first empty field at index 7
// or beyond. Returns how many courses were appended.
func appendCourses(yr *models.Year, fields []string) int {
	n := 0
	if c, ok := courseSegment(fields, 1); ok {
		yr.Courses = append(yr.Courses, c)
		n++
	}
	for k := 7; k < len(fields); k++ {
		if fields[k] == "" {
			if c, ok := courseSegment(fields, k+1); ok {
				yr.Courses = append(yr.Courses, c)
				n++
			}
			break
		}
	}
	return n
}

// courseSegment reads the six course cells starting at offset. A segment with
// an empty code is not a course.
func courseSegment(fields []string, offset int) (models.Course, bool) {
	code := field(fields, offset)
	if code == "" {
		return models.Course{}, false
	}
	return models.Course{
		Code:           code,
		Result:         field(fields, offset+1),
		Symbol:         field(fields, offset+2),
		UnitsAttempted: field(fields, offset+3),
		UnitsEarned:    field(fields, offset+4),
		Title:          field(fields, offset+5),
	}, true
}

// parseSummary reads the label/value pairs of a "Course Counts" row. Two
// labels on the row read "Passed"; the one immediately after
// "Latest Term: Attempted" is the latest-term figure, the other the total.
func parseSummary(fields []string) models.Summary {
	var sum models.Summary
	lastLabel := ""
	for i := 1; i < len(fields); i += 2 {
		label := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(fields[i])), ":")
		val := field(fields, i+1)
		switch label {
		case "passed":
			if lastLabel == "latest term: attempted" {
				sum.LatestTermPassed = val
			} else {
				sum.TotalPassed = val
			}
		case "for which units earned":
			sum.UnitsEarned = val
		case "senior passed":
			sum.SeniorPassed = val
		case "junior passed":
			sum.JuniorPassed = val
		case "latest term: attempted":
			sum.LatestTermAttempted = val
		}
		lastLabel = label
	}
	return sum
}

// field returns fields[i], or "" when the row is too short to have one.
func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

// metric returns a trailing year-header figure with any trailing ; stripped.
func metric(fields []string, i int) string {
	return strings.TrimRight(field(fields, i), ";")
}

func (r *Result) trace(lineNum int, line string, kind models.RowKind, result string) {
	if len(line) > 120 {
		line = line[:120] + "..."
	}
	r.DebugLines = append(r.DebugLines, models.DebugLine{
		LineNum: lineNum,
		Text:    line,
		Kind:    kind,
		Result:  result,
	})
}

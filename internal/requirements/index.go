// Package requirements loads programme requirement tables and reconciles a
// parsed student record against them: which required courses are completed,
// which are outstanding, and which completed courses could stand in for an
// outstanding one.
package requirements

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Requirement is one required course within a programme year. Either the
// course or its alternative satisfies the requirement.
type Requirement struct {
	CourseCode        string `json:"courseCode"`
	AlternativeCourse string `json:"alternativeCourse,omitempty"`
	ProgrammeName     string `json:"programmeName,omitempty"`
}

// Programme groups a programme's requirements by normalized year label,
// preserving the order labels first appear in the table.
type Programme struct {
	Code       string
	Name       string
	YearLabels []string
	ByYear     map[string][]Requirement
}

// Index maps programme codes to their requirements. It is read-only after
// load; an empty index is the normal "no requirements available" state, not
// an error.
type Index struct {
	programmes map[string]*Programme
	codes      []string
}

// Programme returns the requirements for a programme code.
func (ix *Index) Programme(code string) (*Programme, bool) {
	p, ok := ix.programmes[code]
	return p, ok
}

// Codes lists the indexed programme codes in table order.
func (ix *Index) Codes() []string {
	return ix.codes
}

// Names maps programme codes to their display names.
func (ix *Index) Names() map[string]string {
	names := make(map[string]string, len(ix.codes))
	for _, code := range ix.codes {
		names[code] = ix.programmes[code].Name
	}
	return names
}

// Empty reports whether no programme was loaded.
func (ix *Index) Empty() bool {
	return len(ix.codes) == 0
}

// Column header candidates, matched after normalizing headers to lowercase
// snake case. First present candidate wins.
var (
	progColumns   = []string{"programme_code", "program_code", "programme", "program"}
	yearColumns   = []string{"year"}
	courseColumns = []string{"course_code", "course"}
	altColumns    = []string{"alternative_course", "alternative"}
	nameColumns   = []string{"programme_name", "program_name", "programme", "program"}
)

// LoadFile reads a requirements table from path. A missing or unreadable
// file yields an empty index: callers treat "no requirements" as a normal
// state.
func LoadFile(path string) *Index {
	f, err := os.Open(path)
	if err != nil {
		return &Index{programmes: map[string]*Programme{}}
	}
	defer f.Close()
	return Load(f)
}

// Load reads a requirements table. Headers are matched case-, space- and
// hyphen-insensitively. A table missing a required column (programme, year,
// or course) yields an empty index.
func Load(r io.Reader) *Index {
	ix := &Index{programmes: map[string]*Programme{}}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return ix
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[normalizeHeader(h)] = i
	}

	progCol, okProg := findColumn(cols, progColumns)
	yearCol, okYear := findColumn(cols, yearColumns)
	courseCol, okCourse := findColumn(cols, courseColumns)
	if !okProg || !okYear || !okCourse {
		return ix
	}
	altCol, hasAlt := findColumn(cols, altColumns)

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		prog := strings.TrimSpace(cell(row, progCol))
		if prog == "" {
			continue
		}
		course := CleanCode(cell(row, courseCol))
		if course == "" {
			continue
		}
		alt := ""
		if hasAlt {
			alt = CleanCode(cell(row, altCol))
		}

		p, ok := ix.programmes[prog]
		if !ok {
			p = &Programme{
				Code:   prog,
				Name:   displayName(cols, row),
				ByYear: map[string][]Requirement{},
			}
			ix.programmes[prog] = p
			ix.codes = append(ix.codes, prog)
		}

		label := NormalizeYearLabel(cell(row, yearCol))
		if _, seen := p.ByYear[label]; !seen {
			p.YearLabels = append(p.YearLabels, label)
		}
		p.ByYear[label] = append(p.ByYear[label], Requirement{
			CourseCode:        course,
			AlternativeCourse: alt,
			ProgrammeName:     displayName(cols, row),
		})
	}

	return ix
}

// displayName picks a programme display name from the first non-empty name
// column, falling back to the programme code columns.
func displayName(cols map[string]int, row []string) string {
	for _, cand := range nameColumns {
		if i, ok := cols[cand]; ok {
			if v := strings.TrimSpace(cell(row, i)); v != "" {
				return v
			}
		}
	}
	return ""
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	return h
}

func findColumn(cols map[string]int, candidates []string) (int, bool) {
	for _, cand := range candidates {
		if i, ok := cols[cand]; ok {
			return i, true
		}
	}
	return 0, false
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// CleanCode canonicalizes a course code: trimmed and uppercased, empty when
// blank.
func CleanCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

var (
	yearTokenPattern = regexp.MustCompile(`(?i)year\s*(\d+)`)
	digitsPattern    = regexp.MustCompile(`\d+`)
)

// ordinalLabels maps the spelled-out year ordinals used by handbook tables
// and by the transcript's academic-level text.
var ordinalLabels = []struct {
	word  string
	label string
}{
	{"first", "Year 1"},
	{"second", "Year 2"},
	{"third", "Year 3"},
	{"fourth", "Year 4"},
	{"fifth", "Year 5"},
	{"sixth", "Year 6"},
}

// NormalizeYearLabel maps the many spellings of a programme year ("Year 2",
// "2", "Second year", "YR2") onto the canonical "Year N" form. Text with no
// recognizable year passes through unchanged; empty input stays empty.
func NormalizeYearLabel(s string) string {
	text := strings.TrimSpace(s)
	if text == "" {
		return ""
	}
	if m := yearTokenPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("Year %d", n)
	}
	if allDigits(text) {
		n, _ := strconv.Atoi(text)
		return fmt.Sprintf("Year %d", n)
	}
	lower := strings.ToLower(text)
	for _, ord := range ordinalLabels {
		if strings.Contains(lower, ord.word) {
			return ord.label
		}
	}
	if m := digitsPattern.FindString(lower); m != "" {
		n, _ := strconv.Atoi(m)
		return fmt.Sprintf("Year %d", n)
	}
	return text
}

func allDigits(s string) bool {
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

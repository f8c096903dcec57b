package requirements

import (
	"fmt"
	"sort"

	"github.com/insightdelivered/transcript-analyzer/internal/models"
)

// Status classifies a course against the programme requirements.
type Status string

const (
	StatusCompleted   Status = "Completed"
	StatusOutstanding Status = "Outstanding"
	StatusNotRequired Status = "Not Required"
)

// CourseOutcome is one attempted course with its requirement status.
type CourseOutcome struct {
	Year           int    `json:"year"`
	Term           string `json:"term"`
	Code           string `json:"code"`
	Result         string `json:"result"`
	Symbol         string `json:"symbol"`
	UnitsAttempted string `json:"unitsAttempted"`
	Title          string `json:"title"`
	Status         Status `json:"status"`
}

// MissingRequirement is a requirement of a level the student has not
// satisfied anywhere in their record.
type MissingRequirement struct {
	CourseCode        string `json:"courseCode"`
	AlternativeCourse string `json:"alternativeCourse,omitempty"`
	Display           string `json:"display"`
}

// LevelReport reconciles one academic level: the courses attempted at that
// level and the level's unsatisfied requirements.
type LevelReport struct {
	Label   string               `json:"label"`
	Courses []CourseOutcome      `json:"courses"`
	Missing []MissingRequirement `json:"missing,omitempty"`
}

// OutstandingRequirement is a programme-wide unsatisfied requirement, with
// completed courses similar enough to be substitution candidates.
type OutstandingRequirement struct {
	YearLabel         string   `json:"yearLabel"`
	CourseCode        string   `json:"courseCode"`
	AlternativeCourse string   `json:"alternativeCourse,omitempty"`
	Display           string   `json:"display"`
	Similar           []string `json:"similar,omitempty"`
}

// Report is the full reconciliation of one student against one programme's
// requirements.
type Report struct {
	ProgrammeCode string                   `json:"programmeCode"`
	ProgrammeName string                   `json:"programmeName,omitempty"`
	Levels        []LevelReport            `json:"levels"`
	Outstanding   []OutstandingRequirement `json:"outstanding"`
}

// Resolve picks the programme whose requirements apply to a student. In
// order: the student's own plan code; the most frequent plan code across the
// student's years; a unique indexed code prefixed by the student's programme
// code. When several indexed codes share the prefix the choice is ambiguous
// and the candidates are returned for the caller to decide.
func (ix *Index) Resolve(st models.Student) (code string, candidates []string) {
	var tries []string
	if p := st.Plan; p != "" {
		tries = append(tries, p)
	}
	if p := mostCommonYearPlan(st.Years); p != "" {
		tries = append(tries, p)
	}
	for _, cand := range tries {
		if _, ok := ix.programmes[cand]; ok {
			return cand, nil
		}
	}

	if st.Programme == "" {
		return "", nil
	}
	var matches []string
	for _, c := range ix.codes {
		if len(c) >= len(st.Programme) && c[:len(st.Programme)] == st.Programme {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return "", nil
	case 1:
		return matches[0], nil
	default:
		return "", matches
	}
}

// mostCommonYearPlan returns the plan code appearing most often across the
// years; ties go to the plan seen first.
func mostCommonYearPlan(years []models.Year) string {
	counts := map[string]int{}
	var order []string
	for _, yr := range years {
		if yr.Plan == "" {
			continue
		}
		if _, seen := counts[yr.Plan]; !seen {
			order = append(order, yr.Plan)
		}
		counts[yr.Plan]++
	}
	best := ""
	for _, p := range order {
		if best == "" || counts[p] > counts[best] {
			best = p
		}
	}
	return best
}

// Match reconciles a student against one programme's requirements. progCode
// must come from Resolve (or the caller's choice among its candidates). A
// code not in the index produces a report with empty requirement data, since
// "no requirements" is a normal state.
func (ix *Index) Match(st models.Student, progCode string, policy SortPolicy) *Report {
	rep := &Report{
		ProgrammeCode: progCode,
		Levels:        []LevelReport{},
		Outstanding:   []OutstandingRequirement{},
	}

	prog := ix.programmes[progCode]
	if prog != nil {
		rep.ProgrammeName = prog.Name
	}

	passed := passedCourses(st)

	// Programme-wide required sets: satisfaction is not scoped to the level a
	// requirement is listed under.
	reqMain := map[string]bool{}
	reqAlt := map[string]bool{}
	if prog != nil {
		for _, label := range prog.YearLabels {
			for _, req := range prog.ByYear[label] {
				if req.CourseCode != "" {
					reqMain[req.CourseCode] = true
				}
				if req.AlternativeCourse != "" {
					reqAlt[req.AlternativeCourse] = true
				}
			}
		}
	}

	// Group years into academic levels, most recent calendar year first.
	sorted := make([]models.Year, len(st.Years))
	copy(sorted, st.Years)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Year > sorted[j].Year })

	var labels []string
	byLabel := map[string][]models.Year{}
	for _, yr := range sorted {
		label := NormalizeYearLabel(yr.AcademicLevel)
		if label == "" {
			label = fmt.Sprintf("Year %d", yr.Year)
		}
		if _, seen := byLabel[label]; !seen {
			labels = append(labels, label)
		}
		byLabel[label] = append(byLabel[label], yr)
	}

	for _, label := range labels {
		level := LevelReport{Label: label, Courses: []CourseOutcome{}}

		for _, yr := range byLabel[label] {
			for _, c := range yr.Courses {
				code := CleanCode(c.Code)
				status := StatusNotRequired
				if reqMain[code] || reqAlt[code] {
					if passed.has(code) {
						status = StatusCompleted
					} else {
						status = StatusOutstanding
					}
				}
				level.Courses = append(level.Courses, CourseOutcome{
					Year:           yr.Year,
					Term:           yr.Term,
					Code:           code,
					Result:         c.Result,
					Symbol:         c.Symbol,
					UnitsAttempted: c.UnitsAttempted,
					Title:          c.Title,
					Status:         status,
				})
			}
		}

		if prog != nil {
			for _, req := range prog.ByYear[label] {
				if passed.has(req.CourseCode) || passed.has(req.AlternativeCourse) {
					continue
				}
				level.Missing = append(level.Missing, MissingRequirement{
					CourseCode:        req.CourseCode,
					AlternativeCourse: req.AlternativeCourse,
					Display:           displayRequirement(req),
				})
			}
		}

		rep.Levels = append(rep.Levels, level)
	}

	if prog != nil {
		for _, label := range prog.YearLabels {
			for _, req := range prog.ByYear[label] {
				if passed.has(req.CourseCode) || passed.has(req.AlternativeCourse) {
					continue
				}
				rep.Outstanding = append(rep.Outstanding, OutstandingRequirement{
					YearLabel:         label,
					CourseCode:        req.CourseCode,
					AlternativeCourse: req.AlternativeCourse,
					Display:           displayRequirement(req),
					Similar:           passed.similar(req, policy),
				})
			}
		}
	}

	return rep
}

func displayRequirement(req Requirement) string {
	if req.AlternativeCourse == "" {
		return req.CourseCode
	}
	return fmt.Sprintf("%s (alt: %s)", req.CourseCode, req.AlternativeCourse)
}

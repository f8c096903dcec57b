package requirements

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/insightdelivered/transcript-analyzer/internal/models"
)

// SortPolicy orders similar-course suggestions. Both policies sort
// descending, using the other key as the tie-break.
type SortPolicy string

const (
	SortMostRecent   SortPolicy = "recent"
	SortHighestGrade SortPolicy = "grade"
)

// termRank orders the teaching periods within a calendar year.
var termRank = map[string]int{"R": 1, "W": 2, "S": 3}

// passAttempt is one non-failed attempt of a course, with the sort keys the
// suggestion policies need. grade is -1 when the result is not numeric.
type passAttempt struct {
	year  int
	term  int
	grade float64
}

// passedSet is the distinct non-failed course codes of one student, in first
// encounter order, with per-code attempt details.
type passedSet struct {
	codes    []string
	attempts map[string][]passAttempt
}

// passedCourses collects every distinct course code the student has passed
// anywhere in their record.
func passedCourses(st models.Student) *passedSet {
	ps := &passedSet{attempts: map[string][]passAttempt{}}
	for _, yr := range st.Years {
		rank := 0
		if t := strings.ToUpper(strings.TrimSpace(yr.Term)); t != "" {
			rank = termRank[t[:1]]
		}
		for _, c := range yr.Courses {
			code := CleanCode(c.Code)
			if code == "" || c.Failed() {
				continue
			}
			if _, seen := ps.attempts[code]; !seen {
				ps.codes = append(ps.codes, code)
			}
			grade := -1.0
			if res := strings.TrimSpace(c.Result); res != "" {
				if v, err := strconv.ParseFloat(res, 64); err == nil {
					grade = v
				}
			}
			ps.attempts[code] = append(ps.attempts[code], passAttempt{
				year:  yr.Year,
				term:  rank,
				grade: grade,
			})
		}
	}
	return ps
}

func (ps *passedSet) has(code string) bool {
	_, ok := ps.attempts[code]
	return ok
}

// codeFamilyPattern splits a course code into its subject letters and the
// leading level digit, e.g. ECO3020F → ECO, 3.
var codeFamilyPattern = regexp.MustCompile(`^([A-Z]+)(\d)`)

// similar lists the passed courses in the same subject and level family as an
// outstanding requirement, ordered by the given policy.
func (ps *passedSet) similar(req Requirement, policy SortPolicy) []string {
	base := req.CourseCode
	if base == "" {
		base = req.AlternativeCourse
	}
	m := codeFamilyPattern.FindStringSubmatch(base)
	if m == nil {
		return nil
	}
	prefix := m[1] + m[2]

	var candidates []string
	for _, code := range ps.codes {
		if strings.HasPrefix(code, prefix) {
			candidates = append(candidates, code)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		yi, ti := ps.mostRecent(candidates[i])
		yj, tj := ps.mostRecent(candidates[j])
		gi := ps.bestGrade(candidates[i])
		gj := ps.bestGrade(candidates[j])
		if policy == SortHighestGrade {
			if gi != gj {
				return gi > gj
			}
			if yi != yj {
				return yi > yj
			}
			return ti > tj
		}
		if yi != yj {
			return yi > yj
		}
		if ti != tj {
			return ti > tj
		}
		return gi > gj
	})
	return candidates
}

// mostRecent returns the latest (year, term) a course was passed.
func (ps *passedSet) mostRecent(code string) (int, int) {
	year, term := -1, -1
	for _, a := range ps.attempts[code] {
		if a.year > year || (a.year == year && a.term > term) {
			year, term = a.year, a.term
		}
	}
	return year, term
}

// bestGrade returns the highest numeric grade a course was passed with, or
// -1 when no attempt carries a numeric result.
func (ps *passedSet) bestGrade(code string) float64 {
	best := -1.0
	for _, a := range ps.attempts[code] {
		if a.grade > best {
			best = a.grade
		}
	}
	return best
}

// Package insights derives progress analytics from one parsed student record:
// programme-change history, repeated failures, actual years of study, and the
// weakest year by pass rate.
package insights

import (
	"fmt"
	"strings"

	"github.com/insightdelivered/transcript-analyzer/internal/models"
)

// Insight is the derived analytics for one student.
type Insight struct {
	ProgrammeChanges    int          `json:"programmeChanges"`
	ProgrammeChangeList []string     `json:"programmeChangeList"`
	RepeatedFails       []string     `json:"repeatedFails"`
	ActualYears         int          `json:"actualYears"`
	WeakestYear         *WeakestYear `json:"weakestYear,omitempty"`
}

// WeakestYear is the calendar year with the lowest pass rate, counting only
// years with more than one attempted course.
type WeakestYear struct {
	Year      int     `json:"year"`
	Passed    int     `json:"passed"`
	Attempted int     `json:"attempted"`
	Rate      float64 `json:"rate"`
}

// Compute is a pure function over one student. It never mutates its input.
func Compute(st models.Student) Insight {
	ins := Insight{
		ProgrammeChangeList: []string{},
		RepeatedFails:       []string{},
	}

	computeProgrammeChanges(st, &ins)
	computeRepeatedFails(st, &ins)
	computeActualYears(st, &ins)
	computeWeakestYear(st, &ins)

	return ins
}

// computeProgrammeChanges walks the years in input order and records every
// point where the programme value differs from the previous one. The display
// list leads with the first programme when any change exists.
func computeProgrammeChanges(st models.Student, ins *Insight) {
	var sequence []string
	for _, yr := range st.Years {
		if yr.Programme != "" {
			sequence = append(sequence, yr.Programme)
		}
	}
	if len(sequence) == 0 {
		return
	}

	var changes []string
	last := sequence[0]
	for _, prog := range sequence[1:] {
		if prog != last {
			changes = append(changes, prog)
		}
		last = prog
	}

	ins.ProgrammeChanges = len(changes)
	if len(changes) > 0 {
		ins.ProgrammeChangeList = append([]string{sequence[0]}, changes...)
	} else {
		ins.ProgrammeChangeList = []string{sequence[0]}
	}
}

// computeRepeatedFails groups failing attempts by course code, in input
// iteration order, and reports every code failed at least twice. The shown
// mark is the result (or symbol) of the last failing attempt.
func computeRepeatedFails(st models.Student, ins *Insight) {
	attempts := map[string][]models.Course{}
	var order []string
	for _, yr := range st.Years {
		for _, c := range yr.Courses {
			if c.Code == "" || !c.Failed() {
				continue
			}
			if _, seen := attempts[c.Code]; !seen {
				order = append(order, c.Code)
			}
			attempts[c.Code] = append(attempts[c.Code], c)
		}
	}
	for _, code := range order {
		list := attempts[code]
		if len(list) < 2 {
			continue
		}
		last := list[len(list)-1]
		mark := strings.TrimSpace(last.Result)
		if mark == "" {
			mark = last.Symbol
		}
		ins.RepeatedFails = append(ins.RepeatedFails, fmt.Sprintf("%s (%s)", code, mark))
	}
}

// computeActualYears counts distinct calendar years that carry at least one
// course. A year block with no courses is administrative noise, not study.
func computeActualYears(st models.Student, ins *Insight) {
	seen := map[int]bool{}
	for _, yr := range st.Years {
		if len(yr.Courses) > 0 {
			seen[yr.Year] = true
		}
	}
	ins.ActualYears = len(seen)
}

// computeWeakestYear merges terms sharing a calendar year and ranks years by
// pass rate. Years with a single attempt are skipped as trivial; ties go to
// the year encountered first in the grouping scan.
func computeWeakestYear(st models.Student, ins *Insight) {
	type stats struct{ attempted, passed int }
	byYear := map[int]*stats{}
	var order []int
	for _, yr := range st.Years {
		for _, c := range yr.Courses {
			if c.Code == "" {
				continue
			}
			s, ok := byYear[yr.Year]
			if !ok {
				s = &stats{}
				byYear[yr.Year] = s
				order = append(order, yr.Year)
			}
			s.attempted++
			if !c.Failed() {
				s.passed++
			}
		}
	}

	for _, y := range order {
		s := byYear[y]
		if s.attempted <= 1 {
			continue
		}
		rate := float64(s.passed) / float64(s.attempted)
		if ins.WeakestYear == nil || rate < ins.WeakestYear.Rate {
			ins.WeakestYear = &WeakestYear{
				Year:      y,
				Passed:    s.passed,
				Attempted: s.attempted,
				Rate:      rate,
			}
		}
	}
}

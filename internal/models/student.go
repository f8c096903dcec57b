package models

import (
	"strconv"
	"strings"
)

// Student is one reconstructed transcript record. Students appear in the
// output in the order their header rows appear in the export.
type Student struct {
	Name       string     `json:"name"` // "SURNAME, Given names"
	CampusID   string     `json:"campusId"`
	EmplID     string     `json:"emplId"`
	Programme  string     `json:"programme"`
	Plan       string     `json:"plan,omitempty"`
	LevelStart string     `json:"levelStart,omitempty"`
	LevelEnd   string     `json:"levelEnd,omitempty"`
	Finalist   string     `json:"finalist,omitempty"`
	Annotation Annotation `json:"annotation"`
	Years      []Year     `json:"years"`
	Summary    *Summary   `json:"summary,omitempty"`
}

// Annotation is the advisor coding carried in the trailing columns of a
// student header row.
type Annotation struct {
	Code    string `json:"code,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// Year is one term block of the transcript: the calendar year, term metadata,
// and the courses attempted in that term. Years are stored in input order,
// which is not necessarily chronological.
type Year struct {
	Year           int      `json:"year"`
	Term           string   `json:"term"`
	Programme      string   `json:"programme"`
	Degree         string   `json:"degree"`
	AcademicLevel  string   `json:"academicLevel"`
	Standing       string   `json:"standing"`
	Plan           string   `json:"plan"`
	Specialization string   `json:"specialization,omitempty"`
	Metrics        Metrics  `json:"metrics"`
	Courses        []Course `json:"courses"`
}

// Metrics holds the trailing per-term figures from a year header row.
// They are opaque display strings from the export and are never parsed.
type Metrics struct {
	JT       string `json:"jt,omitempty"` // junior units taken
	JE       string `json:"je,omitempty"` // junior units earned
	ST       string `json:"st,omitempty"` // senior units taken
	SE       string `json:"se,omitempty"` // senior units earned
	TT       string `json:"tt,omitempty"` // total units taken
	TE       string `json:"te,omitempty"` // total units earned
	CE       string `json:"ce,omitempty"` // cumulative units earned
	WghtdGPA string `json:"wghtdGpa,omitempty"`
	TermGPA  string `json:"termGpa,omitempty"`
	CumGPA   string `json:"cumGpa,omitempty"`
}

// Course is a single course attempt. Codes repeat within and across Years
// when a course is retaken.
type Course struct {
	Code           string `json:"code"`
	Result         string `json:"result"` // numeric percentage string, letter, or blank
	Symbol         string `json:"symbol"`
	UnitsAttempted string `json:"unitsAttempted"`
	UnitsEarned    string `json:"unitsEarned"`
	Title          string `json:"title"`
}

// Failed reports whether this attempt counts as a failure: the symbol carries
// an F marker, or the result is numeric and below 50. A non-numeric result
// never fails on the numeric branch.
func (c Course) Failed() bool {
	if strings.Contains(c.Symbol, "F") {
		return true
	}
	res := strings.TrimSpace(c.Result)
	if res == "" {
		return false
	}
	if v, err := strconv.ParseFloat(res, 64); err == nil {
		return v < 50
	}
	return false
}

// Summary holds the six figures from a student's "Course Counts" row,
// kept as raw strings.
type Summary struct {
	TotalPassed         string `json:"totalPassed,omitempty"`
	UnitsEarned         string `json:"unitsEarned,omitempty"`
	SeniorPassed        string `json:"seniorPassed,omitempty"`
	JuniorPassed        string `json:"juniorPassed,omitempty"`
	LatestTermAttempted string `json:"latestTermAttempted,omitempty"`
	LatestTermPassed    string `json:"latestTermPassed,omitempty"`
}

// Empty reports whether no summary figure was recognized.
func (s Summary) Empty() bool {
	return s == Summary{}
}

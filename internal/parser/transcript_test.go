package parser

import (
	"reflect"
	"strings"
	"testing"
)

const sampleTranscript = `TEST RESULTS EXPORT
------------------------------------------
SMITH,JOHN,AB12CD34,1234567,BCOM,,MAJ,,1,2,,,,,,,,,
Term,Programme,Degree
2021,1,BCOM,BCOM,First,,MAJ,,,,,0,0,0,0,0,0,0,0.0,0.0,0.0
,MATH1000,75,P,1,1,Mathematics I
`

func TestParseSingleStudent(t *testing.T) {
	res := Parse(sampleTranscript)

	if len(res.Students) != 1 {
		t.Fatalf("got %d students, want 1", len(res.Students))
	}
	st := res.Students[0]

	if st.Name != "SMITH, JOHN" {
		t.Errorf("name: got %q, want %q", st.Name, "SMITH, JOHN")
	}
	if st.CampusID != "AB12CD34" {
		t.Errorf("campus id: got %q, want %q", st.CampusID, "AB12CD34")
	}
	if st.EmplID != "1234567" {
		t.Errorf("emplid: got %q, want %q", st.EmplID, "1234567")
	}
	if st.Programme != "BCOM" {
		t.Errorf("programme: got %q, want %q", st.Programme, "BCOM")
	}
	if st.Plan != "MAJ" {
		t.Errorf("plan: got %q, want %q", st.Plan, "MAJ")
	}

	if len(st.Years) != 1 {
		t.Fatalf("got %d years, want 1", len(st.Years))
	}
	yr := st.Years[0]
	if yr.Year != 2021 {
		t.Errorf("year: got %d, want 2021", yr.Year)
	}
	if len(yr.Courses) != 1 {
		t.Fatalf("got %d courses, want 1", len(yr.Courses))
	}
	c := yr.Courses[0]
	if c.Code != "MATH1000" || c.Result != "75" || c.Symbol != "P" {
		t.Errorf("course: got %+v", c)
	}
	if c.Failed() {
		t.Error("course with result 75 should not be failed")
	}
}

func TestParseIsIdempotent(t *testing.T) {
	a := Parse(sampleTranscript)
	b := Parse(sampleTranscript)
	if !reflect.DeepEqual(a.Students, b.Students) {
		t.Error("two parses of identical text differ")
	}
}

func TestParseDualSegmentRow(t *testing.T) {
	tests := []struct {
		name      string
		courseRow string
		wantCodes []string
	}{
		{
			name:      "two segments",
			courseRow: ",MATH1000,75,P,1,1,Mathematics I,,ECO1010,62,P,1,1,Economics I",
			wantCodes: []string{"MATH1000", "ECO1010"},
		},
		{
			name:      "single segment",
			courseRow: ",MATH1000,75,P,1,1,Mathematics I",
			wantCodes: []string{"MATH1000"},
		},
		{
			name:      "empty second segment code",
			courseRow: ",MATH1000,75,P,1,1,Mathematics I,,,,,",
			wantCodes: []string{"MATH1000"},
		},
		{
			name:      "empty first segment code with digits in later fields",
			courseRow: ",,75,P,1,1,Mathematics I",
			wantCodes: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "SMITH,JOHN,AB12CD34,1234567,BCOM\n" +
				"2021,1,BCOM,BCOM,First\n" +
				tt.courseRow + "\n"
			res := Parse(text)
			if len(res.Students) != 1 || len(res.Students[0].Years) != 1 {
				t.Fatalf("unexpected structure: %+v", res.Students)
			}
			var codes []string
			for _, c := range res.Students[0].Years[0].Courses {
				codes = append(codes, c.Code)
			}
			if !reflect.DeepEqual(codes, tt.wantCodes) {
				t.Errorf("got %v, want %v", codes, tt.wantCodes)
			}
		})
	}
}

func TestParseShortRowsFailSoft(t *testing.T) {
	// Rows far shorter than the offsets the parser references must resolve
	// everything missing to empty strings.
	// The course row carries four fields: anything shorter classifies as a
	// specialization continuation.
	text := "SMITH,JOHN,AB12CD34,1234567,BCOM\n" +
		"2021,1\n" +
		",MATH1000,75,P\n"
	res := Parse(text)
	if len(res.Students) != 1 {
		t.Fatalf("got %d students, want 1", len(res.Students))
	}
	st := res.Students[0]
	if st.Plan != "" || st.Finalist != "" || st.Annotation.Code != "" {
		t.Errorf("short student header should leave optional fields empty: %+v", st)
	}
	if len(st.Years) != 1 {
		t.Fatalf("got %d years, want 1", len(st.Years))
	}
	yr := st.Years[0]
	if yr.Programme != "" || yr.Metrics.CumGPA != "" {
		t.Errorf("short year header should leave fields empty: %+v", yr)
	}
	if len(yr.Courses) != 1 || yr.Courses[0].Title != "" {
		t.Errorf("short course row should leave fields empty: %+v", yr.Courses)
	}
}

func TestParseMultipleStudents(t *testing.T) {
	text := "SMITH,JOHN,AB12CD34,1234567,BCOM\n" +
		"2021,1,BCOM,BCOM,First\n" +
		",MATH1000,75,P,1,1,Mathematics I\n" +
		"DOE,JANE,XY98ZW76,7654321,BBUSSC\n" +
		"2022,1,BBUSSC,BBUSSC,First\n" +
		",STA1000,80,P,1,1,Statistics I\n"
	res := Parse(text)
	if len(res.Students) != 2 {
		t.Fatalf("got %d students, want 2", len(res.Students))
	}
	if res.Students[0].CampusID != "AB12CD34" || res.Students[1].CampusID != "XY98ZW76" {
		t.Errorf("students out of order: %q, %q", res.Students[0].CampusID, res.Students[1].CampusID)
	}
	if len(res.Students[0].Years[0].Courses) != 1 {
		t.Errorf("first student's courses leaked: %+v", res.Students[0].Years)
	}
}

func TestParseSpecializationAppends(t *testing.T) {
	text := "SMITH,JOHN,AB12CD34,1234567,BCOM\n" +
		"2021,1,BCOM,BCOM,First\n" +
		",Accounting Stream;\n" +
		",Accounting Stream;\n" +
		",MATH1000,75,P,1,1,Mathematics I\n"
	res := Parse(text)
	yr := res.Students[0].Years[0]
	if yr.Specialization != "Accounting Stream" {
		t.Errorf("specialization: got %q", yr.Specialization)
	}
	// A repeated continuation row appends again; the export's duplication is
	// kept visible rather than silently merged.
	want := "BCOM - Accounting Stream - Accounting Stream"
	if yr.Programme != want {
		t.Errorf("programme: got %q, want %q", yr.Programme, want)
	}
	if len(yr.Courses) != 1 {
		t.Errorf("course after specialization rows missing: %+v", yr.Courses)
	}
}

func TestParseSummaryRow(t *testing.T) {
	text := "SMITH,JOHN,AB12CD34,1234567,BCOM\n" +
		"2021,1,BCOM,BCOM,First\n" +
		",MATH1000,75,P,1,1,Mathematics I\n" +
		"Course Counts,Passed:,22,For which units earned:,144,Senior Passed:,12,Junior Passed:,10,Latest Term: Attempted,4,Passed:,3\n" +
		",ORPHAN01,50,P,1,1,Dropped after summary\n"
	res := Parse(text)
	st := res.Students[0]
	if st.Summary == nil {
		t.Fatal("summary not attached")
	}
	sum := *st.Summary
	if sum.TotalPassed != "22" {
		t.Errorf("total passed: got %q", sum.TotalPassed)
	}
	if sum.UnitsEarned != "144" {
		t.Errorf("units earned: got %q", sum.UnitsEarned)
	}
	if sum.SeniorPassed != "12" || sum.JuniorPassed != "10" {
		t.Errorf("senior/junior: got %q/%q", sum.SeniorPassed, sum.JuniorPassed)
	}
	if sum.LatestTermAttempted != "4" {
		t.Errorf("latest term attempted: got %q", sum.LatestTermAttempted)
	}
	// The "Passed" right after "Latest Term: Attempted" is the latest-term
	// figure, not the total.
	if sum.LatestTermPassed != "3" {
		t.Errorf("latest term passed: got %q", sum.LatestTermPassed)
	}

	// The summary row closes the year; course rows before the next year
	// header have nowhere to go.
	if len(st.Years[0].Courses) != 1 {
		t.Errorf("course after summary should be dropped: %+v", st.Years[0].Courses)
	}
}

func TestParseQuotedFields(t *testing.T) {
	text := "SMITH,JOHN,AB12CD34,1234567,BCOM\n" +
		"2021,1,BCOM,BCOM,First\n" +
		",MATH1000,75,P,1,1,\"Mathematics, Calculus and Algebra\"\n"
	res := Parse(text)
	c := res.Students[0].Years[0].Courses[0]
	if c.Title != "Mathematics, Calculus and Algebra" {
		t.Errorf("quoted title split: got %q", c.Title)
	}
}

func TestParseDebugTrace(t *testing.T) {
	res := Parse(sampleTranscript)
	if len(res.DebugLines) == 0 {
		t.Fatal("no debug trace recorded")
	}
	results := map[string]bool{}
	for _, dl := range res.DebugLines {
		results[dl.Result] = true
	}
	for _, want := range []string{"student", "year", "course", "skipped"} {
		if !results[want] {
			t.Errorf("debug trace missing %q entries: %+v", want, res.DebugLines)
		}
	}
}

func TestParseCachedSharesResult(t *testing.T) {
	text := strings.Repeat(sampleTranscript, 2)
	a := ParseCached(text)
	b := ParseCached(text)
	if a != b {
		t.Error("ParseCached returned different results for identical content")
	}
	if c := ParseCached(sampleTranscript); c == a {
		t.Error("ParseCached conflated distinct contents")
	}
}

package writer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/insightdelivered/transcript-analyzer/internal/models"
)

func TestAnnotatorWrite(t *testing.T) {
	original := "COURSE RESULTS,,,\n" +
		"SMITH,JOHN,AB12CD34,1234567,BCOM,,MAJ,,1,2,,,,,,,,,\n" +
		"2021,1,BCOM,BCOM,First,,MAJ\n" +
		",MATH1000,75,P,1,1,Mathematics I\n"

	a := &Annotator{Annotations: map[string]models.Annotation{
		"AB12CD34": {Code: "CONT", Comment: "on track"},
	}}

	var buf bytes.Buffer
	if err := a.Write(&buf, original); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4: %q", len(lines), buf.String())
	}

	header := strings.Split(lines[1], ",")
	if len(header) < 18 {
		t.Fatalf("student row not padded: %d fields", len(header))
	}
	if header[16] != "CONT" || header[17] != "on track" {
		t.Errorf("annotation columns: got %q / %q", header[16], header[17])
	}

	// Non-student rows pass through with their shape intact.
	if lines[0] != "COURSE RESULTS,,," {
		t.Errorf("section header altered: %q", lines[0])
	}
	if lines[3] != ",MATH1000,75,P,1,1,Mathematics I" {
		t.Errorf("course row altered: %q", lines[3])
	}
}

func TestAnnotatorShortStudentRowIsPadded(t *testing.T) {
	original := "SMITH,JOHN,AB12CD34,1234567,BCOM\n"

	a := &Annotator{Annotations: map[string]models.Annotation{
		"AB12CD34": {Code: "QUAL", Comment: "ready to graduate"},
	}}

	var buf bytes.Buffer
	if err := a.Write(&buf, original); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fields := strings.Split(strings.TrimRight(buf.String(), "\n"), ",")
	if len(fields) != 18 {
		t.Fatalf("got %d fields, want 18", len(fields))
	}
	if fields[16] != "QUAL" || fields[17] != "ready to graduate" {
		t.Errorf("annotation columns: got %q / %q", fields[16], fields[17])
	}
}

func TestAnnotatorLeavesUnmappedStudents(t *testing.T) {
	original := "SMITH,JOHN,AB12CD34,1234567,BCOM\n"

	a := &Annotator{Annotations: map[string]models.Annotation{
		"OTHER123": {Code: "SUPP"},
	}}

	var buf bytes.Buffer
	if err := a.Write(&buf, original); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimRight(buf.String(), "\n"); got != original[:len(original)-1] {
		t.Errorf("unmapped student row altered: %q", got)
	}
}

func TestAnnotatorYearRowNotTreatedAsStudent(t *testing.T) {
	// A year header has an empty field 2 shape mismatch and must pass through
	// even when an annotation exists.
	original := "2021,1,,1234567,First\n"

	a := &Annotator{Annotations: map[string]models.Annotation{
		"1234567": {Code: "CONT"},
	}}

	var buf bytes.Buffer
	if err := a.Write(&buf, original); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimRight(buf.String(), "\n"); got != "2021,1,,1234567,First" {
		t.Errorf("year row altered: %q", got)
	}
}

func TestAnnotatedFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"export.csv", "export_annotated.csv"},
		{"results/2024 export.csv", "results/2024 export_annotated.csv"},
		{"noext", "noext_annotated"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := AnnotatedFilename(tt.input); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

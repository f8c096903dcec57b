// Package writer merges advisor annotations back into the original transcript
// export: rows matching the student-header shape get the annotation code and
// comment written into the fixed trailing columns, everything else passes
// through unchanged apart from standard CSV re-quoting.
package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/transcript-analyzer/internal/models"
)

// Annotation columns within a student header row.
const (
	codeColumn    = 16
	commentColumn = 17
)

// Annotator rewrites a raw transcript with annotations inserted.
type Annotator struct {
	// Annotations maps campus ID to the annotation for that student.
	Annotations map[string]models.Annotation
}

// WriteToFile writes the annotated copy of originalText to path.
func (a *Annotator) WriteToFile(path, originalText string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return a.Write(f, originalText)
}

// Write streams the annotated copy of originalText to out. Rows whose shape
// matches a student header (identifier in field 2, digits in field 3) are
// padded to the annotation columns and overwritten; all other rows are
// written back as-is.
func (a *Annotator) Write(out io.Writer, originalText string) error {
	reader := csv.NewReader(strings.NewReader(originalText))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	w := csv.NewWriter(out)
	defer w.Flush()

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		if isStudentHeaderShape(row) {
			campusID := strings.TrimSpace(row[2])
			if ann, ok := a.Annotations[campusID]; ok {
				for len(row) <= commentColumn {
					row = append(row, "")
				}
				row[codeColumn] = ann.Code
				row[commentColumn] = ann.Comment
			}
		}

		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return w.Error()
}

// isStudentHeaderShape is the loose shape check used for rewriting: a
// non-empty identifier-like field at position 2 and an all-digit field at
// position 3.
func isStudentHeaderShape(row []string) bool {
	if len(row) < 4 {
		return false
	}
	if strings.TrimSpace(row[2]) == "" {
		return false
	}
	emplid := strings.TrimSpace(row[3])
	if emplid == "" {
		return false
	}
	for _, r := range emplid {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// AnnotatedFilename derives the download name for an annotated copy:
// the original base name plus "_annotated" before the extension.
func AnnotatedFilename(original string) string {
	ext := filepath.Ext(original)
	return strings.TrimSuffix(original, ext) + "_annotated" + ext
}

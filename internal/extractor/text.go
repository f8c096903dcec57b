// Package extractor is the input decode boundary: it turns a transcript
// export on disk into the text the parser consumes. Exports are normally CSV,
// but some arrive printed to PDF; both end up as best-effort UTF-8 text.
package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadTranscript reads a transcript export and returns its text. PDF files
// go through text extraction; everything else is treated as CSV text with
// invalid UTF-8 dropped rather than failing the run.
func ReadTranscript(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		pages, err := ExtractPDFText(path)
		if err != nil {
			return "", err
		}
		return strings.Join(pages, "\n"), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read transcript %q: %w", path, err)
	}
	return DecodeText(data), nil
}

// DecodeText converts raw export bytes to text: the UTF-8 BOM is stripped and
// undecodable bytes are dropped, mirroring the registry's own lossy exports.
func DecodeText(data []byte) string {
	s := strings.TrimPrefix(string(data), "\uFEFF")
	return strings.ToValidUTF8(s, "")
}

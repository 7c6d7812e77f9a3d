// internal/jobboard/resumes.go
package jobboard

import (
	"fmt"
	"os"
	"path/filepath"
)

const samplePDF = "%PDF-1.4\n1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj\n" +
	"2 0 obj << /Type /Pages /Kids [] /Count 0 >> endobj\ntrailer << /Root 1 0 R >>\n%%EOF\n"

// WriteSampleResumes creates a small resume named valid and one named
// oversized that exceeds the 2 MB upload limit inside dir.
func WriteSampleResumes(dir, valid, oversized string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create resume dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, valid), []byte(samplePDF), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", valid, err)
	}

	f, err := os.Create(filepath.Join(dir, oversized))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", oversized, err)
	}
	defer f.Close()
	if _, err := f.WriteString(samplePDF); err != nil {
		return err
	}
	// Sparse padding past the limit.
	return f.Truncate(2*1024*1024 + 256*1024)
}

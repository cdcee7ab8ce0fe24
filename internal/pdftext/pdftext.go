// Package pdftext extracts layout-preserving text from PDF files by
// invoking the poppler pdftotext tool.
package pdftext

import (
	"fmt"
	"os"
	"os/exec"
)

// Extract runs pdftotext -q -layout on inputPath and returns the
// extracted text. binPath is the pdftotext binary (configurable so
// non-standard installs work).
func Extract(binPath, inputPath string) (string, error) {
	tmp, err := os.CreateTemp("", "bankimport-pdf-*.txt")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	cmd := exec.Command(binPath, "-q", "-layout", inputPath, tmpPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("pdftotext %s: %s: %w", inputPath, out, err)
	}

	content, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", fmt.Errorf("reading extracted text: %w", err)
	}
	return string(content), nil
}

// Available reports whether the pdftotext binary can be found.
func Available(binPath string) bool {
	_, err := exec.LookPath(binPath)
	return err == nil
}

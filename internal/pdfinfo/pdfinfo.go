// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfinfo reads structural facts from a PDF without extracting text.
package pdfinfo

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PageCount returns the number of pages in the PDF's page tree.
func PageCount(path string) (n int, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("reading page tree of %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	return r.NumPage(), nil
}

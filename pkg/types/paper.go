// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ParseStatus indicates the outcome of parsing one PDF.
type ParseStatus string

const (
	ParseDone   ParseStatus = "parsed"
	ParseFailed ParseStatus = "failed"
)

// Paper holds acquisition metadata for a PDF. Records of this shape live as
// <stem>.yaml files in a metadata directory and are optional inputs to a
// parse run.
type Paper struct {
	// ID is a slug derived from the paper identifier (e.g. "2301.07041").
	ID string `json:"id" yaml:"id"`

	// SourceURL is the URL from which the paper was downloaded.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// Forum is the discussion forum identifier (OpenReview), if any.
	Forum string `json:"forum,omitempty" yaml:"forum,omitempty"`

	// PDFPath is the local filesystem path to the PDF.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	Title   string    `json:"title" yaml:"title"`
	Authors []string  `json:"authors" yaml:"authors"`
	Date    time.Time `json:"date" yaml:"date"`
}

// DocumentMeta is the meta.json record written next to each TEI document.
type DocumentMeta struct {
	PaperID    string `json:"paper_id"`
	Forum      string `json:"forum"`
	Title      string `json:"title"`
	PDFURL     string `json:"pdf_url"`
	SourcePath string `json:"source_path"`

	// Pages is the PDF page count; omitted when the page tree is unreadable.
	Pages int `json:"pages,omitempty"`

	ParsedAt time.Time `json:"parsed_at"`
}

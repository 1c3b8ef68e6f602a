// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdiddy/paperparse/pkg/types"
)

var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	labelStyle = lipgloss.NewStyle().
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// boxStyle frames the end-of-run summary.
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

func printBanner(w io.Writer, cfg types.ParseConfig) {
	fmt.Fprintf(w, "%s %s\n", dimStyle.Render("Using Grobid at:"), labelStyle.Render(cfg.Grobid.URL))
	fmt.Fprintf(w, "%s %s seconds\n", dimStyle.Render("Grobid sleep between calls:"),
		strconv.FormatFloat(cfg.Grobid.Sleep.Seconds(), 'f', -1, 64))
	fmt.Fprintf(w, "%s %s\n", dimStyle.Render("Parsing PDFs from folder:"), cfg.InputDir)
	fmt.Fprintf(w, "%s %s\n", dimStyle.Render("Writing per-paper folders under:"), cfg.OutputRoot)
}

// printItem writes one progress line, e.g. "[ 3/12] parsed:  2301.07041".
func printItem(w io.Writer, idx, total int, row ManifestRow) {
	width := len(strconv.Itoa(total))
	counter := dimStyle.Render(fmt.Sprintf("[%*d/%d]", width, idx, total))

	if row.Status == types.ParseFailed {
		fmt.Fprintf(w, "%s %s  %s (%s)\n", counter, errorStyle.Render("failed:"), row.PaperID, row.Error)
		return
	}
	fmt.Fprintf(w, "%s %s  %s\n", counter, successStyle.Render("parsed:"), row.PaperID)
}

func printSummary(w io.Writer, total int, r BatchResult) {
	errCount := strconv.Itoa(r.Failed)
	if r.HasFailures() {
		errCount = errorStyle.Render(errCount)
	}

	content := fmt.Sprintf("Done parsing local PDFs. Total PDFs: %d\nParsed: %s\nParse errors: %s",
		total, successStyle.Render(strconv.Itoa(r.Parsed)), errCount)
	if r.ErrorLogPath != "" {
		content += "\nError details written to: " + r.ErrorLogPath
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, boxStyle.Render(content))
}

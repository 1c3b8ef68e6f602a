// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse drives batch PDF-to-TEI parsing against a document parsing
// service. Each <name>.pdf in the input directory becomes a folder
// <output_root>/<name>/ holding <name>.tei.xml and meta.json.
package parse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/paperparse/internal/grobid"
	"github.com/pdiddy/paperparse/internal/httputil"
	"github.com/pdiddy/paperparse/internal/pdfinfo"
	"github.com/pdiddy/paperparse/pkg/types"
)

const (
	teiSuffix    = ".tei.xml"
	metaFile     = "meta.json"
	errorLogFile = "grobid_errors_local.json"
	manifestFile = "manifest.csv"
)

// Parser transforms a PDF into TEI XML. grobid.Client implements it.
type Parser interface {
	ProcessFulltext(ctx context.Context, pdfPath string) (string, error)
}

// ParseError records one failed PDF: its 1-based position in the run, its
// folder name, and the error text. It encodes as a JSON array
// [index, name, message].
type ParseError struct {
	Index   int
	Name    string
	Message string
}

func (e ParseError) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Index, e.Name, e.Message})
}

func (e *ParseError) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("parse error entry has %d fields, want 3", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.Index); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &e.Name); err != nil {
		return err
	}
	return json.Unmarshal(raw[2], &e.Message)
}

// ErrorLog is the document written to grobid_errors_local.json.
type ErrorLog struct {
	RunID       string       `json:"run_id"`
	ParseErrors []ParseError `json:"parse_errors"`
}

// BatchResult holds the outcome of a batch parse run.
type BatchResult struct {
	RunID  string
	Parsed int
	Failed int
	Errors []ParseError

	// ErrorLogPath is set when an error log was written.
	ErrorLogPath string
}

// Total returns the number of PDFs processed.
func (r BatchResult) Total() int {
	return r.Parsed + r.Failed
}

// HasFailures reports whether any PDF failed to parse.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Discover returns the *.pdf files directly inside inputDir, sorted by name.
// Hidden files are ignored; hidden PDFs are logged at debug level. A missing
// directory is an error.
func Discover(inputDir string, log *slog.Logger) ([]string, error) {
	log = orDiscard(log)
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no input folder found at %s: %w", inputDir, err)
		}
		return nil, fmt.Errorf("reading input folder %s: %w", inputDir, err)
	}

	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".pdf") {
			continue
		}
		if strings.HasPrefix(name, ".") {
			log.Debug("skipping hidden PDF", slog.String("path", filepath.Join(inputDir, name)))
			continue
		}
		paths = append(paths, filepath.Join(inputDir, name))
	}
	return paths, nil
}

// Stem returns the file name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseDocument runs p on a single PDF and writes the TEI output,
// overwriting any previous result. After a successful call it sleeps for
// cfg.Grobid.Sleep to throttle the service. meta.json is written only when
// it does not exist yet. It returns the path of the TEI file.
func ParseDocument(ctx context.Context, p Parser, pdfPath string, cfg types.ParseConfig, log *slog.Logger) (string, error) {
	log = orDiscard(log)
	name := Stem(pdfPath)
	docDir := filepath.Join(cfg.OutputRoot, name)
	teiPath := filepath.Join(docDir, name+teiSuffix)
	metaPath := filepath.Join(docDir, metaFile)

	if err := os.MkdirAll(docDir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", docDir, err)
	}

	tei, err := p.ProcessFulltext(ctx, pdfPath)
	if err != nil {
		return "", err
	}

	if err := writeFileAtomic(teiPath, []byte(tei)); err != nil {
		return "", fmt.Errorf("writing %s: %w", teiPath, err)
	}

	if err := httputil.Sleep(ctx, cfg.Grobid.Sleep); err != nil {
		return teiPath, err
	}

	if _, err := os.Stat(metaPath); err == nil {
		return teiPath, nil
	}

	sidecar, err := readSidecar(cfg.MetadataDir, name)
	if err != nil {
		log.WarnContext(ctx, "ignoring unreadable metadata record",
			slog.String("paper_id", name), slog.String("err", err.Error()))
	}

	meta := buildMeta(name, pdfPath, tei, sidecar)
	if pages, err := pdfinfo.PageCount(pdfPath); err == nil {
		meta.Pages = pages
	} else {
		log.DebugContext(ctx, "page count unavailable",
			slog.String("paper_id", name), slog.String("err", err.Error()))
	}

	if err := writeMeta(metaPath, meta); err != nil {
		return teiPath, fmt.Errorf("writing %s: %w", metaPath, err)
	}
	return teiPath, nil
}

// ParseBatch parses every PDF in cfg.InputDir, printing per-file status to w
// and returning a summary. It continues after individual failures. When any
// PDF failed, the failures are written to grobid_errors_local.json under the
// output root. Context cancellation stops the run between documents.
func ParseBatch(ctx context.Context, p Parser, cfg types.ParseConfig, w io.Writer, log *slog.Logger) (BatchResult, error) {
	log = orDiscard(log)
	result := BatchResult{RunID: uuid.NewString()}

	pdfPaths, err := Discover(cfg.InputDir, log)
	if err != nil {
		return result, err
	}
	discovered := len(pdfPaths)
	if cfg.OnlyFailed {
		pdfPaths, err = previouslyFailed(filepath.Join(cfg.OutputRoot, errorLogFile), pdfPaths)
		if err != nil {
			return result, err
		}
	}

	if err := os.MkdirAll(cfg.OutputRoot, 0o755); err != nil {
		return result, fmt.Errorf("creating output root %s: %w", cfg.OutputRoot, err)
	}
	if len(pdfPaths) == 0 {
		if cfg.OnlyFailed && discovered > 0 {
			fmt.Fprintf(w, "No previously failed PDFs to reparse in %s\n", cfg.InputDir)
			return result, nil
		}
		fmt.Fprintf(w, "No PDFs found in %s\n", cfg.InputDir)
		return result, nil
	}

	printBanner(w, cfg)
	log.InfoContext(ctx, "parse run started",
		slog.String("run_id", result.RunID),
		slog.Int("pdfs", len(pdfPaths)),
	)

	rows := make([]ManifestRow, 0, len(pdfPaths))
	var runErr error
	for i, pdfPath := range pdfPaths {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		idx := i + 1
		name := Stem(pdfPath)
		start := time.Now()

		teiPath, err := ParseDocument(ctx, p, pdfPath, cfg, log)
		if err != nil && ctx.Err() != nil {
			runErr = ctx.Err()
			break
		}

		row := ManifestRow{RunID: result.RunID, Index: idx, PaperID: name, TEIPath: teiPath}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ParseError{Index: idx, Name: name, Message: err.Error()})
			row.Status = types.ParseFailed
			row.Error = err.Error()
			log.ErrorContext(ctx, "parse failed",
				slog.String("paper_id", name), slog.String("err", err.Error()))
		} else {
			result.Parsed++
			row.Status = types.ParseDone
			log.DebugContext(ctx, "parsed",
				slog.String("paper_id", name), slog.Duration("elapsed", time.Since(start)))
		}
		rows = append(rows, row)
		printItem(w, idx, len(pdfPaths), row)
	}

	if err := writeManifest(filepath.Join(cfg.OutputRoot, manifestFile), rows); err != nil {
		log.WarnContext(ctx, "writing manifest", slog.String("err", err.Error()))
	}

	errPath := filepath.Join(cfg.OutputRoot, errorLogFile)
	if result.HasFailures() {
		if err := writeErrorLog(errPath, ErrorLog{RunID: result.RunID, ParseErrors: result.Errors}); err != nil {
			return result, fmt.Errorf("writing error log: %w", err)
		}
		result.ErrorLogPath = errPath
	} else if runErr == nil {
		if err := os.Remove(errPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.WarnContext(ctx, "removing stale error log", slog.String("err", err.Error()))
		}
	}

	printSummary(w, len(pdfPaths), result)
	return result, runErr
}

// ReadErrorLog loads a previously written error log.
func ReadErrorLog(path string) (ErrorLog, error) {
	var el ErrorLog
	data, err := os.ReadFile(path)
	if err != nil {
		return el, err
	}
	err = json.Unmarshal(data, &el)
	return el, err
}

// previouslyFailed keeps the paths whose folder names appear in the error
// log at errPath. A missing log means nothing failed.
func previouslyFailed(errPath string, pdfPaths []string) ([]string, error) {
	el, err := ReadErrorLog(errPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading error log %s: %w", errPath, err)
	}

	failed := make(map[string]bool, len(el.ParseErrors))
	for _, pe := range el.ParseErrors {
		failed[pe.Name] = true
	}

	var kept []string
	for _, p := range pdfPaths {
		if failed[Stem(p)] {
			kept = append(kept, p)
		}
	}
	return kept, nil
}

func writeErrorLog(path string, el ErrorLog) error {
	data, err := marshalIndent(el)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

func orDiscard(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return log
}

// Compile-time check that the GROBID client satisfies Parser.
var _ Parser = (*grobid.Client)(nil)

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperparse/internal/grobid"
	"github.com/pdiddy/paperparse/pkg/types"
)

// buildMeta assembles the meta.json record. The title comes from the
// acquisition record when there is one, then from the TEI header, then from
// the folder name.
func buildMeta(name, pdfPath, tei string, sidecar *types.Paper) types.DocumentMeta {
	meta := types.DocumentMeta{
		PaperID:    name,
		SourcePath: pdfPath,
		ParsedAt:   time.Now().UTC().Truncate(time.Second),
	}

	if sidecar != nil {
		meta.Title = strings.TrimSpace(sidecar.Title)
		meta.PDFURL = sidecar.SourceURL
		meta.Forum = sidecar.Forum
	}
	if meta.Title == "" {
		meta.Title = grobid.TEITitle(tei)
	}
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(name)
	}
	return meta
}

// readSidecar loads <metadataDir>/<name>.yaml. It returns nil without error
// when metadataDir is empty or the record does not exist.
func readSidecar(metadataDir, name string) (*types.Paper, error) {
	if metadataDir == "" {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Join(metadataDir, name+".yaml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var paper types.Paper
	if err := yaml.Unmarshal(data, &paper); err != nil {
		return nil, fmt.Errorf("parsing metadata for %s: %w", name, err)
	}
	return &paper, nil
}

func writeMeta(path string, meta types.DocumentMeta) error {
	data, err := marshalIndent(meta)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// marshalIndent encodes v as 2-space indented JSON without HTML escaping, so
// titles keep their characters as written. There is no trailing newline.
func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".paperparse-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

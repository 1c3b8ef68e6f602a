// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"fmt"

	"github.com/jszwec/csvutil"

	"github.com/pdiddy/paperparse/pkg/types"
)

// ManifestRow is one line of manifest.csv: the outcome for a single PDF in
// a run.
type ManifestRow struct {
	RunID   string            `csv:"run_id"`
	Index   int               `csv:"index"`
	PaperID string            `csv:"paper_id"`
	Status  types.ParseStatus `csv:"status"`
	TEIPath string            `csv:"tei_path"`
	Error   string            `csv:"error"`
}

// writeManifest replaces manifest.csv with rows. An empty run writes
// nothing.
func writeManifest(path string, rows []ManifestRow) error {
	if len(rows) == 0 {
		return nil
	}
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return writeFileAtomic(path, data)
}

// ReadManifest loads the rows of a manifest.csv written by a previous run.
func ReadManifest(data []byte) ([]ManifestRow, error) {
	var rows []ManifestRow
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return rows, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperparse/internal/grobid"
	"github.com/pdiddy/paperparse/internal/parse"
)

var parseCmd = &cobra.Command{
	Use:   "parse [input-dir]",
	Short: "Parse every PDF in a folder into TEI XML",
	Long: `Parse sends each *.pdf in the input folder (default pdfs/) to GROBID's
processFulltextDocument endpoint and writes <output-root>/<name>/<name>.tei.xml.
Existing TEI files are overwritten; an existing meta.json is kept.

Network failures and HTTP error statuses are retried with linear backoff.
Per-file failures do not stop the run; they are written to
grobid_errors_local.json and make the command exit non-zero.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	f := parseCmd.Flags()
	f.String("output-root", "", "root folder for per-paper output (default pdfs_parsed)")
	f.String("metadata-dir", "", "folder of <name>.yaml acquisition records used to enrich meta.json")
	f.String("sleep", "", "pause after each GROBID call, seconds or duration (default 0.2, env GROBID_SLEEP)")
	f.Int("retries", 0, "attempts per PDF (default 3)")
	f.Duration("backoff", 0, "linear backoff unit between attempts (default 5s)")
	f.Duration("timeout", 0, "HTTP timeout per GROBID call (default 300s)")
	f.Int("consolidate-header", 1, "GROBID consolidateHeader mode")
	f.Int("consolidate-citations", 0, "GROBID consolidateCitations mode")
	f.Bool("include-raw-citations", false, "ask GROBID to keep raw citation strings")
	f.Bool("segment-sentences", false, "ask GROBID to segment paragraphs into sentences")
	f.Bool("only-failed", false, "reparse only the PDFs listed in the previous run's error log")
	f.Bool("preflight", true, "check that GROBID is alive before parsing")

	for key, name := range map[string]string{
		keyOutputRoot:           "output-root",
		keyMetadataDir:          "metadata-dir",
		keyGrobidSleep:          "sleep",
		keyGrobidRetries:        "retries",
		keyGrobidBackoff:        "backoff",
		keyGrobidTimeout:        "timeout",
		keyConsolidateHeader:    "consolidate-header",
		keyConsolidateCitations: "consolidate-citations",
		keyIncludeRawCitations:  "include-raw-citations",
		keySegmentSentences:     "segment-sentences",
	} {
		viper.BindPFlag(key, f.Lookup(name))
	}

	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadParseConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.InputDir = args[0]
	}
	cfg.OnlyFailed, _ = cmd.Flags().GetBool("only-failed")

	ctx := cmd.Context()
	client := grobid.NewClient(cfg.Grobid, nil, logger)

	if preflight, _ := cmd.Flags().GetBool("preflight"); preflight {
		alive, err := client.IsAlive(ctx)
		if err != nil {
			return fmt.Errorf("GROBID at %s is not reachable (start one with `paperparse grobid start`): %w", client.URL(), err)
		}
		if !alive {
			return fmt.Errorf("GROBID at %s reports it is not alive", client.URL())
		}
	}

	result, err := parse.ParseBatch(ctx, client, cfg, cmd.OutOrStdout(), logger)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d PDF(s) failed parsing", result.Failed)
	}
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/paperparse/internal/secrets"
	"github.com/pdiddy/paperparse/pkg/types"
)

// Config keys. Each maps to PAPERPARSE_<KEY> in the environment with dots
// replaced by underscores, e.g. PAPERPARSE_GROBID_RETRIES.
const (
	keyGrobidURL            = "grobid.url"
	keyGrobidSleep          = "grobid.sleep"
	keyGrobidRetries        = "grobid.retries"
	keyGrobidBackoff        = "grobid.backoff"
	keyGrobidTimeout        = "grobid.timeout"
	keyGrobidToken          = "grobid.token"
	keyConsolidateHeader    = "grobid.consolidate_header"
	keyConsolidateCitations = "grobid.consolidate_citations"
	keyIncludeRawCitations  = "grobid.include_raw_citations"
	keySegmentSentences     = "grobid.segment_sentences"
	keyInputDir             = "parse.input_dir"
	keyOutputRoot           = "parse.output_root"
	keyMetadataDir          = "parse.metadata_dir"
)

func init() {
	d := types.DefaultParseConfig()
	viper.SetDefault(keyGrobidURL, d.Grobid.URL)
	viper.SetDefault(keyGrobidSleep, d.Grobid.Sleep.String())
	viper.SetDefault(keyGrobidRetries, d.Grobid.Retries)
	viper.SetDefault(keyGrobidBackoff, d.Grobid.Backoff)
	viper.SetDefault(keyGrobidTimeout, d.Grobid.Timeout)
	viper.SetDefault(keyConsolidateHeader, d.Grobid.ConsolidateHeader)
	viper.SetDefault(keyConsolidateCitations, d.Grobid.ConsolidateCitations)
	viper.SetDefault(keyInputDir, d.InputDir)
	viper.SetDefault(keyOutputRoot, d.OutputRoot)
}

// bindLegacyEnv accepts the unprefixed GROBID_URL and GROBID_SLEEP
// variables alongside their PAPERPARSE_ forms.
func bindLegacyEnv() {
	viper.BindEnv(keyGrobidURL, "PAPERPARSE_GROBID_URL", "GROBID_URL")
	viper.BindEnv(keyGrobidSleep, "PAPERPARSE_GROBID_SLEEP", "GROBID_SLEEP")
}

// loadParseConfig resolves a ParseConfig from flags, environment, config
// file, and defaults, in viper's precedence order.
func loadParseConfig(v *viper.Viper, s secrets.Secrets) (types.ParseConfig, error) {
	cfg := types.DefaultParseConfig()

	sleep, err := durationOrSeconds(v.GetString(keyGrobidSleep))
	if err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", keyGrobidSleep, err)
	}
	if sleep < 0 {
		return cfg, fmt.Errorf("invalid %s: must not be negative", keyGrobidSleep)
	}

	retries := v.GetInt(keyGrobidRetries)
	if retries < 1 {
		return cfg, fmt.Errorf("invalid %s: need at least 1 attempt, got %d", keyGrobidRetries, retries)
	}

	cfg.Grobid.URL = v.GetString(keyGrobidURL)
	cfg.Grobid.Sleep = sleep
	cfg.Grobid.Retries = retries
	cfg.Grobid.Backoff = v.GetDuration(keyGrobidBackoff)
	cfg.Grobid.Timeout = v.GetDuration(keyGrobidTimeout)
	cfg.Grobid.ConsolidateHeader = v.GetInt(keyConsolidateHeader)
	cfg.Grobid.ConsolidateCitations = v.GetInt(keyConsolidateCitations)
	cfg.Grobid.IncludeRawCitations = v.GetBool(keyIncludeRawCitations)
	cfg.Grobid.SegmentSentences = v.GetBool(keySegmentSentences)

	cfg.Grobid.Token = v.GetString(keyGrobidToken)
	if cfg.Grobid.Token == "" {
		cfg.Grobid.Token = s.Get(secrets.GrobidToken)
	}

	cfg.InputDir = v.GetString(keyInputDir)
	cfg.OutputRoot = v.GetString(keyOutputRoot)
	cfg.MetadataDir = v.GetString(keyMetadataDir)
	return cfg, nil
}

// durationOrSeconds parses either a bare number of seconds ("0.2", the
// GROBID_SLEEP convention) or a Go duration ("200ms").
func durationOrSeconds(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paperparse/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// GrobidConfig holds settings for talking to a GROBID server.
type GrobidConfig struct {
	HTTPConfig `yaml:",inline"`

	// URL is the GROBID base URL (default http://localhost:8070).
	URL string `json:"url" yaml:"url"`

	// Retries is the total number of attempts per document (default 3).
	Retries int `json:"retries" yaml:"retries"`

	// Backoff is the linear backoff unit: attempt n waits Backoff*n before
	// attempt n+1 (default 5s).
	Backoff time.Duration `json:"backoff" yaml:"backoff"`

	// Sleep throttles consecutive GROBID calls (default 200ms). Zero disables it.
	Sleep time.Duration `json:"sleep" yaml:"sleep"`

	ConsolidateHeader    int `json:"consolidate_header" yaml:"consolidate_header"`
	ConsolidateCitations int `json:"consolidate_citations" yaml:"consolidate_citations"`

	// IncludeRawCitations and SegmentSentences map to the GROBID form flags
	// of the same name. They are only sent when true.
	IncludeRawCitations bool `json:"include_raw_citations" yaml:"include_raw_citations"`
	SegmentSentences    bool `json:"segment_sentences" yaml:"segment_sentences"`

	// Token is an optional bearer token for a GROBID behind an
	// authenticating proxy. Loaded from .secrets/grobid-token.
	Token string `json:"-" yaml:"-"`
}

// ParseConfig holds settings for the batch parse run.
type ParseConfig struct {
	Grobid GrobidConfig `json:"grobid" yaml:"grobid"`

	// InputDir is the directory scanned for *.pdf files (default "pdfs").
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// OutputRoot receives one folder per PDF (default "pdfs_parsed").
	OutputRoot string `json:"output_root" yaml:"output_root"`

	// MetadataDir optionally holds <stem>.yaml acquisition records used to
	// enrich meta.json. Empty disables the lookup.
	MetadataDir string `json:"metadata_dir,omitempty" yaml:"metadata_dir,omitempty"`

	// OnlyFailed restricts the run to PDFs listed in the previous run's
	// error log.
	OnlyFailed bool `json:"-" yaml:"-"`
}

// Default values for a parse run.
const (
	DefaultGrobidURL  = "http://localhost:8070"
	DefaultRetries    = 3
	DefaultBackoff    = 5 * time.Second
	DefaultSleep      = 200 * time.Millisecond
	DefaultTimeout    = 300 * time.Second
	DefaultInputDir   = "pdfs"
	DefaultOutputRoot = "pdfs_parsed"
)

// DefaultParseConfig returns a ParseConfig populated with the defaults.
func DefaultParseConfig() ParseConfig {
	return ParseConfig{
		Grobid: GrobidConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   DefaultTimeout,
				UserAgent: "paperparse/0.1",
			},
			URL:               DefaultGrobidURL,
			Retries:           DefaultRetries,
			Backoff:           DefaultBackoff,
			Sleep:             DefaultSleep,
			ConsolidateHeader: 1,
		},
		InputDir:   DefaultInputDir,
		OutputRoot: DefaultOutputRoot,
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grobid

import (
	"encoding/xml"
	"strings"
)

// TEI header structures. Only the title statement is decoded.
type teiDocument struct {
	Header teiHeader `xml:"teiHeader"`
}

type teiHeader struct {
	Titles []teiTitle `xml:"fileDesc>titleStmt>title"`
}

type teiTitle struct {
	Level string `xml:"level,attr"`
	Type  string `xml:"type,attr"`
	Text  string `xml:",chardata"`
}

// TEITitle returns the main title from a TEI document's header, or "" when
// the document has none or cannot be decoded. A title marked type="main" is
// preferred over the first non-empty one.
func TEITitle(tei string) string {
	var doc teiDocument
	if err := xml.Unmarshal([]byte(tei), &doc); err != nil {
		return ""
	}

	var first string
	for _, t := range doc.Header.Titles {
		text := strings.Join(strings.Fields(t.Text), " ")
		if text == "" {
			continue
		}
		if t.Type == "main" {
			return text
		}
		if first == "" {
			first = text
		}
	}
	return first
}

package pipeline

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// ParseDocument pulls the JSON payload out of a rendered-HTML response.
// The proxy returns markup whose body text is the page's JSON document;
// everything around that text is noise.
func ParseDocument(raw []byte) (any, error) {
	if len(raw) == 0 || !utf8.Valid(raw) {
		return nil, &ParseError{Kind: ParseMalformed}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, &ParseError{Kind: ParseMalformed, Err: err}
	}

	text := strings.TrimSpace(doc.Find("body").Text())
	if text == "" {
		return nil, &ParseError{Kind: ParseMalformed}
	}

	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, &ParseError{Kind: ParseNotJSON, Err: err}
	}

	PipelineStats.Parsed.Add(1)
	return value, nil
}

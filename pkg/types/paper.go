// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Paper holds the metadata collected for one OpenAlex work. It is
// immutable once built by the collector.
type Paper struct {
	// Title is the work title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the abstract reconstructed from the inverted index.
	Abstract string `json:"abstract" yaml:"abstract"`

	// URL is the OpenAlex identifier URL of the work.
	URL string `json:"url" yaml:"url"`

	// PublicationYear is zero when the source omits it.
	PublicationYear int `json:"publication_year" yaml:"publication_year"`

	// Authors lists author display names in authorship order, capped.
	Authors []string `json:"authors" yaml:"authors"`

	// Institutions lists distinct institution names in first-seen order, capped.
	Institutions []string `json:"institutions" yaml:"institutions"`
}

// Document is one vector-store entry: page content that is embedded plus
// flat string/int metadata returned with search hits.
type Document struct {
	ID       string         `json:"id,omitempty" yaml:"id,omitempty"`
	Content  string         `json:"content" yaml:"content"`
	Metadata map[string]any `json:"metadata" yaml:"metadata"`
}

// MetaString returns metadata[key] as a string, or fallback when absent.
func (d Document) MetaString(key, fallback string) string {
	v, ok := d.Metadata[key]
	if !ok || v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}

// MetaInt returns metadata[key] as an int. Missing or non-numeric values
// yield zero. JSON-decoded numbers arrive as float64.
func (d Document) MetaInt(key string) int {
	switch v := d.Metadata[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Package news defines core types shared across subsystems.
package news

// Stub is a candidate article discovered on the listing page. Title and
// DateText carry whatever the extraction heuristics recovered; both may be
// raw markup text that still needs normalization.
type Stub struct {
	Title    string
	DateText string
	URL      string
}

// Article is the normalized record produced by one ingestion run.
type Article struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Metadata returns the fields stored alongside the article's vector.
// Content is deliberately excluded; the index holds pointers, not bodies.
func (a Article) Metadata() map[string]string {
	return map[string]string{
		"title": a.Title,
		"date":  a.Date,
		"url":   a.URL,
	}
}

// EmbeddingText is the text embedded for the article. When detail
// extraction failed, the title alone keeps the article searchable.
func (a Article) EmbeddingText() string {
	if a.Content == "" {
		return a.Title
	}
	return a.Title + "\n\n" + a.Content
}

// Match is a raw nearest-neighbor hit returned by an Index.
type Match struct {
	ID       string
	Score    float32
	Metadata map[string]string
}

// SearchResult is one ranked entry returned by the query service.
type SearchResult struct {
	Title string  `json:"title"`
	Date  string  `json:"date"`
	URL   string  `json:"url"`
	Score float32 `json:"score"`
}

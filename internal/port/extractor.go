package port

// Extractor pulls the text layer out of a document byte stream.
type Extractor interface {
	// Extract returns the concatenation of every page's text, each page's
	// text followed by a newline, in page order. A failure returns no
	// partial text.
	Extract(data []byte, filename string) (string, error)
}

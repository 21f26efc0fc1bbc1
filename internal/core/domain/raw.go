package domain

// RawDocument is one file read from a corpus source, before normalisation.
type RawDocument struct {
	// URI is the location relative to the source root.
	URI string

	// MIMEType is the detected content type (e.g., "text/markdown").
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

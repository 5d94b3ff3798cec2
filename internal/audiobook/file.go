package audiobook

// AESEncryption describes AES-CBC whole-file encryption applied to a remote
// segment. Key and IV are provided verbatim by the source or derived from an
// HLS playlist; no key derivation happens anywhere in this codebase.
type AESEncryption struct {
	Key []byte
	IV  []byte
}

// File is one remote segment or part of a book's audio. Instances are
// created by a source (or by HLS playlist expansion) and are not modified
// after construction.
type File struct {
	// URL of the remote audio data.
	URL string
	// Ext is the output file extension, without the leading dot.
	Ext string
	// Title of this part, when the source names parts individually.
	Title string
	// Headers attached to the download request, for authenticated CDNs.
	Headers map[string]string
	// Encryption, when set, is applied in reverse after the full file has
	// been written to disk.
	Encryption *AESEncryption
	// ExpectedContentType, when non-empty, is validated against the
	// response before any bytes are written.
	ExpectedContentType string
	// ExpectedStatusCode, when non-zero, overrides the default 200 check.
	ExpectedStatusCode int
}

// Cover holds raw cover image bytes plus the file type tag ("jpg", "png").
type Cover struct {
	Image     []byte
	Extension string
}

// Chapter marks the start of a chapter in milliseconds from the beginning of
// the finished audio. Ends are derived later by pairing each start with the
// next chapter's start; the last chapter ends at the decoded duration of the
// final file, which is only known after download.
type Chapter struct {
	Start int64
	Title string
}

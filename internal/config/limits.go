package config

const (
	// MaxProjectNameLength is the maximum length for project names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxProjectNameLength = 255

	// MaxDocumentNameLength is the maximum length for source document
	// names. Same bound as project names.
	MaxDocumentNameLength = 255

	// MaxSectionTitleLength is the maximum length for section titles.
	MaxSectionTitleLength = 255

	// MaxCommentLength bounds review comment bodies. Comments are short
	// feedback notes, not documents.
	MaxCommentLength = 4000

	// MaxDocumentContentLength bounds the parsed text of one uploaded
	// source document. Roughly 2 MB of extracted text; anything larger
	// is almost certainly a failed extraction.
	MaxDocumentContentLength = 2 << 20

	// MinDocumentContentLength is the minimum parsed text length for a
	// source document to count as usable input for generation.
	MinDocumentContentLength = 20
)

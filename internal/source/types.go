package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// Revision counts content replacements of a file. Derived artifacts
	// (tokens, trees, lowered programs) are keyed by (FileID, Revision).
	Revision uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin).
	FileVirtual FileFlags = 1 << iota
	// FileHadBOM indicates a UTF-8 BOM was stripped on load.
	FileHadBOM
)

// File captures metadata and content for a single source file.
//
// Content is stored verbatim (minus a leading BOM): the syntax tree must
// reconstruct it byte for byte, so no line-ending normalization happens here.
type File struct {
	ID       FileID
	Path     string
	Content  []byte
	LineIdx  []uint32
	Revision Revision
	Flags    FileFlags
}

// LineCol is a human-readable position: 1-based line, 0-based column.
type LineCol struct {
	Line uint32
	Col  uint32
}

package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// Revision counts content updates of a file. It starts at 1 and is
	// bumped by FileSet.Update; derived structures are keyed on (FileID, Revision).
	Revision uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File captures metadata and content for a single revision of a source file.
// A File value is immutable once published; FileSet.Update replaces the
// published value instead of mutating it, so readers holding an older *File
// keep a consistent snapshot.
type File struct {
	ID       FileID
	Revision Revision
	Path     string
	Content  []byte
	LineIdx  []uint32
	Hash     [32]byte
	Flags    FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}

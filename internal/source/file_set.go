package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"sync"

	"fortio.org/safecast"
)

// FileSet manages a collection of source files. A FileID is stable per path;
// content updates bump the file's Revision and replace the published *File
// snapshot. All methods are safe for concurrent use.
type FileSet struct {
	mu    sync.RWMutex
	files []*File
	index map[string]FileID // normalized path -> id
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]*File, 0),
		index: make(map[string]FileID),
	}
}

// Add stores a file from normalized bytes and returns its FileID. If the path
// is already known the file is updated in place (new revision, same ID).
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	normalized := normalizePath(path)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if id, ok := fs.index[normalized]; ok {
		prev := fs.files[id]
		fs.files[id] = newFile(id, prev.Revision+1, normalized, content, flags)
		return id
	}

	value, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("file set overflow: %w", err))
	}
	id := FileID(value)
	fs.files = append(fs.files, newFile(id, 1, normalized, content, flags))
	fs.index[normalized] = id
	return id
}

func newFile(id FileID, rev Revision, path string, content []byte, flags FileFlags) *File {
	return &File{
		ID:       id,
		Revision: rev,
		Path:     path,
		Content:  content,
		LineIdx:  buildLineIndex(content),
		Hash:     sha256.Sum256(content),
		Flags:    flags,
	}
}

// Load reads a file from disk, normalizes CRLF/BOM, and calls Add.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fs.Add(path, content, flags), nil
}

// AddVirtual adds an in-memory file (stdin, test, or generated input).
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	return fs.Add(name, content, FileVirtual)
}

// Update replaces the content of an existing file and returns the new
// revision's snapshot. The previous *File stays valid for readers holding it.
func (fs *FileSet) Update(id FileID, content []byte) *File {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	prev := fs.files[id]
	next := newFile(id, prev.Revision+1, prev.Path, content, prev.Flags)
	fs.files[id] = next
	return next
}

// Get returns the current snapshot for the given ID.
func (fs *FileSet) Get(id FileID) *File {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if int(id) >= len(fs.files) {
		return nil
	}
	return fs.files[id]
}

// GetByPath returns the current snapshot for a path, if it was loaded.
func (fs *FileSet) GetByPath(path string) (*File, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if id, ok := fs.index[normalizePath(path)]; ok {
		return fs.files[id], true
	}
	return nil, false
}

// Len reports the number of distinct files.
func (fs *FileSet) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.files)
}

// Resolve converts a span into line and column positions using the file's
// current snapshot.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}
	}
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// GetLine returns the 1-based line from the file, or "" when out of range.
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}

	var start, end, lenLineIdx, lenContent uint32
	var err error
	lenLineIdx, err = safecast.Conv[uint32](len(f.LineIdx))
	if err != nil {
		panic(fmt.Errorf("line index length overflow: %w", err))
	}
	lenContent, err = safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}

	switch {
	case lineNum == 1:
		start = 0
	case (lineNum - 2) < lenLineIdx:
		start = f.LineIdx[lineNum-2] + 1
	default:
		return ""
	}

	if (lineNum - 1) < lenLineIdx {
		end = f.LineIdx[lineNum-1]
	} else {
		end = lenContent
	}

	if start >= lenContent {
		return ""
	}
	if end > lenContent {
		end = lenContent
	}

	return string(f.Content[start:end])
}

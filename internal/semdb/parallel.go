package semdb

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"pysema/internal/diag"
	"pysema/internal/source"
)

// FileResult is the outcome of indexing one file of a directory walk.
type FileResult struct {
	Path   string
	FileID source.FileID
	Entry  *Entry     // nil when the file failed to load
	Bag    *diag.Bag  // always set; holds the I/O error when Entry is nil
}

// ListSourceFiles returns the sorted relative walk of files under dir with
// one of the given extensions (".py" and ".pyi" when empty).
func ListSourceFiles(dir string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = []string{".py", ".pyi"}
	}
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, ext := range exts {
			if strings.HasSuffix(path, ext) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// IndexDir loads and indexes every matching file under dir in parallel.
// Each result lands at its own slice index, so the workers never contend.
func (db *DB) IndexDir(ctx context.Context, dir string, jobs int, exts []string) ([]FileResult, error) {
	files, err := ListSourceFiles(dir, exts)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	fileIDs := make(map[string]source.FileID, len(files))
	loadErrors := make(map[string]error)
	for _, path := range files {
		id, err := db.files.Load(path)
		if err != nil {
			loadErrors[path] = err
			continue
		}
		fileIDs[path] = id
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			if loadErr, failed := loadErrors[path]; failed {
				bag := diag.NewBag(db.maxDiag)
				bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{},
					"failed to load file: "+loadErr.Error()))
				results[i] = FileResult{Path: path, Bag: bag}
				return nil
			}

			id := fileIDs[path]
			entry, err := db.Index(gctx, id)
			if err != nil {
				return err
			}
			results[i] = FileResult{Path: path, FileID: id, Entry: entry, Bag: entry.Bag}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

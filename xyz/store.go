package xyz

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/eak1mov/go-flightmap/tile"
)

const tempMarker = ".tmp"

// Store implements tile.Reader, tile.Writer, tile.Visitor and tile.IDVisitor
// for tiles in XYZ directory format.
//
// Writes are atomic: a reader sees either no file or the complete tile, even
// if the process dies mid-write. Store does not coordinate concurrent writes
// of the same tile; callers serialize them.
type Store struct {
	filePattern string
	rootDir     string
	pathRegexp  *regexp.Regexp
}

// New creates a Store for the given file pattern
// (e.g. "/home/user/tiles/z{z}/tile_{x}_{y}.jpeg"). Directories are created
// lazily on first write.
func New(filePattern string) (*Store, error) {
	if err := validatePattern(filePattern); err != nil {
		return nil, err
	}
	pathRegexp, err := compilePattern(filePattern)
	if err != nil {
		return nil, err
	}

	path0 := formatPattern(filePattern, tile.ID{X: 0, Y: 0, Z: 0})
	path1 := formatPattern(filePattern, tile.ID{X: 1, Y: 1, Z: 1})
	for path0 != path1 {
		path0 = filepath.Dir(path0)
		path1 = filepath.Dir(path1)
	}

	return &Store{filePattern: filePattern, rootDir: path0, pathRegexp: pathRegexp}, nil
}

// Root returns the deepest directory shared by all tile paths.
func (s *Store) Root() string {
	return s.rootDir
}

// Path returns the file path of a tile.
func (s *Store) Path(tileID tile.ID) string {
	return formatPattern(s.filePattern, tileID)
}

func (s *Store) ReadTile(tileID tile.ID) ([]byte, error) {
	tileData, err := os.ReadFile(s.Path(tileID))
	if errors.Is(err, fs.ErrNotExist) {
		return make([]byte, 0), nil
	}
	if err != nil {
		return nil, err
	}
	return tileData, nil
}

// WriteTile stores the tile, replacing any previous version. Empty tiles are
// not stored, since an empty read means a missing tile.
func (s *Store) WriteTile(tileID tile.ID, tileData []byte) error {
	if len(tileData) == 0 {
		return nil
	}
	filePath := s.Path(tileID)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	return writeFileAtomic(filePath, tileData, 0644)
}

func (s *Store) Finalize() error {
	return nil
}

// RemoveTile deletes a tile. It reports whether the tile existed.
func (s *Store) RemoveTile(tileID tile.ID) (bool, error) {
	err := os.Remove(s.Path(tileID))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) VisitIDs(visitor func(tile.ID) error) error {
	return s.walk(func(tileID tile.ID, _ string) error {
		return visitor(tileID)
	})
}

func (s *Store) VisitTiles(visitor func(tile.ID, []byte) error) error {
	return s.walk(func(tileID tile.ID, filePath string) error {
		tileData, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}
		return visitor(tileID, tileData)
	})
}

// RemoveStale deletes temporary files left behind by interrupted writes.
func (s *Store) RemoveStale() (int, error) {
	removed := 0
	err := filepath.WalkDir(s.rootDir, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || !isTempFile(d.Name()) {
			return nil
		}
		if err := os.Remove(filePath); err != nil {
			return err
		}
		removed++
		return nil
	})
	return removed, err
}

func (s *Store) walk(visitor func(tile.ID, string) error) error {
	err := filepath.WalkDir(s.rootDir, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		tileID, ok := parsePath(s.pathRegexp, filePath)
		if !ok {
			return nil // foreign and temporary files
		}
		return visitor(tileID, filePath)
	})
	if errors.Is(err, fs.ErrNotExist) {
		if _, statErr := os.Stat(s.rootDir); errors.Is(statErr, fs.ErrNotExist) {
			return nil
		}
	}
	return err
}

func isTempFile(name string) bool {
	return strings.HasPrefix(name, ".") && strings.Contains(name, tempMarker)
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it over filePath.
func writeFileAtomic(filePath string, data []byte, perm os.FileMode) (err error) {
	dir, base := filepath.Split(filePath)
	f, err := os.CreateTemp(dir, "."+base+tempMarker+"*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if _, err = f.Write(data); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Chmod(perm); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), filePath)
}

package fs

import (
	"os"
	"path/filepath"
	"time"
)

type MockFileInfo struct {
	IsDirValue bool
	SizeValue  int64
	path       string
}

func (m MockFileInfo) Name() string       { return filepath.Base(m.path) }
func (m MockFileInfo) IsDir() bool        { return m.IsDirValue }
func (m MockFileInfo) Size() int64        { return m.SizeValue }
func (m MockFileInfo) Mode() os.FileMode  { return 0o600 }
func (m MockFileInfo) ModTime() time.Time { return time.Time{} }
func (m MockFileInfo) Sys() interface{}   { return nil }

// MockFS knows only the paths in Entries, anything else does not exist.
// Err fails every call when set.
type MockFS struct {
	Entries map[string]MockFileInfo
	Dir     string
	Err     error
}

func (fs MockFS) Stat(name string) (os.FileInfo, error) {
	if fs.Err != nil {
		return nil, fs.Err
	}

	info, ok := fs.Entries[name]
	if !ok {
		return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
	}
	info.path = name

	return info, nil
}

// Open checks the path like Stat. It never returns a real file.
func (fs MockFS) Open(name string) (*os.File, error) {
	_, err := fs.Stat(name)
	return nil, err
}

func (fs MockFS) Getwd() (string, error) { return fs.Dir, fs.Err }

package fs

import (
	"errors"
	"os"
)

type Filesystem interface {
	Stat(string) (os.FileInfo, error)
	Open(string) (*os.File, error)
	Getwd() (string, error)
}

type OS struct{}

func (OS) Open(name string) (*os.File, error)    { return os.Open(name) }
func (OS) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }
func (OS) Getwd() (string, error)                { return os.Getwd() }

// Exists reports whether name exists. Errors other than a missing file count
// as existing so callers surface them when they open the file.
func Exists(fsys Filesystem, name string) bool {
	_, err := fsys.Stat(name)
	return !errors.Is(err, os.ErrNotExist)
}

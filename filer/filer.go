// Package filer is the file system interface used by daylog and its subpackages.
// Override it to gain control of (or simulate failures in) file operations.
package filer

//go:generate mockgen -destination=../mocks/filer.go -package=mocks golift.io/daylog/filer Filer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Filer is used to override file-managing procedures.
type Filer interface {
	Remove(fileName string) error
	Rename(fileName, newPath string) error
	MkdirAll(path string, perm os.FileMode) error
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)
	Stat(fileName string) (os.FileInfo, error)
}

// Default returns a Filer interface that works, using default procedures.
func Default() Filer {
	return &File{}
}

// File can be embedded in a custom type to provide the missing methods for the Filer interface.
type File struct{}

// Remove provides os.Remove.
func (f *File) Remove(fileName string) error {
	return os.Remove(fileName)
}

// Rename provides os.Rename. Beware: on most systems this replaces an existing newPath.
func (f *File) Rename(fileName, newPath string) error {
	return os.Rename(fileName, newPath)
}

// MkdirAll provides os.MkdirAll.
func (f *File) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// OpenFile provides os.OpenFile.
func (f *File) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, flag, perm)
}

// Stat provides os.Stat.
func (f *File) Stat(fileName string) (os.FileInfo, error) {
	info, err := os.Stat(fileName)
	if err != nil {
		return nil, fmt.Errorf("stat err: %w", err)
	}

	return info, nil
}

// Exists reports whether fileName is present. A missing file is not an error;
// any other Stat failure is returned because the answer is unknown.
func Exists(filer Filer, fileName string) (bool, error) {
	_, err := filer.Stat(fileName)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

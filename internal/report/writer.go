package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var ErrWrite = errors.New("write error")

// WriteError reports that the workbook could not be written to Path. The
// previous content of Path, if any, is left untouched.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write report %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Is(target error) bool { return target == ErrWrite }

// WriteFile renders tables and replaces path with the result in one step:
// the workbook goes to a temporary file next to path and is renamed over it
// only once fully written.
func WriteFile(path string, tables []Table, opts Options) error {
	err := writeFileAtomic(path, 0o644, func(w io.Writer) error {
		return Write(w, tables, opts)
	})
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func writeFileAtomic(path string, perm os.FileMode, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	renamed := false
	defer func() {
		if renamed {
			return
		}
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	renamed = true
	return nil
}

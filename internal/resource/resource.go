// Package resource answers the two file questions the tools ask: does a path
// name a regular file, and what does a bundled help text say.
package resource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrResourceUnavailable is matched by every failure to read a resource.
var ErrResourceUnavailable = errors.New("resource unavailable")

// Error keeps the underlying I/O error of a failed read.
type Error struct {
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrResourceUnavailable, e.Name, e.Err)
}

func (e *Error) Is(target error) bool { return target == ErrResourceUnavailable }

func (e *Error) Unwrap() error { return e.Err }

// FileExists reports whether path names a regular file. Any stat failure,
// a missing path included, reads as false.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Loader reads help texts from Dir.
type Loader struct {
	Dir string
}

// ReadHelpText returns the whole content of the named file in l.Dir. Names
// that would leave the directory are refused.
func (l Loader) ReadHelpText(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", &Error{Name: name, Err: os.ErrInvalid}
	}
	b, err := os.ReadFile(filepath.Join(l.Dir, name))
	if err != nil {
		return "", &Error{Name: name, Err: err}
	}
	return string(b), nil
}

// Topics lists the help texts available in l.Dir.
func (l Loader) Topics() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, &Error{Name: l.Dir, Err: err}
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

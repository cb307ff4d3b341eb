// Package storage is the filesystem collaborator behind the /files routes.
//
// A Store resolves slash-separated names relative to a root directory. Names
// that would resolve outside the root are rejected with ErrOutsideRoot.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrOutsideRoot indicates a name that escapes the storage root (e.g. "../x").
	ErrOutsideRoot = errors.New("storage: name escapes storage root")

	// ErrInvalidName indicates an empty name or one that names the root itself.
	ErrInvalidName = errors.New("storage: invalid file name")
)

// Store reads and writes whole files by name.
type Store interface {
	// ReadFile returns the full contents of name.
	// Missing files yield an error matching fs.ErrNotExist.
	ReadFile(name string) ([]byte, error)

	// WriteFile replaces name with data, creating parent directories.
	WriteFile(name string, data []byte) error

	// Exists reports whether name is an existing regular file.
	Exists(name string) bool
}

// FilesystemError records a failed storage operation.
//
// Example:
//
//	err := &FilesystemError{Op: "read", Name: "foo.txt", Err: fs.ErrPermission}
type FilesystemError struct {
	// Op is the operation being performed ("read", "write", "mkdir").
	Op string

	// Name is the file name as requested, relative to the root.
	Name string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *FilesystemError) Error() string {
	return fmt.Sprintf("storage: %s %q: %v", e.Op, e.Name, e.Err)
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// Dir is a Store rooted at a directory on the local filesystem.
type Dir struct {
	root     string
	filePerm os.FileMode
	dirPerm  os.FileMode
}

// Options configures a Dir.
type Options struct {
	// FilePerm is the permission used for new files (default 0644).
	FilePerm os.FileMode

	// DirPerm is the permission used for created directories (default 0755).
	DirPerm os.FileMode

	// Create makes the root directory if it does not exist.
	Create bool
}

// NewDir returns a Store rooted at root.
func NewDir(root string, opts Options) (*Dir, error) {
	if root == "" {
		return nil, &FilesystemError{Op: "open", Name: root, Err: ErrInvalidName}
	}
	if opts.FilePerm == 0 {
		opts.FilePerm = 0o644
	}
	if opts.DirPerm == 0 {
		opts.DirPerm = 0o755
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &FilesystemError{Op: "open", Name: root, Err: err}
	}

	if opts.Create {
		if err := os.MkdirAll(abs, opts.DirPerm); err != nil {
			return nil, &FilesystemError{Op: "mkdir", Name: root, Err: err}
		}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, &FilesystemError{Op: "open", Name: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &FilesystemError{Op: "open", Name: root, Err: fmt.Errorf("not a directory")}
	}

	return &Dir{root: abs, filePerm: opts.FilePerm, dirPerm: opts.DirPerm}, nil
}

// Root returns the absolute root directory.
func (d *Dir) Root() string {
	return d.root
}

// resolve maps a slash-separated name to a path under the root.
func (d *Dir) resolve(name string) (string, error) {
	if name == "" {
		return "", ErrInvalidName
	}
	full := filepath.Join(d.root, filepath.FromSlash(name))
	rel, err := filepath.Rel(d.root, full)
	if err != nil {
		return "", ErrOutsideRoot
	}
	if rel == "." {
		return "", ErrInvalidName
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return full, nil
}

// ReadFile implements Store.
func (d *Dir) ReadFile(name string) ([]byte, error) {
	path, err := d.resolve(name)
	if err != nil {
		return nil, &FilesystemError{Op: "read", Name: name, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FilesystemError{Op: "read", Name: name, Err: err}
	}
	return data, nil
}

// WriteFile implements Store.
func (d *Dir) WriteFile(name string, data []byte) error {
	path, err := d.resolve(name)
	if err != nil {
		return &FilesystemError{Op: "write", Name: name, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), d.dirPerm); err != nil {
		return &FilesystemError{Op: "mkdir", Name: name, Err: err}
	}
	if err := os.WriteFile(path, data, d.filePerm); err != nil {
		return &FilesystemError{Op: "write", Name: name, Err: err}
	}
	return nil
}

// Exists implements Store.
func (d *Dir) Exists(name string) bool {
	path, err := d.resolve(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsNotExist reports whether err means the named file is absent or could never
// exist under the root (escaping or empty names).
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, ErrOutsideRoot) ||
		errors.Is(err, ErrInvalidName)
}

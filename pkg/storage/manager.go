package storage

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
)

// TempSuffix is appended to a target path while its bytes are being written
const TempSuffix = ".tmp"

// Manager performs the filesystem side of a download run. It never deletes files.
type Manager struct {
	fs afero.Fs
}

// NewManager creates a storage manager on fs. A nil fs means the OS filesystem.
func NewManager(fs afero.Fs) *Manager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Manager{fs: fs}
}

// Fs returns the underlying filesystem
func (m *Manager) Fs() afero.Fs {
	return m.fs
}

// EnsureDir creates dir and any missing parents. It reports whether the directory was created.
func (m *Manager) EnsureDir(dir string) (bool, error) {
	exists, err := afero.DirExists(m.fs, dir)
	if err != nil {
		return false, fmt.Errorf("failed to stat directory: %w", err)
	}
	if exists {
		return false, nil
	}
	if err := m.fs.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create directory: %w", err)
	}
	return true, nil
}

// TempPath returns the temporary file name used for target
func TempPath(target string) string {
	return target + TempSuffix
}

// WriteTemp hands stream a writer for the temporary file of target. The file
// is created or truncated on the first write, so a stream that fails before
// sending any byte leaves nothing on disk. A stream that succeeds without
// writing still produces an empty file. On failure a partial file stays in place.
func (m *Manager) WriteTemp(target string, stream func(io.Writer) error) (string, int64, error) {
	tmp := TempPath(target)

	lw := &lazyFile{fs: m.fs, path: tmp}
	streamErr := stream(lw)
	if streamErr == nil && lw.f == nil {
		if _, err := lw.open(); err != nil {
			return tmp, 0, err
		}
	}
	closeErr := lw.Close()

	if streamErr != nil {
		return tmp, lw.n, streamErr
	}
	if closeErr != nil {
		return tmp, lw.n, fmt.Errorf("failed to close temporary file: %w", closeErr)
	}
	return tmp, lw.n, nil
}

// Finalize renames tmp to final. Without overwrite, a non-empty file already
// at final is left untouched, tmp stays where it is, and false is returned.
// An empty file at final is always replaced.
func (m *Manager) Finalize(tmp, final string, overwrite bool) (bool, error) {
	if !overwrite {
		if size, ok := m.Size(final); ok && size > 0 {
			return false, nil
		}
	}

	if err := m.fs.Rename(tmp, final); err != nil {
		return false, fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return true, nil
}

// Size returns the size of the regular file at path, or false if there is none
func (m *Manager) Size(path string) (int64, bool) {
	info, err := m.fs.Stat(path)
	if err != nil || info.IsDir() {
		return 0, false
	}
	return info.Size(), true
}

// CountFiles returns the number of regular files directly inside dir
func (m *Manager) CountFiles(dir string) (int, error) {
	entries, err := afero.ReadDir(m.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read directory: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.Mode().IsRegular() {
			count++
		}
	}
	return count, nil
}

// lazyFile creates its file on the first Write and counts the bytes written
type lazyFile struct {
	fs   afero.Fs
	path string
	f    afero.File
	n    int64
}

func (l *lazyFile) open() (afero.File, error) {
	if l.f == nil {
		f, err := l.fs.Create(l.path)
		if err != nil {
			return nil, fmt.Errorf("failed to create temporary file: %w", err)
		}
		l.f = f
	}
	return l.f, nil
}

func (l *lazyFile) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	f, err := l.open()
	if err != nil {
		return 0, err
	}
	n, err := f.Write(p)
	l.n += int64(n)
	return n, err
}

func (l *lazyFile) Close() error {
	if l.f == nil {
		return nil
	}
	return l.f.Close()
}

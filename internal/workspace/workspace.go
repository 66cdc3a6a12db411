// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     workspace
// Description: File discovery, reading and writing over an abstract
//              filesystem. Written files keep their original line endings.
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	mdwerrors "github.com/msto63/structlint/pkg/core/errors"
)

// Workspace resolves and accesses configuration files
type Workspace struct {
	fs         afero.Fs
	extensions []string
}

// New creates a workspace over fs that collects files with the given
// extensions (including the dot, matched case-insensitively)
func New(fs afero.Fs, extensions []string) *Workspace {
	exts := make([]string, len(extensions))
	for i, e := range extensions {
		exts[i] = strings.ToLower(e)
	}
	return &Workspace{fs: fs, extensions: exts}
}

// NewOS creates a workspace on the real filesystem
func NewOS(extensions []string) *Workspace {
	return New(afero.NewOsFs(), extensions)
}

// Fs returns the underlying filesystem
func (w *Workspace) Fs() afero.Fs {
	return w.fs
}

// Collect expands paths into a sorted, duplicate-free list of files.
// Directories are walked recursively and contribute only files with a
// matching extension; files named explicitly are always included.
func (w *Workspace) Collect(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := w.fs.Stat(root)
		if err != nil {
			return nil, ioErr(err, "cannot access path", "collect", root)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = afero.Walk(w.fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if path != root && strings.HasPrefix(info.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if w.matches(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, ioErr(err, "failed to walk directory", "collect", root)
		}
	}

	sort.Strings(files)
	return files, nil
}

func (w *Workspace) matches(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Read returns the content of a file
func (w *Workspace) Read(path string) (string, error) {
	data, err := afero.ReadFile(w.fs, path)
	if err != nil {
		return "", ioErr(err, "failed to read file", "read", path)
	}
	return string(data), nil
}

// Write replaces the content of a file, keeping its permissions. If the
// existing file uses CRLF line endings, LF-only lines in text are converted.
func (w *Workspace) Write(path, text string) error {
	mode := os.FileMode(0644)
	if info, err := w.fs.Stat(path); err == nil {
		mode = info.Mode().Perm()
		if old, err := afero.ReadFile(w.fs, path); err == nil && DetectLineEnding(string(old)) == CRLF {
			text = ToCRLF(text)
		}
	}
	if err := afero.WriteFile(w.fs, path, []byte(text), mode); err != nil {
		return ioErr(err, "failed to write file", "write", path)
	}
	return nil
}

// LineEnding is the line terminator a file uses
type LineEnding string

const (
	LF   LineEnding = "\n"
	CRLF LineEnding = "\r\n"
)

// DetectLineEnding returns CRLF if the first line break of text is CRLF
func DetectLineEnding(text string) LineEnding {
	i := strings.IndexByte(text, '\n')
	if i > 0 && text[i-1] == '\r' {
		return CRLF
	}
	return LF
}

// ToCRLF converts bare LF line breaks to CRLF; existing CRLF stays
func ToCRLF(text string) string {
	return strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\n", "\r\n")
}

func ioErr(err error, msg, op, path string) error {
	code := mdwerrors.CodeIOError
	if os.IsNotExist(err) {
		code = mdwerrors.CodeNotFound
	}
	return mdwerrors.Wrap(err, msg).
		WithCode(code).
		WithOperation("workspace." + op).
		WithDetail("path", path)
}

package syntax

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/spicery/nutmeg-highlighter/pkg/highlight"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// DefaultFiles parses the built-in definitions, sorted by name.
func DefaultFiles() ([]*File, error) {
	paths, err := fs.Glob(defaultsFS, "defaults/*.yaml")
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var files []*File
	for _, p := range paths {
		data, err := defaultsFS.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read built-in syntax '%s': %w", p, err)
		}
		f, err := Parse(data, "builtin:"+path.Base(p))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// DefaultFile returns the built-in definition with the given name.
func DefaultFile(name string) (*File, bool) {
	files, err := DefaultFiles()
	if err != nil {
		return nil, false
	}
	for _, f := range files {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Defaults builds the built-in highlighters.
func Defaults() ([]*highlight.Highlighter, highlight.Diagnostics, error) {
	files, err := DefaultFiles()
	if err != nil {
		return nil, nil, err
	}
	return Build(files...)
}

// Collect returns the built-in definitions overlaid with every definition
// found in dirs. A file in a directory replaces the built-in or earlier
// file of the same name. Directory errors are joined into the returned
// error, and the files that did load are still returned.
func Collect(l *Loader, dirs []string) ([]*File, error) {
	builtins, err := DefaultFiles()
	if err != nil {
		return nil, err
	}
	var order []string
	byName := map[string]*File{}
	put := func(f *File) {
		if _, ok := byName[f.Name]; !ok {
			order = append(order, f.Name)
		}
		byName[f.Name] = f
	}
	for _, f := range builtins {
		put(f)
	}

	var errs []error
	for _, dir := range dirs {
		files, err := l.LoadDir(dir)
		if err != nil {
			errs = append(errs, err)
		}
		for _, f := range files {
			put(f)
		}
	}

	out := make([]*File, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out, errors.Join(errs...)
}

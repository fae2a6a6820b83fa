package syntax

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/spicery/nutmeg-highlighter/internal/log"
)

const (
	DefaultExpiration      = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute
)

// Loader reads definition files, caching parsed results by path and
// modification time so a directory reload only re-parses changed files.
type Loader struct {
	cache *gocache.Cache
}

// NewLoader creates a loader with the default cache lifetimes.
func NewLoader() *Loader {
	return NewLoaderWithExpiration(DefaultExpiration, DefaultCleanupInterval)
}

// NewLoaderWithExpiration creates a loader whose cache entries live for
// expiration.
func NewLoaderWithExpiration(expiration, cleanupInterval time.Duration) *Loader {
	return &Loader{cache: gocache.New(expiration, cleanupInterval)}
}

func cacheKey(path string, mod time.Time, size int64) string {
	return path + "@" + strconv.FormatInt(mod.UnixNano(), 10) + ":" + strconv.FormatInt(size, 10)
}

// Load returns the parsed file at path.
func (l *Loader) Load(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read syntax file '%s': %w", path, err)
	}
	key := cacheKey(path, info.ModTime(), info.Size())
	if v, found := l.cache.Get(key); found {
		if f, ok := v.(*File); ok {
			log.Debug(log.CatSyntax, "cache hit", "path", path)
			return f, nil
		}
		log.Error(log.CatSyntax, "wrong type in syntax cache", "key", key)
	}

	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	l.Invalidate(path)
	l.cache.Set(key, f, gocache.DefaultExpiration)
	log.Debug(log.CatSyntax, "parsed syntax file", "path", path, "name", f.Name)
	return f, nil
}

// Invalidate drops every cached version of path.
func (l *Loader) Invalidate(path string) {
	prefix := path + "@"
	for key := range l.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			l.cache.Delete(key)
		}
	}
}

// Flush empties the cache.
func (l *Loader) Flush() { l.cache.Flush() }

// IsDefinitionFile reports whether path looks like a syntax definition.
func IsDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadDir loads every .yaml and .yml file in dir, in name order. Files that
// fail to load are left out and their errors joined into the returned
// error; the rest are still returned.
func (l *Loader) LoadDir(dir string) ([]*File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read syntax directory '%s': %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsDefinitionFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	var files []*File
	var errs []error
	for _, p := range paths {
		f, err := l.Load(p)
		if err != nil {
			log.ErrorErr(log.CatSyntax, "rejected syntax file", err, "path", p)
			errs = append(errs, err)
			continue
		}
		files = append(files, f)
	}
	return files, errors.Join(errs...)
}

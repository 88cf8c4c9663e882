// Package catalog manages a peer's local file directories: shared/ for
// the peer's own files, downloaded/ for search downloads, replicated/
// for files fetched on the server's replication instructions.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rudransh-shrivastava/peer-index/internal/protocol"
)

var (
	ErrNotFound    = errors.New("file not in catalog")
	ErrInvalidName = errors.New("invalid file name")
)

type Catalog struct {
	root string
}

// New ensures the three catalog directories exist under root.
func New(root string) (*Catalog, error) {
	c := &Catalog{root: root}
	for _, dir := range []string{c.SharedDir(), c.DownloadedDir(), c.ReplicatedDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return c, nil
}

func (c *Catalog) Root() string          { return c.root }
func (c *Catalog) SharedDir() string     { return filepath.Join(c.root, "shared") }
func (c *Catalog) DownloadedDir() string { return filepath.Join(c.root, "downloaded") }
func (c *Catalog) ReplicatedDir() string { return filepath.Join(c.root, "replicated") }

// ListShared enumerates the peer's own files with sizes, sorted by name.
func (c *Catalog) ListShared() ([]protocol.FileInfo, error) {
	return listDir(c.SharedDir())
}

// ListServable is the registration list: the union of shared/ and
// replicated/. On a name collision the shared copy wins.
func (c *Catalog) ListServable() ([]protocol.FileInfo, error) {
	shared, err := c.ListShared()
	if err != nil {
		return nil, err
	}
	replicated, err := listDir(c.ReplicatedDir())
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(shared))
	for _, f := range shared {
		seen[f.Name] = struct{}{}
	}
	union := shared
	for _, f := range replicated {
		if _, dup := seen[f.Name]; dup {
			continue
		}
		union = append(union, f)
	}
	sort.Slice(union, func(i, j int) bool { return union[i].Name < union[j].Name })
	return union, nil
}

// Open finds name in shared/ then replicated/ and opens it for serving.
func (c *Catalog) Open(name string) (*os.File, int64, error) {
	if !ValidName(name) {
		return nil, 0, ErrInvalidName
	}

	for _, dir := range []string{c.SharedDir(), c.ReplicatedDir()} {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, 0, fmt.Errorf("opening %s: %w", path, err)
		}
		return f, info.Size(), nil
	}
	return nil, 0, ErrNotFound
}

// ValidName rejects names that could escape the catalog directories.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return true
}

func listDir(dir string) ([]protocol.FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	files := make([]protocol.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, protocol.FileInfo{Name: entry.Name(), Size: info.Size()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
